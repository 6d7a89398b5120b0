// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package shader

import (
	"errors"

	"github.com/gogpu/wgpu/hal"
)

type ownedDevice struct {
	device hal.Device
	queue  hal.Queue
}

func openDevice() (*ownedDevice, error) {
	return nil, errors.New("built with nogpu")
}

func (d *ownedDevice) destroy() {}
