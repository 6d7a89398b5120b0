// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// ErrBadSPIRV is returned when the compiled module is not whole words.
var ErrBadSPIRV = errors.New("shader: SPIR-V length is not a multiple of 4")

// CompileFunc translates WGSL source to SPIR-V words.
type CompileFunc func(wgsl string) ([]uint32, error)

// CompileSPIRV compiles WGSL with naga. SPIR-V is a stream of
// little-endian 32-bit words.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("shader: naga: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadSPIRV, len(spirvBytes))
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}
