// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/combiner"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none of the registered backends can start.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoDevice is returned by GPU backends started without a HAL device.
	ErrNoDevice = errors.New("backend: no GPU device")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("backend: provider does not expose HAL types")
)

// Backend name constants.
const (
	// NameShader is the programmable shader backend (WGSL via naga).
	NameShader = "shader"
	// NameRegisterCombiner is the general register-combiner backend.
	NameRegisterCombiner = "regcombiner"
	// NameGenericBlend is the chained texture-environment backend.
	NameGenericBlend = "genericblend"
	// NameFixedBlend is the single-texture fixed-function backend.
	NameFixedBlend = "fixedblend"
)

// Features toggles optional per-fragment effects in generated programs.
type Features struct {
	// Fog blends the fog color by the interpolated fog factor.
	Fog bool
	// Noise enables the noise operand and dithering.
	Noise bool
	// LOD enables the computed LOD fraction in generated shaders. When
	// off, shaders read the primitive LOD fraction instead.
	LOD bool
}

// DefaultFeatures returns every feature enabled.
func DefaultFeatures() Features {
	return Features{Fog: true, Noise: true, LOD: true}
}

// Check returns an error wrapping combiner.ErrUnsupported when u reads the
// noise operand while noise is disabled.
func (f Features) Check(u combiner.UsageMask) error {
	if u.UsesNoise() && !f.Noise {
		return fmt.Errorf("%w: noise disabled", combiner.ErrUnsupported)
	}
	return nil
}

// Capabilities describe what the host renderer offers. Backend factories
// probe them to decide whether they can run.
type Capabilities struct {
	// Device and Queue are the HAL device used by GPU backends. When nil,
	// GPU backends try to open their own device.
	Device hal.Device
	Queue  hal.Queue

	// Format is the color target format of compiled pipelines.
	Format gputypes.TextureFormat

	// TextureUnits bounds the combine units of the generic blend backend.
	TextureUnits int

	// GeneralCombiners bounds the stages of the register combiner backend.
	GeneralCombiners int

	Features Features
}

// DefaultCapabilities returns capabilities without a device, with limits
// matching common fixed-function hardware.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Format:           gputypes.TextureFormatBGRA8Unorm,
		TextureUnits:     4,
		GeneralCombiners: 8,
		Features:         DefaultFeatures(),
	}
}

// CapabilitiesFromProvider returns default capabilities using the HAL
// device and surface format of a host provider. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func CapabilitiesFromProvider(provider gpucontext.DeviceProvider) (Capabilities, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	caps := DefaultCapabilities()
	hp, ok := provider.(halProvider)
	if !ok {
		return caps, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return caps, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return caps, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	caps.Device = device
	caps.Queue = queue
	caps.Format = provider.SurfaceFormat()
	return caps, nil
}
