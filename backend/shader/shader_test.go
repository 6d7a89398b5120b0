// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// countingDevice records pipeline creation on top of a noop device.
type countingDevice struct {
	hal.Device
	pipelines int
	destroyed int
	labels    []string
	fail      bool
}

var errPipeline = errors.New("pipeline rejected")

func (d *countingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.fail {
		return nil, errPipeline
	}
	d.pipelines++
	d.labels = append(d.labels, desc.Label)
	return d.Device.CreateRenderPipeline(desc)
}

func (d *countingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.destroyed++
	d.Device.DestroyRenderPipeline(p)
}

// fakeSPIRV skips naga so the lifecycle tests do not depend on its
// feature coverage.
func fakeSPIRV(string) ([]uint32, error) {
	return []uint32{0x07230203, 0x00010000}, nil
}

func newTestCompiler(t *testing.T, opts ...Option) (*Compiler, *countingDevice) {
	t.Helper()
	device, queue := createNoopDevice(t)
	dev := &countingDevice{Device: device}
	caps := backend.DefaultCapabilities()
	caps.Device, caps.Queue = dev, queue
	c, err := NewCompiler(caps, append([]Option{WithCompileFunc(fakeSPIRV)}, opts...)...)
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c, dev
}

func TestCompilerLifecycle(t *testing.T) {
	c, dev := newTestCompiler(t)
	if dev.pipelines != 1 {
		t.Fatalf("pipelines after NewCompiler = %d, want 1 (fallback)", dev.pipelines)
	}
	if c.Bind(nil) {
		t.Error("Bind() with no active program = true")
	}

	cb := combiner.Build(combiner.ModeTexel0, false)
	p, err := c.Compile(&cb)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	sp := p.(*Program)
	if sp.Key() != combiner.ModeTexel0 {
		t.Errorf("Key() = %v, want %v", sp.Key(), combiner.ModeTexel0)
	}
	if !sp.Usage().UsesTile(0) || sp.Usage().UsesTile(1) {
		t.Errorf("Usage() = %v", sp.Usage())
	}
	if !strings.Contains(sp.Source(), "fn fs_main") {
		t.Errorf("Source() has no fragment entry point:\n%s", sp.Source())
	}
	if want := fmt.Sprintf("combiner_%016x", uint64(combiner.ModeTexel0)); dev.labels[1] != want {
		t.Errorf("pipeline label = %q, want %q", dev.labels[1], want)
	}
	if c.Live() != 1 {
		t.Errorf("Live() = %d, want 1", c.Live())
	}

	c.Activate(p)
	if c.Current() != sp {
		t.Error("Activate() did not set the current program")
	}

	s := combiner.DefaultState()
	s.PrimColor = combiner.Color{R: 1, G: 0.5, B: 0.25, A: 1}
	c.Update(p, &s)
	if got := sp.Uniforms(); len(got) != UniformSize || math.Float32frombits(binary.LittleEndian.Uint32(got[4:])) != 0.5 {
		t.Errorf("Uniforms() after Update = %v", got)
	}

	c.Release(p)
	if dev.destroyed != 1 || sp.Pipeline() != nil {
		t.Errorf("Release() destroyed %d pipelines, Pipeline() = %v", dev.destroyed, sp.Pipeline())
	}
	if c.Current() != nil {
		t.Error("Release() of the current program left it current")
	}
	c.Release(p)
	c.Release(c.Fallback())
	if dev.destroyed != 1 || c.Live() != 0 {
		t.Errorf("repeated Release: destroyed = %d, Live() = %d", dev.destroyed, c.Live())
	}

	c.Close()
	if dev.destroyed != 2 {
		t.Errorf("Close() destroyed %d pipelines in total, want 2", dev.destroyed)
	}
	if c.TextureLayout() != nil {
		t.Error("TextureLayout() after Close is not nil")
	}
}

func TestCompileFailureFallsBack(t *testing.T) {
	failTexel1 := func(src string) ([]uint32, error) {
		if strings.Contains(src, "texel1") {
			return nil, errors.New("rejected")
		}
		return fakeSPIRV(src)
	}
	c, dev := newTestCompiler(t, WithCompileFunc(failTexel1))
	rc := combiner.NewRenderContext(c)
	defer rc.Close()

	t1 := combiner.MustEncode(combiner.Mode{
		Cycles: combiner.OneCycle,
		Color: [2]combiner.CycleExpr{
			{A: combiner.Texel1, B: combiner.Zero, C: combiner.Shade, D: combiner.Zero},
			{A: combiner.Texel1, B: combiner.Zero, C: combiner.Shade, D: combiner.Zero},
		},
		Alpha: [2]combiner.CycleExpr{
			{A: combiner.Zero, B: combiner.Zero, C: combiner.Zero, D: combiner.One},
			{A: combiner.Zero, B: combiner.Zero, C: combiner.Zero, D: combiner.One},
		},
	})
	if p := rc.SetCombine(t1); p != c.Fallback() {
		t.Errorf("SetCombine() = %v, want fallback", p)
	}
	if c.Current() != c.Fallback() {
		t.Error("fallback is not current")
	}

	dev.fail = true
	cb := combiner.Build(combiner.ModeTexel0, false)
	if _, err := c.Compile(&cb); !errors.Is(err, errPipeline) {
		t.Errorf("Compile() with failing pipeline = %v, want %v", err, errPipeline)
	}
	if c.Live() != 0 {
		t.Errorf("Live() = %d after failures", c.Live())
	}
}

func TestCompileNoiseDisabled(t *testing.T) {
	device, queue := createNoopDevice(t)
	caps := backend.DefaultCapabilities()
	caps.Device, caps.Queue = device, queue
	caps.Features.Noise = false
	c, err := NewCompiler(caps, WithCompileFunc(fakeSPIRV))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	cb := combiner.Combiner{
		Color: pipeline(combiner.NewStage(combiner.Load(combiner.Noise))),
		Alpha: pipeline(combiner.NewStage(combiner.Load(combiner.One))),
	}
	if _, err := c.Compile(&cb); !errors.Is(err, combiner.ErrUnsupported) {
		t.Errorf("Compile() = %v, want ErrUnsupported", err)
	}
}

func TestNewCompilerWithoutQueue(t *testing.T) {
	device, _ := createNoopDevice(t)
	caps := backend.DefaultCapabilities()
	caps.Device = device
	if _, err := NewCompiler(caps, WithCompileFunc(fakeSPIRV)); !errors.Is(err, backend.ErrNoDevice) {
		t.Errorf("NewCompiler() = %v, want ErrNoDevice", err)
	}
}

func TestForeignProgram(t *testing.T) {
	c, _ := newTestCompiler(t)
	defer func() {
		if recover() == nil {
			t.Error("Activate() of a foreign program did not panic")
		}
	}()
	c.Activate(foreign{})
}

type foreign struct{}

func (foreign) Key() combiner.Descriptor  { return 0 }
func (foreign) Usage() combiner.UsageMask { return 0 }

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.NameShader) {
		t.Fatal("shader backend not registered")
	}
	if got := backend.Available()[0]; got != backend.NameShader {
		t.Errorf("Available()[0] = %q, want %q", got, backend.NameShader)
	}
}
