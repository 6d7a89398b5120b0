// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func init() {
	backend.Register(backend.NameShader, New)
}

// Option configures a Compiler.
type Option func(*options)

type options struct {
	compile CompileFunc
}

// WithCompileFunc replaces the WGSL to SPIR-V step.
func WithCompileFunc(fn CompileFunc) Option {
	return func(o *options) {
		o.compile = fn
	}
}

// Program is a compiled render pipeline with its uniform buffer.
type Program struct {
	key    combiner.Descriptor
	usage  combiner.UsageMask
	source string

	module    hal.ShaderModule
	pipeline  hal.RenderPipeline
	uniforms  hal.Buffer
	bindGroup hal.BindGroup

	// Last bytes written to uniforms.
	data []byte
}

// Key returns the descriptor the program was compiled from.
func (p *Program) Key() combiner.Descriptor { return p.key }

// Usage returns the operands the program reads.
func (p *Program) Usage() combiner.UsageMask { return p.usage }

// Source returns the generated WGSL.
func (p *Program) Source() string { return p.source }

// Pipeline returns the render pipeline, or nil after Release.
func (p *Program) Pipeline() hal.RenderPipeline { return p.pipeline }

// Uniforms returns the bytes of the last Update.
func (p *Program) Uniforms() []byte { return p.data }

// Compiler builds programs on a HAL device.
type Compiler struct {
	device   hal.Device
	queue    hal.Queue
	owned    *ownedDevice
	format   gputypes.TextureFormat
	features backend.Features
	compile  CompileFunc

	layouts  *layouts
	fallback *Program
	current  *Program
	live     int
}

var _ combiner.Compiler = (*Compiler)(nil)

// New is the registry factory. It uses caps.Device when set and opens
// its own device otherwise.
func New(caps backend.Capabilities) (combiner.Compiler, error) {
	c, err := NewCompiler(caps)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewCompiler creates the shader compiler and its fallback program.
func NewCompiler(caps backend.Capabilities, opts ...Option) (*Compiler, error) {
	o := options{compile: CompileSPIRV}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Compiler{
		device:   caps.Device,
		queue:    caps.Queue,
		format:   caps.Format,
		features: caps.Features,
		compile:  o.compile,
	}
	if c.device == nil {
		owned, err := openDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", backend.ErrNoDevice, err)
		}
		c.owned = owned
		c.device, c.queue = owned.device, owned.queue
	}
	if c.queue == nil {
		c.Close()
		return nil, fmt.Errorf("%w: device without queue", backend.ErrNoDevice)
	}

	l, err := newLayouts(c.device)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("shader: %w", err)
	}
	c.layouts = l

	fb := combiner.FallbackCombiner()
	p, err := c.build(&fb)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("shader: fallback program: %w", err)
	}
	c.fallback = p
	return c, nil
}

func (c *Compiler) build(cb *combiner.Combiner) (*Program, error) {
	cb.MustValidate()
	usage := cb.Usage()
	if err := c.features.Check(usage); err != nil {
		return nil, err
	}
	p := &Program{key: cb.Key, usage: usage, source: Generate(cb, c.features)}
	words, err := c.compile(p.source)
	if err != nil {
		return nil, fmt.Errorf("shader: %v: %w", cb.Key, err)
	}
	if err := c.createResources(p, words); err != nil {
		c.destroyResources(p)
		return nil, fmt.Errorf("shader: %v: %w", cb.Key, err)
	}
	return p, nil
}

// Name returns backend.NameShader.
func (c *Compiler) Name() string { return backend.NameShader }

// MergesStages returns false: a shader evaluates two cycles as cheaply as
// one fused cycle.
func (c *Compiler) MergesStages() bool { return false }

// Compile generates, compiles and links a pipeline for cb.
func (c *Compiler) Compile(cb *combiner.Combiner) (combiner.Program, error) {
	p, err := c.build(cb)
	if err != nil {
		return nil, err
	}
	c.live++
	return p, nil
}

// Fallback returns the program served for unsupported combiners.
func (c *Compiler) Fallback() combiner.Program { return c.fallback }

// Activate makes p the program recorded by Bind.
func (c *Compiler) Activate(p combiner.Program) {
	c.current = c.program(p)
}

// Update writes the uniforms of p.
func (c *Compiler) Update(p combiner.Program, s *combiner.State) {
	sp := c.program(p)
	if sp.uniforms == nil {
		return
	}
	sp.data = PackUniforms(s)
	c.queue.WriteBuffer(sp.uniforms, 0, sp.data)
}

// Release destroys the GPU objects of p.
func (c *Compiler) Release(p combiner.Program) {
	sp := c.program(p)
	if sp == c.fallback || sp.pipeline == nil {
		return
	}
	c.destroyResources(sp)
	c.live--
	if c.current == sp {
		c.current = nil
	}
}

// Close destroys the fallback program and the layouts, then the device
// when the compiler opened it.
func (c *Compiler) Close() {
	if c.fallback != nil {
		c.destroyResources(c.fallback)
		c.fallback = nil
	}
	c.current = nil
	if c.layouts != nil {
		c.layouts.destroy()
		c.layouts = nil
	}
	if c.owned != nil {
		c.owned.destroy()
		c.owned = nil
	}
	c.device, c.queue = nil, nil
}

// Bind records the active program into rp: its pipeline and the uniform
// bind group at group 0. It reports false when no program is active.
func (c *Compiler) Bind(rp hal.RenderPassEncoder) bool {
	if c.current == nil || c.current.pipeline == nil {
		return false
	}
	rp.SetPipeline(c.current.pipeline)
	rp.SetBindGroup(0, c.current.bindGroup, nil)
	return true
}

// TextureLayout returns the layout of bind group 1, which the host fills
// with the tile textures and sampler of programs that sample textures.
func (c *Compiler) TextureLayout() hal.BindGroupLayout {
	if c.layouts == nil {
		return nil
	}
	return c.layouts.textures
}

// Live returns the number of compiled programs not yet released.
func (c *Compiler) Live() int { return c.live }

// Current returns the active program, or nil.
func (c *Compiler) Current() *Program { return c.current }

func (c *Compiler) program(p combiner.Program) *Program {
	sp, ok := p.(*Program)
	if !ok {
		panic(fmt.Sprintf("shader: foreign program %T", p))
	}
	return sp
}
