// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"fmt"

	"github.com/gogpu/combiner"
)

// Kernel is a lowered combiner that runs on the CPU.
type Kernel interface {
	Evaluate(in *combiner.Inputs) combiner.Color
}

// Lowering translates a validated combiner into a Kernel. It returns an
// error wrapping combiner.ErrUnsupported when the hardware model cannot
// express c.
type Lowering func(c *combiner.Combiner) (Kernel, error)

// SoftwareProgram is the program type of the CPU backends. It snapshots
// the dynamic state on Update.
type SoftwareProgram struct {
	key    combiner.Descriptor
	usage  combiner.UsageMask
	kernel Kernel
	state  combiner.State
}

var _ combiner.Evaluator = (*SoftwareProgram)(nil)

// Key returns the descriptor the program was compiled from.
func (p *SoftwareProgram) Key() combiner.Descriptor { return p.key }

// Usage returns the operands the program reads.
func (p *SoftwareProgram) Usage() combiner.UsageMask { return p.usage }

// Kernel returns the lowered form, or nil after Release.
func (p *SoftwareProgram) Kernel() Kernel { return p.kernel }

// Evaluate runs the program for one fragment with the last pushed state.
func (p *SoftwareProgram) Evaluate(f *combiner.Fragment) combiner.Color {
	if p.kernel == nil {
		panic("backend: evaluate of released program")
	}
	in := combiner.NewInputs(&p.state, f)
	return p.kernel.Evaluate(&in)
}

// SoftwareCompiler is a combiner.Compiler shared by the CPU backends.
// Each backend supplies its Lowering; the compiler owns the program
// lifecycle and the active program.
type SoftwareCompiler struct {
	name     string
	merges   bool
	lower    Lowering
	fallback *SoftwareProgram
	current  *SoftwareProgram
	live     int
}

var _ combiner.Compiler = (*SoftwareCompiler)(nil)

// NewSoftwareCompiler creates a CPU compiler. The fallback combiner is
// compiled immediately; a backend that cannot express it fails to start.
func NewSoftwareCompiler(name string, merges bool, lower Lowering) (*SoftwareCompiler, error) {
	c := &SoftwareCompiler{name: name, merges: merges, lower: lower}
	fb := combiner.FallbackCombiner()
	p, err := c.build(&fb)
	if err != nil {
		return nil, fmt.Errorf("%s: fallback program: %w", name, err)
	}
	c.fallback = p
	return c, nil
}

func (c *SoftwareCompiler) build(cb *combiner.Combiner) (*SoftwareProgram, error) {
	cb.MustValidate()
	k, err := c.lower(cb)
	if err != nil {
		return nil, err
	}
	return &SoftwareProgram{
		key:    cb.Key,
		usage:  cb.Usage(),
		kernel: k,
		state:  combiner.DefaultState(),
	}, nil
}

// Name returns the registry name of the backend.
func (c *SoftwareCompiler) Name() string { return c.name }

// MergesStages reports whether the backend wants fused pipelines.
func (c *SoftwareCompiler) MergesStages() bool { return c.merges }

// Compile lowers cb.
func (c *SoftwareCompiler) Compile(cb *combiner.Combiner) (combiner.Program, error) {
	p, err := c.build(cb)
	if err != nil {
		return nil, err
	}
	c.live++
	return p, nil
}

// Fallback returns the program served for unsupported combiners.
func (c *SoftwareCompiler) Fallback() combiner.Program { return c.fallback }

// Activate makes p current for Shade.
func (c *SoftwareCompiler) Activate(p combiner.Program) {
	c.current = c.program(p)
}

// Update copies s into p.
func (c *SoftwareCompiler) Update(p combiner.Program, s *combiner.State) {
	c.program(p).state = *s
}

// Release drops the kernel of p.
func (c *SoftwareCompiler) Release(p combiner.Program) {
	sp := c.program(p)
	if sp == c.fallback || sp.kernel == nil {
		return
	}
	sp.kernel = nil
	c.live--
	if c.current == sp {
		c.current = nil
	}
}

// Close releases the fallback program.
func (c *SoftwareCompiler) Close() {
	c.fallback.kernel = nil
	c.current = nil
}

// Live returns the number of compiled programs not yet released.
func (c *SoftwareCompiler) Live() int { return c.live }

// Current returns the active program, or nil.
func (c *SoftwareCompiler) Current() *SoftwareProgram { return c.current }

// Shade evaluates the active program for f, then applies dither, alpha
// test and fog with the program's state. fog is the interpolated fog
// factor. It reports false when the fragment is discarded or no program
// is active.
func (c *SoftwareCompiler) Shade(f *combiner.Fragment, fog float32) (combiner.Color, bool) {
	if c.current == nil {
		return combiner.Color{}, false
	}
	return c.current.state.Resolve(c.current.Evaluate(f), f.Noise, fog)
}

func (c *SoftwareCompiler) program(p combiner.Program) *SoftwareProgram {
	sp, ok := p.(*SoftwareProgram)
	if !ok {
		panic(fmt.Sprintf("backend: %s: foreign program %T", c.name, p))
	}
	return sp
}
