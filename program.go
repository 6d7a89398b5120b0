// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import "errors"

// ErrUnsupported is returned by Compile when a backend cannot express a
// combiner. The render context then serves the backend's fallback program.
var ErrUnsupported = errors.New("combiner: combiner not supported by backend")

// Program is a backend-specific executable form of a Combiner.
type Program interface {
	// Key returns the descriptor the program was compiled from.
	Key() Descriptor
	// Usage returns the operands the program reads, so callers can skip
	// binding textures or computing LOD and noise that are not needed.
	Usage() UsageMask
}

// Evaluator is implemented by programs that can be run on the CPU.
type Evaluator interface {
	Evaluate(f *Fragment) Color
}

// Compiler lowers combiners to programs for one rendering backend.
// Implementations live in the backend sub-packages and are selected once
// at startup.
//
// A Compiler is used from a single rendering goroutine.
type Compiler interface {
	// Name returns the registry name of the backend.
	Name() string

	// MergesStages reports whether two-cycle pipelines should be fused
	// before Compile.
	MergesStages() bool

	// Compile builds a program. It panics if c is malformed and returns
	// an error wrapping ErrUnsupported when the backend cannot express c.
	Compile(c *Combiner) (Program, error)

	// Fallback returns the program served when Compile fails. It is owned
	// by the compiler and never passed to Release.
	Fallback() Program

	// Activate makes p current for subsequent draws.
	Activate(p Program)

	// Update pushes the dynamic values of s into p.
	Update(p Program, s *State)

	// Release frees the resources held by p.
	Release(p Program)

	// Close releases the compiler and its fallback program.
	Close()
}

// FallbackCombiner returns the combiner every backend compiles as its
// fallback program: texture 0 modulated by the vertex color.
func FallbackCombiner() Combiner {
	return Build(ModeShadeTexel0, false)
}
