// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import (
	"errors"
	"io"
	"sync"

	"github.com/gogpu/combiner/internal/cache"
)

// ErrClosed is returned by Close when the context was already closed.
var ErrClosed = errors.New("combiner: render context closed")

// cached is a cache slot. shared marks the compiler's fallback program,
// which the cache must not release.
type cached struct {
	program Program
	shared  bool
}

// RenderContext owns the compiled-program cache, the active program and
// the dynamic state of one rendering context. Programs are not portable
// across contexts: call Reset when the underlying device or backend is
// recreated.
//
// RenderContext is meant for the rendering goroutine. Create it with
// WithLocking to share it.
// RenderContext implements io.Closer.
type RenderContext struct {
	mu      sync.Mutex
	locking bool
	merge   bool

	compiler Compiler
	programs *cache.Tree[Descriptor, cached]
	current  Program
	state    State

	compiles  uint64
	fallbacks uint64
	closed    bool
}

var _ io.Closer = (*RenderContext)(nil)

// NewRenderContext creates a render context compiling with c.
func NewRenderContext(c Compiler, opts ...Option) *RenderContext {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RenderContext{
		locking:  o.locking,
		merge:    o.merge,
		compiler: c,
		programs: cache.NewTree[Descriptor, cached](),
		state:    o.state,
	}
}

func (rc *RenderContext) lock() func() {
	if !rc.locking {
		return func() {}
	}
	rc.mu.Lock()
	return rc.mu.Unlock
}

// Compiler returns the active backend compiler.
func (rc *RenderContext) Compiler() Compiler {
	defer rc.lock()()
	return rc.compiler
}

// SelectOrCompile returns the program for d, compiling it on first use.
// Repeated calls with the same descriptor return the same Program.
// It panics if rc is closed.
func (rc *RenderContext) SelectOrCompile(d Descriptor) Program {
	defer rc.lock()()
	return rc.selectOrCompile(d)
}

func (rc *RenderContext) selectOrCompile(d Descriptor) Program {
	if rc.closed {
		panic("combiner: use of closed RenderContext")
	}
	e, _ := rc.programs.GetOrInsert(d, func() cached { return rc.compile(d) })
	return e.program
}

// compile runs decode, simplify, merge and the backend. A backend error
// is logged and answered with the fallback program.
func (rc *RenderContext) compile(d Descriptor) cached {
	c := Build(d, rc.merge && rc.compiler.MergesStages())
	rc.compiles++

	p, err := rc.compiler.Compile(&c)
	if err != nil {
		rc.fallbacks++
		Logger().Warn("combiner: compile failed, using fallback program",
			"key", d, "backend", rc.compiler.Name(), "err", err)
		return cached{program: rc.compiler.Fallback(), shared: true}
	}
	Logger().Debug("combiner: compiled",
		"key", d, "backend", rc.compiler.Name(), "usage", p.Usage(),
		"color_stages", c.Color.NumStages, "alpha_stages", c.Alpha.NumStages)
	return cached{program: p}
}

// SetCombine selects the program for d and makes it current.
func (rc *RenderContext) SetCombine(d Descriptor) Program {
	defer rc.lock()()
	p := rc.selectOrCompile(d)
	rc.activate(p)
	return p
}

// Activate makes p current. Activating the current program is a no-op.
func (rc *RenderContext) Activate(p Program) {
	defer rc.lock()()
	rc.activate(p)
}

func (rc *RenderContext) activate(p Program) {
	if p == nil || p == rc.current {
		return
	}
	rc.compiler.Activate(p)
	rc.current = p
}

// Current returns the active program, or nil.
func (rc *RenderContext) Current() Program {
	defer rc.lock()()
	return rc.current
}

// State returns the dynamic state. Changes take effect on the next
// UpdateDynamicValues. The pointer is not guarded by the WithLocking
// mutex: only the rendering goroutine may write through it. Other
// goroutines use UpdateState.
func (rc *RenderContext) State() *State {
	return &rc.state
}

// UpdateState calls fn with the dynamic state while holding the context
// lock.
func (rc *RenderContext) UpdateState(fn func(*State)) {
	defer rc.lock()()
	fn(&rc.state)
}

// UpdateDynamicValues pushes the current State into the active program.
func (rc *RenderContext) UpdateDynamicValues() {
	defer rc.lock()()
	if rc.current != nil {
		rc.compiler.Update(rc.current, &rc.state)
	}
}

// Reset releases every cached program and clears the active program. If
// next is not nil and differs from the current compiler, the current
// compiler is closed and replaced.
func (rc *RenderContext) Reset(next Compiler) {
	defer rc.lock()()
	if rc.closed {
		panic("combiner: use of closed RenderContext")
	}
	rc.destroyAll()
	if next != nil && next != rc.compiler {
		rc.compiler.Close()
		rc.compiler = next
	}
}

// destroyAll releases cached programs in insertion order, skipping the
// shared fallback, then empties the cache.
func (rc *RenderContext) destroyAll() {
	rc.programs.Each(func(_ Descriptor, e cached) {
		if !e.shared {
			rc.compiler.Release(e.program)
		}
	})
	rc.programs.Clear()
	rc.current = nil
	rc.compiles = 0
	rc.fallbacks = 0
}

// Close releases every program and the compiler. Selecting programs on a
// closed context panics.
func (rc *RenderContext) Close() error {
	defer rc.lock()()
	if rc.closed {
		return ErrClosed
	}
	rc.destroyAll()
	rc.compiler.Close()
	rc.closed = true
	return nil
}

// Stats describes cache behavior since creation or the last Reset.
type Stats struct {
	// Programs is the number of cached descriptors.
	Programs int
	// Depth is the height of the cache tree.
	Depth int
	// Hits and Misses count cache lookups.
	Hits, Misses uint64
	// Compiles counts backend compilations.
	Compiles uint64
	// Fallbacks counts compilations answered with the fallback program.
	Fallbacks uint64
}

// Stats returns cache statistics.
func (rc *RenderContext) Stats() Stats {
	defer rc.lock()()
	s := rc.programs.Stats()
	return Stats{
		Programs:  s.Len,
		Depth:     s.Depth,
		Hits:      s.Hits,
		Misses:    s.Misses,
		Compiles:  rc.compiles,
		Fallbacks: rc.fallbacks,
	}
}
