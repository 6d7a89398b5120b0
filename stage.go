// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import (
	"fmt"
	"slices"
	"strings"
)

// MaxOps is the maximum number of operations in a stage.
const MaxOps = 4

// OpKind identifies a stage operation.
type OpKind uint8

const (
	// OpLoad sets the running value to Param1.
	OpLoad OpKind = iota
	// OpSub subtracts Param1 from the running value.
	OpSub
	// OpMul multiplies the running value by Param1.
	OpMul
	// OpAdd adds Param1 to the running value.
	OpAdd
	// OpInterpolate sets the running value to mix(Param2, Param1, Param3),
	// that is Param2 + (Param1 - Param2) * Param3.
	OpInterpolate
)

func (k OpKind) String() string {
	switch k {
	case OpLoad:
		return "LOAD"
	case OpSub:
		return "SUB"
	case OpMul:
		return "MUL"
	case OpAdd:
		return "ADD"
	case OpInterpolate:
		return "INTER"
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Op is one stage operation. Param2 and Param3 are only meaningful for
// OpInterpolate, where Param1 is the target, Param2 the origin and Param3
// the weight.
type Op struct {
	Kind   OpKind
	Param1 Operand
	Param2 Operand
	Param3 Operand
}

// Load returns a load of o.
func Load(o Operand) Op { return Op{Kind: OpLoad, Param1: o} }

// Sub returns a subtraction of o.
func Sub(o Operand) Op { return Op{Kind: OpSub, Param1: o} }

// Mul returns a multiplication by o.
func Mul(o Operand) Op { return Op{Kind: OpMul, Param1: o} }

// Add returns an addition of o.
func Add(o Operand) Op { return Op{Kind: OpAdd, Param1: o} }

// Interpolate returns mix(from, to, weight).
func Interpolate(to, from, weight Operand) Op {
	return Op{Kind: OpInterpolate, Param1: to, Param2: from, Param3: weight}
}

// Params returns the operands read by op.
func (op Op) Params() []Operand {
	if op.Kind == OpInterpolate {
		return []Operand{op.Param1, op.Param2, op.Param3}
	}
	return []Operand{op.Param1}
}

// Reads reports whether op reads o.
func (op Op) Reads(o Operand) bool { return slices.Contains(op.Params(), o) }

func (op Op) String() string {
	if op.Kind == OpInterpolate {
		return fmt.Sprintf("INTER(to=%v, from=%v, weight=%v)", op.Param1, op.Param2, op.Param3)
	}
	return fmt.Sprintf("%v(%v)", op.Kind, op.Param1)
}

// Stage is the simplified operation list of one cycle of one channel.
type Stage struct {
	Ops [MaxOps]Op
	N   int
}

// NewStage builds a stage from ops. It panics if more than MaxOps are given.
func NewStage(ops ...Op) Stage {
	if len(ops) > MaxOps {
		panic(fmt.Sprintf("combiner: %d ops exceed stage capacity %d", len(ops), MaxOps))
	}
	var s Stage
	s.N = copy(s.Ops[:], ops)
	return s
}

// List returns the active operations.
func (s *Stage) List() []Op { return s.Ops[:s.N] }

func (s *Stage) push(op Op) {
	s.Ops[s.N] = op
	s.N++
}

// Validate checks the structural rules every backend relies on: 1 to
// MaxOps operations, Load or Interpolate first and only first, valid
// operands.
func (s *Stage) Validate() error {
	if s.N < 1 || s.N > MaxOps {
		return fmt.Errorf("combiner: stage has %d ops, want 1..%d", s.N, MaxOps)
	}
	for i, op := range s.List() {
		head := op.Kind == OpLoad || op.Kind == OpInterpolate
		if i == 0 && !head {
			return fmt.Errorf("combiner: stage starts with %v", op.Kind)
		}
		if i > 0 && head {
			return fmt.Errorf("combiner: %v at position %d", op.Kind, i)
		}
		if op.Kind > OpInterpolate {
			return fmt.Errorf("combiner: unknown op %v", op.Kind)
		}
		for _, p := range op.Params() {
			if !p.Valid() {
				return fmt.Errorf("combiner: op %d reads %v", i, p)
			}
		}
	}
	return nil
}

// Usage returns the operands referenced by the stage.
func (s *Stage) Usage() UsageMask {
	var m UsageMask
	for _, op := range s.List() {
		for _, p := range op.Params() {
			m = m.Add(p)
		}
	}
	return m
}

// References reports whether any operation reads o.
func (s *Stage) References(o Operand) bool {
	for _, op := range s.List() {
		if op.Reads(o) {
			return true
		}
	}
	return false
}

func (s Stage) String() string {
	parts := make([]string, s.N)
	for i, op := range s.List() {
		parts[i] = op.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Pipeline is the per-channel program: one stage per active cycle.
type Pipeline struct {
	Stages    [2]Stage
	NumStages int
}

// Active returns the stages that are evaluated.
func (p *Pipeline) Active() []Stage { return p.Stages[:p.NumStages] }

// Usage returns the operands referenced by the active stages.
func (p *Pipeline) Usage() UsageMask {
	var m UsageMask
	for i := range p.NumStages {
		m |= p.Stages[i].Usage()
	}
	return m
}

// Validate checks the stage count and every active stage.
func (p *Pipeline) Validate() error {
	if p.NumStages < 1 || p.NumStages > 2 {
		return fmt.Errorf("combiner: pipeline has %d stages", p.NumStages)
	}
	for i := range p.NumStages {
		if err := p.Stages[i].Validate(); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return nil
}

// Combiner is a compiled-ready combine mode: simplified and possibly merged
// color and alpha pipelines for one descriptor.
type Combiner struct {
	Key   Descriptor
	Color Pipeline
	Alpha Pipeline
}

// Usage returns the operands referenced by either channel.
func (c *Combiner) Usage() UsageMask { return c.Color.Usage() | c.Alpha.Usage() }

// Validate checks both channels.
func (c *Combiner) Validate() error {
	if err := c.Color.Validate(); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if err := c.Alpha.Validate(); err != nil {
		return fmt.Errorf("alpha: %w", err)
	}
	return nil
}

// MustValidate panics if c is malformed. Backends call it before lowering:
// a malformed combiner means decode or simplification is broken, which no
// backend can recover from.
func (c *Combiner) MustValidate() {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("combiner: malformed combiner %v: %v", c.Key, err))
	}
}

func (c *Combiner) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v\n", c.Key)
	for i, s := range c.Color.Active() {
		fmt.Fprintf(&b, "  color %d: %v\n", i, s)
	}
	for i, s := range c.Alpha.Active() {
		fmt.Fprintf(&b, "  alpha %d: %v\n", i, s)
	}
	return b.String()
}
