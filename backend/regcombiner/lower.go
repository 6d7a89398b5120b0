// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package regcombiner

import (
	"fmt"
	"slices"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
)

// Lower maps c onto at most maxStages stages. Ops of the first cycle of
// both channels share stages 0..n1-1, ops of the second cycle follow.
func Lower(c *combiner.Combiner, maxStages int) (*Program, error) {
	n1 := max(c.Color.Stages[0].N, c.Alpha.Stages[0].N)
	n2 := 0
	if c.Color.NumStages == 2 {
		n2 = c.Color.Stages[1].N
	}
	if c.Alpha.NumStages == 2 {
		n2 = max(n2, c.Alpha.Stages[1].N)
	}
	if n1+n2 > maxStages {
		return nil, fmt.Errorf("%w: regcombiner: needs %d stages, have %d",
			combiner.ErrUnsupported, n1+n2, maxStages)
	}

	p := &Program{
		Stages:     make([]Stage, n1+n2),
		ConstRGB:   [2]combiner.Operand{combiner.Zero, combiner.Zero},
		ConstAlpha: [2]combiner.Operand{combiner.Zero, combiner.Zero},
	}
	for i := range p.Stages {
		p.Stages[i] = Stage{RGB: discard, Alpha: discard}
	}

	color := lowerer{
		comp:          ComponentRGB,
		twoStage:      c.Color.NumStages == 2,
		combined:      RegSpare1,
		combinedAlpha: RegSpare0,
		consts:        &p.ConstRGB,
		portion:       func(i int) *Portion { return &p.Stages[i].RGB },
		secondCycle:   n1,
	}
	if c.Alpha.NumStages == 2 {
		color.combinedAlpha = RegSpare1
	}
	if err := color.lower(&c.Color); err != nil {
		return nil, fmt.Errorf("regcombiner: color: %w", err)
	}

	alpha := lowerer{
		alpha:         true,
		comp:          ComponentAlpha,
		twoStage:      c.Alpha.NumStages == 2,
		combined:      RegSpare1,
		combinedAlpha: RegSpare1,
		consts:        &p.ConstAlpha,
		portion:       func(i int) *Portion { return &p.Stages[i].Alpha },
		secondCycle:   n1,
	}
	if err := alpha.lower(&c.Alpha); err != nil {
		return nil, fmt.Errorf("regcombiner: alpha: %w", err)
	}
	return p, nil
}

// lowerer writes one channel into the stage list.
type lowerer struct {
	alpha    bool
	comp     Component
	twoStage bool

	// Registers read for Combined and CombinedAlpha in the second cycle.
	combined      Register
	combinedAlpha Register

	consts      *[2]combiner.Operand
	nconsts     int
	portion     func(stage int) *Portion
	secondCycle int
}

func (l *lowerer) lower(p *combiner.Pipeline) error {
	for si, st := range p.Active() {
		base := 0
		if si == 1 {
			base = l.secondCycle
		}
		ops := st.List()
		for oi, op := range ops {
			out := RegSpare0
			if si == 0 && l.twoStage && oi == len(ops)-1 {
				out = RegSpare1
			}
			portion, err := l.lowerOp(op, si)
			if err != nil {
				return err
			}
			portion.Out = out
			*l.portion(base + oi) = portion
		}
	}
	return nil
}

func (l *lowerer) lowerOp(op combiner.Op, cycle int) (Portion, error) {
	acc := Input{Reg: RegSpare0, Component: l.comp}
	zero := Input{Reg: RegZero, Component: l.comp}
	one := Input{Reg: RegZero, Mapping: MapInvert, Component: l.comp}

	in := func(o combiner.Operand, m Mapping) (Input, error) { return l.input(o, m, cycle) }
	switch op.Kind {
	case combiner.OpLoad:
		x, err := in(op.Param1, MapIdentity)
		return Portion{A: x, B: one, C: zero, D: zero}, err
	case combiner.OpSub:
		x, err := in(op.Param1, MapNegate)
		return Portion{A: acc, B: one, C: x, D: one}, err
	case combiner.OpMul:
		x, err := in(op.Param1, MapIdentity)
		return Portion{A: acc, B: x, C: zero, D: zero}, err
	case combiner.OpAdd:
		x, err := in(op.Param1, MapIdentity)
		return Portion{A: acc, B: one, C: x, D: one}, err
	case combiner.OpInterpolate:
		to, err1 := in(op.Param1, MapIdentity)
		from, err2 := in(op.Param2, MapIdentity)
		w, err3 := in(op.Param3, MapIdentity)
		invW, err4 := in(op.Param3, MapInvert)
		return Portion{A: to, B: w, C: from, D: invW}, firstErr(err1, err2, err3, err4)
	}
	return Portion{}, fmt.Errorf("regcombiner: unknown op %v", op.Kind)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// input returns the mapped register input reading o.
func (l *lowerer) input(o combiner.Operand, m Mapping, cycle int) (Input, error) {
	if o == combiner.One {
		// One is the inverted zero register; fold the requested mapping.
		switch m {
		case MapIdentity:
			return Input{Reg: RegZero, Mapping: MapInvert, Component: l.comp}, nil
		case MapInvert:
			return Input{Reg: RegZero, Component: l.comp}, nil
		case MapNegate:
			return Input{Reg: RegZero, Mapping: MapExpand, Component: l.comp}, nil
		}
	}
	reg, comp, err := l.register(o, cycle)
	if err != nil {
		return Input{}, err
	}
	return Input{Reg: reg, Mapping: m, Component: comp}, nil
}

func (l *lowerer) register(o combiner.Operand, cycle int) (Register, Component, error) {
	pick := func(rgb bool) Component {
		if rgb && !l.alpha {
			return ComponentRGB
		}
		return ComponentAlpha
	}
	switch o {
	case combiner.Zero:
		return RegZero, l.comp, nil
	case combiner.Combined:
		if cycle == 0 {
			return RegZero, l.comp, nil
		}
		return l.combined, pick(true), nil
	case combiner.CombinedAlpha:
		if cycle == 0 {
			return RegZero, l.comp, nil
		}
		return l.combinedAlpha, ComponentAlpha, nil
	case combiner.Texel0, combiner.Texel0Alpha:
		return RegTexture0, pick(o == combiner.Texel0), nil
	case combiner.Texel1, combiner.Texel1Alpha:
		return RegTexture1, pick(o == combiner.Texel1), nil
	case combiner.Shade, combiner.ShadeAlpha:
		return RegPrimary, pick(o == combiner.Shade), nil
	case combiner.Noise:
		if l.alpha {
			return RegSecondary, ComponentBlue, nil
		}
		return RegSecondary, ComponentRGB, nil
	case combiner.LODFraction:
		return RegSecondary, ComponentAlpha, nil
	}
	if !o.IsConstant() {
		return 0, 0, fmt.Errorf("regcombiner: unknown operand %v", o)
	}

	i := slices.Index(l.consts[:l.nconsts], o)
	if i < 0 {
		if l.nconsts == len(l.consts) {
			return 0, 0, fmt.Errorf("%w: more than %d constants", combiner.ErrUnsupported, len(l.consts))
		}
		i = l.nconsts
		l.consts[i] = o
		l.nconsts++
	}
	return RegConst0 + Register(i), l.comp, nil
}

// New creates the register combiner compiler, bounded by
// caps.GeneralCombiners.
func New(caps backend.Capabilities) (combiner.Compiler, error) {
	if caps.GeneralCombiners < 1 {
		return nil, fmt.Errorf("regcombiner: no general combiners")
	}
	limit := caps.GeneralCombiners
	sc, err := backend.NewSoftwareCompiler(backend.NameRegisterCombiner, true,
		func(c *combiner.Combiner) (backend.Kernel, error) {
			if err := caps.Features.Check(c.Usage()); err != nil {
				return nil, err
			}
			p, err := Lower(c, limit)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	if err != nil {
		return nil, err
	}
	return sc, nil
}
