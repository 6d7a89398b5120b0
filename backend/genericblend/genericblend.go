// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package genericblend lowers combiners to a chain of texture environment
// units. Each unit applies one function per channel to up to three
// arguments and may hold one constant per channel; the output of a unit is
// the Previous source of the next.
package genericblend

import (
	"fmt"
	"strings"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
)

func init() {
	backend.Register(backend.NameGenericBlend, New)
}

// Source selects where a unit argument is read from.
type Source uint8

const (
	SourceTexture0 Source = iota
	SourceTexture1
	SourcePrimary
	SourceConstant
	SourcePrevious
)

var sourceNames = [...]string{"TEXTURE0", "TEXTURE1", "PRIMARY", "CONSTANT", "PREVIOUS"}

func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return fmt.Sprintf("Source(%d)", s)
}

// Arg is one function argument. Alpha replicates the source alpha across
// the color channels.
type Arg struct {
	Source Source
	Alpha  bool
}

func (a Arg) String() string {
	if a.Alpha {
		return a.Source.String() + ".a"
	}
	return a.Source.String()
}

// Func is a unit combine function.
type Func uint8

const (
	FuncReplace     Func = iota // a0
	FuncModulate                // a0 * a1
	FuncAdd                     // a0 + a1
	FuncSubtract                // a0 - a1
	FuncInterpolate             // a0 * a2 + a1 * (1 - a2)
)

var funcNames = [...]string{"REPLACE", "MODULATE", "ADD", "SUBTRACT", "INTERPOLATE"}

func (f Func) String() string {
	if int(f) < len(funcNames) {
		return funcNames[f]
	}
	return fmt.Sprintf("Func(%d)", f)
}

// Arity returns the number of arguments f reads.
func (f Func) Arity() int {
	switch f {
	case FuncReplace:
		return 1
	case FuncInterpolate:
		return 3
	}
	return 2
}

func (f Func) apply(a0, a1, a2 float32) float32 {
	switch f {
	case FuncModulate:
		return a0 * a1
	case FuncAdd:
		return a0 + a1
	case FuncSubtract:
		return a0 - a1
	case FuncInterpolate:
		return a1 + (a0-a1)*a2
	}
	return a0
}

// Combine is the function of one channel of a unit.
type Combine struct {
	Func Func
	Args [3]Arg
}

func (c Combine) String() string {
	args := make([]string, c.Func.Arity())
	for i := range args {
		args[i] = c.Args[i].String()
	}
	return fmt.Sprintf("%v(%s)", c.Func, strings.Join(args, ", "))
}

// passthrough forwards the previous unit.
var passthrough = Combine{Func: FuncReplace, Args: [3]Arg{{Source: SourcePrevious}}}

// Unit is one texture environment stage. ConstRGB and ConstAlpha are the
// operands loaded into its constant color, or Zero.
type Unit struct {
	RGB, Alpha           Combine
	ConstRGB, ConstAlpha combiner.Operand
}

// Chain is a lowered combiner.
type Chain struct {
	Units []Unit
}

var _ backend.Kernel = (*Chain)(nil)

func (ch *Chain) String() string {
	var b strings.Builder
	for i, u := range ch.Units {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%d: rgb=%v alpha=%v const=(%v, %v)", i, u.RGB, u.Alpha, u.ConstRGB, u.ConstAlpha)
	}
	return b.String()
}

// Evaluate runs the units in order. Previous starts as the primary color.
func (ch *Chain) Evaluate(in *combiner.Inputs) combiner.Color {
	prev := in.Shade
	for i := range ch.Units {
		u := &ch.Units[i]
		var out combiner.Color
		var rgb [3][3]float32
		for j := range u.RGB.Func.Arity() {
			rgb[j] = argRGB(in, u.RGB.Args[j], u.ConstRGB, prev)
		}
		out.R = u.RGB.Func.apply(rgb[0][0], rgb[1][0], rgb[2][0])
		out.G = u.RGB.Func.apply(rgb[0][1], rgb[1][1], rgb[2][1])
		out.B = u.RGB.Func.apply(rgb[0][2], rgb[1][2], rgb[2][2])

		var a [3]float32
		for j := range u.Alpha.Func.Arity() {
			a[j] = argAlpha(in, u.Alpha.Args[j], u.ConstAlpha, prev)
		}
		out.A = u.Alpha.Func.apply(a[0], a[1], a[2])
		prev = out
	}
	return prev
}

func sourceColor(in *combiner.Inputs, s Source, prev combiner.Color) combiner.Color {
	switch s {
	case SourceTexture0:
		return in.Texel0
	case SourceTexture1:
		return in.Texel1
	case SourcePrimary:
		return in.Shade
	}
	return prev
}

func argRGB(in *combiner.Inputs, a Arg, konst combiner.Operand, prev combiner.Color) [3]float32 {
	if a.Source == SourceConstant {
		if a.Alpha {
			v := in.Alpha(konst, prev)
			return [3]float32{v, v, v}
		}
		return in.RGB(konst, prev)
	}
	c := sourceColor(in, a.Source, prev)
	if a.Alpha {
		return [3]float32{c.A, c.A, c.A}
	}
	return [3]float32{c.R, c.G, c.B}
}

func argAlpha(in *combiner.Inputs, a Arg, konst combiner.Operand, prev combiner.Color) float32 {
	if a.Source == SourceConstant {
		return in.Alpha(konst, prev)
	}
	return sourceColor(in, a.Source, prev).A
}

// Lower maps c onto at most maxUnits units.
func Lower(c *combiner.Combiner, maxUnits int) (*Chain, error) {
	rgb, err := lowerChannel(&c.Color)
	if err != nil {
		return nil, fmt.Errorf("genericblend: color: %w", err)
	}
	alpha, err := lowerChannel(&c.Alpha)
	if err != nil {
		return nil, fmt.Errorf("genericblend: alpha: %w", err)
	}

	n := max(len(rgb), len(alpha))
	if n > maxUnits {
		return nil, fmt.Errorf("%w: genericblend: needs %d units, have %d", combiner.ErrUnsupported, n, maxUnits)
	}
	ch := &Chain{Units: make([]Unit, n)}
	for i := range ch.Units {
		u := &ch.Units[i]
		u.RGB, u.ConstRGB = passthrough, combiner.Zero
		u.Alpha, u.ConstAlpha = passthrough, combiner.Zero
		if i < len(rgb) {
			u.RGB, u.ConstRGB = rgb[i].c, rgb[i].konst
		}
		if i < len(alpha) {
			u.Alpha, u.ConstAlpha = alpha[i].c, alpha[i].konst
		}
	}
	return ch, nil
}

// slot is one channel of one unit.
type slot struct {
	c     Combine
	konst combiner.Operand
	set   bool
}

func (s *slot) arg(o combiner.Operand) (Arg, error) {
	switch o {
	case combiner.Texel0, combiner.Texel0Alpha:
		return Arg{Source: SourceTexture0, Alpha: o == combiner.Texel0Alpha}, nil
	case combiner.Texel1, combiner.Texel1Alpha:
		return Arg{Source: SourceTexture1, Alpha: o == combiner.Texel1Alpha}, nil
	case combiner.Shade, combiner.ShadeAlpha:
		return Arg{Source: SourcePrimary, Alpha: o == combiner.ShadeAlpha}, nil
	}
	if !o.IsConstant() {
		return Arg{}, fmt.Errorf("%w: operand %v", combiner.ErrUnsupported, o)
	}

	base, alpha := o, false
	switch o {
	case combiner.PrimitiveAlpha:
		base, alpha = combiner.Primitive, true
	case combiner.EnvAlpha:
		base, alpha = combiner.Environment, true
	}
	if s.set && s.konst != base {
		return Arg{}, fmt.Errorf("%w: constants %v and %v in one unit", combiner.ErrUnsupported, s.konst, base)
	}
	s.konst, s.set = base, true
	return Arg{Source: SourceConstant, Alpha: alpha}, nil
}

var binaryFuncs = map[combiner.OpKind]Func{
	combiner.OpSub: FuncSubtract,
	combiner.OpMul: FuncModulate,
	combiner.OpAdd: FuncAdd,
}

func lowerOp(op combiner.Op) (slot, error) {
	s := slot{konst: combiner.Zero}
	var err error
	switch op.Kind {
	case combiner.OpLoad:
		s.c.Func = FuncReplace
		s.c.Args[0], err = s.arg(op.Param1)
	case combiner.OpInterpolate:
		s.c.Func = FuncInterpolate
		for i, o := range op.Params() {
			if s.c.Args[i], err = s.arg(o); err != nil {
				break
			}
		}
	default:
		s.c.Func = binaryFuncs[op.Kind]
		s.c.Args[0] = Arg{Source: SourcePrevious}
		s.c.Args[1], err = s.arg(op.Param1)
	}
	return s, err
}

// fuse folds Load(a) followed by a binary op into one unit.
func fuse(load, next combiner.Op) (slot, bool) {
	f, ok := binaryFuncs[next.Kind]
	if !ok {
		return slot{}, false
	}
	s := slot{konst: combiner.Zero}
	s.c.Func = f
	var err0, err1 error
	s.c.Args[0], err0 = s.arg(load.Param1)
	s.c.Args[1], err1 = s.arg(next.Param1)
	return s, err0 == nil && err1 == nil
}

// lowerChannel concatenates the units of every stage. Combined is only
// readable as the Load of the second stage, where it is the running value.
func lowerChannel(p *combiner.Pipeline) ([]slot, error) {
	var out []slot
	for si, st := range p.Active() {
		ops := st.List()
		for oi := 0; oi < len(ops); oi++ {
			op := ops[oi]
			if op.Reads(combiner.Combined) || op.Reads(combiner.CombinedAlpha) {
				if si == 1 && oi == 0 && op.Kind == combiner.OpLoad && op.Param1 == combiner.Combined {
					continue
				}
				return nil, fmt.Errorf("%w: combined read by %v in stage %d", combiner.ErrUnsupported, op, si)
			}
			if op.Kind == combiner.OpLoad && oi+1 < len(ops) {
				if s, ok := fuse(op, ops[oi+1]); ok {
					out = append(out, s)
					oi++
					continue
				}
			}
			s, err := lowerOp(op)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// New creates the generic blend compiler, bounded by caps.TextureUnits.
func New(caps backend.Capabilities) (combiner.Compiler, error) {
	if caps.TextureUnits < 1 {
		return nil, fmt.Errorf("genericblend: no texture units")
	}
	units := caps.TextureUnits
	sc, err := backend.NewSoftwareCompiler(backend.NameGenericBlend, true,
		func(c *combiner.Combiner) (backend.Kernel, error) {
			if err := caps.Features.Check(c.Usage()); err != nil {
				return nil, err
			}
			ch, err := Lower(c, units)
			if err != nil {
				return nil, err
			}
			return ch, nil
		})
	if err != nil {
		return nil, err
	}
	return sc, nil
}
