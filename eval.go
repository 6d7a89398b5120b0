// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import "fmt"

// Fragment holds the per-pixel combiner inputs.
type Fragment struct {
	Texel0, Texel1 Color
	Shade          Color
	LODFraction    float32
	Noise          float32
}

// Inputs is the full set of values an operand can read: a fragment plus
// the constant registers of the current State.
type Inputs struct {
	Texel0, Texel1 Color
	Shade          Color
	Primitive      Color
	Environment    Color
	Center         Color
	Scale          Color

	K4, K5          float32
	LODFraction     float32
	PrimLODFraction float32
	Noise           float32
}

// NewInputs combines the constant registers of s with a fragment.
func NewInputs(s *State, f *Fragment) Inputs {
	return Inputs{
		Texel0:          f.Texel0,
		Texel1:          f.Texel1,
		Shade:           f.Shade,
		Primitive:       s.PrimColor,
		Environment:     s.EnvColor,
		Center:          s.CenterColor,
		Scale:           s.ScaleColor,
		K4:              s.K4,
		K5:              s.K5,
		LODFraction:     f.LODFraction,
		PrimLODFraction: s.PrimLODFraction,
		Noise:           f.Noise,
	}
}

func splat(v float32) [3]float32 { return [3]float32{v, v, v} }

func (c Color) rgb() [3]float32 { return [3]float32{c.R, c.G, c.B} }

// RGB returns the color-channel value of o. combined is the previous
// cycle's output.
func (in *Inputs) RGB(o Operand, combined Color) [3]float32 {
	switch o {
	case Combined:
		return combined.rgb()
	case Texel0:
		return in.Texel0.rgb()
	case Texel1:
		return in.Texel1.rgb()
	case Primitive:
		return in.Primitive.rgb()
	case Shade:
		return in.Shade.rgb()
	case Environment:
		return in.Environment.rgb()
	case Center:
		return in.Center.rgb()
	case Scale:
		return in.Scale.rgb()
	case One:
		return splat(1)
	case Zero:
		return splat(0)
	}
	return splat(in.Alpha(o, combined))
}

// Alpha returns the alpha-channel value of o. Color operands read their
// alpha component.
func (in *Inputs) Alpha(o Operand, combined Color) float32 {
	switch o {
	case Combined, CombinedAlpha:
		return combined.A
	case Texel0, Texel0Alpha:
		return in.Texel0.A
	case Texel1, Texel1Alpha:
		return in.Texel1.A
	case Primitive, PrimitiveAlpha:
		return in.Primitive.A
	case Shade, ShadeAlpha:
		return in.Shade.A
	case Environment, EnvAlpha:
		return in.Environment.A
	case Center:
		return in.Center.A
	case Scale:
		return in.Scale.A
	case LODFraction:
		return in.LODFraction
	case PrimLODFraction:
		return in.PrimLODFraction
	case Noise:
		return in.Noise
	case K4:
		return in.K4
	case K5:
		return in.K5
	case One:
		return 1
	case Zero:
		return 0
	}
	panic(fmt.Sprintf("combiner: unknown operand %v", o))
}

// EvalRGB evaluates a color stage.
func EvalRGB(s *Stage, in *Inputs, combined Color) [3]float32 {
	var v [3]float32
	for _, op := range s.List() {
		p := in.RGB(op.Param1, combined)
		switch op.Kind {
		case OpLoad:
			v = p
		case OpSub:
			for i := range v {
				v[i] -= p[i]
			}
		case OpMul:
			for i := range v {
				v[i] *= p[i]
			}
		case OpAdd:
			for i := range v {
				v[i] += p[i]
			}
		case OpInterpolate:
			from := in.RGB(op.Param2, combined)
			w := in.RGB(op.Param3, combined)
			for i := range v {
				v[i] = from[i] + (p[i]-from[i])*w[i]
			}
		default:
			panic(fmt.Sprintf("combiner: unknown op %v", op.Kind))
		}
	}
	return v
}

// EvalAlpha evaluates an alpha stage.
func EvalAlpha(s *Stage, in *Inputs, combined Color) float32 {
	var v float32
	for _, op := range s.List() {
		p := in.Alpha(op.Param1, combined)
		switch op.Kind {
		case OpLoad:
			v = p
		case OpSub:
			v -= p
		case OpMul:
			v *= p
		case OpAdd:
			v += p
		case OpInterpolate:
			from := in.Alpha(op.Param2, combined)
			w := in.Alpha(op.Param3, combined)
			v = from + (p-from)*w
		default:
			panic(fmt.Sprintf("combiner: unknown op %v", op.Kind))
		}
	}
	return v
}

// Evaluate computes the output of c for one set of inputs without
// clamping. Combined reads zero in the first cycle. When the alpha channel
// has fewer stages than color, later color stages see the final alpha.
func Evaluate(c *Combiner, in *Inputs) Color {
	var alphas [2]float32
	var a float32
	for i := range c.Alpha.NumStages {
		a = EvalAlpha(&c.Alpha.Stages[i], in, Color{A: a})
		alphas[i] = a
	}

	var out Color
	for i := range c.Color.NumStages {
		prev := out
		prev.A = 0
		if i > 0 {
			prev.A = alphas[min(i-1, c.Alpha.NumStages-1)]
		}
		rgb := EvalRGB(&c.Color.Stages[i], in, prev)
		out.R, out.G, out.B = rgb[0], rgb[1], rgb[2]
	}
	out.A = a
	return out
}
