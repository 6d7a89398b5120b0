// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import (
	"math"
	"math/rand"
	"testing"
)

func randomColor(rng *rand.Rand) Color {
	return Color{rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32()}
}

func randomInputs(rng *rand.Rand) Inputs {
	return Inputs{
		Texel0:          randomColor(rng),
		Texel1:          randomColor(rng),
		Shade:           randomColor(rng),
		Primitive:       randomColor(rng),
		Environment:     randomColor(rng),
		Center:          randomColor(rng),
		Scale:           randomColor(rng),
		K4:              rng.Float32(),
		K5:              rng.Float32(),
		LODFraction:     rng.Float32(),
		PrimLODFraction: rng.Float32(),
		Noise:           rng.Float32(),
	}
}

func approxEqual(a, b float32) bool {
	d := math.Abs(float64(a - b))
	return d <= 1e-4+1e-4*math.Abs(float64(b))
}

func approxColor(a, b Color) bool {
	return approxEqual(a.R, b.R) && approxEqual(a.G, b.G) && approxEqual(a.B, b.B) && approxEqual(a.A, b.A)
}

func TestInputsOperandValues(t *testing.T) {
	in := Inputs{
		Texel0:    Color{0.1, 0.2, 0.3, 0.4},
		Shade:     Color{0.5, 0.6, 0.7, 0.8},
		Primitive: Color{0.9, 0.8, 0.7, 0.6},
		K5:        0.25,
		Noise:     0.75,
	}
	prev := Color{1, 2, 3, 4}
	tests := []struct {
		o     Operand
		rgb   [3]float32
		alpha float32
	}{
		{Combined, [3]float32{1, 2, 3}, 4},
		{CombinedAlpha, [3]float32{4, 4, 4}, 4},
		{Texel0, [3]float32{0.1, 0.2, 0.3}, 0.4},
		{Texel0Alpha, [3]float32{0.4, 0.4, 0.4}, 0.4},
		{Shade, [3]float32{0.5, 0.6, 0.7}, 0.8},
		{PrimitiveAlpha, [3]float32{0.6, 0.6, 0.6}, 0.6},
		{K5, [3]float32{0.25, 0.25, 0.25}, 0.25},
		{Noise, [3]float32{0.75, 0.75, 0.75}, 0.75},
		{One, [3]float32{1, 1, 1}, 1},
		{Zero, [3]float32{}, 0},
	}
	for _, tt := range tests {
		if got := in.RGB(tt.o, prev); got != tt.rgb {
			t.Errorf("RGB(%v) = %v, want %v", tt.o, got, tt.rgb)
		}
		if got := in.Alpha(tt.o, prev); got != tt.alpha {
			t.Errorf("Alpha(%v) = %v, want %v", tt.o, got, tt.alpha)
		}
	}
}

func TestNewInputs(t *testing.T) {
	s := DefaultState()
	s.PrimColor = Color{1, 0, 0, 1}
	s.EnvColor = Color{0, 1, 0, 1}
	s.K4 = 0.5
	s.PrimLODFraction = 0.125
	f := Fragment{Texel0: White, LODFraction: 0.3, Noise: 0.9}
	in := NewInputs(&s, &f)
	if in.Primitive != s.PrimColor || in.Environment != s.EnvColor || in.K4 != 0.5 ||
		in.PrimLODFraction != 0.125 || in.Texel0 != White || in.LODFraction != 0.3 || in.Noise != 0.9 {
		t.Errorf("NewInputs() = %+v", in)
	}
}

func TestEvaluateModulate(t *testing.T) {
	c := FallbackCombiner()
	in := Inputs{
		Texel0: Color{0.5, 1, 0.25, 0.5},
		Shade:  Color{0.5, 0.5, 1, 0.5},
	}
	got := Evaluate(&c, &in)
	want := Color{0.25, 0.5, 0.25, 0.25}
	if got != want {
		t.Errorf("Evaluate() = %v, want %v", got, want)
	}
}

func TestEvaluateTwoCycle(t *testing.T) {
	// Cycle 1: texel0 * shade. Cycle 2: combined + primitive * combined alpha.
	m := Mode{
		Cycles: TwoCycle,
		Color: [2]CycleExpr{
			{Texel0, Zero, Shade, Zero},
			{Primitive, Zero, CombinedAlpha, Combined},
		},
		Alpha: [2]CycleExpr{
			{Texel0Alpha, Zero, ShadeAlpha, Zero},
			{Zero, Zero, Zero, One},
		},
	}
	c := BuildMode(m, true)
	if c.Color.NumStages != 2 {
		t.Fatalf("color stages = %d, want 2", c.Color.NumStages)
	}
	in := Inputs{
		Texel0:    Color{0.5, 0.5, 0.5, 0.5},
		Shade:     Color{1, 0.5, 0, 1},
		Primitive: Color{0.2, 0.2, 0.2, 0},
	}
	got := Evaluate(&c, &in)
	// combined = (0.5, 0.25, 0, a=0.5); out = prim*0.5 + combined.
	want := Color{0.6, 0.35, 0.1, 1}
	if !approxColor(got, want) {
		t.Errorf("Evaluate() = %v, want %v", got, want)
	}
}

func TestEvaluateCombinedZeroInFirstCycle(t *testing.T) {
	m := Mode{
		Cycles: OneCycle,
		Color:  [2]CycleExpr{{Zero, Zero, Zero, Combined}, {Zero, Zero, Zero, Zero}},
		Alpha:  [2]CycleExpr{{Zero, Zero, Zero, Combined}, {Zero, Zero, Zero, Zero}},
	}
	c := BuildMode(m, false)
	in := Inputs{Shade: White}
	if got := Evaluate(&c, &in); got != (Color{}) {
		t.Errorf("Evaluate() = %v, want zero", got)
	}
}

func TestEvalPanicsOnUnknownOp(t *testing.T) {
	s := Stage{Ops: [MaxOps]Op{{Kind: OpKind(9), Param1: Shade}}, N: 1}
	defer func() {
		if recover() == nil {
			t.Error("EvalAlpha() did not panic on an unknown op")
		}
	}()
	var in Inputs
	EvalAlpha(&s, &in, Color{})
}
