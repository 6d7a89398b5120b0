// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSimplifyCycle(t *testing.T) {
	tests := []struct {
		name string
		e    CycleExpr
		want Stage
	}{
		{"texel passthrough", CycleExpr{Zero, Zero, Zero, Texel0}, NewStage(Load(Texel0))},
		{"texel times one", CycleExpr{Texel0, Zero, One, Zero}, NewStage(Load(Texel0), Mul(One))},
		{"identity multiply", CycleExpr{One, Zero, Shade, Zero}, NewStage(Load(Shade))},
		{"load one times one", CycleExpr{One, Zero, One, Zero}, NewStage(Load(One))},
		{"interpolate", CycleExpr{Combined, Texel0, Primitive, Texel0}, NewStage(Interpolate(Combined, Texel0, Primitive))},
		{"interpolate from zero", CycleExpr{Zero, Texel1, Environment, Texel1}, NewStage(Interpolate(Zero, Texel1, Environment))},
		{"full form", CycleExpr{Texel0, Shade, Primitive, Environment},
			NewStage(Load(Texel0), Sub(Shade), Mul(Primitive), Add(Environment))},
		{"modulate add", CycleExpr{Texel0, Zero, Primitive, Shade}, NewStage(Load(Texel0), Mul(Primitive), Add(Shade))},
		{"self cancel", CycleExpr{Texel0, Texel0, Shade, Zero}, NewStage(Load(Zero))},
		{"self cancel then add", CycleExpr{Texel0, Texel0, Shade, Environment}, NewStage(Load(Environment))},
		{"zero times anything", CycleExpr{Zero, Zero, Shade, Zero}, NewStage(Load(Zero))},
		{"zero weight", CycleExpr{Texel0, Shade, Zero, Zero}, NewStage(Load(Zero))},
		{"zero weight keeps add", CycleExpr{Texel0, Shade, Zero, Primitive}, NewStage(Load(Primitive))},
		{"add only", CycleExpr{Zero, Zero, Zero, Texel1}, NewStage(Load(Texel1))},
		{"subtract times one", CycleExpr{Texel0, Shade, One, Zero}, NewStage(Load(Texel0), Sub(Shade), Mul(One))},
		{"interpolate by one", CycleExpr{Texel0, Shade, One, Shade}, NewStage(Interpolate(Texel0, Shade, One))},
		{"all zero", CycleExpr{Zero, Zero, Zero, Zero}, NewStage(Load(Zero))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimplifyCycle(tt.e)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SimplifyCycle(%v) mismatch (-want +got):\n%s", tt.e, diff)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestSimplifyZeroAbsorption(t *testing.T) {
	for a := Operand(0); a < NumOperands; a++ {
		for b := Operand(0); b < NumOperands; b++ {
			got := SimplifyCycle(CycleExpr{a, b, Zero, Zero})
			if want := NewStage(Load(Zero)); got != want {
				t.Fatalf("SimplifyCycle(%v, %v, ZERO, ZERO) = %v, want %v", a, b, got, want)
			}
			d := Texel1
			got = SimplifyCycle(CycleExpr{a, b, Zero, d})
			if want := NewStage(Load(d)); got != want {
				t.Fatalf("SimplifyCycle(%v, %v, ZERO, %v) = %v, want %v", a, b, d, got, want)
			}
		}
	}
}

func TestSimplifySelfCancellation(t *testing.T) {
	for a := Operand(0); a < NumOperands; a++ {
		if a == Zero {
			continue
		}
		got := SimplifyCycle(CycleExpr{a, a, Shade, Zero})
		if want := NewStage(Load(Zero)); got != want {
			t.Errorf("SimplifyCycle(%v, %v, SHADE, ZERO) = %v, want %v", a, a, got, want)
		}
	}
}

func TestSimplifyInterpolationRecognition(t *testing.T) {
	for a := Operand(0); a < NumOperands; a++ {
		for x := Operand(0); x < NumOperands; x++ {
			if a == x || x == Zero {
				continue
			}
			for _, c := range []Operand{One, Primitive, Texel0Alpha, LODFraction, K5, Combined} {
				got := SimplifyCycle(CycleExpr{a, x, c, x})
				want := NewStage(Interpolate(a, x, c))
				if got != want {
					t.Fatalf("SimplifyCycle(%v, %v, %v, %v) = %v, want %v", a, x, c, x, got, want)
				}
			}
		}
	}
}

// TestSimplifyMatchesFormula checks every simplification numerically.
func TestSimplifyMatchesFormula(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for a := Operand(0); a < NumOperands; a++ {
		for b := Operand(0); b < NumOperands; b++ {
			for _, c := range []Operand{Zero, One, Primitive, Combined, Texel1Alpha} {
				for _, d := range []Operand{Zero, One, b, Shade} {
					e := CycleExpr{a, b, c, d}
					s := SimplifyCycle(e)
					in := randomInputs(rng)
					prev := randomColor(rng)
					got := EvalAlpha(&s, &in, prev)
					want := (in.Alpha(a, prev)-in.Alpha(b, prev))*in.Alpha(c, prev) + in.Alpha(d, prev)
					if !approxEqual(got, want) {
						t.Fatalf("%v -> %v: got %v, want %v", e, s, got, want)
					}
				}
			}
		}
	}
}

func TestSimplifyDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for range 5000 {
		d := Pack(randomFields(rng), TwoCycle)
		c1 := Build(d, true)
		c2 := Build(d, true)
		if c1 != c2 {
			t.Fatalf("Build(%v) is not deterministic:\n%v\n%v", d, &c1, &c2)
		}
		if err := c1.Validate(); err != nil {
			t.Fatalf("Build(%v) produced malformed combiner: %v", d, err)
		}
	}
}

func TestStageValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Stage
	}{
		{"empty", Stage{}},
		{"too many", Stage{N: 5}},
		{"starts with add", NewStage(Add(Shade))},
		{"load not first", NewStage(Load(Shade), Load(Texel0))},
		{"interpolate not first", NewStage(Load(Shade), Interpolate(Texel0, Texel1, Primitive))},
		{"bad operand", NewStage(Load(NumOperands))},
		{"bad kind", NewStage(Load(Shade), Op{Kind: OpInterpolate + 1, Param1: Shade})},
	}
	for _, tt := range tests {
		if err := tt.s.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}
}

func TestMustValidatePanics(t *testing.T) {
	c := Combiner{
		Color: Pipeline{NumStages: 1, Stages: [2]Stage{NewStage(Mul(Shade))}},
		Alpha: Pipeline{NumStages: 1, Stages: [2]Stage{NewStage(Load(Zero))}},
	}
	defer func() {
		if recover() == nil {
			t.Error("MustValidate() did not panic on a malformed stage")
		}
	}()
	c.MustValidate()
}
