// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package regcombiner

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
	"github.com/gogpu/combiner/internal/combinertest"
	"github.com/google/go-cmp/cmp"
)

func pipeline(stages ...combiner.Stage) combiner.Pipeline {
	p := combiner.Pipeline{NumStages: len(stages)}
	copy(p.Stages[:], stages)
	return p
}

var (
	zeroRGB = Input{Reg: RegZero}
	oneRGB  = Input{Reg: RegZero, Mapping: MapInvert}
	zeroA   = Input{Reg: RegZero, Component: ComponentAlpha}
	oneA    = Input{Reg: RegZero, Mapping: MapInvert, Component: ComponentAlpha}
)

func TestLowerModulate(t *testing.T) {
	c := combiner.Build(combiner.ModeShadeTexel0, true)
	got, err := Lower(&c, 8)
	if err != nil {
		t.Fatalf("Lower() error = %v", err)
	}
	want := []Stage{
		{
			RGB:   Portion{A: Input{Reg: RegTexture0}, B: oneRGB, C: zeroRGB, D: zeroRGB, Out: RegSpare0},
			Alpha: Portion{A: Input{Reg: RegTexture0, Component: ComponentAlpha}, B: oneA, C: zeroA, D: zeroA, Out: RegSpare0},
		},
		{
			RGB:   Portion{A: Input{Reg: RegSpare0}, B: Input{Reg: RegPrimary}, C: zeroRGB, D: zeroRGB, Out: RegSpare0},
			Alpha: Portion{A: Input{Reg: RegSpare0, Component: ComponentAlpha}, B: Input{Reg: RegPrimary, Component: ComponentAlpha}, C: zeroA, D: zeroA, Out: RegSpare0},
		},
	}
	if diff := cmp.Diff(want, got.Stages); diff != "" {
		t.Errorf("Lower() mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerTwoCycles(t *testing.T) {
	c := combiner.Combiner{
		Color: pipeline(
			combiner.NewStage(combiner.Load(combiner.Texel0), combiner.Sub(combiner.One)),
			combiner.NewStage(combiner.Interpolate(combiner.Combined, combiner.Shade, combiner.CombinedAlpha))),
		Alpha: pipeline(combiner.NewStage(combiner.Load(combiner.Noise))),
	}
	c.MustValidate()
	got, err := Lower(&c, 8)
	if err != nil {
		t.Fatalf("Lower() error = %v", err)
	}
	if len(got.Stages) != 3 {
		t.Fatalf("stages = %d, want 3:\n%v", len(got.Stages), got)
	}

	sub := got.Stages[1].RGB
	if want := (Input{Reg: RegZero, Mapping: MapExpand}); sub.C != want || sub.Out != RegSpare1 {
		t.Errorf("subtract of one = %v", sub)
	}
	if got.Stages[1].Alpha.Out != RegDiscard {
		t.Errorf("alpha padding = %v, want discard", got.Stages[1].Alpha)
	}

	interp := got.Stages[2].RGB
	want := Portion{
		A:   Input{Reg: RegSpare1},
		B:   Input{Reg: RegSpare0, Component: ComponentAlpha},
		C:   Input{Reg: RegPrimary},
		D:   Input{Reg: RegSpare0, Mapping: MapInvert, Component: ComponentAlpha},
		Out: RegSpare0,
	}
	if interp != want {
		t.Errorf("second cycle = %v, want %v", interp, want)
	}
	if a := got.Stages[0].Alpha.A; a != (Input{Reg: RegSecondary, Component: ComponentBlue}) {
		t.Errorf("alpha noise input = %v", a)
	}

	rng := rand.New(rand.NewSource(5))
	for range 100 {
		in := combinertest.RandomInputs(rng)
		if g, w := got.Evaluate(&in), combiner.Evaluate(&c, &in); !combinertest.ApproxColor(g, w) {
			t.Fatalf("Evaluate() = %v, want %v", g, w)
		}
	}
}

func TestLowerConstants(t *testing.T) {
	c := combiner.Combiner{
		Color: pipeline(combiner.NewStage(
			combiner.Load(combiner.Primitive), combiner.Sub(combiner.Environment),
			combiner.Mul(combiner.K5), combiner.Add(combiner.Environment))),
		Alpha: pipeline(combiner.NewStage(combiner.Load(combiner.PrimLODFraction))),
	}
	got, err := Lower(&c, 8)
	if err == nil {
		t.Fatalf("Lower() with three color constants = %v", got)
	}
	if !errors.Is(err, combiner.ErrUnsupported) {
		t.Errorf("Lower() error = %v, want ErrUnsupported", err)
	}

	c.Color = pipeline(combiner.NewStage(combiner.Interpolate(combiner.Primitive, combiner.Environment, combiner.Texel0Alpha)))
	got, err = Lower(&c, 8)
	if err != nil {
		t.Fatalf("Lower() error = %v", err)
	}
	if want := [2]combiner.Operand{combiner.Primitive, combiner.Environment}; got.ConstRGB != want {
		t.Errorf("ConstRGB = %v, want %v", got.ConstRGB, want)
	}
	if want := [2]combiner.Operand{combiner.PrimLODFraction, combiner.Zero}; got.ConstAlpha != want {
		t.Errorf("ConstAlpha = %v, want %v", got.ConstAlpha, want)
	}
}

func TestLowerStageLimit(t *testing.T) {
	c := combiner.Build(combiner.ModeShadeTexel0, true)
	if _, err := Lower(&c, 1); !errors.Is(err, combiner.ErrUnsupported) {
		t.Errorf("Lower() error = %v, want ErrUnsupported", err)
	}
}

func TestLowerMatchesEvaluator(t *testing.T) {
	lower := func(c *combiner.Combiner) (*Program, error) { return Lower(c, 8) }
	for _, merge := range []bool{true, false} {
		lowered := combinertest.CrossCheck(t, 3, 20000, merge, 0.3, lower)
		if lowered < 1000 {
			t.Errorf("merge=%v: only %d descriptors lowered", merge, lowered)
		}
	}
}

func TestNew(t *testing.T) {
	if !backend.IsRegistered(backend.NameRegisterCombiner) {
		t.Fatal("regcombiner not registered")
	}
	caps := backend.DefaultCapabilities()
	caps.Features.Noise = false
	c, err := New(caps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	noise := combiner.Combiner{
		Color: pipeline(combiner.NewStage(combiner.Load(combiner.Noise))),
		Alpha: pipeline(combiner.NewStage(combiner.Load(combiner.One))),
	}
	if _, err := c.Compile(&noise); !errors.Is(err, combiner.ErrUnsupported) {
		t.Errorf("Compile() with noise disabled = %v, want ErrUnsupported", err)
	}

	caps.GeneralCombiners = 1
	if _, err := New(caps); err == nil {
		t.Error("New() with one general combiner built a fallback program")
	}
}
