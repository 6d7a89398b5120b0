// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package combinertest provides helpers for testing backends against the
// portable combiner evaluator.
package combinertest

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gogpu/combiner"
)

// Kernel is any lowered combiner that evaluates on the CPU.
type Kernel interface {
	Evaluate(in *combiner.Inputs) combiner.Color
}

// RandomColor returns a color with components in [0, 1).
func RandomColor(rng *rand.Rand) combiner.Color {
	return combiner.Color{R: rng.Float32(), G: rng.Float32(), B: rng.Float32(), A: rng.Float32()}
}

// RandomInputs returns inputs with every operand set.
func RandomInputs(rng *rand.Rand) combiner.Inputs {
	return combiner.Inputs{
		Texel0:          RandomColor(rng),
		Texel1:          RandomColor(rng),
		Shade:           RandomColor(rng),
		Primitive:       RandomColor(rng),
		Environment:     RandomColor(rng),
		Center:          RandomColor(rng),
		Scale:           RandomColor(rng),
		K4:              rng.Float32(),
		K5:              rng.Float32(),
		LODFraction:     rng.Float32(),
		PrimLODFraction: rng.Float32(),
		Noise:           rng.Float32(),
	}
}

// RandomDescriptor returns a descriptor whose selectors are zero with
// probability sparse and uniform otherwise. Sparse descriptors simplify
// to the short combiners that fixed-function backends accept.
func RandomDescriptor(rng *rand.Rand, ct combiner.CycleType, sparse float64) combiner.Descriptor {
	pick := func(width uint) combiner.MuxIndex {
		zero := combiner.MuxIndex(1<<width - 1)
		if rng.Float64() < sparse {
			return zero
		}
		return combiner.MuxIndex(rng.Intn(1 << width))
	}
	var f combiner.Fields
	for i := range 2 {
		f.RGB[i] = combiner.FieldSet{A: pick(4), B: pick(4), C: pick(5), D: pick(3)}
		f.Alpha[i] = combiner.FieldSet{A: pick(3), B: pick(3), C: pick(3), D: pick(3)}
	}
	return combiner.Pack(f, ct)
}

// ApproxEqual compares with an absolute and relative tolerance of 1e-4.
func ApproxEqual(a, b float32) bool {
	d := math.Abs(float64(a - b))
	return d <= 1e-4+1e-4*math.Abs(float64(b))
}

// ApproxColor compares every component with ApproxEqual.
func ApproxColor(a, b combiner.Color) bool {
	return ApproxEqual(a.R, b.R) && ApproxEqual(a.G, b.G) &&
		ApproxEqual(a.B, b.B) && ApproxEqual(a.A, b.A)
}

// CrossCheck lowers n random descriptors of each cycle type and compares
// every kernel that lowers with combiner.Evaluate. It returns how many
// descriptors lowered.
func CrossCheck[K Kernel](t testing.TB, seed int64, n int, merge bool, sparse float64,
	lower func(*combiner.Combiner) (K, error)) int {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	lowered := 0
	for i := range n {
		ct := combiner.CycleType(i % 2)
		d := RandomDescriptor(rng, ct, sparse)
		c := combiner.Build(d, merge)
		k, err := lower(&c)
		if err != nil {
			continue
		}
		lowered++
		for range 4 {
			in := RandomInputs(rng)
			want := combiner.Evaluate(&c, &in)
			if got := k.Evaluate(&in); !ApproxColor(got, want) {
				t.Fatalf("descriptor %v: kernel %v, evaluator %v\ncombiner:\n%v\nkernel: %v",
					d, got, want, &c, k)
			}
		}
	}
	return lowered
}
