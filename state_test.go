// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import "testing"

func TestAlphaTestPass(t *testing.T) {
	tests := []struct {
		test  AlphaTest
		alpha float32
		want  bool
	}{
		{AlphaTest{}, 0, true},
		{AlphaTest{Enabled: true}, 0, false},
		{AlphaTest{Enabled: true}, 0.01, true},
		{AlphaTest{Enabled: true, Threshold: 0.5}, 0.49, false},
		{AlphaTest{Enabled: true, Threshold: 0.5}, 0.5, true},
	}
	for _, tt := range tests {
		if got := tt.test.Pass(tt.alpha); got != tt.want {
			t.Errorf("%+v.Pass(%v) = %v, want %v", tt.test, tt.alpha, got, tt.want)
		}
	}
}

func TestLODFraction(t *testing.T) {
	tests := []struct {
		name string
		p    LODParams
		lod  float32
		want float32
	}{
		{"disabled uses primitive lod", LODParams{}, 3, 0.75},
		{"magnified clamps to min", LODParams{Enabled: true, MinLOD: 0.5}, 0.25, 0.5},
		{"magnified", LODParams{Enabled: true}, 0.25, 0.25},
		{"detail inverts", LODParams{Enabled: true, Detail: true}, 0.25, 0.75},
		{"minified", LODParams{Enabled: true, MaxTile: 7}, 5, 0.25},
		{"minified max tile", LODParams{Enabled: true, MaxTile: 1}, 5, 0.5},
		{"minified min lod", LODParams{Enabled: true, MaxTile: 7, MinLOD: 0.4}, 5, 0.4},
	}
	for _, tt := range tests {
		if got := tt.p.Fraction(0.75, tt.lod); !approxEqual(got, tt.want) {
			t.Errorf("%s: Fraction(0.75, %v) = %v, want %v", tt.name, tt.lod, got, tt.want)
		}
	}
}

func TestNoise(t *testing.T) {
	s := DefaultState()
	s.NoiseSeed = 17
	differs := false
	for y := range 16 {
		for x := range 16 {
			n := s.Noise(x, y)
			if n < 0 || n >= 1 {
				t.Fatalf("Noise(%d, %d) = %v, out of [0, 1)", x, y, n)
			}
			if n != s.Noise(x, y) {
				t.Fatalf("Noise(%d, %d) is not deterministic", x, y)
			}
			other := State{NoiseSeed: 18}
			if other.Noise(x, y) != n {
				differs = true
			}
		}
	}
	if !differs {
		t.Error("noise does not depend on the seed")
	}
}

func TestResolve(t *testing.T) {
	c := Color{1, 1, 1, 0.5}

	s := DefaultState()
	if got, ok := s.Resolve(c, 0, 1); !ok || got != c {
		t.Errorf("Resolve() with defaults = %v, %v, want %v, true", got, ok, c)
	}

	s.Dither = true
	if _, ok := s.Resolve(c, 0.25, 1); ok {
		t.Error("dithered fragment with low noise survived")
	}
	if _, ok := s.Resolve(c, 0.75, 1); !ok {
		t.Error("dithered fragment with high noise discarded")
	}

	s = DefaultState()
	s.AlphaTest = AlphaTest{Enabled: true, Threshold: 0.75}
	if _, ok := s.Resolve(c, 0, 1); ok {
		t.Error("alpha test kept alpha below threshold")
	}

	s = DefaultState()
	s.Fog = FogParams{Enabled: true, Color: Color{0, 0, 0, 1}}
	got, ok := s.Resolve(c, 0.25, 0.25)
	want := Color{0.25, 0.25, 0.25, 0.5}
	if !ok || !approxColor(got, want) {
		t.Errorf("fogged Resolve() = %v, %v, want %v", got, ok, want)
	}
}
