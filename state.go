// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import "math"

// Color is a linear RGBA color with components nominally in [0, 1].
// Intermediate combiner values may leave that range.
type Color struct {
	R, G, B, A float32
}

// White is opaque white.
var White = Color{1, 1, 1, 1}

// LODParams control the per-pixel level-of-detail fraction.
type LODParams struct {
	// Enabled selects computed LOD; when false the primitive LOD
	// fraction is used as is.
	Enabled bool
	// ScaleX and ScaleY convert texture coordinate derivatives into
	// native-resolution texels.
	ScaleX, ScaleY float32
	// MinLOD clamps the fraction from below.
	MinLOD float32
	// MaxTile is the highest mip tile.
	MaxTile int
	// Detail inverts the fraction for magnified detail textures.
	Detail bool
}

// Fraction returns the LOD fraction for a derivative magnitude lod,
// falling back to primLOD when computed LOD is disabled.
func (p LODParams) Fraction(primLOD, lod float32) float32 {
	if !p.Enabled {
		return primLOD
	}
	if lod < 1 {
		f := max(lod, p.MinLOD)
		if p.Detail {
			f = 1 - f
		}
		return f
	}
	tile := min(float64(p.MaxTile), math.Floor(math.Log2(math.Floor(float64(lod)))))
	scaled := float64(lod) / math.Pow(2, tile)
	return max(p.MinLOD, float32(scaled-math.Floor(scaled)))
}

// FogParams hold the fog blend.
type FogParams struct {
	Enabled bool
	Color   Color
}

// AlphaTest discards fragments whose combined alpha is below a threshold.
type AlphaTest struct {
	Enabled bool
	// Threshold is the minimum alpha kept. Zero keeps any non-zero alpha.
	Threshold float32
}

// Pass reports whether a fragment with the given alpha survives the test.
func (t AlphaTest) Pass(alpha float32) bool {
	if !t.Enabled {
		return true
	}
	if t.Threshold > 0 {
		return alpha >= t.Threshold
	}
	return alpha > 0
}

// State holds the values that change per primitive while the compiled
// program stays the same. Compilers read it in Update.
type State struct {
	PrimColor   Color
	EnvColor    Color
	CenterColor Color
	ScaleColor  Color

	K4, K5          float32
	PrimLODFraction float32

	LOD       LODParams
	Fog       FogParams
	Dither    bool
	NoiseSeed uint32
	AlphaTest AlphaTest
}

// DefaultState returns the power-on state: black constants, unit LOD
// scale, every optional effect off.
func DefaultState() State {
	return State{
		LOD: LODParams{ScaleX: 1, ScaleY: 1},
	}
}

// Noise returns the noise term for pixel (x, y) in [0, 1). The same hash
// is evaluated by generated shaders.
func (s *State) Noise(x, y int) float32 {
	return hashNoise(uint32(x), uint32(y), s.NoiseSeed)
}

func hashNoise(x, y, seed uint32) float32 {
	h := x*0x27d4eb2d ^ y*0x165667b1 ^ seed*0x9e3779b9
	h ^= h >> 15
	h *= 0x2c1b3c6d
	h ^= h >> 12
	h *= 0x297a2d39
	h ^= h >> 15
	return float32(h>>8) / (1 << 24)
}

// Resolve applies the per-fragment tail of the pipeline to a combined
// color: dither discard, alpha test and fog. fogFactor is 1 for no fog.
// It reports false when the fragment is discarded.
func (s *State) Resolve(c Color, noise, fogFactor float32) (Color, bool) {
	if s.Dither && noise < 0.5 {
		return Color{}, false
	}
	if !s.AlphaTest.Pass(c.A) {
		return Color{}, false
	}
	if s.Fog.Enabled {
		f := fogFactor
		c.R = s.Fog.Color.R + (c.R-s.Fog.Color.R)*f
		c.G = s.Fog.Color.G + (c.G-s.Fog.Color.G)*f
		c.B = s.Fog.Color.B + (c.B-s.Fog.Color.B)*f
	}
	return c, true
}
