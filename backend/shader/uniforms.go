// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/combiner"
)

// UniformSize is the byte size of the Uniforms struct: nine 16-byte
// vectors.
//
//	  0 prim        16 env         32 center      48 scale
//	 64 fog_color   80 consts      96 lod        112 flags (u32)
//	128 alpha_test
const UniformSize = 144

// PackUniforms encodes s in the std140 layout of the Uniforms struct.
func PackUniforms(s *combiner.State) []byte {
	buf := make([]byte, UniformSize)
	putColor(buf[0:], s.PrimColor)
	putColor(buf[16:], s.EnvColor)
	putColor(buf[32:], s.CenterColor)
	putColor(buf[48:], s.ScaleColor)
	putColor(buf[64:], s.Fog.Color)
	putFloats(buf[80:], s.K4, s.K5, s.PrimLODFraction, s.LOD.MinLOD)
	putFloats(buf[96:], flag(s.LOD.Enabled), s.LOD.ScaleX, s.LOD.ScaleY, float32(s.LOD.MaxTile))
	binary.LittleEndian.PutUint32(buf[112:], boolBits(s.Fog.Enabled))
	binary.LittleEndian.PutUint32(buf[116:], boolBits(s.Dither))
	binary.LittleEndian.PutUint32(buf[120:], s.NoiseSeed)
	binary.LittleEndian.PutUint32(buf[124:], boolBits(s.LOD.Detail))
	putFloats(buf[128:], flag(s.AlphaTest.Enabled), s.AlphaTest.Threshold, 0, 0)
	return buf
}

func putColor(b []byte, c combiner.Color) {
	putFloats(b, c.R, c.G, c.B, c.A)
}

func putFloats(b []byte, v ...float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func boolBits(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
