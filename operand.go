// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import (
	"fmt"
	"strings"
)

// Operand is a symbolic combiner input in the expanded vocabulary produced
// by Decode. The numeric order follows the hardware input tables.
type Operand uint8

// Combiner inputs.
const (
	Combined Operand = iota
	Texel0
	Texel1
	Primitive
	Shade
	Environment
	Center
	Scale
	CombinedAlpha
	Texel0Alpha
	Texel1Alpha
	PrimitiveAlpha
	ShadeAlpha
	EnvAlpha
	LODFraction
	PrimLODFraction
	Noise
	K4
	K5
	One
	Zero

	// NumOperands is the number of valid operands.
	NumOperands
)

var operandNames = [NumOperands]string{
	Combined:        "COMBINED",
	Texel0:          "TEXEL0",
	Texel1:          "TEXEL1",
	Primitive:       "PRIMITIVE",
	Shade:           "SHADE",
	Environment:     "ENVIRONMENT",
	Center:          "CENTER",
	Scale:           "SCALE",
	CombinedAlpha:   "COMBINED_ALPHA",
	Texel0Alpha:     "TEXEL0_ALPHA",
	Texel1Alpha:     "TEXEL1_ALPHA",
	PrimitiveAlpha:  "PRIMITIVE_ALPHA",
	ShadeAlpha:      "SHADE_ALPHA",
	EnvAlpha:        "ENV_ALPHA",
	LODFraction:     "LOD_FRACTION",
	PrimLODFraction: "PRIM_LOD_FRAC",
	Noise:           "NOISE",
	K4:              "K4",
	K5:              "K5",
	One:             "ONE",
	Zero:            "ZERO",
}

// String returns the hardware name of the operand.
func (o Operand) String() string {
	if o.Valid() {
		return operandNames[o]
	}
	return fmt.Sprintf("Operand(%d)", uint8(o))
}

// Valid reports whether o is a known operand.
func (o Operand) Valid() bool { return o < NumOperands }

// IsTexel reports whether o reads a texture sample.
func (o Operand) IsTexel() bool {
	switch o {
	case Texel0, Texel1, Texel0Alpha, Texel1Alpha:
		return true
	}
	return false
}

// Tile returns the texture tile sampled by a texel operand, or -1.
func (o Operand) Tile() int {
	switch o {
	case Texel0, Texel0Alpha:
		return 0
	case Texel1, Texel1Alpha:
		return 1
	}
	return -1
}

// IsConstant reports whether the value of o is fixed for the whole
// primitive: constant registers, primitive LOD and the literals.
func (o Operand) IsConstant() bool {
	switch o {
	case Primitive, Environment, Center, Scale,
		PrimitiveAlpha, EnvAlpha, PrimLODFraction, K4, K5, One, Zero:
		return true
	}
	return false
}

// IsAlpha reports whether o selects a scalar (alpha or single value) that
// is replicated across the color channels.
func (o Operand) IsAlpha() bool {
	switch o {
	case CombinedAlpha, Texel0Alpha, Texel1Alpha, PrimitiveAlpha, ShadeAlpha,
		EnvAlpha, LODFraction, PrimLODFraction, Noise, K4, K5:
		return true
	}
	return false
}

// UsageMask records which operands a compiled program references,
// one bit per Operand. One and Zero are never recorded.
type UsageMask uint32

// Add returns m with o recorded.
func (m UsageMask) Add(o Operand) UsageMask {
	if o == One || o == Zero || !o.Valid() {
		return m
	}
	return m | 1<<o
}

// Has reports whether o is referenced.
func (m UsageMask) Has(o Operand) bool {
	return o.Valid() && m&(1<<o) != 0
}

const (
	tile0Mask UsageMask = 1<<Texel0 | 1<<Texel0Alpha
	tile1Mask UsageMask = 1<<Texel1 | 1<<Texel1Alpha
)

// UsesTexture reports whether any texture sample is referenced.
func (m UsageMask) UsesTexture() bool { return m&(tile0Mask|tile1Mask) != 0 }

// UsesTile reports whether the texture of the given tile (0 or 1) is sampled.
func (m UsageMask) UsesTile(tile int) bool {
	switch tile {
	case 0:
		return m&tile0Mask != 0
	case 1:
		return m&tile1Mask != 0
	}
	return false
}

// TextureSamples returns how many texture units must be bound: 0, 1 or 2.
func (m UsageMask) TextureSamples() int {
	n := 0
	if m.UsesTile(0) {
		n++
	}
	if m.UsesTile(1) {
		n++
	}
	return n
}

// UsesShade reports whether the interpolated vertex color is referenced.
func (m UsageMask) UsesShade() bool { return m&(1<<Shade|1<<ShadeAlpha) != 0 }

// UsesLOD reports whether the per-pixel LOD fraction must be computed.
func (m UsageMask) UsesLOD() bool { return m.Has(LODFraction) }

// UsesNoise reports whether the noise term is referenced.
func (m UsageMask) UsesNoise() bool { return m.Has(Noise) }

// Operands returns the referenced operands in ascending order.
func (m UsageMask) Operands() []Operand {
	var ops []Operand
	for o := Operand(0); o < NumOperands; o++ {
		if m.Has(o) {
			ops = append(ops, o)
		}
	}
	return ops
}

func (m UsageMask) String() string {
	ops := m.Operands()
	if len(ops) == 0 {
		return "{}"
	}
	names := make([]string, len(ops))
	for i, o := range ops {
		names[i] = o.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}
