// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import "fmt"

// Decode tables map a raw selector to the expanded operand, per slot.
// Color and alpha differ in field width and in what each index means.
var (
	decodeRGBA = [16]Operand{
		Combined, Texel0, Texel1, Primitive, Shade, Environment, One, Noise,
		Zero, Zero, Zero, Zero, Zero, Zero, Zero, Zero,
	}
	decodeRGBB = [16]Operand{
		Combined, Texel0, Texel1, Primitive, Shade, Environment, Center, K4,
		Zero, Zero, Zero, Zero, Zero, Zero, Zero, Zero,
	}
	decodeRGBC = [32]Operand{
		Combined, Texel0, Texel1, Primitive, Shade, Environment, Scale, CombinedAlpha,
		Texel0Alpha, Texel1Alpha, PrimitiveAlpha, ShadeAlpha, EnvAlpha, LODFraction, PrimLODFraction, K5,
		Zero, Zero, Zero, Zero, Zero, Zero, Zero, Zero,
		Zero, Zero, Zero, Zero, Zero, Zero, Zero, Zero,
	}
	decodeRGBD = [8]Operand{
		Combined, Texel0, Texel1, Primitive, Shade, Environment, One, Zero,
	}
	decodeAlphaABD = [8]Operand{
		Combined, Texel0Alpha, Texel1Alpha, PrimitiveAlpha, ShadeAlpha, EnvAlpha, One, Zero,
	}
	decodeAlphaC = [8]Operand{
		LODFraction, Texel0Alpha, Texel1Alpha, PrimitiveAlpha, ShadeAlpha, EnvAlpha, PrimLODFraction, Zero,
	}
)

// CycleExpr is one cycle of one channel: (A - B) * C + D.
type CycleExpr struct {
	A, B, C, D Operand
}

func (e CycleExpr) String() string {
	return fmt.Sprintf("(%v - %v) * %v + %v", e.A, e.B, e.C, e.D)
}

// Mode is the symbolic form of a descriptor.
type Mode struct {
	Cycles CycleType
	Color  [2]CycleExpr
	Alpha  [2]CycleExpr
}

// Decode expands every selector of d through the decode tables. Both
// cycles are decoded regardless of the cycle type.
func Decode(d Descriptor) Mode {
	f := d.Fields()
	m := Mode{Cycles: d.Cycles()}
	for i := range 2 {
		// Fields() masks every selector to its width, so the lookups are in range.
		m.Color[i] = CycleExpr{
			A: decodeRGBA[f.RGB[i].A],
			B: decodeRGBB[f.RGB[i].B],
			C: decodeRGBC[f.RGB[i].C],
			D: decodeRGBD[f.RGB[i].D],
		}
		m.Alpha[i] = CycleExpr{
			A: decodeAlphaABD[f.Alpha[i].A],
			B: decodeAlphaABD[f.Alpha[i].B],
			C: decodeAlphaC[f.Alpha[i].C],
			D: decodeAlphaABD[f.Alpha[i].D],
		}
	}
	return m
}

// encodeSlot returns the raw index selecting o from table. Zero encodes as
// the last index, which is the all-ones value for every field.
func encodeSlot(table []Operand, o Operand, slot string, cycle int) (MuxIndex, error) {
	if o == Zero {
		return MuxIndex(len(table) - 1), nil
	}
	for i, v := range table {
		if v == o {
			return MuxIndex(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %v in %s cycle %d", ErrNotEncodable, o, slot, cycle)
}

// Encode packs a symbolic mode into a descriptor. It is the inverse of
// Decode for every representable mode.
func Encode(m Mode) (Descriptor, error) {
	var f Fields
	for i := range 2 {
		slots := []struct {
			table []Operand
			o     Operand
			name  string
			dst   *MuxIndex
		}{
			{decodeRGBA[:], m.Color[i].A, "color A", &f.RGB[i].A},
			{decodeRGBB[:], m.Color[i].B, "color B", &f.RGB[i].B},
			{decodeRGBC[:], m.Color[i].C, "color C", &f.RGB[i].C},
			{decodeRGBD[:], m.Color[i].D, "color D", &f.RGB[i].D},
			{decodeAlphaABD[:], m.Alpha[i].A, "alpha A", &f.Alpha[i].A},
			{decodeAlphaABD[:], m.Alpha[i].B, "alpha B", &f.Alpha[i].B},
			{decodeAlphaC[:], m.Alpha[i].C, "alpha C", &f.Alpha[i].C},
			{decodeAlphaABD[:], m.Alpha[i].D, "alpha D", &f.Alpha[i].D},
		}
		for _, s := range slots {
			idx, err := encodeSlot(s.table, s.o, s.name, i)
			if err != nil {
				return 0, err
			}
			*s.dst = idx
		}
	}
	return Pack(f, m.Cycles), nil
}

// MustEncode is like Encode but panics on error. It is meant for fixed
// modes known at compile time.
func MustEncode(m Mode) Descriptor {
	d, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return d
}

// Fixed modes used by internal passes.
var (
	// ModeTexel0 passes texture 0 through unchanged.
	ModeTexel0 = MustEncode(Mode{
		Cycles: OneCycle,
		Color:  [2]CycleExpr{{Zero, Zero, Zero, Texel0}, {Zero, Zero, Zero, Texel0}},
		Alpha:  [2]CycleExpr{{Zero, Zero, Zero, Texel0Alpha}, {Zero, Zero, Zero, Texel0Alpha}},
	})

	// ModeShadeTexel0 modulates texture 0 by the vertex color. It is the
	// program every backend falls back to when compilation fails.
	ModeShadeTexel0 = MustEncode(Mode{
		Cycles: OneCycle,
		Color:  [2]CycleExpr{{Texel0, Zero, Shade, Zero}, {Texel0, Zero, Shade, Zero}},
		Alpha:  [2]CycleExpr{{Texel0Alpha, Zero, ShadeAlpha, Zero}, {Texel0Alpha, Zero, ShadeAlpha, Zero}},
	})
)
