// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

import (
	"errors"
	"fmt"
)

// Errors returned by descriptor encoding.
var (
	// ErrFieldRange is returned when a raw mux field does not fit its bit width.
	ErrFieldRange = errors.New("combiner: mux field out of range")

	// ErrNotEncodable is returned when an operand cannot be selected by a slot.
	ErrNotEncodable = errors.New("combiner: operand not encodable in slot")
)

// CycleType is the number of combiner cycles active for a draw.
type CycleType uint8

const (
	// OneCycle evaluates only the first cycle.
	OneCycle CycleType = iota
	// TwoCycle chains the second cycle after the first.
	TwoCycle
)

// NumCycles returns 1 or 2.
func (c CycleType) NumCycles() int {
	if c == TwoCycle {
		return 2
	}
	return 1
}

func (c CycleType) String() string {
	if c == TwoCycle {
		return "2cycle"
	}
	return "1cycle"
}

// Descriptor is a packed combine mode: the 56-bit SetCombine mux in bits
// 0-55 and the cycle type in bit 56. It is the program cache key, so two
// equal descriptors always compile to the same program.
type Descriptor uint64

const (
	muxMask      = 1<<56 - 1
	twoCycleFlag = 1 << 56
)

// NewDescriptor packs a raw SetCombine mux and the active cycle type.
// Bits above 55 of mux are ignored.
func NewDescriptor(mux uint64, ct CycleType) Descriptor {
	return Descriptor(mux & muxMask).WithCycles(ct)
}

// Mux returns the raw 56-bit SetCombine value.
func (d Descriptor) Mux() uint64 { return uint64(d) & muxMask }

// Cycles returns the cycle type stored in d.
func (d Descriptor) Cycles() CycleType {
	if d&twoCycleFlag != 0 {
		return TwoCycle
	}
	return OneCycle
}

// WithCycles returns d with its cycle type replaced.
func (d Descriptor) WithCycles(ct CycleType) Descriptor {
	d &^= twoCycleFlag
	if ct == TwoCycle {
		d |= twoCycleFlag
	}
	return d
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%#014x/%s", d.Mux(), d.Cycles())
}

// MuxIndex is a raw selector stored in one mux field. Its meaning depends
// on the slot; Decode maps it to an Operand.
type MuxIndex uint8

// Color selectors, named as in the RSP microcode headers. Several names
// share a value because the slots decode it differently.
const (
	CCMuxCombined        MuxIndex = 0
	CCMuxTexel0          MuxIndex = 1
	CCMuxTexel1          MuxIndex = 2
	CCMuxPrimitive       MuxIndex = 3
	CCMuxShade           MuxIndex = 4
	CCMuxEnvironment     MuxIndex = 5
	CCMuxCenter          MuxIndex = 6 // B only
	CCMuxScale           MuxIndex = 6 // C only
	CCMuxOne             MuxIndex = 6 // A and D
	CCMuxCombinedAlpha   MuxIndex = 7 // C only
	CCMuxNoise           MuxIndex = 7 // A only
	CCMuxK4              MuxIndex = 7 // B only
	CCMuxTexel0Alpha     MuxIndex = 8
	CCMuxTexel1Alpha     MuxIndex = 9
	CCMuxPrimitiveAlpha  MuxIndex = 10
	CCMuxShadeAlpha      MuxIndex = 11
	CCMuxEnvAlpha        MuxIndex = 12
	CCMuxLODFraction     MuxIndex = 13
	CCMuxPrimLODFraction MuxIndex = 14
	CCMuxK5              MuxIndex = 15
	CCMuxZero            MuxIndex = 31
)

// Alpha selectors.
const (
	ACMuxCombined        MuxIndex = 0
	ACMuxLODFraction     MuxIndex = 0 // C only
	ACMuxTexel0          MuxIndex = 1
	ACMuxTexel1          MuxIndex = 2
	ACMuxPrimitive       MuxIndex = 3
	ACMuxShade           MuxIndex = 4
	ACMuxEnvironment     MuxIndex = 5
	ACMuxOne             MuxIndex = 6
	ACMuxPrimLODFraction MuxIndex = 6 // C only
	ACMuxZero            MuxIndex = 7
)

// FieldSet holds the four raw selectors of one cycle of one channel.
type FieldSet struct {
	A, B, C, D MuxIndex
}

// Fields holds the sixteen raw selectors of a mux, indexed by cycle.
type Fields struct {
	RGB   [2]FieldSet
	Alpha [2]FieldSet
}

// field describes the position of one selector in the mux.
type field struct {
	shift uint
	width uint
}

func (f field) mask() uint64 { return 1<<f.width - 1 }

// Field positions, indexed by cycle.
var (
	rgbA   = [2]field{{52, 4}, {37, 4}}
	rgbB   = [2]field{{28, 4}, {24, 4}}
	rgbC   = [2]field{{47, 5}, {32, 5}}
	rgbD   = [2]field{{15, 3}, {6, 3}}
	alphaA = [2]field{{44, 3}, {21, 3}}
	alphaB = [2]field{{12, 3}, {3, 3}}
	alphaC = [2]field{{41, 3}, {18, 3}}
	alphaD = [2]field{{9, 3}, {0, 3}}
)

func (f field) get(mux uint64) MuxIndex { return MuxIndex(mux >> f.shift & f.mask()) }

func (f field) put(mux uint64, v MuxIndex) uint64 {
	return mux | (uint64(v)&f.mask())<<f.shift
}

func (f field) fits(v MuxIndex) bool { return uint64(v) <= f.mask() }

// Pack builds a descriptor from raw selectors. Each selector is masked to
// its field width, so the result never depends on out-of-range bits; use
// Fields.Validate to detect them.
func Pack(f Fields, ct CycleType) Descriptor {
	var mux uint64
	for i := range 2 {
		mux = rgbA[i].put(mux, f.RGB[i].A)
		mux = rgbB[i].put(mux, f.RGB[i].B)
		mux = rgbC[i].put(mux, f.RGB[i].C)
		mux = rgbD[i].put(mux, f.RGB[i].D)
		mux = alphaA[i].put(mux, f.Alpha[i].A)
		mux = alphaB[i].put(mux, f.Alpha[i].B)
		mux = alphaC[i].put(mux, f.Alpha[i].C)
		mux = alphaD[i].put(mux, f.Alpha[i].D)
	}
	return NewDescriptor(mux, ct)
}

// Fields unpacks the raw selectors of d.
func (d Descriptor) Fields() Fields {
	mux := d.Mux()
	var f Fields
	for i := range 2 {
		f.RGB[i] = FieldSet{rgbA[i].get(mux), rgbB[i].get(mux), rgbC[i].get(mux), rgbD[i].get(mux)}
		f.Alpha[i] = FieldSet{alphaA[i].get(mux), alphaB[i].get(mux), alphaC[i].get(mux), alphaD[i].get(mux)}
	}
	return f
}

// Validate reports the first selector that does not fit its field.
func (f Fields) Validate() error {
	for i := range 2 {
		checks := []struct {
			name string
			f    field
			v    MuxIndex
		}{
			{"rgb A", rgbA[i], f.RGB[i].A},
			{"rgb B", rgbB[i], f.RGB[i].B},
			{"rgb C", rgbC[i], f.RGB[i].C},
			{"rgb D", rgbD[i], f.RGB[i].D},
			{"alpha A", alphaA[i], f.Alpha[i].A},
			{"alpha B", alphaB[i], f.Alpha[i].B},
			{"alpha C", alphaC[i], f.Alpha[i].C},
			{"alpha D", alphaD[i], f.Alpha[i].D},
		}
		for _, c := range checks {
			if !c.f.fits(c.v) {
				return fmt.Errorf("%w: %s cycle %d = %d (max %d)", ErrFieldRange, c.name, i, c.v, c.f.mask())
			}
		}
	}
	return nil
}
