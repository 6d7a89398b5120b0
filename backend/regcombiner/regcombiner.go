// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package regcombiner lowers combiners to general register combiner
// stages. Every stage computes A*B + C*D per channel from mapped
// registers and writes one register; the output is read from Spare0.
//
// Register use:
//
//	Primary    shade
//	Secondary  rgb = noise, a = LOD fraction
//	Texture0/1 texels
//	Const0/1   per-combiner constants, chosen per channel
//	Spare0     running value and output
//	Spare1     first-cycle result for channels with two cycles
package regcombiner

import (
	"fmt"
	"strings"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
)

func init() {
	backend.Register(backend.NameRegisterCombiner, New)
}

// Register names a combiner register.
type Register uint8

const (
	RegZero Register = iota
	RegPrimary
	RegSecondary
	RegTexture0
	RegTexture1
	RegConst0
	RegConst1
	RegSpare0
	RegSpare1
	RegDiscard

	numRegisters = RegDiscard
)

var registerNames = [...]string{
	"ZERO", "PRIMARY", "SECONDARY", "TEXTURE0", "TEXTURE1",
	"CONST0", "CONST1", "SPARE0", "SPARE1", "DISCARD",
}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", r)
}

// Mapping transforms a register value before it enters a product.
type Mapping uint8

const (
	MapIdentity Mapping = iota // x
	MapInvert                  // 1 - x
	MapNegate                  // -x
	MapExpand                  // 2x - 1
)

func (m Mapping) apply(x float32) float32 {
	switch m {
	case MapInvert:
		return 1 - x
	case MapNegate:
		return -x
	case MapExpand:
		return 2*x - 1
	}
	return x
}

// Component selects the part of a register read by an input.
type Component uint8

const (
	ComponentRGB   Component = iota
	ComponentAlpha           // alpha replicated
	ComponentBlue            // blue replicated, for alpha portions
)

// Input is one of the four product inputs.
type Input struct {
	Reg       Register
	Mapping   Mapping
	Component Component
}

func (in Input) String() string {
	s := in.Reg.String()
	switch in.Component {
	case ComponentAlpha:
		s += ".a"
	case ComponentBlue:
		s += ".b"
	}
	switch in.Mapping {
	case MapInvert:
		return "1-" + s
	case MapNegate:
		return "-" + s
	case MapExpand:
		return "expand(" + s + ")"
	}
	return s
}

// Portion is the RGB or alpha half of a stage: Out = A*B + C*D.
type Portion struct {
	A, B, C, D Input
	Out        Register
}

var discard = Portion{Out: RegDiscard}

func (p Portion) String() string {
	if p.Out == RegDiscard {
		return "-"
	}
	return fmt.Sprintf("%v = %v*%v + %v*%v", p.Out, p.A, p.B, p.C, p.D)
}

// Stage is one general combiner stage.
type Stage struct {
	RGB, Alpha Portion
}

// Program is a lowered combiner. Const holds, per constant register, the
// operand loaded into its color and alpha.
type Program struct {
	Stages     []Stage
	ConstRGB   [2]combiner.Operand
	ConstAlpha [2]combiner.Operand
}

var _ backend.Kernel = (*Program)(nil)

func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "const0=(%v, %v) const1=(%v, %v)",
		p.ConstRGB[0], p.ConstAlpha[0], p.ConstRGB[1], p.ConstAlpha[1])
	for i, s := range p.Stages {
		fmt.Fprintf(&b, "; %d: rgb %v | alpha %v", i, s.RGB, s.Alpha)
	}
	return b.String()
}

// Evaluate runs the stages. Every stage reads the registers as they were
// before the stage.
func (p *Program) Evaluate(in *combiner.Inputs) combiner.Color {
	var none combiner.Color
	var regs [numRegisters]combiner.Color
	regs[RegPrimary] = in.Shade
	regs[RegSecondary] = combiner.Color{R: in.Noise, G: in.Noise, B: in.Noise, A: in.LODFraction}
	regs[RegTexture0] = in.Texel0
	regs[RegTexture1] = in.Texel1
	for i := range 2 {
		rgb := in.RGB(p.ConstRGB[i], none)
		regs[RegConst0+Register(i)] = combiner.Color{R: rgb[0], G: rgb[1], B: rgb[2], A: in.Alpha(p.ConstAlpha[i], none)}
	}

	for _, s := range p.Stages {
		next := regs
		if s.RGB.Out != RegDiscard {
			a, b, c, d := rgbInput(&regs, s.RGB.A), rgbInput(&regs, s.RGB.B), rgbInput(&regs, s.RGB.C), rgbInput(&regs, s.RGB.D)
			o := &next[s.RGB.Out]
			o.R = a[0]*b[0] + c[0]*d[0]
			o.G = a[1]*b[1] + c[1]*d[1]
			o.B = a[2]*b[2] + c[2]*d[2]
		}
		if s.Alpha.Out != RegDiscard {
			a, b, c, d := alphaInput(&regs, s.Alpha.A), alphaInput(&regs, s.Alpha.B), alphaInput(&regs, s.Alpha.C), alphaInput(&regs, s.Alpha.D)
			next[s.Alpha.Out].A = a*b + c*d
		}
		regs = next
	}
	return regs[RegSpare0]
}

func rgbInput(regs *[numRegisters]combiner.Color, in Input) [3]float32 {
	r := regs[in.Reg]
	v := [3]float32{r.R, r.G, r.B}
	switch in.Component {
	case ComponentAlpha:
		v = [3]float32{r.A, r.A, r.A}
	case ComponentBlue:
		v = [3]float32{r.B, r.B, r.B}
	}
	for i := range v {
		v[i] = in.Mapping.apply(v[i])
	}
	return v
}

func alphaInput(regs *[numRegisters]combiner.Color, in Input) float32 {
	r := regs[in.Reg]
	v := r.A
	if in.Component == ComponentBlue {
		v = r.B
	}
	return in.Mapping.apply(v)
}
