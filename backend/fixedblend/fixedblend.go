// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fixedblend lowers combiners to a single fixed-function texture
// unit: one texture combined with the vertex color by replace, modulate
// or add. Only short single-cycle combiners fit; everything else is
// served by the fallback program.
package fixedblend

import (
	"fmt"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
)

func init() {
	backend.Register(backend.NameFixedBlend, New)
}

// Mode is the texture environment function of one channel.
type Mode uint8

const (
	// ModeVertex outputs the vertex operand.
	ModeVertex Mode = iota
	// ModeTexture outputs the texture operand.
	ModeTexture
	// ModeModulate outputs texture * vertex.
	ModeModulate
	// ModeAdd outputs texture + vertex.
	ModeAdd
)

func (m Mode) String() string {
	switch m {
	case ModeVertex:
		return "VERTEX"
	case ModeTexture:
		return "TEXTURE"
	case ModeModulate:
		return "MODULATE"
	case ModeAdd:
		return "ADD"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// Env configures one channel of the unit. Texture is a texel operand and
// Vertex a per-vertex or constant operand the host folds into the vertex
// color; unused slots hold combiner.Zero.
type Env struct {
	Mode    Mode
	Texture combiner.Operand
	Vertex  combiner.Operand
}

func (e Env) String() string {
	switch e.Mode {
	case ModeVertex:
		return fmt.Sprintf("%v(%v)", e.Mode, e.Vertex)
	case ModeTexture:
		return fmt.Sprintf("%v(%v)", e.Mode, e.Texture)
	}
	return fmt.Sprintf("%v(%v, %v)", e.Mode, e.Texture, e.Vertex)
}

// Unit is a lowered combiner. Tile is the sampled texture tile, or -1.
type Unit struct {
	Tile       int
	RGB, Alpha Env
}

var _ backend.Kernel = (*Unit)(nil)

func (u *Unit) String() string {
	return fmt.Sprintf("tile=%d rgb=%v alpha=%v", u.Tile, u.RGB, u.Alpha)
}

// Evaluate computes the unit output.
func (u *Unit) Evaluate(in *combiner.Inputs) combiner.Color {
	var none combiner.Color
	tex := in.RGB(u.RGB.Texture, none)
	vert := in.RGB(u.RGB.Vertex, none)
	var out combiner.Color
	rgb := [3]*float32{&out.R, &out.G, &out.B}
	for i, p := range rgb {
		*p = u.RGB.Mode.apply(tex[i], vert[i])
	}
	out.A = u.Alpha.Mode.apply(in.Alpha(u.Alpha.Texture, none), in.Alpha(u.Alpha.Vertex, none))
	return out
}

func (m Mode) apply(tex, vert float32) float32 {
	switch m {
	case ModeTexture:
		return tex
	case ModeModulate:
		return tex * vert
	case ModeAdd:
		return tex + vert
	}
	return vert
}

// Lower maps c onto one texture unit.
func Lower(c *combiner.Combiner) (*Unit, error) {
	if c.Color.NumStages != 1 || c.Alpha.NumStages != 1 {
		return nil, fmt.Errorf("%w: fixedblend: two cycles", combiner.ErrUnsupported)
	}
	rgb, err := lowerStage(&c.Color.Stages[0])
	if err != nil {
		return nil, fmt.Errorf("fixedblend: color: %w", err)
	}
	alpha, err := lowerStage(&c.Alpha.Stages[0])
	if err != nil {
		return nil, fmt.Errorf("fixedblend: alpha: %w", err)
	}

	u := &Unit{Tile: -1, RGB: rgb, Alpha: alpha}
	for _, e := range []Env{rgb, alpha} {
		tile := e.Texture.Tile()
		if tile < 0 {
			continue
		}
		if u.Tile >= 0 && u.Tile != tile {
			return nil, fmt.Errorf("%w: fixedblend: channels sample different tiles", combiner.ErrUnsupported)
		}
		u.Tile = tile
	}
	return u, nil
}

func lowerStage(s *combiner.Stage) (Env, error) {
	ops := s.List()
	switch {
	case len(ops) == 1 && ops[0].Kind == combiner.OpLoad:
		x := ops[0].Param1
		if x.IsTexel() {
			return Env{Mode: ModeTexture, Texture: x, Vertex: combiner.Zero}, nil
		}
		if !vertexOperand(x) {
			return Env{}, unsupportedOperand(x)
		}
		return Env{Mode: ModeVertex, Texture: combiner.Zero, Vertex: x}, nil

	case len(ops) == 2 && ops[0].Kind == combiner.OpLoad &&
		(ops[1].Kind == combiner.OpMul || ops[1].Kind == combiner.OpAdd):
		tex, vert := ops[0].Param1, ops[1].Param1
		if !tex.IsTexel() {
			tex, vert = vert, tex
		}
		if !tex.IsTexel() || vert.IsTexel() {
			return Env{}, fmt.Errorf("%w: needs one texture and one vertex operand", combiner.ErrUnsupported)
		}
		if !vertexOperand(vert) {
			return Env{}, unsupportedOperand(vert)
		}
		mode := ModeModulate
		if ops[1].Kind == combiner.OpAdd {
			mode = ModeAdd
		}
		return Env{Mode: mode, Texture: tex, Vertex: vert}, nil
	}
	return Env{}, fmt.Errorf("%w: stage %v", combiner.ErrUnsupported, s)
}

// vertexOperand reports whether o can be supplied through the vertex
// color: shade or a per-primitive constant.
func vertexOperand(o combiner.Operand) bool {
	switch o {
	case combiner.Combined, combiner.CombinedAlpha, combiner.Noise, combiner.LODFraction:
		return false
	}
	return !o.IsTexel()
}

func unsupportedOperand(o combiner.Operand) error {
	return fmt.Errorf("%w: operand %v", combiner.ErrUnsupported, o)
}

// New creates the fixed-function compiler. It needs one texture unit.
func New(caps backend.Capabilities) (combiner.Compiler, error) {
	if caps.TextureUnits < 1 {
		return nil, fmt.Errorf("fixedblend: no texture units")
	}
	sc, err := backend.NewSoftwareCompiler(backend.NameFixedBlend, true,
		func(c *combiner.Combiner) (backend.Kernel, error) {
			if err := caps.Features.Check(c.Usage()); err != nil {
				return nil, err
			}
			u, err := Lower(c)
			if err != nil {
				return nil, err
			}
			return u, nil
		})
	if err != nil {
		return nil, err
	}
	return sc, nil
}
