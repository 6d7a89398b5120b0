// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
	xdraw "golang.org/x/image/draw"
)

// checkerboard is a small two-color texture; scaling it up bilinearly
// gives soft edges that show how texel alpha flows through the combiner.
func checkerboard(n int, a, b color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	for y := range n {
		for x := range n {
			c := a
			if (x+y)%2 == 1 {
				c = b
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func upscale(src image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func texel(img *image.NRGBA, x, y int) combiner.Color {
	c := img.NRGBAAt(x, y)
	return combiner.Color{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

func clamp8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

// renderPreview shades every pixel of a size x size image with the
// active program of sc. The vertex color is a gradient, the LOD fraction
// grows left to right and fog thickens toward the bottom.
func renderPreview(rc *combiner.RenderContext, sc *backend.SoftwareCompiler, size int, path string) error {
	s := rc.State()
	s.PrimColor = combiner.Color{R: 0.9, G: 0.6, B: 0.2, A: 0.75}
	s.EnvColor = combiner.Color{R: 0.2, G: 0.4, B: 0.9, A: 0.5}
	s.CenterColor = combiner.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	s.ScaleColor = combiner.Color{R: 1, G: 1, B: 1, A: 1}
	s.K4, s.K5 = 0.25, 0.5
	s.PrimLODFraction = 0.5
	s.NoiseSeed = 1
	rc.UpdateDynamicValues()

	tex0 := upscale(checkerboard(8,
		color.NRGBA{R: 240, G: 220, B: 180, A: 255},
		color.NRGBA{R: 60, G: 40, B: 30, A: 128}), size)
	tex1 := upscale(checkerboard(2,
		color.NRGBA{R: 30, G: 200, B: 90, A: 255},
		color.NRGBA{R: 200, G: 30, B: 160, A: 255}), size)

	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	n := float32(size)
	for y := range size {
		for x := range size {
			fx, fy := float32(x)/n, float32(y)/n
			f := combiner.Fragment{
				Texel0:      texel(tex0, x, y),
				Texel1:      texel(tex1, x, y),
				Shade:       combiner.Color{R: fx, G: fy, B: 1 - fx, A: 1},
				LODFraction: fx,
				Noise:       s.Noise(x, y),
			}
			c, ok := sc.Shade(&f, 1-fy/2)
			if !ok {
				continue
			}
			out.SetNRGBA(x, y, color.NRGBA{R: clamp8(c.R), G: clamp8(c.G), B: clamp8(c.B), A: clamp8(c.A)})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(file, out); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}
