// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
)

// Symbol names of operands that do not depend on the cycle. Combined and
// CombinedAlpha are resolved per cycle by the generator.
var (
	colorSymbols = map[combiner.Operand]string{
		combiner.Texel0:      "texel0.rgb",
		combiner.Texel1:      "texel1.rgb",
		combiner.Primitive:   "u.prim.rgb",
		combiner.Shade:       "fin.shade.rgb",
		combiner.Environment: "u.env.rgb",
		combiner.Center:      "u.center.rgb",
		combiner.Scale:       "u.scale.rgb",
		combiner.One:         "vec3<f32>(1.0)",
		combiner.Zero:        "vec3<f32>(0.0)",
	}
	alphaSymbols = map[combiner.Operand]string{
		combiner.Texel0:          "texel0.a",
		combiner.Texel0Alpha:     "texel0.a",
		combiner.Texel1:          "texel1.a",
		combiner.Texel1Alpha:     "texel1.a",
		combiner.Primitive:       "u.prim.a",
		combiner.PrimitiveAlpha:  "u.prim.a",
		combiner.Shade:           "fin.shade.a",
		combiner.ShadeAlpha:      "fin.shade.a",
		combiner.Environment:     "u.env.a",
		combiner.EnvAlpha:        "u.env.a",
		combiner.Center:          "u.center.a",
		combiner.Scale:           "u.scale.a",
		combiner.LODFraction:     "lod_frac",
		combiner.PrimLODFraction: "u.consts.z",
		combiner.Noise:           "noise",
		combiner.K4:              "u.consts.x",
		combiner.K5:              "u.consts.y",
		combiner.One:             "1.0",
		combiner.Zero:            "0.0",
	}
)

// Generate returns the WGSL module for c. Only the textures, LOD and noise
// terms that c reads are declared; f selects the optional effects.
func Generate(c *combiner.Combiner, f backend.Features) string {
	g := generator{c: c, f: f, usage: c.Usage()}
	return g.module()
}

type generator struct {
	c     *combiner.Combiner
	f     backend.Features
	usage combiner.UsageMask
	b     strings.Builder
}

func (g *generator) noise() bool { return g.f.Noise || g.usage.UsesNoise() }

func (g *generator) module() string {
	g.b.WriteString(uniformsWGSL)
	g.b.WriteString(vertexWGSL)
	if g.usage.UsesTile(0) {
		g.b.WriteString("@group(1) @binding(0) var tex0: texture_2d<f32>;\n")
	}
	if g.usage.UsesTile(1) {
		g.b.WriteString("@group(1) @binding(1) var tex1: texture_2d<f32>;\n")
	}
	if g.usage.UsesTexture() {
		g.b.WriteString("@group(1) @binding(2) var samp: sampler;\n\n")
	}
	if g.usage.UsesLOD() && g.f.LOD {
		g.b.WriteString(lodWGSL)
	}
	if g.noise() {
		g.b.WriteString(noiseWGSL)
	}
	g.fragment()
	return g.b.String()
}

func (g *generator) line(format string, args ...any) {
	g.b.WriteString("    ")
	fmt.Fprintf(&g.b, format, args...)
	g.b.WriteByte('\n')
}

func (g *generator) fragment() {
	g.b.WriteString("@fragment\nfn fs_main(fin: VertexOutput) -> @location(0) vec4<f32> {\n")

	// Sampling and derivatives stay ahead of any discard.
	if g.usage.UsesTile(0) {
		g.line("let texel0 = textureSample(tex0, samp, fin.uv0);")
	}
	if g.usage.UsesTile(1) {
		g.line("let texel1 = textureSample(tex1, samp, fin.uv1);")
	}
	if g.usage.UsesLOD() {
		if g.f.LOD {
			g.line("let lod_frac = lod_fraction(fin.uv0);")
		} else {
			g.line("let lod_frac = u.consts.z;")
		}
	}
	if g.noise() {
		g.line("let noise = noise_at(vec2<u32>(fin.position.xy));")
	}

	na := g.c.Alpha.NumStages
	for i, st := range g.c.Alpha.Active() {
		combinedA := "0.0"
		if i > 0 {
			combinedA = fmt.Sprintf("a%d", i-1)
		}
		g.line("let a%d: f32 = %s;", i, stageExpr(&st, func(o combiner.Operand) string {
			if o == combiner.Combined || o == combiner.CombinedAlpha {
				return combinedA
			}
			return alphaSymbols[o]
		}))
	}
	nc := g.c.Color.NumStages
	for i, st := range g.c.Color.Active() {
		combinedRGB, combinedA := "vec3<f32>(0.0)", "0.0"
		if i > 0 {
			combinedRGB = fmt.Sprintf("c%d", i-1)
			combinedA = fmt.Sprintf("a%d", min(i-1, na-1))
		}
		g.line("let c%d: vec3<f32> = %s;", i, stageExpr(&st, func(o combiner.Operand) string {
			switch o {
			case combiner.Combined:
				return combinedRGB
			case combiner.CombinedAlpha:
				return "vec3<f32>(" + combinedA + ")"
			}
			if s, ok := colorSymbols[o]; ok {
				return s
			}
			return "vec3<f32>(" + alphaSymbols[o] + ")"
		}))
	}
	g.line("var color = vec4<f32>(c%d, a%d);", nc-1, na-1)

	if g.f.Noise {
		g.line("if u.flags.y != 0u && noise < 0.5 {")
		g.line("    discard;")
		g.line("}")
	}
	g.line("if u.alpha_test.x != 0.0 {")
	g.line("    let t = u.alpha_test.y;")
	g.line("    if (t > 0.0 && color.a < t) || (t <= 0.0 && color.a <= 0.0) {")
	g.line("        discard;")
	g.line("    }")
	g.line("}")
	if g.f.Fog {
		g.line("if u.flags.x != 0u {")
		g.line("    color = vec4<f32>(mix(u.fog_color.rgb, color.rgb, fin.fog), color.a);")
		g.line("}")
	}
	g.line("return color;")
	g.b.WriteString("}\n")
}

// stageExpr renders the ops of a stage as one infix expression. A running
// sum or difference is closed in parentheses before it is multiplied, and
// Interpolate becomes mix(from, to, weight).
func stageExpr(st *combiner.Stage, sym func(combiner.Operand) string) string {
	var e string
	open := false
	for _, op := range st.List() {
		switch op.Kind {
		case combiner.OpLoad:
			e, open = sym(op.Param1), false
		case combiner.OpSub:
			e, open = e+" - "+sym(op.Param1), true
		case combiner.OpAdd:
			e, open = e+" + "+sym(op.Param1), true
		case combiner.OpMul:
			if open {
				e = "(" + e + ")"
			}
			e, open = e+" * "+sym(op.Param1), false
		case combiner.OpInterpolate:
			e = fmt.Sprintf("mix(%s, %s, %s)", sym(op.Param2), sym(op.Param1), sym(op.Param3))
			open = false
		default:
			panic(fmt.Sprintf("shader: unknown op %v", op.Kind))
		}
	}
	return e
}

const uniformsWGSL = `struct Uniforms {
    prim: vec4<f32>,
    env: vec4<f32>,
    center: vec4<f32>,
    scale: vec4<f32>,
    fog_color: vec4<f32>,
    // k4, k5, primitive LOD fraction, min LOD
    consts: vec4<f32>,
    // enabled, scale x, scale y, max tile
    lod: vec4<f32>,
    // fog, dither, noise seed, detail
    flags: vec4<u32>,
    // enabled, threshold
    alpha_test: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

`

const vertexWGSL = `struct VertexInput {
    @location(0) position: vec4<f32>,
    @location(1) shade: vec4<f32>,
    @location(2) uv0: vec2<f32>,
    @location(3) uv1: vec2<f32>,
    @location(4) fog: f32,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) shade: vec4<f32>,
    @location(1) uv0: vec2<f32>,
    @location(2) uv1: vec2<f32>,
    @location(3) fog: f32,
}

@vertex
fn vs_main(vin: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = vin.position;
    out.shade = vin.shade;
    out.uv0 = vin.uv0;
    out.uv1 = vin.uv1;
    out.fog = vin.fog;
    return out;
}

`

// lodWGSL mirrors combiner.LODParams.Fraction.
const lodWGSL = `fn lod_fraction(uv: vec2<f32>) -> f32 {
    let st = uv * u.lod.yz;
    let lod = max(length(dpdx(st)), length(dpdy(st)));
    if u.lod.x == 0.0 {
        return u.consts.z;
    }
    if lod < 1.0 {
        var f = max(lod, u.consts.w);
        if u.flags.w != 0u {
            f = 1.0 - f;
        }
        return f;
    }
    let tile = min(u.lod.w, floor(log2(floor(lod))));
    let scaled = lod / exp2(tile);
    return max(u.consts.w, fract(scaled));
}

`

// noiseWGSL is the hash of combiner.State.Noise.
const noiseWGSL = `fn noise_at(p: vec2<u32>) -> f32 {
    var h = (p.x * 0x27d4eb2du) ^ (p.y * 0x165667b1u) ^ (u.flags.z * 0x9e3779b9u);
    h = h ^ (h >> 15u);
    h = h * 0x2c1b3c6du;
    h = h ^ (h >> 12u);
    h = h * 0x297a2d39u;
    h = h ^ (h >> 15u);
    return f32(h >> 8u) / 16777216.0;
}

`
