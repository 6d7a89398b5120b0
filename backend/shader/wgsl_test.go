// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"strings"
	"testing"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
)

func pipeline(stages ...combiner.Stage) combiner.Pipeline {
	p := combiner.Pipeline{NumStages: len(stages)}
	copy(p.Stages[:], stages)
	return p
}

func TestStageExpr(t *testing.T) {
	name := func(o combiner.Operand) string { return o.String() }
	tests := []struct {
		name  string
		stage combiner.Stage
		want  string
	}{
		{"load", combiner.NewStage(combiner.Load(combiner.Texel0)), "TEXEL0"},
		{
			"full cycle",
			combiner.NewStage(combiner.Load(combiner.Texel0), combiner.Sub(combiner.Shade),
				combiner.Mul(combiner.Primitive), combiner.Add(combiner.Shade)),
			"(TEXEL0 - SHADE) * PRIMITIVE + SHADE",
		},
		{
			"product then difference",
			combiner.NewStage(combiner.Load(combiner.Texel0), combiner.Mul(combiner.Shade), combiner.Sub(combiner.Environment)),
			"TEXEL0 * SHADE - ENVIRONMENT",
		},
		{
			"chained products",
			combiner.NewStage(combiner.Load(combiner.Texel0), combiner.Add(combiner.Texel1),
				combiner.Mul(combiner.Shade), combiner.Mul(combiner.K5)),
			"(TEXEL0 + TEXEL1) * SHADE * K5",
		},
		{
			"interpolate",
			combiner.NewStage(combiner.Interpolate(combiner.Texel0, combiner.Shade, combiner.PrimitiveAlpha)),
			"mix(SHADE, TEXEL0, PRIMITIVE_ALPHA)",
		},
		{
			"interpolate then add",
			combiner.NewStage(combiner.Interpolate(combiner.Texel0, combiner.Shade, combiner.Noise),
				combiner.Add(combiner.Environment), combiner.Mul(combiner.K4)),
			"(mix(SHADE, TEXEL0, NOISE) + ENVIRONMENT) * K4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stageExpr(&tt.stage, name); got != tt.want {
				t.Errorf("stageExpr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateModulate(t *testing.T) {
	c := combiner.Combiner{
		Color: pipeline(combiner.NewStage(combiner.Load(combiner.Texel0), combiner.Mul(combiner.Shade))),
		Alpha: pipeline(combiner.NewStage(combiner.Load(combiner.Texel0Alpha), combiner.Mul(combiner.ShadeAlpha))),
	}
	src := Generate(&c, backend.DefaultFeatures())

	for _, want := range []string{
		"@group(1) @binding(0) var tex0: texture_2d<f32>;",
		"@group(1) @binding(2) var samp: sampler;",
		"let texel0 = textureSample(tex0, samp, fin.uv0);",
		"let a0: f32 = texel0.a * fin.shade.a;",
		"let c0: vec3<f32> = texel0.rgb * fin.shade.rgb;",
		"var color = vec4<f32>(c0, a0);",
		"fn noise_at(",
		"mix(u.fog_color.rgb, color.rgb, fin.fog)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("Generate() missing %q:\n%s", want, src)
		}
	}
	for _, absent := range []string{"var tex1", "texel1", "lod_frac"} {
		if strings.Contains(src, absent) {
			t.Errorf("Generate() contains %q:\n%s", absent, src)
		}
	}
}

func TestGenerateTwoCycles(t *testing.T) {
	c := combiner.Combiner{
		Color: pipeline(
			combiner.NewStage(combiner.Load(combiner.Texel1), combiner.Sub(combiner.Environment)),
			combiner.NewStage(combiner.Load(combiner.Combined), combiner.Mul(combiner.CombinedAlpha))),
		Alpha: pipeline(combiner.NewStage(combiner.Load(combiner.PrimLODFraction))),
	}
	src := Generate(&c, backend.DefaultFeatures())
	for _, want := range []string{
		"let a0: f32 = u.consts.z;",
		"let c0: vec3<f32> = texel1.rgb - u.env.rgb;",
		"let c1: vec3<f32> = c0 * vec3<f32>(a0);",
		"var color = vec4<f32>(c1, a0);",
		"@group(1) @binding(1) var tex1: texture_2d<f32>;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("Generate() missing %q:\n%s", want, src)
		}
	}
	if strings.Contains(src, "var tex0") {
		t.Errorf("Generate() declares tex0:\n%s", src)
	}
}

func TestGenerateCombinedFirstCycle(t *testing.T) {
	c := combiner.Combiner{
		Color: pipeline(combiner.NewStage(combiner.Load(combiner.Shade), combiner.Add(combiner.Combined))),
		Alpha: pipeline(
			combiner.NewStage(combiner.Load(combiner.One)),
			combiner.NewStage(combiner.Load(combiner.Combined), combiner.Mul(combiner.K4))),
	}
	src := Generate(&c, backend.DefaultFeatures())
	for _, want := range []string{
		"let c0: vec3<f32> = fin.shade.rgb + vec3<f32>(0.0);",
		"let a0: f32 = 1.0;",
		"let a1: f32 = a0 * u.consts.x;",
		"var color = vec4<f32>(c0, a1);",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("Generate() missing %q:\n%s", want, src)
		}
	}
}

func TestGenerateFeatures(t *testing.T) {
	c := combiner.Combiner{
		Color: pipeline(combiner.NewStage(combiner.Interpolate(combiner.Texel0, combiner.Texel1, combiner.LODFraction))),
		Alpha: pipeline(combiner.NewStage(combiner.Load(combiner.One))),
	}

	src := Generate(&c, backend.DefaultFeatures())
	for _, want := range []string{
		"fn lod_fraction(",
		"let lod_frac = lod_fraction(fin.uv0);",
		"let c0: vec3<f32> = mix(texel1.rgb, texel0.rgb, vec3<f32>(lod_frac));",
		"if u.flags.y != 0u && noise < 0.5 {",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("Generate() missing %q:\n%s", want, src)
		}
	}

	src = Generate(&c, backend.Features{})
	if !strings.Contains(src, "let lod_frac = u.consts.z;") {
		t.Errorf("LOD disabled does not read the primitive fraction:\n%s", src)
	}
	for _, absent := range []string{"fn lod_fraction", "noise_at", "let noise", "fog_color.rgb, color.rgb"} {
		if strings.Contains(src, absent) {
			t.Errorf("Generate() without features contains %q:\n%s", absent, src)
		}
	}
	if !strings.Contains(src, "u.alpha_test.x != 0.0") {
		t.Errorf("alpha test missing:\n%s", src)
	}
}
