// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader is the programmable shader backend. Each combiner becomes
// a WGSL module whose fragment entry point evaluates the color and alpha
// stages as infix expressions. The module is compiled to SPIR-V with naga
// and turned into a render pipeline on a wgpu HAL device.
//
// Bind groups:
//
//	group 0  binding 0  Uniforms (per program, written by Update)
//	group 1  binding 0  tex0 (only when tile 0 is sampled)
//	         binding 1  tex1 (only when tile 1 is sampled)
//	         binding 2  sampler
//
// The host binds group 1 itself; TextureLayout returns its layout. Bind
// records the pipeline and group 0 of the active program.
//
// Vertex layout (52 bytes per vertex):
//
//	location 0  position  vec4<f32>  clip space
//	location 1  shade     vec4<f32>
//	location 2  uv0       vec2<f32>
//	location 3  uv1       vec2<f32>
//	location 4  fog       f32        1 = no fog
//
// The package registers itself under backend.NameShader. Without a device
// in the capabilities it opens its own Vulkan device, unless built with the
// nogpu tag.
package shader
