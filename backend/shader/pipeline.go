// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// VertexStride is the byte stride of one vertex.
const VertexStride = 52

func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 1}, // shade
				{Format: gputypes.VertexFormatFloat32x2, Offset: 32, ShaderLocation: 2}, // uv0
				{Format: gputypes.VertexFormatFloat32x2, Offset: 40, ShaderLocation: 3}, // uv1
				{Format: gputypes.VertexFormatFloat32, Offset: 48, ShaderLocation: 4},   // fog
			},
		},
	}
}

// layouts are the bind group and pipeline layouts shared by every program.
// Programs that sample no texture use the plain layout.
type layouts struct {
	device   hal.Device
	uniform  hal.BindGroupLayout
	textures hal.BindGroupLayout
	plain    hal.PipelineLayout
	textured hal.PipelineLayout
}

func newLayouts(device hal.Device) (*layouts, error) {
	l := &layouts{device: device}
	var err error
	l.uniform, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "combiner_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform layout: %w", err)
	}

	texture := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	l.textures, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "combiner_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageFragment, Texture: texture},
			{Binding: 1, Visibility: gputypes.ShaderStageFragment, Texture: texture},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		l.destroy()
		return nil, fmt.Errorf("create texture layout: %w", err)
	}

	l.plain, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "combiner_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{l.uniform},
	})
	if err != nil {
		l.destroy()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	l.textured, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "combiner_textured_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{l.uniform, l.textures},
	})
	if err != nil {
		l.destroy()
		return nil, fmt.Errorf("create textured pipeline layout: %w", err)
	}
	return l, nil
}

// destroy releases the layouts in reverse creation order.
func (l *layouts) destroy() {
	if l.textured != nil {
		l.device.DestroyPipelineLayout(l.textured)
		l.textured = nil
	}
	if l.plain != nil {
		l.device.DestroyPipelineLayout(l.plain)
		l.plain = nil
	}
	if l.textures != nil {
		l.device.DestroyBindGroupLayout(l.textures)
		l.textures = nil
	}
	if l.uniform != nil {
		l.device.DestroyBindGroupLayout(l.uniform)
		l.uniform = nil
	}
}

// createResources builds the shader module, render pipeline, uniform
// buffer and uniform bind group of p. On error the caller destroys
// whatever was created.
func (c *Compiler) createResources(p *Program, spirv []uint32) error {
	label := fmt.Sprintf("combiner_%016x", uint64(p.key))
	var err error
	p.module, err = c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	layout := c.layouts.plain
	if p.usage.UsesTexture() {
		layout = c.layouts.textured
	}
	premulBlend := gputypes.BlendStatePremultiplied()
	p.pipeline, err = c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    c.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}

	p.uniforms, err = c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_uniforms",
		Size:  UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}

	p.bindGroup, err = c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label + "_bind",
		Layout: c.layouts.uniform,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.uniforms.NativeHandle(), Offset: 0, Size: UniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform bind group: %w", err)
	}
	return nil
}

// destroyResources releases the GPU objects of p in reverse creation order.
func (c *Compiler) destroyResources(p *Program) {
	if p.bindGroup != nil {
		c.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.uniforms != nil {
		c.device.DestroyBuffer(p.uniforms)
		p.uniforms = nil
	}
	if p.pipeline != nil {
		c.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.module != nil {
		c.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}
