// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package factory

import (
	"fmt"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/wgpu/hal"
)

// CreatePipelineLayout creates a pipeline layout over the given set layouts.
//
// The factory does not take ownership of the set-layout handles; the caller
// keeps them alive for as long as the pipeline layout is in use.
func (f *Factory) CreatePipelineLayout(setLayouts []resource.SetLayoutHandle, push []hal.PushConstantRange) (hal.PipelineLayout, error) {
	layout, err := f.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:              f.label("pipeline_layout"),
		BindGroupLayouts:   resource.RawSetLayouts(setLayouts),
		PushConstantRanges: push,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create pipeline layout: %w", ErrCreation, err)
	}
	f.live.pipelineLayouts.Add(1)
	return layout, nil
}

// DestroyPipelineLayout destroys a pipeline layout. Nil is ignored.
func (f *Factory) DestroyPipelineLayout(layout hal.PipelineLayout) {
	if layout == nil {
		return
	}
	f.device.DestroyPipelineLayout(layout)
	f.live.pipelineLayouts.Add(-1)
}

// CreateGraphicsPipeline creates a render pipeline.
// An empty desc.Label is replaced with the factory default label.
func (f *Factory) CreateGraphicsPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if desc == nil {
		return nil, ErrNilDescriptor
	}
	d := *desc
	if d.Label == "" {
		d.Label = f.label("pipeline")
	}
	pipeline, err := f.device.CreateRenderPipeline(&d)
	if err != nil {
		return nil, fmt.Errorf("%w: create graphics pipeline: %w", ErrCreation, err)
	}
	f.live.pipelines.Add(1)
	f.logger().Debug("graphics pipeline created",
		"label", d.Label,
		"vertex_buffers", len(d.Vertex.Buffers),
		"fragment", d.Fragment != nil,
		"depth", d.DepthStencil != nil)
	return pipeline, nil
}

// DestroyGraphicsPipeline destroys a render pipeline. Nil is ignored.
func (f *Factory) DestroyGraphicsPipeline(pipeline hal.RenderPipeline) {
	if pipeline == nil {
		return
	}
	f.device.DestroyRenderPipeline(pipeline)
	f.live.pipelines.Add(-1)
}

// CreateShaderModule creates a shader module from WGSL source or SPIR-V words.
func (f *Factory) CreateShaderModule(label string, source hal.ShaderSource) (hal.ShaderModule, error) {
	module, err := f.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  f.label(label),
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create shader module %q: %w", ErrCreation, label, err)
	}
	f.live.shaderModules.Add(1)
	return module, nil
}

// DestroyShaderModule destroys a shader module. Nil is ignored.
func (f *Factory) DestroyShaderModule(module hal.ShaderModule) {
	if module == nil {
		return
	}
	f.device.DestroyShaderModule(module)
	f.live.shaderModules.Add(-1)
}
