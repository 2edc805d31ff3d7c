// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SetLayout describes one descriptor set.
type SetLayout struct {
	Bindings []gputypes.BindGroupLayoutEntry
}

// Layout is the descriptor sets and push constants of a pipeline.
type Layout struct {
	Sets          []SetLayout
	PushConstants []hal.PushConstantRange
}

// ColorBlendDesc is the write mask and blending of one color target.
// A nil Blend disables blending.
type ColorBlendDesc struct {
	Mask  gputypes.ColorWriteMask
	Blend *gputypes.BlendState
}

// DepthTest configures the depth test.
type DepthTest struct {
	Fun   gputypes.CompareFunction
	Write bool
}

// StencilTest configures the stencil test.
type StencilTest struct {
	Front     hal.StencilFaceState
	Back      hal.StencilFaceState
	ReadMask  uint32
	WriteMask uint32
}

// DepthStencilDesc configures depth and stencil testing.
// The zero value disables both.
type DepthStencilDesc struct {
	Depth *DepthTest

	// DepthBounds requests the depth bounds test. The HAL has no depth
	// bounds test; the request is logged and ignored.
	DepthBounds bool

	Stencil *StencilTest
}

// PrimitiveRestart selects the strip restart index.
type PrimitiveRestart uint8

const (
	// RestartDisabled disables primitive restart.
	RestartDisabled PrimitiveRestart = iota
	// RestartU16 restarts strips at index 0xFFFF.
	RestartU16
	// RestartU32 restarts strips at index 0xFFFFFFFF.
	RestartU32
)

// InputAssemblerDesc configures primitive assembly.
type InputAssemblerDesc struct {
	Primitive gputypes.PrimitiveTopology
	Restart   PrimitiveRestart
}

// Pipeline is the full declarative configuration of a graphics pipeline.
type Pipeline struct {
	Layout         Layout
	Vertices       []VertexInput
	Colors         []ColorBlendDesc
	DepthStencil   DepthStencilDesc
	InputAssembler InputAssemblerDesc
}

// DefaultColors returns one color target writing all channels with alpha
// blending.
func DefaultColors() []ColorBlendDesc {
	blend := gputypes.BlendStateAlpha()
	return []ColorBlendDesc{{Mask: gputypes.ColorWriteMaskAll, Blend: &blend}}
}

// DefaultDepthStencil returns a less-than depth test with writes enabled,
// no depth bounds test, and no stencil test.
func DefaultDepthStencil() *DepthStencilDesc {
	return &DepthStencilDesc{
		Depth: &DepthTest{Fun: gputypes.CompareFunctionLess, Write: true},
	}
}

// DefaultInputAssembler returns a triangle list without primitive restart.
func DefaultInputAssembler() InputAssemblerDesc {
	return InputAssemblerDesc{
		Primitive: gputypes.PrimitiveTopologyTriangleList,
		Restart:   RestartDisabled,
	}
}

// PipelineSource is the part of a pipeline description DefaultPipeline
// reads.
type PipelineSource interface {
	Layout() Layout
	Vertices() []VertexInput
	Colors() []ColorBlendDesc
	DepthStencil() *DepthStencilDesc
	InputAssembler() InputAssemblerDesc
}

// PipelineProvider is implemented by descriptions that assemble their
// Pipeline themselves instead of using DefaultPipeline.
type PipelineProvider interface {
	Pipeline() Pipeline
}

// DefaultPipeline assembles a Pipeline from the individual queries of d.
// A nil DepthStencil disables depth and stencil testing.
func DefaultPipeline(d PipelineSource) Pipeline {
	var ds DepthStencilDesc
	if p := d.DepthStencil(); p != nil {
		ds = *p
	}
	return Pipeline{
		Layout:         d.Layout(),
		Vertices:       d.Vertices(),
		Colors:         d.Colors(),
		DepthStencil:   ds,
		InputAssembler: d.InputAssembler(),
	}
}

func resolvePipeline(d PipelineSource) Pipeline {
	if p, ok := d.(PipelineProvider); ok {
		return p.Pipeline()
	}
	return DefaultPipeline(d)
}

// Defaults supplies the default answer to every PipelineSource query and to
// the resource access queries. Embed it in a description and override what
// differs.
type Defaults struct{}

// Buffers returns no buffer accesses.
func (Defaults) Buffers() []graph.BufferAccess { return nil }

// Images returns no image accesses.
func (Defaults) Images() []graph.ImageAccess { return nil }

// Colors returns DefaultColors.
func (Defaults) Colors() []ColorBlendDesc { return DefaultColors() }

// DepthStencil returns DefaultDepthStencil.
func (Defaults) DepthStencil() *DepthStencilDesc { return DefaultDepthStencil() }

// Vertices returns no vertex inputs.
func (Defaults) Vertices() []VertexInput { return nil }

// Layout returns an empty layout.
func (Defaults) Layout() Layout { return Layout{} }

// InputAssembler returns DefaultInputAssembler.
func (Defaults) InputAssembler() InputAssemblerDesc { return DefaultInputAssembler() }

// Rect is a framebuffer rectangle.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// pipelineState is everything the native pipeline descriptor is built from.
type pipelineState struct {
	label   string
	shaders shader.Shaders
	layout  hal.PipelineLayout
	subpass graph.Subpass
	buffers []VertexBufferDesc
	attrs   []AttributeDesc
}

// nativeDescriptor builds the HAL render pipeline descriptor for p.
//
// Rasterization is fixed: filled, counter-clockwise front faces, no culling,
// no multisampling. Color target formats come from the subpass.
func nativeDescriptor(p *Pipeline, st *pipelineState) (*hal.RenderPipelineDescriptor, error) {
	desc := &hal.RenderPipelineDescriptor{
		Label:  st.label,
		Layout: st.layout,
		Vertex: hal.VertexState{
			Module:     st.shaders.Vertex.Module,
			EntryPoint: st.shaders.Vertex.EntryPoint,
			Buffers:    vertexBufferLayouts(st.buffers, st.attrs),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:         p.InputAssembler.Primitive,
			StripIndexFormat: stripIndexFormat(p.InputAssembler),
			FrontFace:        gputypes.FrontFaceCCW,
			CullMode:         gputypes.CullModeNone,
		},
		DepthStencil: depthStencilState(&p.DepthStencil, st.subpass),
		Multisample:  gputypes.DefaultMultisampleState(),
	}

	if fs := st.shaders.Fragment; fs != nil {
		if len(st.subpass.ColorFormats) < len(p.Colors) {
			return nil, fmt.Errorf("%w: %d color targets, %s",
				ErrSubpassMismatch, len(p.Colors), st.subpass)
		}
		targets := make([]gputypes.ColorTargetState, len(p.Colors))
		for i, c := range p.Colors {
			targets[i] = gputypes.ColorTargetState{
				Format:    st.subpass.ColorFormats[i],
				Blend:     c.Blend,
				WriteMask: c.Mask,
			}
		}
		desc.Fragment = &hal.FragmentState{
			Module:     fs.Module,
			EntryPoint: fs.EntryPoint,
			Targets:    targets,
		}
	}
	return desc, nil
}

func stripIndexFormat(ia InputAssemblerDesc) *gputypes.IndexFormat {
	switch ia.Primitive {
	case gputypes.PrimitiveTopologyLineStrip, gputypes.PrimitiveTopologyTriangleStrip:
	default:
		return nil
	}
	var f gputypes.IndexFormat
	switch ia.Restart {
	case RestartU16:
		f = gputypes.IndexFormatUint16
	case RestartU32:
		f = gputypes.IndexFormatUint32
	default:
		return nil
	}
	return &f
}

// depthStencilState converts ds for a subpass. A subpass without a
// depth/stencil attachment gets no depth/stencil state.
func depthStencilState(ds *DepthStencilDesc, subpass graph.Subpass) *hal.DepthStencilState {
	if ds.DepthBounds {
		framegraph.Component("render").Warn("depth bounds test is not supported, ignoring")
	}
	if !subpass.HasDepth() {
		return nil
	}

	state := &hal.DepthStencilState{
		Format:       subpass.DepthStencilFormat,
		DepthCompare: gputypes.CompareFunctionAlways,
		StencilFront: stencilDisabled(),
		StencilBack:  stencilDisabled(),
	}
	if ds.Depth != nil {
		state.DepthCompare = ds.Depth.Fun
		state.DepthWriteEnabled = ds.Depth.Write
	}
	if ds.Stencil != nil {
		state.StencilFront = ds.Stencil.Front
		state.StencilBack = ds.Stencil.Back
		state.StencilReadMask = ds.Stencil.ReadMask
		state.StencilWriteMask = ds.Stencil.WriteMask
	}
	return state
}

func stencilDisabled() hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
}
