// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

type defaultsOnly struct {
	Defaults
}

type noDepthDesc struct {
	Defaults
}

func (noDepthDesc) DepthStencil() *DepthStencilDesc { return nil }

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline(defaultsOnly{})

	if len(p.Layout.Sets) != 0 || len(p.Layout.PushConstants) != 0 {
		t.Errorf("layout = %+v, want empty", p.Layout)
	}
	if len(p.Vertices) != 0 {
		t.Errorf("vertices = %v, want none", p.Vertices)
	}
	if len(p.Colors) != 1 {
		t.Fatalf("colors = %d, want 1", len(p.Colors))
	}
	if c := p.Colors[0]; c.Mask != gputypes.ColorWriteMaskAll || c.Blend == nil || *c.Blend != gputypes.BlendStateAlpha() {
		t.Errorf("color = %+v, want all channels with alpha blending", c)
	}
	if d := p.DepthStencil.Depth; d == nil || d.Fun != gputypes.CompareFunctionLess || !d.Write {
		t.Errorf("depth test = %+v, want less with writes", d)
	}
	if p.DepthStencil.DepthBounds || p.DepthStencil.Stencil != nil {
		t.Errorf("depth stencil = %+v, want no bounds or stencil test", p.DepthStencil)
	}
	if p.InputAssembler != (InputAssemblerDesc{Primitive: gputypes.PrimitiveTopologyTriangleList}) {
		t.Errorf("input assembler = %+v", p.InputAssembler)
	}
}

func TestDefaultPipeline_NilDepthStencil(t *testing.T) {
	p := DefaultPipeline(noDepthDesc{})
	if p.DepthStencil.Depth != nil || p.DepthStencil.Stencil != nil {
		t.Errorf("depth stencil = %+v, want zero value", p.DepthStencil)
	}
}

func TestDefaultColorsFresh(t *testing.T) {
	a := DefaultColors()
	a[0].Mask = 0
	if DefaultColors()[0].Mask != gputypes.ColorWriteMaskAll {
		t.Error("DefaultColors returned shared state")
	}
}

func TestStripIndexFormat(t *testing.T) {
	u16, u32 := gputypes.IndexFormatUint16, gputypes.IndexFormatUint32
	tests := []struct {
		name string
		ia   InputAssemblerDesc
		want *gputypes.IndexFormat
	}{
		{"list ignores restart", InputAssemblerDesc{gputypes.PrimitiveTopologyTriangleList, RestartU16}, nil},
		{"strip without restart", InputAssemblerDesc{gputypes.PrimitiveTopologyTriangleStrip, RestartDisabled}, nil},
		{"triangle strip u16", InputAssemblerDesc{gputypes.PrimitiveTopologyTriangleStrip, RestartU16}, &u16},
		{"line strip u32", InputAssemblerDesc{gputypes.PrimitiveTopologyLineStrip, RestartU32}, &u32},
		{"points", InputAssemblerDesc{gputypes.PrimitiveTopologyPointList, RestartU32}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripIndexFormat(tt.ia)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %v, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("got %v, want %v", got, *tt.want)
			}
		})
	}
}

func TestDepthStencilState(t *testing.T) {
	stencil := &StencilTest{
		Front:     hal.StencilFaceState{Compare: gputypes.CompareFunctionEqual, PassOp: hal.StencilOperationKeep},
		Back:      hal.StencilFaceState{Compare: gputypes.CompareFunctionNever},
		ReadMask:  0xFF,
		WriteMask: 0x0F,
	}
	depth := graph.Subpass{DepthStencilFormat: gputypes.TextureFormatDepth24Plus}

	if got := depthStencilState(DefaultDepthStencil(), graph.Subpass{}); got != nil {
		t.Errorf("no attachment: got %+v, want nil", got)
	}

	zero := depthStencilState(&DepthStencilDesc{}, depth)
	if zero == nil || zero.DepthCompare != gputypes.CompareFunctionAlways || zero.DepthWriteEnabled {
		t.Errorf("disabled depth test = %+v", zero)
	}
	if zero.StencilFront != stencilDisabled() || zero.StencilBack != stencilDisabled() {
		t.Errorf("disabled stencil test = %+v", zero)
	}

	got := depthStencilState(&DepthStencilDesc{Stencil: stencil}, depth)
	if got.StencilFront != stencil.Front || got.StencilBack != stencil.Back {
		t.Errorf("stencil faces = %+v / %+v", got.StencilFront, got.StencilBack)
	}
	if got.StencilReadMask != 0xFF || got.StencilWriteMask != 0x0F {
		t.Errorf("stencil masks = %#x / %#x", got.StencilReadMask, got.StencilWriteMask)
	}
}

func TestNativeDescriptor_VertexOnly(t *testing.T) {
	p := DefaultPipeline(defaultsOnly{})
	desc, err := nativeDescriptor(&p, &pipelineState{
		shaders: shader.Shaders{Vertex: shader.Stage{EntryPoint: "vs_main"}},
		subpass: graph.Subpass{},
	})
	if err != nil {
		t.Fatalf("vertex-only pipeline needs no color attachments: %v", err)
	}
	if desc.Fragment != nil {
		t.Errorf("fragment = %+v, want nil", desc.Fragment)
	}
	if desc.Vertex.Buffers != nil {
		t.Errorf("vertex buffers = %v, want nil", desc.Vertex.Buffers)
	}
}

func TestNativeDescriptor_TooFewAttachments(t *testing.T) {
	p := DefaultPipeline(defaultsOnly{})
	p.Colors = append(p.Colors, ColorBlendDesc{Mask: gputypes.ColorWriteMaskRed})
	_, err := nativeDescriptor(&p, &pipelineState{
		shaders: shader.Shaders{
			Vertex:   shader.Stage{EntryPoint: "vs_main"},
			Fragment: &shader.Stage{EntryPoint: "fs_main"},
		},
		subpass: colorSubpass(),
	})
	if !errors.Is(err, ErrSubpassMismatch) {
		t.Errorf("err = %v, want ErrSubpassMismatch", err)
	}
}
