// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/factory"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/internal/gputest"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const markUserDispose = "UserDispose"

var errUserBuild = errors.New("uniform buffer allocation failed")

// frameAux is the auxiliary data threaded through test groups.
type frameAux struct {
	prepared []int
	drawn    []int
}

// testDesc is a configurable pipeline description.
type testDesc struct {
	Defaults

	dev      *gputest.Device
	layout   Layout
	vertices []VertexInput
	buffers  []graph.BufferAccess

	noVertex bool
	buildErr error
	nilImpl  bool

	sets  []*shader.Set
	impls []*testPipeline
	setLs [][]resource.SetLayoutHandle
}

func (d *testDesc) Layout() Layout                { return d.layout }
func (d *testDesc) Vertices() []VertexInput       { return d.vertices }
func (d *testDesc) Buffers() []graph.BufferAccess { return d.buffers }

func (d *testDesc) LoadShaderSet(f *factory.Factory, _ *frameAux) *shader.Set {
	b := shader.NewSetBuilder().
		WithFragment(shader.SPIRV("fs", []uint32{0x07230203, 2}), "fs_main")
	if !d.noVertex {
		b.WithVertex(shader.SPIRV("vs", []uint32{0x07230203, 1}), "vs_main")
	}
	set := b.Build(f)
	d.sets = append(d.sets, set)
	return set
}

func (d *testDesc) Build(_ *graph.Context, _ *factory.Factory, _ hal.Queue, _ *frameAux,
	_ []graph.NodeBuffer, _ []graph.NodeImage, setLayouts []resource.SetLayoutHandle,
) (SimpleGraphicsPipeline[*frameAux], error) {
	d.setLs = append(d.setLs, setLayouts)
	if d.buildErr != nil {
		return nil, d.buildErr
	}
	if d.nilImpl {
		return nil, nil
	}
	p := &testPipeline{dev: d.dev}
	d.impls = append(d.impls, p)
	return p, nil
}

// mismatchedDesc reports one color but assembles a pipeline with two.
type mismatchedDesc struct {
	testDesc
}

func (d *mismatchedDesc) Pipeline() Pipeline {
	p := DefaultPipeline(d)
	p.Colors = append(p.Colors, DefaultColors()...)
	return p
}

// testPipeline records its calls.
type testPipeline struct {
	dev       *gputest.Device
	layout    hal.PipelineLayout
	disposed  int
	setLayout int
}

func (p *testPipeline) Prepare(_ *factory.Factory, _ hal.Queue, setLayouts []resource.SetLayoutHandle, index int, aux *frameAux) graph.PrepareResult {
	p.setLayout = len(setLayouts)
	aux.prepared = append(aux.prepared, index)
	if len(aux.prepared) > 1 {
		return graph.DrawReuse
	}
	return graph.DrawRecord
}

func (p *testPipeline) Draw(layout hal.PipelineLayout, encoder hal.RenderPassEncoder, index int, aux *frameAux) {
	p.layout = layout
	aux.drawn = append(aux.drawn, index)
	encoder.Draw(3, 1, 0, 0)
}

func (p *testPipeline) Dispose(_ *factory.Factory, _ *frameAux) {
	p.disposed++
	p.dev.Mark(markUserDispose)
}

func uniformSet(binding uint32) SetLayout {
	return SetLayout{Bindings: []gputypes.BindGroupLayoutEntry{{
		Binding:    binding,
		Visibility: gputypes.ShaderStageVertex,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}}
}

func colorSubpass() graph.Subpass {
	return graph.Subpass{ColorFormats: []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm}}
}

func depthSubpass() graph.Subpass {
	s := colorSubpass()
	s.DepthStencilFormat = gputypes.TextureFormatDepth24Plus
	return s
}

func newTestEnv(t *testing.T) (*factory.Factory, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice()
	f, err := factory.New(dev, gputest.Queue())
	if err != nil {
		t.Fatal(err)
	}
	return f, dev
}

func newTestDesc(dev *gputest.Device) *testDesc {
	return &testDesc{
		dev:      dev,
		layout:   Layout{Sets: []SetLayout{uniformSet(0), uniformSet(1)}},
		vertices: []VertexInput{PosColor.Input(gputypes.VertexStepModeVertex)},
	}
}

func build(t *testing.T, f *factory.Factory, desc SimpleGraphicsPipelineDesc[*frameAux], subpass graph.Subpass) (RenderGroup[*frameAux], error) {
	t.Helper()
	return NewSimpleRenderGroupDesc(desc).Build(graph.NewContext(), f, gputest.Queue(), &frameAux{},
		640, 480, subpass, nil, nil)
}
