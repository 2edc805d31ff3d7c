// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/factory"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/wgpu/hal"
)

// SimpleGraphicsPipelineDesc describes a single graphics pipeline.
//
// Embed [Defaults] to get the default answer to every query but
// LoadShaderSet and Build. A description that also implements
// [PipelineProvider] assembles its own [Pipeline]; otherwise
// [DefaultPipeline] is used.
type SimpleGraphicsPipelineDesc[T any] interface {
	PipelineSource

	// Buffers returns the buffer accesses of the pipeline.
	Buffers() []graph.BufferAccess

	// Images returns the image accesses of the pipeline.
	Images() []graph.ImageAccess

	// LoadShaderSet loads the pipeline's shaders on f.
	LoadShaderSet(f *factory.Factory, aux T) *shader.Set

	// Build creates the pipeline implementation. setLayouts are the
	// descriptor-set layouts of the pipeline layout, in declaration order;
	// they stay owned by the render group.
	Build(ctx *graph.Context, f *factory.Factory, queue hal.Queue, aux T,
		buffers []graph.NodeBuffer, images []graph.NodeImage,
		setLayouts []resource.SetLayoutHandle) (SimpleGraphicsPipeline[T], error)
}

// SimpleGraphicsPipeline is the per-frame behavior of a simple render group.
type SimpleGraphicsPipeline[T any] interface {
	// Prepare readies frame index and reports whether commands must be
	// recorded again. Embed [RecordAlways] to always re-record.
	Prepare(f *factory.Factory, queue hal.Queue, setLayouts []resource.SetLayoutHandle, index int, aux T) graph.PrepareResult

	// Draw records draw commands. The group's pipeline, viewport, and
	// scissor are already set on encoder.
	Draw(layout hal.PipelineLayout, encoder hal.RenderPassEncoder, index int, aux T)

	// Dispose frees everything the pipeline created.
	Dispose(f *factory.Factory, aux T)
}

// RecordAlways provides a Prepare that always requests re-recording.
type RecordAlways[T any] struct{}

// Prepare returns graph.DrawRecord.
func (RecordAlways[T]) Prepare(*factory.Factory, hal.Queue, []resource.SetLayoutHandle, int, T) graph.PrepareResult {
	return graph.DrawRecord
}

// SimpleRenderGroupDesc builds a render group around one graphics pipeline.
type SimpleRenderGroupDesc[T any] struct {
	inner SimpleGraphicsPipelineDesc[T]
}

// NewSimpleRenderGroupDesc wraps a pipeline description.
func NewSimpleRenderGroupDesc[T any](inner SimpleGraphicsPipelineDesc[T]) *SimpleRenderGroupDesc[T] {
	return &SimpleRenderGroupDesc[T]{inner: inner}
}

// Simple returns a builder for a simple render group around inner.
func Simple[T any](inner SimpleGraphicsPipelineDesc[T]) *Builder[T] {
	return NewBuilder[T](NewSimpleRenderGroupDesc(inner))
}

// Buffers returns the inner description's buffer accesses.
func (d *SimpleRenderGroupDesc[T]) Buffers() []graph.BufferAccess { return d.inner.Buffers() }

// Images returns the inner description's image accesses.
func (d *SimpleRenderGroupDesc[T]) Images() []graph.ImageAccess { return d.inner.Images() }

// Colors returns the number of color targets the inner description reports.
func (d *SimpleRenderGroupDesc[T]) Colors() int { return len(d.inner.Colors()) }

// Depth reports whether the inner description has a depth/stencil state.
func (d *SimpleRenderGroupDesc[T]) Depth() bool { return d.inner.DepthStencil() != nil }

// Build creates the group's GPU objects and the inner pipeline.
//
// The shader set is loaded first and disposed before Build returns, on
// success and on every failure. A failed build also destroys the pipeline
// and pipeline layout it created and releases its set-layout handles, in
// that order, so nothing it created outlives the call.
//
// Build panics if the pipeline's color targets disagree with the
// description's Colors.
func (d *SimpleRenderGroupDesc[T]) Build(ctx *graph.Context, f *factory.Factory, queue hal.Queue, aux T,
	framebufferWidth, framebufferHeight uint32, subpass graph.Subpass,
	buffers []graph.NodeBuffer, images []graph.NodeImage,
) (_ RenderGroup[T], err error) {
	log := framegraph.Component("render")

	set := d.inner.LoadShaderSet(f, aux)

	var (
		setLayouts     []resource.SetLayoutHandle
		pipelineLayout hal.PipelineLayout
		pso            hal.RenderPipeline
	)
	unwind := func() {
		f.DestroyGraphicsPipeline(pso)
		f.DestroyPipelineLayout(pipelineLayout)
		resource.ReleaseAll(setLayouts)
		if set != nil {
			set.Dispose()
		}
	}
	defer func() {
		if err != nil {
			unwind()
			log.Debug("render group build failed", "err", err)
		}
	}()

	pipeline := resolvePipeline(d.inner)

	setLayouts = make([]resource.SetLayoutHandle, 0, len(pipeline.Layout.Sets))
	for i, sl := range pipeline.Layout.Sets {
		h, err := f.CreateDescriptorSetLayout(sl.Bindings)
		if err != nil {
			return nil, fmt.Errorf("render: descriptor set %d: %w", i, err)
		}
		setLayouts = append(setLayouts, h)
	}

	pipelineLayout, err = f.CreatePipelineLayout(setLayouts, pipeline.Layout.PushConstants)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	if got, want := len(pipeline.Colors), len(d.inner.Colors()); got != want {
		unwind()
		panic(fmt.Sprintf("render: pipeline declares %d color targets, description reports %d", got, want))
	}

	vertexBuffers, attributes := PackVertexLayout(pipeline.Vertices)

	rect := Rect{Width: framebufferWidth, Height: framebufferHeight}

	if set == nil {
		return nil, fmt.Errorf("%w: no shader set loaded", ErrShaderSetIncomplete)
	}
	shaders, err := set.Raw()
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	desc, err := nativeDescriptor(&pipeline, &pipelineState{
		shaders: shaders,
		layout:  pipelineLayout,
		subpass: subpass,
		buffers: vertexBuffers,
		attrs:   attributes,
	})
	if err != nil {
		return nil, err
	}
	pso, err = f.CreateGraphicsPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	impl, err := d.inner.Build(ctx, f, queue, aux, buffers, images, setLayouts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserBuild, err)
	}
	if impl == nil {
		return nil, fmt.Errorf("%w: nil pipeline", ErrUserBuild)
	}

	set.Dispose()

	log.Debug("render group built",
		"set_layouts", len(setLayouts),
		"vertex_buffers", len(vertexBuffers),
		"attributes", len(attributes),
		"colors", len(pipeline.Colors),
		"viewport", fmt.Sprintf("%dx%d", rect.Width, rect.Height))

	return &SimpleRenderGroup[T]{
		setLayouts:     setLayouts,
		pipelineLayout: pipelineLayout,
		pso:            pso,
		pipeline:       impl,
		viewport:       rect,
	}, nil
}

// SimpleRenderGroup is a render group with one graphics pipeline.
type SimpleRenderGroup[T any] struct {
	setLayouts     []resource.SetLayoutHandle
	pipelineLayout hal.PipelineLayout
	pso            hal.RenderPipeline
	pipeline       SimpleGraphicsPipeline[T]

	// viewport is applied with the pipeline; it is both the viewport and
	// the scissor rectangle.
	viewport Rect

	prepared bool
	disposed bool
}

// Prepare delegates to the pipeline with the group's set layouts.
func (g *SimpleRenderGroup[T]) Prepare(f *factory.Factory, queue hal.Queue, index int, _ graph.Subpass, aux T) graph.PrepareResult {
	g.mustLive()
	g.prepared = true
	return g.pipeline.Prepare(f, queue, g.setLayouts, index, aux)
}

// DrawInline binds the group's pipeline, viewport, and scissor, then lets
// the pipeline record its draws.
//
// DrawInline panics if Prepare has never been called.
func (g *SimpleRenderGroup[T]) DrawInline(encoder hal.RenderPassEncoder, index int, _ graph.Subpass, aux T) {
	g.mustLive()
	if !g.prepared {
		panic("render: DrawInline before Prepare")
	}
	r := g.viewport
	encoder.SetPipeline(g.pso)
	encoder.SetViewport(float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), 0, 1)
	encoder.SetScissorRect(r.X, r.Y, r.Width, r.Height)
	g.pipeline.Draw(g.pipelineLayout, encoder, index, aux)
}

// Dispose disposes the pipeline, then destroys the pipeline-state object
// and the pipeline layout, then releases the set layouts.
func (g *SimpleRenderGroup[T]) Dispose(f *factory.Factory, aux T) {
	g.mustLive()
	g.disposed = true

	g.pipeline.Dispose(f, aux)
	f.DestroyGraphicsPipeline(g.pso)
	f.DestroyPipelineLayout(g.pipelineLayout)
	resource.ReleaseAll(g.setLayouts)

	g.pipeline = nil
	g.pso = nil
	g.pipelineLayout = nil
	g.setLayouts = nil
	framegraph.Component("render").Debug("render group disposed")
}

// Viewport returns the full-framebuffer rectangle the group draws into.
func (g *SimpleRenderGroup[T]) Viewport() Rect {
	return g.viewport
}

func (g *SimpleRenderGroup[T]) mustLive() {
	if g.disposed {
		panic("render: use of disposed render group")
	}
}
