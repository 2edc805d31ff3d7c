// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render builds and runs render groups: self-contained graphics
// pipelines inside a frame graph.
//
// A [RenderGroupDesc] is consumed once to build a [RenderGroup]. The group
// is then prepared and drawn once per frame and finally disposed. The usual
// way to write a render group is to implement [SimpleGraphicsPipelineDesc]
// and [SimpleGraphicsPipeline] and wrap the description with
// [NewSimpleRenderGroupDesc], which creates and owns the GPU objects.
//
// Type parameter T is the auxiliary data threaded through every call.
package render

import (
	"fmt"

	"github.com/gogpu/framegraph/factory"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/wgpu/hal"
)

// RenderGroupDesc describes a render group before it is built.
type RenderGroupDesc[T any] interface {
	// Buffers returns the buffer accesses the group declares.
	Buffers() []graph.BufferAccess

	// Images returns the image accesses the group declares.
	Images() []graph.ImageAccess

	// Colors returns the number of color targets.
	Colors() int

	// Depth reports whether the group uses a depth/stencil attachment.
	Depth() bool

	// Build creates the group. buffers and images follow the order of
	// Buffers and Images.
	Build(ctx *graph.Context, f *factory.Factory, queue hal.Queue, aux T,
		framebufferWidth, framebufferHeight uint32, subpass graph.Subpass,
		buffers []graph.NodeBuffer, images []graph.NodeImage) (RenderGroup[T], error)
}

// RenderGroup is a built render group.
//
// A group is driven from one goroutine: Prepare then DrawInline per frame.
// Methods panic after Dispose.
type RenderGroup[T any] interface {
	// Prepare readies frame index and reports whether draw commands must
	// be recorded again.
	Prepare(f *factory.Factory, queue hal.Queue, index int, subpass graph.Subpass, aux T) graph.PrepareResult

	// DrawInline records the group's draw commands into encoder.
	DrawInline(encoder hal.RenderPassEncoder, index int, subpass graph.Subpass, aux T)

	// Dispose releases everything the group owns.
	Dispose(f *factory.Factory, aux T)
}

// Builder binds graph resources to a render group description and builds
// it against a subpass.
type Builder[T any] struct {
	desc    RenderGroupDesc[T]
	buffers []graph.NodeBuffer
	images  []graph.NodeImage
}

// NewBuilder returns a builder for desc.
func NewBuilder[T any](desc RenderGroupDesc[T]) *Builder[T] {
	return &Builder[T]{desc: desc}
}

// WithBuffer binds the next declared buffer access.
func (b *Builder[T]) WithBuffer(buf graph.NodeBuffer) *Builder[T] {
	b.buffers = append(b.buffers, buf)
	return b
}

// WithImage binds the next declared image access.
func (b *Builder[T]) WithImage(img graph.NodeImage) *Builder[T] {
	b.images = append(b.images, img)
	return b
}

// Build checks the bindings and subpass against the description and builds
// the group.
func (b *Builder[T]) Build(ctx *graph.Context, f *factory.Factory, queue hal.Queue, aux T,
	framebufferWidth, framebufferHeight uint32, subpass graph.Subpass,
) (RenderGroup[T], error) {
	if n := len(b.desc.Buffers()); n != len(b.buffers) {
		return nil, fmt.Errorf("%w: %d buffers bound, %d declared", ErrBindings, len(b.buffers), n)
	}
	if n := len(b.desc.Images()); n != len(b.images) {
		return nil, fmt.Errorf("%w: %d images bound, %d declared", ErrBindings, len(b.images), n)
	}
	if ctx != nil {
		if _, err := ctx.ResolveBuffers(b.buffers); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBindings, err)
		}
		if _, err := ctx.ResolveImages(b.images); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBindings, err)
		}
	}
	if n := b.desc.Colors(); n > len(subpass.ColorFormats) {
		return nil, fmt.Errorf("%w: %d color targets, %s", ErrSubpassMismatch, n, subpass)
	}
	return b.desc.Build(ctx, f, queue, aux, framebufferWidth, framebufferHeight, subpass,
		append([]graph.NodeBuffer(nil), b.buffers...),
		append([]graph.NodeImage(nil), b.images...))
}
