// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gputest

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Pass is a recording hal.RenderPassEncoder.
// Every recorded command is appended to Commands as a short string.
type Pass struct {
	noop.RenderPassEncoder

	Commands []string
	Pipeline hal.RenderPipeline
}

// SetPipeline records the bound pipeline.
func (p *Pass) SetPipeline(pipeline hal.RenderPipeline) {
	p.Pipeline = pipeline
	p.Commands = append(p.Commands, fmt.Sprintf("SetPipeline(%v)", pipeline))
}

// SetBindGroup records the set index.
func (p *Pass) SetBindGroup(index uint32, _ hal.BindGroup, _ []uint32) {
	p.Commands = append(p.Commands, fmt.Sprintf("SetBindGroup(%d)", index))
}

// SetVertexBuffer records the slot and offset.
func (p *Pass) SetVertexBuffer(slot uint32, _ hal.Buffer, offset uint64) {
	p.Commands = append(p.Commands, fmt.Sprintf("SetVertexBuffer(%d,%d)", slot, offset))
}

// SetIndexBuffer records the index format and offset.
func (p *Pass) SetIndexBuffer(_ hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	p.Commands = append(p.Commands, fmt.Sprintf("SetIndexBuffer(%d,%d)", format, offset))
}

// SetViewport records the viewport rectangle and depth range.
func (p *Pass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	p.Commands = append(p.Commands, fmt.Sprintf("SetViewport(%g,%g,%g,%g,%g,%g)", x, y, width, height, minDepth, maxDepth))
}

// SetScissorRect records the scissor rectangle.
func (p *Pass) SetScissorRect(x, y, width, height uint32) {
	p.Commands = append(p.Commands, fmt.Sprintf("SetScissorRect(%d,%d,%d,%d)", x, y, width, height))
}

// Draw records a non-indexed draw.
func (p *Pass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.Commands = append(p.Commands, fmt.Sprintf("Draw(%d,%d,%d,%d)", vertexCount, instanceCount, firstVertex, firstInstance))
}

// DrawIndexed records an indexed draw.
func (p *Pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Commands = append(p.Commands, fmt.Sprintf("DrawIndexed(%d,%d,%d,%d,%d)", indexCount, instanceCount, firstIndex, baseVertex, firstInstance))
}
