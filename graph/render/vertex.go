// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gputypes"
)

// Element is one vertex attribute within a vertex buffer.
type Element struct {
	Format gputypes.VertexFormat
	Offset uint32
}

// VertexInput is one vertex buffer: its elements, stride, and step rate.
type VertexInput struct {
	Elements []Element
	Stride   uint32
	Rate     gputypes.VertexStepMode
}

// VertexBufferDesc is a packed vertex buffer binding.
type VertexBufferDesc struct {
	Binding uint32
	Stride  uint32
	Rate    gputypes.VertexStepMode
}

// AttributeDesc is a packed vertex attribute.
type AttributeDesc struct {
	Location uint32
	Binding  uint32
	Element  Element
}

// PackVertexLayout assigns bindings and locations to vertex inputs.
//
// Input i gets binding i. Attribute locations form one counter across all
// inputs: each input continues from the location after the last attribute
// of the inputs before it, so locations do not restart per buffer.
func PackVertexLayout(inputs []VertexInput) ([]VertexBufferDesc, []AttributeDesc) {
	var (
		buffers    = make([]VertexBufferDesc, 0, len(inputs))
		attributes []AttributeDesc
	)
	for i := range inputs {
		in := &inputs[i]
		buffers, attributes = pushVertexDesc(in.Elements, in.Stride, in.Rate, buffers, attributes)
	}
	return buffers, attributes
}

func pushVertexDesc(elements []Element, stride uint32, rate gputypes.VertexStepMode,
	buffers []VertexBufferDesc, attributes []AttributeDesc,
) ([]VertexBufferDesc, []AttributeDesc) {
	index := uint32(len(buffers)) //nolint:gosec // vertex buffer count is bounded by device limits
	buffers = append(buffers, VertexBufferDesc{Binding: index, Stride: stride, Rate: rate})

	var location uint32
	if n := len(attributes); n > 0 {
		location = attributes[n-1].Location + 1
	}
	for _, e := range elements {
		attributes = append(attributes, AttributeDesc{Location: location, Binding: index, Element: e})
		location++
	}
	return buffers, attributes
}

// vertexBufferLayouts converts packed tables into HAL vertex buffer layouts,
// one per binding, with each binding's attributes in location order.
func vertexBufferLayouts(buffers []VertexBufferDesc, attributes []AttributeDesc) []gputypes.VertexBufferLayout {
	if len(buffers) == 0 {
		return nil
	}
	layouts := make([]gputypes.VertexBufferLayout, len(buffers))
	for i, b := range buffers {
		layouts[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(b.Stride),
			StepMode:    b.Rate,
		}
	}
	for _, a := range attributes {
		l := &layouts[a.Binding]
		l.Attributes = append(l.Attributes, gputypes.VertexAttribute{
			Format:         a.Element.Format,
			Offset:         uint64(a.Element.Offset),
			ShaderLocation: a.Location,
		})
	}
	return layouts
}
