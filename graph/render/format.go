// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/framegraph/memory"
	"github.com/gogpu/gputypes"
)

// VertexFormat is a tightly packed vertex layout.
type VertexFormat struct {
	Elements []Element
	Stride   uint32
}

// NewVertexFormat packs formats back to back and rounds the stride up to
// four bytes.
func NewVertexFormat(formats ...gputypes.VertexFormat) VertexFormat {
	elements := make([]Element, len(formats))
	var offset uint64
	for i, f := range formats {
		elements[i] = Element{Format: f, Offset: uint32(offset)} //nolint:gosec // a vertex is at most a few hundred bytes
		offset += f.Size()
	}
	return VertexFormat{Elements: elements, Stride: uint32(memory.Aligned(offset, 4))} //nolint:gosec // bounded as above
}

// Input returns the format as a vertex input stepping at rate.
func (f VertexFormat) Input(rate gputypes.VertexStepMode) VertexInput {
	return VertexInput{
		Elements: append([]Element(nil), f.Elements...),
		Stride:   f.Stride,
		Rate:     rate,
	}
}

// Common vertex formats.
var (
	// PosColor is a position (vec3) and RGBA color (vec4).
	PosColor = NewVertexFormat(gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4)

	// PosTex is a position (vec3) and texture coordinate (vec2).
	PosTex = NewVertexFormat(gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x2)

	// PosNorm is a position (vec3) and normal (vec3).
	PosNorm = NewVertexFormat(gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x3)
)
