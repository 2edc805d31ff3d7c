package graph

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/factory"
	"github.com/gogpu/framegraph/memory"
	"github.com/gogpu/gputypes"
)

// Graph errors.
var (
	// ErrUnknownResource is returned when resolving an id the context does not know.
	ErrUnknownResource = errors.New("graph: unknown resource")

	// ErrRange is returned when a buffer binding is inverted or reaches past
	// its buffer.
	ErrRange = errors.New("graph: binding range out of bounds")
)

// BufferAccess declares how a node uses a buffer.
type BufferAccess struct {
	Usage  gputypes.BufferUsage
	Stages gputypes.ShaderStages
}

// ImageAccess declares how a node uses an image.
type ImageAccess struct {
	Usage  gputypes.TextureUsage
	Stages gputypes.ShaderStages
}

// NodeBuffer is a buffer bound to a node, in the order of the node's
// declared buffer accesses.
type NodeBuffer struct {
	ID    BufferID
	Range memory.Range
}

// NodeImage is an image bound to a node, in the order of the node's
// declared image accesses.
type NodeImage struct {
	ID    ImageID
	Clear *gputypes.Color
}

// Subpass is the render target a pipeline is compiled for.
type Subpass struct {
	// Index of the subpass within its render pass.
	Index uint32

	// ColorFormats are the color attachment formats, one per color target.
	ColorFormats []gputypes.TextureFormat

	// DepthStencilFormat is the depth/stencil attachment format, or
	// TextureFormatUndefined when the subpass has none.
	DepthStencilFormat gputypes.TextureFormat
}

// HasDepth reports whether the subpass has a depth/stencil attachment.
func (s Subpass) HasDepth() bool {
	return s.DepthStencilFormat != gputypes.TextureFormatUndefined
}

// String returns a short description of the subpass.
func (s Subpass) String() string {
	return fmt.Sprintf("Subpass[%d, %d colors, depth=%v]", s.Index, len(s.ColorFormats), s.HasDepth())
}

// PrepareResult tells the scheduler whether a node's draw commands must be
// recorded again this frame.
type PrepareResult uint8

const (
	// DrawRecord means commands must be re-recorded.
	DrawRecord PrepareResult = iota
	// DrawReuse means last frame's recording can be reused.
	DrawReuse
)

// String returns the name of the result.
func (r PrepareResult) String() string {
	switch r {
	case DrawRecord:
		return "DrawRecord"
	case DrawReuse:
		return "DrawReuse"
	default:
		return fmt.Sprintf("PrepareResult(%d)", r)
	}
}

// ResolveBuffers returns the buffers behind bindings, in order.
// A binding whose range is inverted or reaches past its buffer is an
// error.
func (c *Context) ResolveBuffers(bindings []NodeBuffer) ([]*factory.Buffer, error) {
	out := make([]*factory.Buffer, 0, len(bindings))
	for _, b := range bindings {
		buf, err := c.Buffer(b.ID)
		if err != nil {
			return nil, err
		}
		if b.Range.End < b.Range.Start {
			return nil, fmt.Errorf("%w: buffer %d range [%d, %d) is inverted",
				ErrRange, b.ID, b.Range.Start, b.Range.End)
		}
		bounds := memory.Range{Start: 0, End: buf.Size}
		if memory.ClampRange(b.Range, bounds) != b.Range {
			return nil, fmt.Errorf("%w: buffer %d range [%d, %d) outside %d bytes",
				ErrRange, b.ID, b.Range.Start, b.Range.End, buf.Size)
		}
		out = append(out, buf)
	}
	return out, nil
}

// ResolveImages returns the images behind bindings, in order.
func (c *Context) ResolveImages(bindings []NodeImage) ([]Image, error) {
	out := make([]Image, 0, len(bindings))
	for _, n := range bindings {
		img, err := c.Image(n.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}
