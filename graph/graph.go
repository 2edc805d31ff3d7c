// Package graph holds the frame-graph types render nodes are built against:
// the resource registry a node resolves its bindings through, access
// declarations, and the subpass a pipeline renders into.
//
// Scheduling nodes and allocating graph resources happen elsewhere; this
// package only describes what a node sees.
package graph

import (
	"fmt"
	"sync"

	"github.com/gogpu/framegraph/factory"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BufferID identifies a buffer registered with a Context.
type BufferID uint32

// ImageID identifies an image registered with a Context.
type ImageID uint32

// Image is an image resource registered with a Context.
type Image struct {
	Texture hal.Texture
	View    hal.TextureView
	Format  gputypes.TextureFormat
	Width   uint32
	Height  uint32
}

// Context is the registry of graph resources visible to render nodes.
//
// Context is safe for concurrent use.
type Context struct {
	mu      sync.RWMutex
	buffers []*factory.Buffer
	images  []Image
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{}
}

// AddBuffer registers b and returns its id.
func (c *Context) AddBuffer(b *factory.Buffer) BufferID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers = append(c.buffers, b)
	return BufferID(len(c.buffers) - 1) //nolint:gosec // graph resource counts are far below 2^32
}

// Buffer returns the buffer registered as id.
func (c *Context) Buffer(id BufferID) (*factory.Buffer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(id) >= len(c.buffers) {
		return nil, fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	return c.buffers[id], nil
}

// AddImage registers img and returns its id.
func (c *Context) AddImage(img Image) ImageID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, img)
	return ImageID(len(c.images) - 1) //nolint:gosec // graph resource counts are far below 2^32
}

// Image returns the image registered as id.
func (c *Context) Image(id ImageID) (Image, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(id) >= len(c.images) {
		return Image{}, fmt.Errorf("%w: image %d", ErrUnknownResource, id)
	}
	return c.images[id], nil
}

// Len returns the number of registered buffers and images.
func (c *Context) Len() (buffers, images int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffers), len(c.images)
}
