package resource

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DescriptorSetLayout is a device-level descriptor-set layout together with
// the bindings it was created from.
type DescriptorSetLayout struct {
	raw      hal.BindGroupLayout
	bindings []gputypes.BindGroupLayoutEntry
}

// NewDescriptorSetLayout wraps a created HAL layout.
// The bindings slice is copied.
func NewDescriptorSetLayout(raw hal.BindGroupLayout, bindings []gputypes.BindGroupLayoutEntry) *DescriptorSetLayout {
	return &DescriptorSetLayout{
		raw:      raw,
		bindings: append([]gputypes.BindGroupLayoutEntry(nil), bindings...),
	}
}

// Raw returns the HAL layout.
func (l *DescriptorSetLayout) Raw() hal.BindGroupLayout {
	return l.raw
}

// Bindings returns the binding entries of the layout.
func (l *DescriptorSetLayout) Bindings() []gputypes.BindGroupLayoutEntry {
	return l.bindings
}

// SetLayoutHandle is a shared reference to a descriptor-set layout.
type SetLayoutHandle = *Handle[*DescriptorSetLayout]

// RawSetLayouts returns the HAL layouts of hs in order.
func RawSetLayouts(hs []SetLayoutHandle) []hal.BindGroupLayout {
	raw := make([]hal.BindGroupLayout, len(hs))
	for i, h := range hs {
		raw[i] = h.Get().Raw()
	}
	return raw
}
