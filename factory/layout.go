// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package factory

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"reflect"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// layoutEntry is a cached descriptor-set layout.
// The cache holds no reference of its own: the entry is evicted when the
// last handle onto it is released.
type layoutEntry struct {
	bindings []gputypes.BindGroupLayoutEntry
	cell     *resource.Shared[*resource.DescriptorSetLayout]
}

// CreateDescriptorSetLayout returns a handle to a descriptor-set layout with
// the given bindings.
//
// With layout sharing enabled, a live layout with identical bindings is
// reused and a new reference to it is returned. The caller owns the returned
// handle and must release it.
func (f *Factory) CreateDescriptorSetLayout(bindings []gputypes.BindGroupLayoutEntry) (resource.SetLayoutHandle, error) {
	if !f.opts.shareLayouts {
		return f.createSetLayout(bindings, 0)
	}

	key := hashBindings(bindings)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.layouts[key] {
		if !reflect.DeepEqual(e.bindings, bindings) {
			continue
		}
		h, err := e.cell.Acquire()
		if err != nil {
			// Last reference is being released; eviction is pending.
			continue
		}
		f.hits.Add(1)
		f.logger().Debug("set layout cache hit", "bindings", len(bindings), "refs", e.cell.Refs())
		return h, nil
	}

	h, err := f.createSetLayout(bindings, key)
	if err != nil {
		return nil, err
	}
	f.misses.Add(1)
	f.layouts[key] = append(f.layouts[key], &layoutEntry{
		bindings: h.Get().Bindings(),
		cell:     h.Shared(),
	})
	return h, nil
}

// createSetLayout creates a device layout wrapped in a fresh shared cell.
// A non-zero key registers cache eviction on destruction.
func (f *Factory) createSetLayout(bindings []gputypes.BindGroupLayoutEntry, key uint64) (resource.SetLayoutHandle, error) {
	raw, err := f.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   f.label("set_layout"),
		Entries: bindings,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create descriptor set layout: %w", ErrCreation, err)
	}
	f.live.setLayouts.Add(1)

	layout := resource.NewDescriptorSetLayout(raw, bindings)
	var h resource.SetLayoutHandle
	h = resource.NewShared(layout, func(l *resource.DescriptorSetLayout) {
		if key != 0 {
			f.evictSetLayout(key, h.Shared())
		}
		f.device.DestroyBindGroupLayout(l.Raw())
		f.live.setLayouts.Add(-1)
	})
	return h, nil
}

// evictSetLayout removes cell from the cache bucket for key.
func (f *Factory) evictSetLayout(key uint64, cell *resource.Shared[*resource.DescriptorSetLayout]) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.layouts[key]
	for i, e := range bucket {
		if e.cell != cell {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		break
	}
	if len(bucket) == 0 {
		delete(f.layouts, key)
		return
	}
	f.layouts[key] = bucket
}

// CachedSetLayouts returns the number of set layouts currently shareable.
func (f *Factory) CachedSetLayouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, bucket := range f.layouts {
		n += len(bucket)
	}
	return n
}

// hashBindings computes an FNV-1a hash of a binding list.
// Zero is reserved for "not cached", so a zero hash is remapped.
func hashBindings(bindings []gputypes.BindGroupLayoutEntry) uint64 {
	h := fnv.New64a()

	hashWriteUint32(h, uint32(len(bindings))) //nolint:gosec // binding count is bounded by device limits
	for i := range bindings {
		b := &bindings[i]
		hashWriteUint32(h, b.Binding)
		hashWriteUint32(h, uint32(b.Visibility))
		switch {
		case b.Buffer != nil:
			hashWriteUint32(h, 1)
			hashWriteUint32(h, uint32(b.Buffer.Type))
			hashWriteBool(h, b.Buffer.HasDynamicOffset)
			hashWriteUint64(h, b.Buffer.MinBindingSize)
		case b.Sampler != nil:
			hashWriteUint32(h, 2)
			hashWriteUint32(h, uint32(b.Sampler.Type))
		case b.Texture != nil:
			hashWriteUint32(h, 3)
			hashWriteUint32(h, uint32(b.Texture.SampleType))
			hashWriteUint32(h, uint32(b.Texture.ViewDimension))
			hashWriteBool(h, b.Texture.Multisampled)
		case b.StorageTexture != nil:
			hashWriteUint32(h, 4)
			hashWriteUint32(h, uint32(b.StorageTexture.Access))
			hashWriteUint32(h, uint32(b.StorageTexture.Format))
			hashWriteUint32(h, uint32(b.StorageTexture.ViewDimension))
		default:
			hashWriteUint32(h, 0)
		}
	}

	sum := h.Sum64()
	if sum == 0 {
		sum = 1
	}
	return sum
}

// hashWriteUint32 writes a uint32 to the hash.
func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteUint64 writes a uint64 to the hash.
func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteBool writes a bool to the hash.
func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
