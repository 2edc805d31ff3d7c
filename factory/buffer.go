package factory

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/memory"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer is a device buffer together with its size.
type Buffer struct {
	Raw  hal.Buffer
	Size uint64
}

// CreateBuffer creates a buffer of size bytes with the given usage.
// CopyDst is added to usage so the buffer can be filled with UploadBuffer.
func (f *Factory) CreateBuffer(label string, size uint64, usage gputypes.BufferUsage) (*Buffer, error) {
	raw, err := f.device.CreateBuffer(&hal.BufferDescriptor{
		Label: f.label(label),
		Size:  memory.Aligned(size, 4),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create buffer %q: %w", ErrCreation, label, err)
	}
	f.live.buffers.Add(1)
	return &Buffer{Raw: raw, Size: size}, nil
}

// DestroyBuffer destroys a buffer. Nil is ignored.
func (f *Factory) DestroyBuffer(b *Buffer) {
	if b == nil || b.Raw == nil {
		return
	}
	f.device.DestroyBuffer(b.Raw)
	b.Raw = nil
	f.live.buffers.Add(-1)
}

// UploadBuffer writes data into b starting at offset.
//
// The write is clamped to the buffer: bytes that would land past b.Size are
// an error, not silently dropped.
func (f *Factory) UploadBuffer(b *Buffer, offset uint64, data []byte) error {
	if b == nil || b.Raw == nil {
		return ErrNilDescriptor
	}
	if f.queue == nil {
		return errors.New("factory: upload requires a queue")
	}
	if !memory.FitsUint64(uint(len(data))) {
		return fmt.Errorf("%w: %d bytes", ErrBufferRange, len(data))
	}
	want := memory.Range{Start: offset, End: offset + uint64(len(data))}
	if want.End < want.Start {
		return fmt.Errorf("%w: offset %d overflows", ErrBufferRange, offset)
	}
	got := memory.ClampRange(want, memory.Range{Start: 0, End: b.Size})
	if got != want {
		return fmt.Errorf("%w: [%d, %d) outside buffer of %d bytes", ErrBufferRange, want.Start, want.End, b.Size)
	}
	if want.Empty() {
		return nil
	}
	if err := f.queue.WriteBuffer(b.Raw, offset, data); err != nil {
		return fmt.Errorf("factory: upload buffer: %w", err)
	}
	return nil
}
