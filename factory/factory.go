// Package factory wraps a gogpu/wgpu HAL device with the creation and
// destruction calls render groups need.
//
// The factory shares descriptor-set layouts: identical binding lists resolve
// to the same device layout, handed out as reference-counted handles. The
// device layout is destroyed when the last handle is released.
//
// Every live object the factory created is counted; [Factory.Stats] exposes
// the counts so callers and tests can verify nothing leaks.
//
// The HAL device is treated as externally synchronized: the factory never
// assumes exclusive access to it beyond a single call.
package factory

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// Factory creates and destroys GPU objects on a HAL device.
//
// Factory is safe for concurrent use to the extent the underlying HAL
// device is.
type Factory struct {
	device hal.Device
	queue  hal.Queue
	opts   options

	// mu guards layouts.
	mu      sync.Mutex
	layouts map[uint64][]*layoutEntry

	live   liveCounts
	hits   atomic.Uint64
	misses atomic.Uint64
}

// liveCounts tracks objects created and not yet destroyed.
type liveCounts struct {
	setLayouts      atomic.Int64
	pipelineLayouts atomic.Int64
	pipelines       atomic.Int64
	shaderModules   atomic.Int64
	buffers         atomic.Int64
}

// New creates a factory for device and queue.
// queue may be nil when the caller never uploads through the factory.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Factory, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Factory{
		device:  device,
		queue:   queue,
		opts:    o,
		layouts: make(map[uint64][]*layoutEntry),
	}, nil
}

// FromProvider creates a factory from a host application's device provider.
//
// The provider must either implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue, or return HAL types directly from
// Device() and Queue().
func FromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Factory, error) {
	if provider == nil {
		return nil, ErrProviderNotHAL
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}

	var device, queue any
	if hp, ok := provider.(halProvider); ok {
		device, queue = hp.HalDevice(), hp.HalQueue()
	} else {
		device, queue = provider.Device(), provider.Queue()
	}

	d, ok := device.(hal.Device)
	if !ok || d == nil {
		return nil, fmt.Errorf("%w: device is %T", ErrProviderNotHAL, device)
	}
	q, ok := queue.(hal.Queue)
	if !ok || q == nil {
		return nil, fmt.Errorf("%w: queue is %T", ErrProviderNotHAL, queue)
	}
	return New(d, q, opts...)
}

// Device returns the underlying HAL device.
func (f *Factory) Device() hal.Device {
	return f.device
}

// Queue returns the queue the factory uploads through.
func (f *Factory) Queue() hal.Queue {
	return f.queue
}

// logger returns the factory logger.
func (f *Factory) logger() *slog.Logger {
	if f.opts.logger != nil {
		return f.opts.logger.With(slog.String(framegraph.ComponentKey, "factory"))
	}
	return framegraph.Component("factory")
}

// label applies the configured prefix to a debug label.
func (f *Factory) label(name string) string {
	if f.opts.labelPrefix == "" {
		return name
	}
	if name == "" {
		return f.opts.labelPrefix
	}
	return f.opts.labelPrefix + "/" + name
}

// Stats contains live-object counts and layout cache statistics.
type Stats struct {
	// SetLayouts is the number of live descriptor-set layouts.
	SetLayouts int64

	// PipelineLayouts is the number of live pipeline layouts.
	PipelineLayouts int64

	// Pipelines is the number of live render pipelines.
	Pipelines int64

	// ShaderModules is the number of live shader modules.
	ShaderModules int64

	// Buffers is the number of live buffers.
	Buffers int64

	// LayoutHits counts set-layout requests served from the cache.
	LayoutHits uint64

	// LayoutMisses counts set-layout requests that created a device layout.
	LayoutMisses uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Factory[%d set layouts, %d pipeline layouts, %d pipelines, %d shader modules, %d buffers, layout cache %d/%d]",
		s.SetLayouts, s.PipelineLayouts, s.Pipelines, s.ShaderModules, s.Buffers,
		s.LayoutHits, s.LayoutHits+s.LayoutMisses)
}

// Live returns the total number of live objects.
func (s Stats) Live() int64 {
	return s.SetLayouts + s.PipelineLayouts + s.Pipelines + s.ShaderModules + s.Buffers
}

// Stats returns a snapshot of the factory statistics.
// Values are read atomically and may not be perfectly synchronized.
func (f *Factory) Stats() Stats {
	return Stats{
		SetLayouts:      f.live.setLayouts.Load(),
		PipelineLayouts: f.live.pipelineLayouts.Load(),
		Pipelines:       f.live.pipelines.Load(),
		ShaderModules:   f.live.shaderModules.Load(),
		Buffers:         f.live.buffers.Load(),
		LayoutHits:      f.hits.Load(),
		LayoutMisses:    f.misses.Load(),
	}
}
