package factory

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/framegraph/internal/gputest"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func newTestFactory(t *testing.T, opts ...Option) (*Factory, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice()
	f, err := New(dev, gputest.Queue(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f, dev
}

func uniformBinding(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageVertex,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func TestNew_NilDevice(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil) error = %v, want ErrNilDevice", err)
	}
}

type fakeProvider struct {
	device, queue any
}

func (p fakeProvider) Device() gpucontext.Device   { return p.device }
func (p fakeProvider) Queue() gpucontext.Queue     { return p.queue }
func (p fakeProvider) Adapter() gpucontext.Adapter { return nil }
func (p fakeProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop"}
}
func (p fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }

func TestFromProvider(t *testing.T) {
	dev := gputest.NewDevice()

	f, err := FromProvider(fakeProvider{device: dev, queue: gputest.Queue()})
	if err != nil {
		t.Fatalf("FromProvider: %v", err)
	}
	if f.Device() != hal.Device(dev) {
		t.Error("Device() does not return the provider device")
	}

	_, err = FromProvider(fakeProvider{device: "not a device", queue: gputest.Queue()})
	if !errors.Is(err, ErrProviderNotHAL) {
		t.Errorf("FromProvider(non-HAL) error = %v, want ErrProviderNotHAL", err)
	}

	_, err = FromProvider(nil)
	if !errors.Is(err, ErrProviderNotHAL) {
		t.Errorf("FromProvider(nil) error = %v, want ErrProviderNotHAL", err)
	}
}

func TestSetLayoutSharing(t *testing.T) {
	f, dev := newTestFactory(t)
	bindings := []gputypes.BindGroupLayoutEntry{uniformBinding(0)}

	a, err := f.CreateDescriptorSetLayout(bindings)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	b, err := f.CreateDescriptorSetLayout([]gputypes.BindGroupLayoutEntry{uniformBinding(0)})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	if a.Get() != b.Get() {
		t.Error("identical bindings should share one layout")
	}
	if got := dev.Count(gputest.OpCreateSetLayout); got != 1 {
		t.Errorf("device layouts created = %d, want 1", got)
	}
	s := f.Stats()
	if s.LayoutHits != 1 || s.LayoutMisses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", s.LayoutHits, s.LayoutMisses)
	}
	if a.Shared().Refs() != 2 {
		t.Errorf("refs = %d, want 2", a.Shared().Refs())
	}

	a.Release()
	if dev.Count(gputest.OpDestroySetLayout) != 0 {
		t.Error("layout destroyed while still referenced")
	}
	b.Release()
	if got := dev.Count(gputest.OpDestroySetLayout); got != 1 {
		t.Errorf("device layouts destroyed = %d, want 1", got)
	}
	if f.CachedSetLayouts() != 0 {
		t.Errorf("cache entries after last release = %d, want 0", f.CachedSetLayouts())
	}
	if f.Stats().SetLayouts != 0 {
		t.Errorf("live set layouts = %d, want 0", f.Stats().SetLayouts)
	}

	// A new request after eviction creates a fresh layout.
	c, err := f.CreateDescriptorSetLayout(bindings)
	if err != nil {
		t.Fatalf("create after eviction: %v", err)
	}
	defer c.Release()
	if got := dev.Count(gputest.OpCreateSetLayout); got != 2 {
		t.Errorf("device layouts created = %d, want 2", got)
	}
}

func TestSetLayoutDistinctBindings(t *testing.T) {
	f, _ := newTestFactory(t)

	a, err := f.CreateDescriptorSetLayout([]gputypes.BindGroupLayoutEntry{uniformBinding(0)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Release()
	b, err := f.CreateDescriptorSetLayout([]gputypes.BindGroupLayoutEntry{uniformBinding(1)})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	if a.Get() == b.Get() {
		t.Error("different bindings must not share a layout")
	}
	if f.CachedSetLayouts() != 2 {
		t.Errorf("cache entries = %d, want 2", f.CachedSetLayouts())
	}
}

func TestSetLayoutWithoutSharing(t *testing.T) {
	f, dev := newTestFactory(t, WithoutLayoutSharing())
	bindings := []gputypes.BindGroupLayoutEntry{uniformBinding(0)}

	a, _ := f.CreateDescriptorSetLayout(bindings)
	b, _ := f.CreateDescriptorSetLayout(bindings)
	if a.Get() == b.Get() {
		t.Error("sharing disabled but layouts are shared")
	}
	resource.ReleaseAll([]resource.SetLayoutHandle{a, b})
	if got := dev.Count(gputest.OpDestroySetLayout); got != 2 {
		t.Errorf("destroyed = %d, want 2", got)
	}
}

func TestSetLayoutCreationFailure(t *testing.T) {
	f, dev := newTestFactory(t)
	dev.Fail(gputest.OpCreateSetLayout)

	_, err := f.CreateDescriptorSetLayout([]gputypes.BindGroupLayoutEntry{uniformBinding(0)})
	if !errors.Is(err, ErrCreation) {
		t.Errorf("error = %v, want ErrCreation", err)
	}
	if !errors.Is(err, gputest.ErrInjected) {
		t.Errorf("error = %v, want wrapped device error", err)
	}
	if f.CachedSetLayouts() != 0 || f.Stats().Live() != 0 {
		t.Error("failed creation left state behind")
	}
}

func TestSetLayoutConcurrent(t *testing.T) {
	f, dev := newTestFactory(t)
	bindings := []gputypes.BindGroupLayoutEntry{uniformBinding(0)}

	const n = 32
	handles := make([]resource.SetLayoutHandle, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := f.CreateDescriptorSetLayout(bindings)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			handles[i] = h
		}()
	}
	wg.Wait()

	if got := dev.Count(gputest.OpCreateSetLayout); got != 1 {
		t.Errorf("device layouts created = %d, want 1", got)
	}
	resource.ReleaseAll(handles)
	if dev.Live() != 0 {
		t.Errorf("live device objects = %d, want 0", dev.Live())
	}
}

func TestPipelineLayoutLifecycle(t *testing.T) {
	f, dev := newTestFactory(t)

	set, err := f.CreateDescriptorSetLayout([]gputypes.BindGroupLayoutEntry{uniformBinding(0)})
	if err != nil {
		t.Fatal(err)
	}
	defer set.Release()

	push := []hal.PushConstantRange{{Stages: gputypes.ShaderStageVertex, Range: hal.Range{Start: 0, End: 16}}}
	layout, err := f.CreatePipelineLayout([]resource.SetLayoutHandle{set}, push)
	if err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}
	desc, ok := dev.LastPipelineLayout()
	if !ok {
		t.Fatal("no pipeline layout recorded")
	}
	if len(desc.BindGroupLayouts) != 1 || desc.BindGroupLayouts[0] != set.Get().Raw() {
		t.Errorf("bind group layouts = %v, want [%v]", desc.BindGroupLayouts, set.Get().Raw())
	}
	if len(desc.PushConstantRanges) != 1 || desc.PushConstantRanges[0].Range.End != 16 {
		t.Errorf("push constants = %+v", desc.PushConstantRanges)
	}
	if f.Stats().PipelineLayouts != 1 {
		t.Errorf("live pipeline layouts = %d, want 1", f.Stats().PipelineLayouts)
	}

	f.DestroyPipelineLayout(layout)
	f.DestroyPipelineLayout(nil)
	if f.Stats().PipelineLayouts != 0 {
		t.Errorf("live pipeline layouts = %d, want 0", f.Stats().PipelineLayouts)
	}
}

func TestGraphicsPipelineLifecycle(t *testing.T) {
	f, dev := newTestFactory(t, WithLabelPrefix("scene"))

	if _, err := f.CreateGraphicsPipeline(nil); !errors.Is(err, ErrNilDescriptor) {
		t.Errorf("nil descriptor error = %v, want ErrNilDescriptor", err)
	}

	p, err := f.CreateGraphicsPipeline(&hal.RenderPipelineDescriptor{})
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	desc, _ := dev.LastPipeline()
	if desc.Label != "scene/pipeline" {
		t.Errorf("label = %q, want %q", desc.Label, "scene/pipeline")
	}
	f.DestroyGraphicsPipeline(p)
	if f.Stats().Pipelines != 0 {
		t.Errorf("live pipelines = %d, want 0", f.Stats().Pipelines)
	}

	dev.Fail(gputest.OpCreatePipeline)
	_, err = f.CreateGraphicsPipeline(&hal.RenderPipelineDescriptor{Label: "x"})
	if !errors.Is(err, ErrCreation) {
		t.Errorf("error = %v, want ErrCreation", err)
	}
	if f.Stats().Pipelines != 0 {
		t.Error("failed pipeline counted as live")
	}
}

func TestShaderModuleLifecycle(t *testing.T) {
	f, dev := newTestFactory(t)

	m, err := f.CreateShaderModule("vs", hal.ShaderSource{WGSL: "@vertex fn main() {}"})
	if err != nil {
		t.Fatal(err)
	}
	if f.Stats().ShaderModules != 1 {
		t.Errorf("live shader modules = %d, want 1", f.Stats().ShaderModules)
	}
	f.DestroyShaderModule(m)
	if dev.Live() != 0 || f.Stats().ShaderModules != 0 {
		t.Error("shader module leaked")
	}
}

func TestUploadBuffer(t *testing.T) {
	f, _ := newTestFactory(t)

	b, err := f.CreateBuffer("vertices", 16, gputypes.BufferUsageVertex)
	if err != nil {
		t.Fatal(err)
	}
	defer f.DestroyBuffer(b)

	tests := []struct {
		name    string
		offset  uint64
		size    int
		wantErr bool
	}{
		{"whole", 0, 16, false},
		{"tail", 12, 4, false},
		{"empty", 16, 0, false},
		{"past end", 12, 8, true},
		{"offset past end", 32, 1, true},
		{"overflow", ^uint64(0), 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.UploadBuffer(b, tt.offset, make([]byte, tt.size))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UploadBuffer error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrBufferRange) {
				t.Errorf("error = %v, want ErrBufferRange", err)
			}
		})
	}

	f.DestroyBuffer(b)
	if f.Stats().Buffers != 0 {
		t.Errorf("live buffers = %d, want 0", f.Stats().Buffers)
	}
	if err := f.UploadBuffer(b, 0, nil); !errors.Is(err, ErrNilDescriptor) {
		t.Errorf("upload to destroyed buffer error = %v, want ErrNilDescriptor", err)
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{SetLayouts: 1, Pipelines: 2, LayoutHits: 3, LayoutMisses: 1}
	str := s.String()
	for _, want := range []string{"1 set layouts", "2 pipelines", "3/4"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %q, missing %q", str, want)
		}
	}
	if s.Live() != 3 {
		t.Errorf("Live() = %d, want 3", s.Live())
	}
}

func TestHashBindingsStable(t *testing.T) {
	a := []gputypes.BindGroupLayoutEntry{uniformBinding(0), uniformBinding(1)}
	b := []gputypes.BindGroupLayoutEntry{uniformBinding(0), uniformBinding(1)}
	if hashBindings(a) != hashBindings(b) {
		t.Error("equal bindings hash differently")
	}
	if hashBindings(a) == hashBindings(a[:1]) {
		t.Error("different binding counts hash equal")
	}
	if hashBindings(nil) == 0 {
		t.Error("hash must never be zero")
	}
}

func TestWithLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f, _ := newTestFactory(t, WithLogger(logger))

	bindings := []gputypes.BindGroupLayoutEntry{uniformBinding(0)}
	a, err := f.CreateDescriptorSetLayout(bindings)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.CreateDescriptorSetLayout(bindings)
	if err != nil {
		t.Fatal(err)
	}
	b.Release()
	a.Release()

	out := buf.String()
	if !strings.Contains(out, "set layout cache hit") || !strings.Contains(out, "component=factory") {
		t.Errorf("log = %q, want a cache hit record from the factory component", out)
	}
}
