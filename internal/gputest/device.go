// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gputest provides HAL test doubles built on the noop backend.
//
// The noop backend returns zero-size resources, which compare equal and
// cannot be told apart. Device hands out distinct [Object] values instead,
// records every create and destroy call in order, and can be told to fail a
// given operation.
package gputest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// ErrInjected is the error returned by operations marked with Device.Fail.
var ErrInjected = errors.New("gputest: injected failure")

// Operation names used in the call log and with Device.Fail.
const (
	OpCreateSetLayout       = "CreateBindGroupLayout"
	OpDestroySetLayout      = "DestroyBindGroupLayout"
	OpCreatePipelineLayout  = "CreatePipelineLayout"
	OpDestroyPipelineLayout = "DestroyPipelineLayout"
	OpCreateShaderModule    = "CreateShaderModule"
	OpDestroyShaderModule   = "DestroyShaderModule"
	OpCreatePipeline        = "CreateRenderPipeline"
	OpDestroyPipeline       = "DestroyRenderPipeline"
	OpCreateBuffer          = "CreateBuffer"
	OpDestroyBuffer         = "DestroyBuffer"
)

// Object is a distinct HAL resource.
type Object struct {
	noop.Resource
	Kind string
	ID   int
}

// String returns kind#id.
func (o *Object) String() string {
	return fmt.Sprintf("%s#%d", o.Kind, o.ID)
}

// Device is a recording hal.Device.
// Operations it does not override fall through to the noop device.
type Device struct {
	noop.Device

	mu        sync.Mutex
	next      int
	calls     []string
	fail      map[string]error
	live      map[*Object]struct{}
	pipelines []hal.RenderPipelineDescriptor
	layouts   []hal.PipelineLayoutDescriptor
}

// NewDevice returns an empty recording device.
func NewDevice() *Device {
	return &Device{
		fail: make(map[string]error),
		live: make(map[*Object]struct{}),
	}
}

// Fail makes every following call to op return ErrInjected.
func (d *Device) Fail(op string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[op] = ErrInjected
}

// Heal clears all injected failures.
func (d *Device) Heal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.fail)
}

// Calls returns a copy of the call log.
func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Mark appends an arbitrary entry to the call log, so tests can order
// their own events against device calls.
func (d *Device) Mark(entry string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, entry)
}

// ResetCalls clears the call log.
func (d *Device) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = d.calls[:0]
}

// Count returns how many times op appears in the call log.
func (d *Device) Count(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Live returns the number of objects created and not yet destroyed.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// LastPipeline returns the most recent render pipeline descriptor.
func (d *Device) LastPipeline() (hal.RenderPipelineDescriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pipelines) == 0 {
		return hal.RenderPipelineDescriptor{}, false
	}
	return d.pipelines[len(d.pipelines)-1], true
}

// LastPipelineLayout returns the most recent pipeline layout descriptor.
func (d *Device) LastPipelineLayout() (hal.PipelineLayoutDescriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.layouts) == 0 {
		return hal.PipelineLayoutDescriptor{}, false
	}
	return d.layouts[len(d.layouts)-1], true
}

func (d *Device) create(op, kind string) (*Object, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, op)
	if err := d.fail[op]; err != nil {
		return nil, err
	}
	d.next++
	o := &Object{Kind: kind, ID: d.next}
	d.live[o] = struct{}{}
	return o, nil
}

func (d *Device) destroy(op string, r any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, op)
	if o, ok := r.(*Object); ok {
		delete(d.live, o)
	}
}

// CreateBindGroupLayout records the call and returns a distinct layout.
func (d *Device) CreateBindGroupLayout(_ *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	o, err := d.create(OpCreateSetLayout, "set_layout")
	if err != nil {
		return nil, err
	}
	return o, nil
}

// DestroyBindGroupLayout records the call.
func (d *Device) DestroyBindGroupLayout(layout hal.BindGroupLayout) {
	d.destroy(OpDestroySetLayout, layout)
}

// CreatePipelineLayout records the call and returns a distinct layout.
func (d *Device) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	o, err := d.create(OpCreatePipelineLayout, "pipeline_layout")
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.layouts = append(d.layouts, *desc)
	d.mu.Unlock()
	return o, nil
}

// DestroyPipelineLayout records the call.
func (d *Device) DestroyPipelineLayout(layout hal.PipelineLayout) {
	d.destroy(OpDestroyPipelineLayout, layout)
}

// CreateShaderModule records the call and returns a distinct module.
func (d *Device) CreateShaderModule(_ *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	o, err := d.create(OpCreateShaderModule, "shader")
	if err != nil {
		return nil, err
	}
	return o, nil
}

// DestroyShaderModule records the call.
func (d *Device) DestroyShaderModule(module hal.ShaderModule) {
	d.destroy(OpDestroyShaderModule, module)
}

// CreateRenderPipeline records the call and descriptor and returns a
// distinct pipeline.
func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	o, err := d.create(OpCreatePipeline, "pipeline")
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.pipelines = append(d.pipelines, *desc)
	d.mu.Unlock()
	return o, nil
}

// DestroyRenderPipeline records the call.
func (d *Device) DestroyRenderPipeline(pipeline hal.RenderPipeline) {
	d.destroy(OpDestroyPipeline, pipeline)
}

// CreateBuffer records the call and returns a noop buffer with backing
// storage so queue writes succeed.
func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.mu.Lock()
	d.calls = append(d.calls, OpCreateBuffer)
	err := d.fail[OpCreateBuffer]
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return d.Device.CreateBuffer(desc)
}

// DestroyBuffer records the call.
func (d *Device) DestroyBuffer(buffer hal.Buffer) {
	d.destroy(OpDestroyBuffer, buffer)
}

// OpenNoop opens a plain noop device and queue and registers cleanup on t.
func OpenNoop(t testing.TB) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// Queue returns a noop queue.
func Queue() hal.Queue {
	return &noop.Queue{}
}
