// Command rgdemo builds a simple render group on the noop backend, runs a
// few frames through it, and prints the factory statistics.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/factory"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/graph/render"
	"github.com/gogpu/framegraph/memory"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

const triangleWGSL = `
struct Tint {
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> tint: Tint;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @location(1) color: vec4<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(pos, 1.0);
    out.color = color * tint.color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

// stats counts what the demo pipeline did.
type stats struct {
	recorded int
	reused   int
	draws    int
}

// triangleDesc draws one colored triangle tinted by a uniform buffer.
type triangleDesc struct {
	render.Defaults
	noValidate bool
}

func (*triangleDesc) Layout() render.Layout {
	return render.Layout{Sets: []render.SetLayout{{
		Bindings: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	}}}
}

func (*triangleDesc) Vertices() []render.VertexInput {
	return []render.VertexInput{render.PosColor.Input(gputypes.VertexStepModeVertex)}
}

func (*triangleDesc) DepthStencil() *render.DepthStencilDesc { return nil }

func (*triangleDesc) Buffers() []graph.BufferAccess {
	return []graph.BufferAccess{{Usage: gputypes.BufferUsageUniform, Stages: gputypes.ShaderStageVertex}}
}

func (d *triangleDesc) LoadShaderSet(f *factory.Factory, _ *stats) *shader.Set {
	opts := shader.DefaultCompileOptions()
	opts.Validate = !d.noValidate
	src := shader.WGSL("triangle", triangleWGSL)
	return shader.NewSetBuilder().
		WithVertex(src, "vs_main").
		WithFragment(src, "fs_main").
		WithOptions(opts).
		Build(f)
}

func (*triangleDesc) Build(ctx *graph.Context, f *factory.Factory, _ hal.Queue, _ *stats,
	buffers []graph.NodeBuffer, _ []graph.NodeImage, setLayouts []resource.SetLayoutHandle,
) (render.SimpleGraphicsPipeline[*stats], error) {
	tint, err := ctx.ResolveBuffers(buffers)
	if err != nil {
		return nil, err
	}

	vertices := encodeFloats(
		0, 0.5, 0, 1, 0, 0, 1,
		-0.5, -0.5, 0, 0, 1, 0, 1,
		0.5, -0.5, 0, 0, 0, 1, 1,
	)
	vb, err := f.CreateBuffer("triangle_vertices", uint64(len(vertices)), gputypes.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	if err := f.UploadBuffer(vb, 0, vertices); err != nil {
		f.DestroyBuffer(vb)
		return nil, err
	}

	r := buffers[0].Range
	group, err := f.Device().CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "triangle_tint",
		Layout: setLayouts[0].Get().Raw(),
		Entries: []gputypes.BindGroupEntry{{
			Binding: 0,
			Resource: gputypes.BufferBinding{
				Buffer: tint[0].Raw.NativeHandle(),
				Offset: r.Start,
				Size:   r.Len(),
			},
		}},
	})
	if err != nil {
		f.DestroyBuffer(vb)
		return nil, fmt.Errorf("%w: create bind group: %w", factory.ErrCreation, err)
	}
	return &trianglePipeline{vertices: vb, group: group}, nil
}

type trianglePipeline struct {
	vertices *factory.Buffer
	group    hal.BindGroup
}

func (p *trianglePipeline) Prepare(_ *factory.Factory, _ hal.Queue, _ []resource.SetLayoutHandle, index int, aux *stats) graph.PrepareResult {
	if index == 0 {
		aux.recorded++
		return graph.DrawRecord
	}
	aux.reused++
	return graph.DrawReuse
}

func (p *trianglePipeline) Draw(_ hal.PipelineLayout, encoder hal.RenderPassEncoder, _ int, aux *stats) {
	encoder.SetBindGroup(0, p.group, nil)
	encoder.SetVertexBuffer(0, p.vertices.Raw, 0)
	encoder.Draw(3, 1, 0, 0)
	aux.draws++
}

func (p *trianglePipeline) Dispose(f *factory.Factory, _ *stats) {
	f.Device().DestroyBindGroup(p.group)
	f.DestroyBuffer(p.vertices)
}

func encodeFloats(v ...float32) []byte {
	b := make([]byte, 0, 4*len(v))
	for _, f := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func main() {
	var (
		frames     = flag.Int("frames", 3, "number of frames to run")
		width      = flag.Uint("width", 800, "framebuffer width")
		height     = flag.Uint("height", 600, "framebuffer height")
		verbose    = flag.Bool("v", false, "log debug messages")
		noValidate = flag.Bool("novalidate", false, "skip shader validation")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	framegraph.SetLogger(logger)

	if !memory.FitsUint32(*width) || !memory.FitsUint32(*height) {
		log.Fatalf("framebuffer %dx%d out of range", *width, *height)
	}

	if err := run(*frames, uint32(*width), uint32(*height), *noValidate, logger); err != nil { //nolint:gosec // range checked above
		log.Fatalf("rgdemo: %v", err)
	}
}

func run(frames int, width, height uint32, noValidate bool, logger *slog.Logger) error {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer open.Device.Destroy()

	f, err := factory.New(open.Device, open.Queue, factory.WithLabelPrefix("rgdemo"), factory.WithLogger(logger))
	if err != nil {
		return err
	}

	tint, err := f.CreateBuffer("tint", 16, gputypes.BufferUsageUniform)
	if err != nil {
		return err
	}
	defer f.DestroyBuffer(tint)
	if err := f.UploadBuffer(tint, 0, encodeFloats(1, 1, 1, 1)); err != nil {
		return err
	}

	ctx := graph.NewContext()
	id := ctx.AddBuffer(tint)

	subpass := graph.Subpass{ColorFormats: []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm}}
	aux := &stats{}

	group, err := render.Simple[*stats](&triangleDesc{noValidate: noValidate}).
		WithBuffer(graph.NodeBuffer{ID: id, Range: memory.Range{Start: 0, End: tint.Size}}).
		Build(ctx, f, open.Queue, aux, width, height, subpass)
	if err != nil {
		return fmt.Errorf("build render group: %w", err)
	}
	logger.Info("render group built", "stats", f.Stats().String())

	pass := &noop.RenderPassEncoder{}
	for frame := range frames {
		if group.Prepare(f, open.Queue, frame, subpass, aux) == graph.DrawRecord {
			group.DrawInline(pass, frame, subpass, aux)
		}
	}

	group.Dispose(f, aux)

	fmt.Printf("frames: %d recorded, %d reused, %d draws\n", aux.recorded, aux.reused, aux.draws)
	fmt.Println(f.Stats())
	return nil
}
