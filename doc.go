// Package framegraph builds and drives render groups: self-contained
// graphics-pipeline units inside a frame graph.
//
// # Overview
//
// A render group is described declaratively (shader stages, vertex layout,
// blend and depth state, descriptor-set layouts) and built against a
// [github.com/gogpu/framegraph/factory.Factory], which wraps a gogpu/wgpu HAL
// device. Building allocates the set layouts, the pipeline layout and the
// render pipeline, then hands control to the user pipeline implementation.
// Any failure releases everything created so far.
//
//	desc := render.NewSimpleRenderGroupDesc[Aux](&TriangleDesc{})
//	group, err := desc.Build(ctx, f, queue, aux, 800, 600, subpass, nil, nil)
//	if err != nil {
//	    return err
//	}
//	defer group.Dispose(f, aux)
//
//	// Every frame:
//	group.Prepare(f, queue, frame, subpass, aux)
//	group.DrawInline(pass, frame, subpass, aux)
//
// # Packages
//
//   - factory: device wrapper, shared descriptor-set layouts, live-object stats
//   - shader: shader sets compiled from WGSL through naga, with a compile cache
//   - graph: frame-graph context, resource access lists, subpasses
//   - graph/render: vertex layout packing, pipeline descriptors, render groups
//   - memory: width-safe integer fitting and range clamping
//
// # Logging
//
// framegraph produces no log output by default. Use [SetLogger] to enable it.
package framegraph
