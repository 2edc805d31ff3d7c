// Package shader loads the shader stages of a graphics pipeline.
//
// A [SetBuilder] declares the vertex and optional fragment stage; Build
// compiles WGSL through naga, creates the HAL shader modules through a
// factory, and returns a [Set]. Build itself never fails: load errors are
// kept in the set and reported by [Set.Raw], so callers handle a broken
// shader set on the same path as any other pipeline creation failure.
//
// Shader modules are only needed while pipelines are created. Dispose the
// set as soon as the pipelines that use it exist.
package shader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/factory"
	"github.com/gogpu/wgpu/hal"
)

// Source is the code of one shader module.
type Source struct {
	// Label is the debug label of the module.
	Label string

	// WGSL is WGSL source code.
	WGSL string

	// SPIRV is SPIR-V bytecode. Used when WGSL is empty.
	SPIRV []uint32

	// Passthrough hands WGSL to the HAL unchanged instead of compiling it
	// to SPIR-V. Entry points are still checked.
	Passthrough bool
}

// WGSL returns a WGSL source.
func WGSL(label, code string) Source {
	return Source{Label: label, WGSL: code}
}

// SPIRV returns a precompiled SPIR-V source.
func SPIRV(label string, words []uint32) Source {
	return Source{Label: label, SPIRV: words}
}

func (s *Source) empty() bool {
	return s.WGSL == "" && len(s.SPIRV) == 0
}

// key identifies sources that compile to the same module.
func (s *Source) key() string {
	if s.WGSL != "" {
		return fmt.Sprintf("wgsl:%t:%s", s.Passthrough, s.WGSL)
	}
	return fmt.Sprintf("spirv:%p:%d", s.SPIRV, len(s.SPIRV))
}

// Stage is a created shader module and the entry point to run.
type Stage struct {
	Module     hal.ShaderModule
	EntryPoint string
}

// Shaders are the raw per-stage handles of a graphics pipeline.
type Shaders struct {
	Vertex   Stage
	Fragment *Stage
}

type stageDecl struct {
	source Source
	entry  string
	kind   StageKind
}

// SetBuilder declares the stages of a shader set.
type SetBuilder struct {
	vertex   *stageDecl
	fragment *stageDecl
	opts     CompileOptions
}

// NewSetBuilder returns a builder using DefaultCompileOptions.
func NewSetBuilder() *SetBuilder {
	return &SetBuilder{opts: DefaultCompileOptions()}
}

// WithVertex declares the vertex stage.
func (b *SetBuilder) WithVertex(src Source, entry string) *SetBuilder {
	b.vertex = &stageDecl{source: src, entry: entry, kind: StageVertex}
	return b
}

// WithFragment declares the fragment stage.
func (b *SetBuilder) WithFragment(src Source, entry string) *SetBuilder {
	b.fragment = &stageDecl{source: src, entry: entry, kind: StageFragment}
	return b
}

// WithOptions sets the WGSL compile options.
func (b *SetBuilder) WithOptions(opts CompileOptions) *SetBuilder {
	b.opts = opts
	return b
}

// Build loads every declared stage on f.
//
// Stages sharing one source share one module. Build stops at the first
// failing stage; modules created before the failure stay owned by the set
// and are destroyed by Dispose.
func (b *SetBuilder) Build(f *factory.Factory) *Set {
	s := &Set{factory: f}
	if f == nil {
		s.err = factory.ErrNilDevice
		return s
	}
	if b.vertex == nil {
		s.err = fmt.Errorf("%w: no vertex stage", ErrIncomplete)
		return s
	}

	loaded := make(map[string]hal.ShaderModule)
	load := func(d *stageDecl) (*Stage, error) {
		if d.source.empty() {
			return nil, fmt.Errorf("%w: %s stage %q", ErrEmptySource, d.kind, d.source.Label)
		}
		key := d.source.key()
		if m, ok := loaded[key]; ok {
			if err := s.checkEntry(d); err != nil {
				return nil, err
			}
			return &Stage{Module: m, EntryPoint: d.entry}, nil
		}
		m, err := s.load(d, b.opts)
		if err != nil {
			return nil, err
		}
		loaded[key] = m
		return &Stage{Module: m, EntryPoint: d.entry}, nil
	}

	vs, err := load(b.vertex)
	if err != nil {
		s.err = err
		return s
	}
	s.shaders.Vertex = *vs

	if b.fragment != nil {
		fs, err := load(b.fragment)
		if err != nil {
			s.err = err
			return s
		}
		s.shaders.Fragment = fs
	}

	framegraph.Component("shader").Debug("shader set loaded",
		"modules", len(s.modules),
		"fragment", s.shaders.Fragment != nil)
	return s
}

// Set is a loaded shader set.
//
// Set is safe for concurrent use.
type Set struct {
	factory *factory.Factory

	mu       sync.Mutex
	modules  []hal.ShaderModule
	shaders  Shaders
	err      error
	disposed bool

	// lowered WGSL modules by source key, kept for entry-point checks.
	lowered map[string]*compiled
}

// load compiles d and creates its module.
func (s *Set) load(d *stageDecl, opts CompileOptions) (hal.ShaderModule, error) {
	var source hal.ShaderSource
	switch {
	case d.source.WGSL != "" && d.source.Passthrough:
		module, err := lower(d.source.WGSL)
		if err != nil {
			return nil, err
		}
		s.remember(d, &compiled{module: module})
		source.WGSL = d.source.WGSL
	case d.source.WGSL != "":
		c, err := compiledModules.getOrCompile(d.source.WGSL, opts)
		if err != nil {
			return nil, fmt.Errorf("%s stage %q: %w", d.kind, d.source.Label, err)
		}
		s.remember(d, c)
		source.SPIRV = c.words
	default:
		source.SPIRV = d.source.SPIRV
	}

	if err := s.checkEntry(d); err != nil {
		return nil, err
	}

	m, err := s.factory.CreateShaderModule(d.source.Label, source)
	if err != nil {
		return nil, err
	}
	s.modules = append(s.modules, m)
	return m, nil
}

func (s *Set) remember(d *stageDecl, c *compiled) {
	if s.lowered == nil {
		s.lowered = make(map[string]*compiled)
	}
	s.lowered[d.source.key()] = c
}

// checkEntry verifies a WGSL stage's entry point. SPIR-V is not reflected.
func (s *Set) checkEntry(d *stageDecl) error {
	c, ok := s.lowered[d.source.key()]
	if !ok {
		return nil
	}
	return checkEntryPoint(c.module, d.entry, d.kind)
}

// Raw returns the per-stage handles.
func (s *Set) Raw() (Shaders, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return Shaders{}, ErrDisposed
	}
	if s.err != nil {
		if errors.Is(s.err, ErrIncomplete) {
			return Shaders{}, s.err
		}
		return Shaders{}, fmt.Errorf("%w: %w", ErrIncomplete, s.err)
	}
	return s.shaders, nil
}

// Err returns the load error, if any.
func (s *Set) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Modules returns the number of shader modules the set owns.
func (s *Set) Modules() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.modules)
}

// Dispose destroys the set's modules through the factory the set was
// built on. Calls after the first are no-ops.
func (s *Set) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	modules := s.modules
	s.modules = nil
	s.shaders = Shaders{}
	s.lowered = nil
	s.mu.Unlock()

	if s.factory != nil {
		for _, m := range modules {
			s.factory.DestroyShaderModule(m)
		}
	}
	framegraph.Component("shader").Debug("shader set disposed", "modules", len(modules))
}

// Disposed reports whether Dispose has been called.
func (s *Set) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
