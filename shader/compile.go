package shader

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// CompileOptions configures WGSL to SPIR-V compilation.
type CompileOptions struct {
	// SPIRVVersion is the target SPIR-V version.
	SPIRVVersion spirv.Version

	// Debug emits debug names into the SPIR-V output.
	Debug bool

	// Validate runs IR validation before code generation.
	Validate bool
}

// DefaultCompileOptions returns SPIR-V 1.3 with validation enabled.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{
		SPIRVVersion: spirv.Version1_3,
		Validate:     true,
	}
}

// StageKind identifies a pipeline stage.
type StageKind uint8

const (
	// StageVertex is the vertex stage.
	StageVertex StageKind = iota
	// StageFragment is the fragment stage.
	StageFragment
	// StageCompute is the compute stage.
	StageCompute
)

// String returns the WGSL attribute name of the stage.
func (k StageKind) String() string {
	switch k {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("StageKind(%d)", k)
	}
}

func stageFromIR(s ir.ShaderStage) (StageKind, bool) {
	switch s {
	case ir.StageVertex:
		return StageVertex, true
	case ir.StageFragment:
		return StageFragment, true
	case ir.StageCompute:
		return StageCompute, true
	default:
		return 0, false
	}
}

// EntryPoint describes one entry point found in a WGSL module.
type EntryPoint struct {
	Name  string
	Stage StageKind
}

// Reflect parses and lowers WGSL source and lists its entry points.
func Reflect(code string) ([]EntryPoint, error) {
	module, err := lower(code)
	if err != nil {
		return nil, err
	}
	return entryPoints(module), nil
}

// compiled is a lowered WGSL module and, once generated, its SPIR-V words.
type compiled struct {
	module *ir.Module
	words  []uint32
}

func lower(code string) (*ir.Module, error) {
	ast, err := naga.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("shader: parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, code)
	if err != nil {
		return nil, fmt.Errorf("shader: lower: %w", err)
	}
	return module, nil
}

func entryPoints(module *ir.Module) []EntryPoint {
	eps := make([]EntryPoint, 0, len(module.EntryPoints))
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		kind, ok := stageFromIR(ep.Stage)
		if !ok {
			continue
		}
		eps = append(eps, EntryPoint{Name: ep.Name, Stage: kind})
	}
	return eps
}

// checkEntryPoint reports ErrEntryPoint unless module declares name as a
// kind entry point.
func checkEntryPoint(module *ir.Module, name string, kind StageKind) error {
	for _, ep := range entryPoints(module) {
		if ep.Name == name && ep.Stage == kind {
			return nil
		}
	}
	return fmt.Errorf("%w: %s entry point %q", ErrEntryPoint, kind, name)
}

// compileWGSL lowers, validates, and generates SPIR-V for code.
func compileWGSL(code string, opts CompileOptions) (*compiled, error) {
	module, err := lower(code)
	if err != nil {
		return nil, err
	}
	if opts.Validate {
		errs, verr := naga.Validate(module)
		if verr != nil {
			return nil, fmt.Errorf("shader: validate: %w", verr)
		}
		if len(errs) > 0 {
			return nil, fmt.Errorf("shader: validate: %w", &errs[0])
		}
	}
	raw, err := naga.GenerateSPIRV(module, spirv.Options{
		Version: opts.SPIRVVersion,
		Debug:   opts.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: %w", err)
	}
	words, err := spirvWords(raw)
	if err != nil {
		return nil, err
	}
	return &compiled{module: module, words: words}, nil
}

// spirvWords converts little-endian SPIR-V bytes to 32-bit words.
func spirvWords(raw []byte) ([]uint32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("shader: SPIR-V length %d is not a multiple of 4", len(raw))
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return words, nil
}
