package shader

import "errors"

// Shader set errors.
var (
	// ErrIncomplete is returned by Set.Raw when the set cannot supply the
	// stages a graphics pipeline needs: no vertex stage was declared, or a
	// declared stage failed to load. The load error is wrapped.
	ErrIncomplete = errors.New("shader: incomplete shader set")

	// ErrDisposed is returned by Set.Raw after Dispose.
	ErrDisposed = errors.New("shader: shader set disposed")

	// ErrEntryPoint is returned when a WGSL module has no entry point with
	// the requested name and stage.
	ErrEntryPoint = errors.New("shader: entry point not found")

	// ErrEmptySource is returned when a stage has neither WGSL nor SPIR-V.
	ErrEmptySource = errors.New("shader: empty source")
)
