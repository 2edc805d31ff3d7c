// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/framegraph/factory"
	"github.com/gogpu/framegraph/shader"
)

// Render group build errors.
var (
	// ErrResourceCreation wraps device object creation failures.
	ErrResourceCreation = factory.ErrCreation

	// ErrShaderSetIncomplete is returned when the shader set cannot supply
	// the pipeline stages.
	ErrShaderSetIncomplete = shader.ErrIncomplete

	// ErrUserBuild wraps failures of a description's own Build step.
	ErrUserBuild = errors.New("render: pipeline build failed")

	// ErrSubpassMismatch is returned when the subpass has fewer color
	// attachments than the pipeline has color targets.
	ErrSubpassMismatch = errors.New("render: subpass does not match pipeline color targets")

	// ErrBindings is returned when the bindings handed to a group do not
	// match the accesses its description declares.
	ErrBindings = errors.New("render: bindings do not match declared accesses")
)
