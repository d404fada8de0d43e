// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU matrix multiply backend.
//
// The backend is only functional on Windows; elsewhere New returns an
// error matching ErrUnavailable.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	c, err := classify.NewClassifier(m.Layers, gpu)
package webgpu

import (
	"github.com/born-ml/digits/internal/backend"
	internalwebgpu "github.com/born-ml/digits/internal/backend/webgpu"
)

// Backend multiplies matrices on the GPU in float32.
type Backend = internalwebgpu.Backend

// ErrUnavailable is returned by New when no WebGPU adapter can be used.
var ErrUnavailable = backend.ErrUnavailable

// New creates a new WebGPU backend.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
