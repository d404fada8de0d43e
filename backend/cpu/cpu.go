// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU matrix multiply backend.
package cpu

import (
	"github.com/born-ml/digits/internal/backend"
	internalcpu "github.com/born-ml/digits/internal/backend/cpu"
)

// Backend multiplies matrices with gonum on the CPU.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements backend.MatMuler.
var _ backend.MatMuler = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/digits/backend/cpu"
//	    "github.com/born-ml/digits/classify"
//	)
//
//	func main() {
//	    c, err := classify.NewClassifier(m.Layers, cpu.New())
//	    ...
//	}
func New() *Backend {
	return internalcpu.New()
}
