// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package classify

import (
	"log/slog"

	"github.com/born-ml/digits/internal/backend"
	"github.com/born-ml/digits/internal/classifier"
	"github.com/born-ml/digits/internal/deslant"
	"github.com/born-ml/digits/internal/model"
	"github.com/born-ml/digits/internal/network"
	"github.com/born-ml/digits/internal/parallel"
	"github.com/born-ml/digits/internal/pipeline"
	"gonum.org/v1/gonum/mat"
)

// Mode selects what a forward pass reports.
type Mode = network.Mode

// Forward pass modes.
const (
	ModeClass = network.ModeClass
	ModeProb  = network.ModeProb
	ModeAll   = network.ModeAll
)

// ParseMode maps "class", "prob" or "all" to a Mode.
func ParseMode(s string) (Mode, error) {
	return network.ParseMode(s)
}

// Output is the result of a forward pass.
type Output = network.Output

// Classify returns the predicted digit for one 784-value image.
func Classify(pixels []float64, weights []*mat.Dense) (int, error) {
	return classifier.Classify(pixels, weights)
}

// ClassifyDetailed returns the forward pass output for one image.
func ClassifyDetailed(pixels []float64, weights []*mat.Dense, mode Mode) (*Output, error) {
	return classifier.ClassifyDetailed(pixels, weights, mode)
}

// ClassifyBatch classifies several images at once. If some images have
// degenerate geometry the output is still returned with the error, and
// Output.Errs marks the failed rows.
func ClassifyBatch(images [][]float64, weights []*mat.Dense, mode Mode) (*Output, error) {
	return classifier.ClassifyBatch(images, weights, mode)
}

// Models

// Model is a loaded, immutable weight sequence.
type Model = model.Model

// Store loads models by identifier from a directory and caches them.
type Store = model.Store

// NewStore creates a store over dir. A nil logger discards log output.
func NewStore(dir string, logger *slog.Logger) *Store {
	return model.NewStore(dir, logger)
}

// LoadModel loads a .dgw or .json weight artifact.
func LoadModel(path string) (*Model, error) {
	return model.LoadFile(path)
}

// Errors

// Sentinel errors.
var (
	ErrInputShape         = pipeline.ErrInputShape
	ErrDegenerateGeometry = deslant.ErrDegenerateGeometry
	ErrDimensionMismatch  = network.ErrDimensionMismatch
	ErrWeightLoad         = model.ErrWeightLoad
)

// Typed errors carrying detail.
type (
	ShapeError              = pipeline.ShapeError
	DegenerateGeometryError = deslant.DegenerateGeometryError
	DimensionError          = network.DimensionError
	LoadError               = model.LoadError
)

// Classifier runs images through a fixed network, reusing its weights and
// backend across calls. It is safe for concurrent use.
type Classifier = classifier.Classifier

// Backend multiplies matrices for the forward pass.
// See the backend/cpu and backend/webgpu packages.
type Backend = backend.MatMuler

// NewClassifier creates a classifier over weights that fans batch work out
// across the physical cores. A nil backend selects the CPU.
func NewClassifier(weights []*mat.Dense, b Backend) (*Classifier, error) {
	return classifier.New(weights, parallel.DefaultConfig(), network.WithBackend(b))
}
