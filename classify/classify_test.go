// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package classify_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/digits/backend/cpu"
	"github.com/born-ml/digits/backend/webgpu"
	"github.com/born-ml/digits/classify"
	"gonum.org/v1/gonum/mat"
)

func weights() []*mat.Dense {
	w1 := mat.NewDense(787, 5, nil)
	for i := 0; i < 787; i++ {
		w1.Set(i, i%5, 0.01*float64(i%7))
	}
	w2 := mat.NewDense(6, 10, nil)
	for i := 0; i < 6; i++ {
		w2.Set(i, i+2, 1)
	}
	return []*mat.Dense{w1, w2}
}

func one() []float64 {
	img := make([]float64, 784)
	for row := 4; row < 24; row++ {
		img[row*28+13+row/8] = 1
	}
	return img
}

// TestClassify exercises the public entry points end to end.
func TestClassify(t *testing.T) {
	digit, err := classify.Classify(one(), weights())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if digit < 0 || digit > 9 {
		t.Errorf("digit %d out of range", digit)
	}

	mode, err := classify.ParseMode("all")
	if err != nil {
		t.Fatal(err)
	}
	out, err := classify.ClassifyDetailed(one(), weights(), mode)
	if err != nil {
		t.Fatalf("ClassifyDetailed failed: %v", err)
	}
	if len(out.Activations) != 3 {
		t.Errorf("expected 3 activations, got %d", len(out.Activations))
	}
	if out.Classes[0] != digit {
		t.Errorf("modes disagree: %d vs %d", out.Classes[0], digit)
	}
}

// TestErrors verifies the re-exported error values.
func TestErrors(t *testing.T) {
	_, err := classify.Classify(make([]float64, 10), weights())
	var shapeErr *classify.ShapeError
	if !errors.As(err, &shapeErr) || !errors.Is(err, classify.ErrInputShape) {
		t.Errorf("expected ShapeError, got %v", err)
	}

	_, err = classify.LoadModel(filepath.Join(t.TempDir(), "missing.dgw"))
	if !errors.Is(err, classify.ErrWeightLoad) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrWeightLoad wrapping ErrNotExist, got %v", err)
	}
}

// TestNewClassifier verifies the reusable classifier against the one-shot API.
func TestNewClassifier(t *testing.T) {
	c, err := classify.NewClassifier(weights(), cpu.New())
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if got := c.Network().Backend(); got != "CPU" {
		t.Errorf("expected CPU backend, got %q", got)
	}

	out, err := c.Batch([][]float64{one(), one()}, classify.ModeClass)
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}
	want, err := classify.Classify(one(), weights())
	if err != nil {
		t.Fatal(err)
	}
	for i, got := range out.Classes {
		if got != want {
			t.Errorf("image %d: got %d, want %d", i, got, want)
		}
	}

	if !webgpu.IsAvailable() {
		if _, err := webgpu.New(); err == nil {
			t.Error("expected webgpu.New to fail when unavailable")
		}
	}
}
