package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/born-ml/digits/internal/backend"
	"github.com/born-ml/digits/internal/classifier"
	"github.com/born-ml/digits/internal/model"
	"github.com/born-ml/digits/internal/network"
	"github.com/born-ml/digits/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

type prediction struct {
	Digit         int       `json:"digit"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

func runPredict(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("predict", stderr)
	weights := fs.String("weights", "", "Weight artifact (.dgw or .json)")
	imagePath := fs.String("image", "", "JSON image file ({\"image\": [...]} or a bare array)")
	idxPath := fs.String("idx", "", "IDX image file")
	index := fs.Int("index", 0, "Image index within -idx")
	modeName := fs.String("mode", "class", "Output mode: class or prob")
	backendKind := fs.String("backend", "cpu", "Backend (cpu or webgpu)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *weights == "" {
		return usageErrorf("-weights is required")
	}
	mode, err := network.ParseMode(*modeName)
	if err != nil {
		return usageErrorf("%v", err)
	}

	pixels, err := loadImage(*imagePath, *idxPath, *index)
	if err != nil {
		return err
	}

	m, err := model.LoadFile(*weights)
	if err != nil {
		return err
	}
	mm, release, err := newBackend(backend.Kind(*backendKind))
	if err != nil {
		return err
	}
	defer release()

	c, err := classifier.New(m.Layers, parallel.Config{}, network.WithBackend(mm))
	if err != nil {
		return err
	}
	out, err := c.One(pixels, mode)
	if err != nil {
		return err
	}

	p := prediction{Digit: out.Classes[0], Confidence: out.Confidence()[0]}
	if mode != network.ModeClass {
		p.Probabilities = mat.Row(nil, 0, out.Probs)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
