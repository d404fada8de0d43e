package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/digits/internal/deslant"
	"github.com/born-ml/digits/internal/features"
	"github.com/born-ml/digits/internal/serialization"
	"github.com/born-ml/digits/internal/tensor"
)

func runInspect(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("inspect", stderr)
	weights := fs.String("weights", "", "Describe a .dgw weight file")
	imagePath := fs.String("image", "", "JSON image file")
	idxPath := fs.String("idx", "", "IDX image file")
	index := fs.Int("index", 0, "Image index within -idx")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *weights != "" {
		return inspectWeights(stdout, *weights)
	}

	pixels, err := loadImage(*imagePath, *idxPath, *index)
	if err != nil {
		return err
	}
	return inspectImage(stdout, pixels)
}

func inspectWeights(w io.Writer, path string) error {
	//nolint:gosec // G304: path comes from the operator
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	h, err := serialization.ReadHeader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(w, "file:       %s\n", path)
	fmt.Fprintf(w, "format:     v%d (created by %s at %s)\n", h.FormatVersion, h.CreatedBy, h.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, "layers:")
	for _, l := range h.Layers {
		fmt.Fprintf(w, "  %-10s %-8s %v  %d bytes\n", l.Name, l.DType, tensor.Shape(l.Shape), l.Size)
	}

	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "meta:       %s=%s\n", k, h.Metadata[k])
	}
	return nil
}

func inspectImage(w io.Writer, pixels []float64) error {
	if len(pixels) != tensor.Pixels {
		return fmt.Errorf("image has %d values, expected %d", len(pixels), tensor.Pixels)
	}

	fmt.Fprintf(w, "intensity:   %.4f\n", features.ImageIntensity(pixels))
	fmt.Fprintf(w, "symmetry:    %.4f\n", features.ImageSymmetry(pixels))

	s, err := deslant.Estimate(pixels)
	fmt.Fprintf(w, "significant: %d\n", s.Significant)
	fmt.Fprintf(w, "centroid:    (%.2f, %.2f)\n", s.CenterRow, s.CenterCol)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "tan_a:       %.4f\n", s.TanA)
	return nil
}
