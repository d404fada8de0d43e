// Package model loads weight artifacts and hands out immutable, shared
// model handles.
package model

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/born-ml/digits/internal/network"
	"github.com/born-ml/digits/internal/serialization"
	"github.com/born-ml/digits/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Artifact formats.
const (
	FormatBinary = "dgw"
	FormatJSON   = "json"
)

// Model is a loaded weight sequence. It must not be modified after loading.
type Model struct {
	ID       string
	Path     string
	Format   string
	Checksum string // Hex SHA-256 of the data section, binary artifacts only
	LoadedAt time.Time
	Layers   []*mat.Dense
}

// Validate checks that the layers chain from a feature row to the output.
func (m *Model) Validate() error {
	return network.CheckChain(m.Layers, tensor.FeatureWidth)
}

// Architecture returns the layer shapes in forward order.
func (m *Model) Architecture() []tensor.Shape {
	out := make([]tensor.Shape, len(m.Layers))
	for i, l := range m.Layers {
		out[i] = tensor.ShapeOf(l)
	}
	return out
}

// Network builds a forward pass over the model's layers.
func (m *Model) Network(opts ...network.Option) (*network.Network, error) {
	return network.New(m.Layers, opts...)
}

// LoadFile loads and validates the artifact at path. The format is chosen
// by extension: .json for the interchange form, anything else as binary.
func LoadFile(path string) (*Model, error) {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := loadFile(id, path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return m, nil
}

func loadFile(id, path string) (*Model, error) {
	m := &Model{ID: id, Path: path, LoadedAt: time.Now()}

	if strings.EqualFold(filepath.Ext(path), "."+FormatJSON) {
		//nolint:gosec // G304: path comes from the operator
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		layers, err := serialization.ReadJSON(file)
		if err != nil {
			return nil, err
		}
		m.Format = FormatJSON
		m.Layers = layers
	} else {
		f, err := serialization.ReadFile(path, serialization.ReaderOptions{})
		if err != nil {
			return nil, err
		}
		m.Format = FormatBinary
		m.Checksum = hex.EncodeToString(f.Checksum[:])
		m.Layers = f.Layers
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid architecture: %w", err)
	}
	return m, nil
}
