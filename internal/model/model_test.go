package model

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/born-ml/digits/internal/network"
	"github.com/born-ml/digits/internal/serialization"
	"github.com/born-ml/digits/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func validLayers() []*mat.Dense {
	w1 := mat.NewDense(tensor.FeatureWidth, 5, nil)
	for i := 0; i < tensor.FeatureWidth; i++ {
		w1.Set(i, i%5, 0.01)
	}
	w2 := mat.NewDense(6, 10, nil)
	for i := 0; i < 6; i++ {
		w2.Set(i, i, 1)
	}
	return []*mat.Dense{w1, w2}
}

func writeBinary(t *testing.T, dir, id string, layers []*mat.Dense) string {
	t.Helper()
	path := filepath.Join(dir, id+".dgw")
	require.NoError(t, serialization.WriteFile(path, layers, serialization.WriteOptions{DType: tensor.Float64}))
	return path
}

func writeJSON(t *testing.T, dir, id string, layers []*mat.Dense) string {
	t.Helper()
	path := filepath.Join(dir, id+".json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, serialization.WriteJSON(f, layers))
	require.NoError(t, f.Close())
	return path
}

// writeOversized writes a .dgw whose single layer claims a shape far beyond
// the data section, with a byte size that overflows to zero.
func writeOversized(t *testing.T, dir, id string) {
	t.Helper()
	header, err := json.Marshal(serialization.Header{
		FormatVersion: serialization.FormatVersion,
		Layers: []serialization.LayerMeta{
			{Name: "layer.0", DType: "float64", Shape: []int{1 << 31, 1 << 31}},
		},
	})
	require.NoError(t, err)

	fixed := make([]byte, serialization.FixedHeaderSize)
	copy(fixed, serialization.MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], serialization.FormatVersion)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(header)))

	var buf bytes.Buffer
	buf.Write(fixed)
	buf.Write(header)
	if rem := (len(fixed) + len(header)) % serialization.HeaderAlignment; rem != 0 {
		buf.Write(make([]byte, serialization.HeaderAlignment-rem))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".dgw"), buf.Bytes(), 0o600))
}

func TestStore_LoadBinary(t *testing.T) {
	dir := t.TempDir()
	path := writeBinary(t, dir, "mnist", validLayers())

	s := NewStore(dir, nil)
	m, err := s.Load(context.Background(), "mnist")
	require.NoError(t, err)

	assert.Equal(t, "mnist", m.ID)
	assert.Equal(t, path, m.Path)
	assert.Equal(t, FormatBinary, m.Format)
	assert.Len(t, m.Checksum, 64)
	assert.Equal(t, []tensor.Shape{{787, 5}, {6, 10}}, m.Architecture())
	assert.True(t, mat.Equal(validLayers()[0], m.Layers[0]))
}

func TestStore_LoadJSON(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "legacy", validLayers())

	m, err := NewStore(dir, nil).Load(context.Background(), "legacy")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, m.Format)
	assert.Empty(t, m.Checksum)
	assert.NoError(t, m.Validate())
}

func TestStore_PrefersBinary(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "both", validLayers())
	writeBinary(t, dir, "both", validLayers())

	m, err := NewStore(dir, nil).Load(context.Background(), "both")
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, m.Format)
}

func TestStore_CachesHandle(t *testing.T) {
	dir := t.TempDir()
	path := writeBinary(t, dir, "mnist", validLayers())
	s := NewStore(dir, nil)

	first, err := s.Load(context.Background(), "mnist")
	require.NoError(t, err)

	// Once cached the artifact is not read again.
	require.NoError(t, os.Remove(path))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.Load(context.Background(), "mnist")
			assert.NoError(t, err)
			assert.Same(t, first, m)
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"mnist"}, s.Cached())
}

func TestStore_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	corrupt := writeBinary(t, dir, "corrupt", validLayers())
	data, err := os.ReadFile(corrupt)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(corrupt, data, 0o600))

	writeBinary(t, dir, "shallow", []*mat.Dense{mat.NewDense(788, 5, nil), mat.NewDense(6, 10, nil)})
	writeOversized(t, dir, "oversized")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0o600))

	tests := []struct {
		name  string
		id    string
		cause error
	}{
		{"missing", "absent", fs.ErrNotExist},
		{"checksum", "corrupt", serialization.ErrChecksumMismatch},
		{"architecture", "shallow", network.ErrDimensionMismatch},
		{"oversized shape", "oversized", serialization.ErrOutOfBounds},
		{"bad json", "garbage", nil},
		{"path traversal", "../etc", nil},
		{"empty id", "", nil},
	}

	s := NewStore(dir, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := s.Load(context.Background(), tt.id)
			assert.Nil(t, m)
			require.ErrorIs(t, err, ErrWeightLoad)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.id, loadErr.ID)
		})
	}

	assert.Empty(t, s.Cached(), "failed loads are not cached")
}

func TestStore_ConcurrentFirstLoadReadsOnce(t *testing.T) {
	dir := t.TempDir()
	writeBinary(t, dir, "mnist", validLayers())
	s := NewStore(dir, nil)

	var mu sync.Mutex
	reads := 0
	s.read = func(id, path string) (*Model, error) {
		mu.Lock()
		reads++
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		return loadFile(id, path)
	}

	models := make([]*Model, 8)
	var wg sync.WaitGroup
	for i := range models {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.Load(context.Background(), "mnist")
			assert.NoError(t, err)
			models[i] = m
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reads)
	for _, m := range models {
		assert.Same(t, models[0], m)
	}
}

func TestStore_SlowLoadDoesNotBlockOtherIDs(t *testing.T) {
	dir := t.TempDir()
	writeBinary(t, dir, "slow", validLayers())
	writeBinary(t, dir, "fast", validLayers())
	s := NewStore(dir, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	s.read = func(id, path string) (*Model, error) {
		if id == "slow" {
			close(started)
			<-release
		}
		return loadFile(id, path)
	}

	slowDone := make(chan error, 1)
	go func() {
		_, err := s.Load(context.Background(), "slow")
		slowDone <- err
	}()
	<-started

	m, err := s.Load(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", m.ID)

	// A waiter on the blocked load gives up with its own context.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = s.Load(ctx, "slow")
	assert.ErrorIs(t, err, ErrWeightLoad)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-slowDone)
	assert.ElementsMatch(t, []string{"slow", "fast"}, s.Cached())
}

func TestStore_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeBinary(t, dir, "mnist", validLayers())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore(dir, nil).Load(ctx, "mnist")
	assert.ErrorIs(t, err, ErrWeightLoad)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "weights", validLayers())

	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "weights", m.ID)

	n, err := m.Network()
	require.NoError(t, err)
	assert.Equal(t, tensor.FeatureWidth, n.InputWidth())
	assert.Equal(t, 10, n.OutputWidth())

	_, err = LoadFile(filepath.Join(dir, "nope.dgw"))
	assert.ErrorIs(t, err, ErrWeightLoad)
	assert.Contains(t, err.Error(), "nope.dgw")
}
