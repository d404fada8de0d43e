package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/digits/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testLayers() []*mat.Dense {
	w1 := mat.NewDense(3, 2, []float64{0.5, -1.25, 2, 0, 0.125, 3})
	w2 := mat.NewDense(3, 4, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	return []*mat.Dense{w1, w2}
}

func encode(t *testing.T, layers []*mat.Dense, opts WriteOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, layers, opts))
	return buf.Bytes()
}

func TestWriteRead_PreservesOrderAndValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.dgw")
	layers := testLayers()

	err := WriteFile(path, layers, WriteOptions{
		DType:    tensor.Float64,
		Metadata: map[string]string{"source": "test"},
	})
	require.NoError(t, err)

	f, err := ReadFile(path, ReaderOptions{})
	require.NoError(t, err)

	require.Len(t, f.Layers, 2)
	assert.True(t, mat.Equal(layers[0], f.Layers[0]))
	assert.True(t, mat.Equal(layers[1], f.Layers[1]))
	assert.Equal(t, [][]int{{3, 2}, {3, 4}}, f.Header.Architecture())
	assert.Equal(t, "layer.0", f.Header.Layers[0].Name)
	assert.Equal(t, "test", f.Header.Metadata["source"])
	assert.Equal(t, FlagHasMetadata, f.Flags&FlagHasMetadata)
	assert.Equal(t, CreatedBy, f.Header.CreatedBy)
}

func TestWrite_Float32(t *testing.T) {
	layers := []*mat.Dense{mat.NewDense(1, 2, []float64{0.1, 1e-3})}
	data := encode(t, layers, WriteOptions{})

	f, err := Read(bytes.NewReader(data), ReaderOptions{})
	require.NoError(t, err)

	assert.Equal(t, "float32", f.Header.Layers[0].DType)
	assert.Equal(t, float64(float32(0.1)), f.Layers[0].At(0, 0))
	assert.InDelta(t, 1e-3, f.Layers[0].At(0, 1), 1e-9)
}

func TestWrite_DataSectionAligned(t *testing.T) {
	data := encode(t, testLayers(), WriteOptions{DType: tensor.Float64})

	headerSize := binary.LittleEndian.Uint64(data[16:24])
	dataSize := binary.LittleEndian.Uint64(data[24:32])
	dataStart := uint64(len(data)) - dataSize

	assert.Equal(t, uint64(0), dataStart%HeaderAlignment)
	assert.GreaterOrEqual(t, dataStart, uint64(FixedHeaderSize)+headerSize)
	assert.Equal(t, uint64((6+12)*8), dataSize)
}

func TestRead_ChecksumMismatch(t *testing.T) {
	data := encode(t, testLayers(), WriteOptions{DType: tensor.Float64})
	data[len(data)-1] ^= 0xFF

	_, err := Read(bytes.NewReader(data), ReaderOptions{})
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	f, err := Read(bytes.NewReader(data), ReaderOptions{SkipChecksumValidation: true})
	require.NoError(t, err)
	assert.Len(t, f.Layers, 2)
}

func TestRead_RejectsBadPreamble(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func([]byte)
		wantErr error
	}{
		{"magic", func(b []byte) { copy(b, "BORN") }, ErrInvalidMagic},
		{"version", func(b []byte) { binary.LittleEndian.PutUint32(b[4:8], 7) }, ErrUnsupportedVersion},
		{"header size", func(b []byte) { binary.LittleEndian.PutUint64(b[16:24], MaxHeaderSize+1) }, ErrHeaderTooLarge},
		{"data size", func(b []byte) { binary.LittleEndian.PutUint64(b[24:32], 1<<40) }, ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encode(t, testLayers(), WriteOptions{})
			tt.corrupt(data)
			_, err := Read(bytes.NewReader(data), ReaderOptions{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRead_RejectsOversizedShape(t *testing.T) {
	header, err := json.Marshal(Header{
		FormatVersion: FormatVersion,
		Layers: []LayerMeta{
			{Name: "layer.0", DType: "float64", Shape: []int{1 << 31, 1 << 31}, Offset: 0, Size: 0},
		},
	})
	require.NoError(t, err)

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed, MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(header)))

	var buf bytes.Buffer
	buf.Write(fixed)
	buf.Write(header)
	buf.Write(make([]byte, padding(int64(FixedHeaderSize+len(header)))))

	var f *File
	require.NotPanics(t, func() {
		f, err = Read(&buf, ReaderOptions{SkipChecksumValidation: true})
	})
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestRead_Truncated(t *testing.T) {
	data := encode(t, testLayers(), WriteOptions{})
	_, err := Read(bytes.NewReader(data[:len(data)-4]), ReaderOptions{})
	assert.Error(t, err)

	_, err = Read(bytes.NewReader(data[:10]), ReaderOptions{})
	assert.Error(t, err)
}

func TestReadHeader(t *testing.T) {
	data := encode(t, testLayers(), WriteOptions{DType: tensor.Float64})

	h, err := ReadHeader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, h.FormatVersion)
	assert.Equal(t, []int{3, 4}, h.Layers[1].Shape)
	assert.Equal(t, int64(6*8), h.Layers[1].Offset)
}

func TestWrite_RejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, nil, WriteOptions{}), ErrNoLayers)
	assert.Error(t, Write(&buf, []*mat.Dense{nil}, WriteOptions{}))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testLayers()))

	layers, err := ReadJSON(&buf)
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.True(t, mat.Equal(testLayers()[0], layers[0]))
	assert.True(t, mat.Equal(testLayers()[1], layers[1]))
}

func TestReadJSON_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "weights"},
		{"no layers", "[]"},
		{"empty matrix", "[[]]"},
		{"ragged", "[[[1, 2], [3]]]"},
		{"wrong rank", "[[1, 2]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
