package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/digits/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// MaxDataSize bounds the data section a reader will allocate.
const MaxDataSize = 1 << 30

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip checksum validation (faster but less safe)
}

// File is a decoded .dgw artifact.
type File struct {
	Header   Header
	Flags    uint32
	Checksum [32]byte
	Layers   []*mat.Dense // Forward order
}

// preamble is everything before the data section.
type preamble struct {
	header   Header
	flags    uint32
	dataSize int64
	checksum [32]byte
}

// Read decodes a .dgw artifact from r.
func Read(r io.Reader, opts ReaderOptions) (*File, error) {
	p, err := readPreamble(r)
	if err != nil {
		return nil, err
	}

	data := make([]byte, p.dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read layer data: %w", err)
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), p.checksum); err != nil {
			return nil, err
		}
	}

	f := &File{
		Header:   p.header,
		Flags:    p.flags,
		Checksum: p.checksum,
		Layers:   make([]*mat.Dense, len(p.header.Layers)),
	}
	for i, l := range p.header.Layers {
		dt, _ := tensor.ParseDataType(l.DType) // checked by ValidateHeader
		values, err := tensor.DecodeFloats(data[l.Offset:l.Offset+l.Size], dt)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		f.Layers[i] = mat.NewDense(l.Shape[0], l.Shape[1], values)
	}

	return f, nil
}

// ReadFile decodes the .dgw artifact at path.
func ReadFile(path string, opts ReaderOptions) (*File, error) {
	//nolint:gosec // G304: path comes from the operator
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Read(file, opts)
}

// ReadHeader decodes only the header of a .dgw artifact.
func ReadHeader(r io.Reader) (*Header, error) {
	p, err := readPreamble(r)
	if err != nil {
		return nil, err
	}
	return &p.header, nil
}

// readPreamble parses the fixed header and JSON header and leaves r at the
// start of the data section.
func readPreamble(r io.Reader) (*preamble, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	p := &preamble{flags: binary.LittleEndian.Uint32(fixed[8:12])}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	copy(p.checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if dataSize > MaxDataSize {
		return nil, &ValidationError{
			Type:    "out_of_bounds",
			Details: fmt.Sprintf("data section of %d bytes exceeds max %d", dataSize, MaxDataSize),
		}
	}
	p.dataSize = int64(dataSize)

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &p.header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	if pad := padding(int64(FixedHeaderSize) + int64(headerSize)); pad > 0 {
		if _, err := io.CopyN(io.Discard, r, pad); err != nil {
			return nil, fmt.Errorf("failed to skip padding: %w", err)
		}
	}

	if err := ValidateHeader(&p.header, p.dataSize); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return p, nil
}
