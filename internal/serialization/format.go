package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes      = "DGTW"
	FormatVersion   = 1
	HeaderAlignment = 64   // Data section starts on a 64-byte boundary
	FixedHeaderSize = 64   // 0x40 bytes
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // Checksum position in the fixed header
)

// Flags stored in the fixed header.
const (
	FlagHasMetadata uint32 = 1 << 0 // Header carries a non-empty metadata map
)

// Header is the JSON header of a .dgw file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedBy     string            `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
	Layers        []LayerMeta       `json:"layers"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// LayerMeta describes one weight matrix in the data section.
type LayerMeta struct {
	Name   string `json:"name"`   // e.g. "layer.0"
	DType  string `json:"dtype"`  // "float32" or "float64"
	Shape  []int  `json:"shape"`  // [rows, cols]
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Bytes
}

// Architecture returns the layer shapes in order, e.g. [[787 5] [6 10]].
func (h *Header) Architecture() [][]int {
	out := make([][]int, len(h.Layers))
	for i, l := range h.Layers {
		out[i] = l.Shape
	}
	return out
}
