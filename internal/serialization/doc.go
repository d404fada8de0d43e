// Package serialization reads and writes .dgw weight artifacts.
//
// A .dgw file stores an ordered sequence of 2-D weight matrices:
//
//	Fixed header (64 bytes):
//	  0x00  [4]byte  magic "DGTW"
//	  0x04  uint32   format version (LE)
//	  0x08  uint32   flags (LE)
//	  0x0C  uint32   reserved
//	  0x10  uint64   JSON header size (LE)
//	  0x18  uint64   data section size (LE)
//	  0x20  [32]byte SHA-256 of the data section
//	JSON header: format version, creator, layer table, metadata
//	Padding to a 64-byte boundary
//	Data section: layer matrices, row-major, little endian
//
// Layers are listed in forward order; the order of the layer table is the
// order of the network. The package also reads and writes the JSON
// interchange form, a plain list of 2-D arrays.
package serialization
