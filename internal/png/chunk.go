package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Signature is the eight byte magic that opens every PNG datastream.
var Signature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const (
	signatureLen = 8
	// length + type + CRC surrounding the chunk data
	chunkOverhead = 12
)

var ErrTruncated = errors.New("chunk extends past end of stream")

// ChunkRef locates a chunk inside a PNG byte stream without copying it.
type ChunkRef struct {
	Offset int
	Length uint32
	Type   string
}

// End is the offset just past the chunk's trailing CRC.
func (c ChunkRef) End() int {
	return c.Offset + chunkOverhead + int(c.Length)
}

// Data returns the chunk payload as a sub-slice of data.
func (c ChunkRef) Data(data []byte) []byte {
	return data[c.Offset+8 : c.Offset+8+int(c.Length)]
}

// CRC returns the checksum stored in the stream for this chunk.
func (c ChunkRef) CRC(data []byte) uint32 {
	return binary.BigEndian.Uint32(data[c.End()-4 : c.End()])
}

// Valid reports whether the stored CRC matches the type and data.
func (c ChunkRef) Valid(data []byte) bool {
	return c.CRC(data) == Checksum(data[c.Offset+4:c.End()-4])
}

// HasSignature reports whether data opens with the first four bytes of the
// PNG signature.
func HasSignature(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], Signature[:4])
}

// Walk visits each chunk after the signature in stream order. It stops
// without error at the end of the buffer or when fn returns false, and
// returns ErrTruncated if a chunk header or body runs past the end.
func Walk(data []byte, fn func(ChunkRef) bool) error {
	offset := signatureLen
	for offset < len(data) {
		if offset+8 > len(data) {
			return fmt.Errorf("chunk header at offset %d: %w", offset, ErrTruncated)
		}
		c := ChunkRef{
			Offset: offset,
			Length: binary.BigEndian.Uint32(data[offset : offset+4]),
			Type:   string(data[offset+4 : offset+8]),
		}
		if uint64(offset)+chunkOverhead+uint64(c.Length) > uint64(len(data)) {
			return fmt.Errorf("%s chunk at offset %d (length %d): %w", c.Type, offset, c.Length, ErrTruncated)
		}
		if !fn(c) {
			return nil
		}
		offset = c.End()
	}
	return nil
}

// Chunks returns every chunk in data.
func Chunks(data []byte) ([]ChunkRef, error) {
	var refs []ChunkRef
	err := Walk(data, func(c ChunkRef) bool {
		refs = append(refs, c)
		return true
	})
	return refs, err
}

// BuildChunk serialises a chunk, computing its CRC over type and data.
func BuildChunk(typ string, data []byte) []byte {
	if len(typ) != 4 {
		panic(fmt.Sprintf("png: invalid chunk type %q", typ))
	}
	out := make([]byte, chunkOverhead+len(data))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(data)))
	copy(out[4:8], typ)
	copy(out[8:], data)
	binary.BigEndian.PutUint32(out[8+len(data):], Checksum(out[4:8+len(data)]))
	return out
}
