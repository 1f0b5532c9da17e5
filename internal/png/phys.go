package png

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
)

const (
	// UnitMeter is the pHYs unit specifier for pixels per metre.
	UnitMeter byte = 1

	// PhysChunkLen is the serialised size of a pHYs chunk: 4 byte length,
	// 4 byte type, 9 byte payload, 4 byte CRC.
	PhysChunkLen = chunkOverhead + physDataLen

	physDataLen   = 9
	metersPerInch = 0.0254
)

// Outcome describes what SetDPI did to a stream.
type Outcome int

const (
	// Inserted means a new pHYs chunk was placed right after IHDR.
	Inserted Outcome = iota
	// Replaced means an existing pHYs chunk was overwritten in place.
	Replaced
	// NotPNG means the signature did not match; the input is returned as is.
	NotPNG
	// Malformed means the chunk walk failed; the input is returned as is.
	Malformed
	// InvalidDensity means the requested DPI has no pixels-per-metre
	// representation; the input is returned as is.
	InvalidDensity
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	case NotPNG:
		return "not-png"
	case Malformed:
		return "malformed"
	case InvalidDensity:
		return "invalid-density"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Modified reports whether the outcome produced new bytes.
func (o Outcome) Modified() bool {
	return o == Inserted || o == Replaced
}

// PhysResult carries the (possibly unchanged) stream along with what
// happened to it. Err explains a Malformed or InvalidDensity outcome.
type PhysResult struct {
	Outcome Outcome
	Data    []byte
	Err     error
}

var errNoHeader = errors.New("no IHDR chunk before image data")

// PixelsPerMeter converts dots per inch to whole pixels per metre.
func PixelsPerMeter(dpi float64) (uint32, bool) {
	if math.IsNaN(dpi) || math.IsInf(dpi, 0) || dpi <= 0 {
		return 0, false
	}
	ppu := math.Round(dpi / metersPerInch)
	if ppu < 1 || ppu > math.MaxUint32 {
		return 0, false
	}
	return uint32(ppu), true
}

// PhysChunk builds a complete pHYs chunk.
func PhysChunk(x, y uint32, unit byte) []byte {
	data := make([]byte, physDataLen)
	binary.BigEndian.PutUint32(data[0:4], x)
	binary.BigEndian.PutUint32(data[4:8], y)
	data[8] = unit
	return BuildChunk("pHYs", data)
}

// Phys is a decoded pHYs payload.
type Phys struct {
	X, Y uint32
	Unit byte
}

// DPI returns the horizontal density in dots per inch, or zero when the
// unit is not metres.
func (p Phys) DPI() float64 {
	if p.Unit != UnitMeter {
		return 0
	}
	return float64(p.X) * metersPerInch
}

// ReadPhys returns the first well-formed pHYs chunk in data.
func ReadPhys(data []byte) (Phys, bool) {
	var (
		phys  Phys
		found bool
	)
	if !HasSignature(data) {
		return phys, false
	}
	_ = Walk(data, func(c ChunkRef) bool {
		if c.Type != "pHYs" || c.Length != physDataLen {
			return true
		}
		d := c.Data(data)
		phys = Phys{
			X:    binary.BigEndian.Uint32(d[0:4]),
			Y:    binary.BigEndian.Uint32(d[4:8]),
			Unit: d[8],
		}
		found = true
		return false
	})
	return phys, found
}

// SetDPI declares a physical resolution on a PNG stream without touching
// its pixel data. An existing pHYs chunk ahead of the image data is
// replaced; otherwise a new one is inserted immediately after IHDR. Damage
// after IHDR only ends the search for an existing pHYs. Streams that are not
// PNG, or that break off before IHDR is complete, are returned unchanged;
// SetDPI never fails.
func SetDPI(data []byte, dpi float64) PhysResult {
	if !HasSignature(data) {
		return PhysResult{Outcome: NotPNG, Data: data}
	}

	ppu, ok := PixelsPerMeter(dpi)
	if !ok {
		err := fmt.Errorf("cannot represent %v dpi as pixels per metre", dpi)
		log.Printf("png: skipping pHYs injection: %v", err)
		return PhysResult{Outcome: InvalidDensity, Data: data, Err: err}
	}

	insertAt := -1
	var existing *ChunkRef
	err := Walk(data, func(c ChunkRef) bool {
		switch c.Type {
		case "IHDR":
			if insertAt < 0 {
				insertAt = c.End()
			}
		case "pHYs":
			if existing == nil {
				existing = &c
			}
		case "IDAT", "IEND":
			// pHYs must precede the image data
			return false
		}
		return true
	})
	if err != nil && insertAt >= 0 {
		// IHDR was fully skipped, so the insertion point is known even
		// though the rest of the stream is damaged
		log.Printf("png: chunk walk stopped after IHDR: %v", err)
		err = nil
	}
	if err == nil && insertAt < 0 {
		err = errNoHeader
	}
	if err != nil {
		log.Printf("png: skipping pHYs injection: %v", err)
		return PhysResult{Outcome: Malformed, Data: data, Err: err}
	}

	chunk := PhysChunk(ppu, ppu, UnitMeter)

	if existing != nil {
		out := make([]byte, 0, len(data)-(existing.End()-existing.Offset)+len(chunk))
		out = append(out, data[:existing.Offset]...)
		out = append(out, chunk...)
		out = append(out, data[existing.End():]...)
		return PhysResult{Outcome: Replaced, Data: out}
	}

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:insertAt]...)
	out = append(out, chunk...)
	out = append(out, data[insertAt:]...)
	return PhysResult{Outcome: Inserted, Data: out}
}
