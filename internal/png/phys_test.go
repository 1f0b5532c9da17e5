package png

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redPixel(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func chunkTypes(t *testing.T, data []byte) []string {
	t.Helper()
	refs, err := Chunks(data)
	require.NoError(t, err)
	types := make([]string, len(refs))
	for i, c := range refs {
		types[i] = c.Type
		assert.True(t, c.Valid(data), "%s chunk has a bad CRC", c.Type)
	}
	return types
}

func TestPixelsPerMeter(t *testing.T) {
	tests := []struct {
		dpi  float64
		want uint32
		ok   bool
	}{
		{90, 3543, true},
		{72, 2835, true},
		{96, 3780, true},
		{300, 11811, true},
		{0, 0, false},
		{-90, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{1e12, 0, false},
	}

	for _, tt := range tests {
		got, ok := PixelsPerMeter(tt.dpi)
		assert.Equal(t, tt.ok, ok, "dpi %v", tt.dpi)
		assert.Equal(t, tt.want, got, "dpi %v", tt.dpi)
	}
}

func TestPhysChunk(t *testing.T) {
	chunk := PhysChunk(3543, 3543, UnitMeter)
	require.Len(t, chunk, PhysChunkLen)

	body := []byte{0x70, 0x48, 0x59, 0x73, 0x00, 0x00, 0x0D, 0xD7, 0x00, 0x00, 0x0D, 0xD7, 0x01}
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x09}, chunk[0:4])
	assert.Equal(t, body, chunk[4:17])
	assert.Equal(t, crc32.ChecksumIEEE(body), binary.BigEndian.Uint32(chunk[17:21]))
	assert.NotZero(t, binary.BigEndian.Uint32(chunk[17:21]))
}

func TestSetDPI(t *testing.T) {
	t.Run("inserts after IHDR in a minimal image", func(t *testing.T) {
		in := redPixel(t)
		orig := bytes.Clone(in)

		res := SetDPI(in, 90)
		require.Equal(t, Inserted, res.Outcome)
		assert.NoError(t, res.Err)
		assert.Equal(t, orig, in, "input must not be mutated")
		assert.Len(t, res.Data, len(in)+PhysChunkLen)

		// signature (8) + IHDR (12 + 13)
		const ihdrEnd = 33
		assert.Equal(t, in[:ihdrEnd], res.Data[:ihdrEnd])
		assert.Equal(t, PhysChunk(3543, 3543, UnitMeter), res.Data[ihdrEnd:ihdrEnd+PhysChunkLen])
		assert.Equal(t, in[ihdrEnd:], res.Data[ihdrEnd+PhysChunkLen:])
		assert.Equal(t, []byte{0x00, 0x00, 0x0D, 0xD7, 0x00, 0x00, 0x0D, 0xD7, 0x01}, res.Data[ihdrEnd+8:ihdrEnd+17])

		assert.Equal(t, []string{"IHDR", "pHYs", "IDAT", "IEND"}, chunkTypes(t, res.Data))

		img, err := png.Decode(bytes.NewReader(res.Data))
		require.NoError(t, err)
		r, g, b, a := img.At(0, 0).RGBA()
		assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})
	})

	t.Run("returns non-PNG input unchanged", func(t *testing.T) {
		for _, in := range [][]byte{
			nil,
			{},
			{0x89, 0x50},
			[]byte("GIF89a\x01\x00\x01\x00"),
			{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
		} {
			res := SetDPI(in, 90)
			assert.Equal(t, NotPNG, res.Outcome)
			assert.Equal(t, in, res.Data)
			assert.False(t, res.Outcome.Modified())
		}
	})

	t.Run("returns truncated stream unchanged", func(t *testing.T) {
		full := redPixel(t)
		for _, n := range []int{4, 8, 12, 20, 32} {
			in := full[:n]
			res := SetDPI(in, 90)
			assert.Equal(t, Malformed, res.Outcome, "prefix %d", n)
			assert.Equal(t, in, res.Data, "prefix %d", n)
			assert.Error(t, res.Err, "prefix %d", n)
		}
	})

	t.Run("inserts when the stream is damaged after IHDR", func(t *testing.T) {
		full := redPixel(t)
		const ihdrEnd = 33
		for _, n := range []int{ihdrEnd, ihdrEnd + 4, ihdrEnd + 10, len(full) - 1} {
			in := full[:n]
			res := SetDPI(in, 90)
			require.Equal(t, Inserted, res.Outcome, "prefix %d", n)
			assert.NoError(t, res.Err, "prefix %d", n)
			assert.Len(t, res.Data, n+PhysChunkLen, "prefix %d", n)
			assert.Equal(t, in[:ihdrEnd], res.Data[:ihdrEnd], "prefix %d", n)
			assert.Equal(t, PhysChunk(3543, 3543, UnitMeter), res.Data[ihdrEnd:ihdrEnd+PhysChunkLen], "prefix %d", n)
			assert.Equal(t, in[ihdrEnd:], res.Data[ihdrEnd+PhysChunkLen:], "prefix %d", n)
		}
	})

	t.Run("chunk length past end of buffer", func(t *testing.T) {
		in := append(bytes.Clone(Signature), 0xFF, 0xFF, 0xFF, 0xF0, 'I', 'H', 'D', 'R', 0, 0, 0, 0)
		res := SetDPI(in, 90)
		assert.Equal(t, Malformed, res.Outcome)
		assert.ErrorIs(t, res.Err, ErrTruncated)
		assert.Equal(t, in, res.Data)
	})

	t.Run("stream with no IHDR", func(t *testing.T) {
		in := append(bytes.Clone(Signature), BuildChunk("IEND", nil)...)
		res := SetDPI(in, 90)
		assert.Equal(t, Malformed, res.Outcome)
		assert.Equal(t, in, res.Data)
	})

	t.Run("invalid density leaves input alone", func(t *testing.T) {
		in := redPixel(t)
		res := SetDPI(in, 0)
		assert.Equal(t, InvalidDensity, res.Outcome)
		assert.Equal(t, in, res.Data)
	})

	t.Run("replaces an existing pHYs rather than duplicating it", func(t *testing.T) {
		first := SetDPI(redPixel(t), 90)
		require.Equal(t, Inserted, first.Outcome)

		second := SetDPI(first.Data, 300)
		require.Equal(t, Replaced, second.Outcome)
		assert.Len(t, second.Data, len(first.Data))
		assert.Equal(t, []string{"IHDR", "pHYs", "IDAT", "IEND"}, chunkTypes(t, second.Data))

		phys, ok := ReadPhys(second.Data)
		require.True(t, ok)
		assert.Equal(t, Phys{X: 11811, Y: 11811, Unit: UnitMeter}, phys)
	})

	t.Run("replacement keeps the original position", func(t *testing.T) {
		data := bytes.Clone(Signature)
		data = append(data, BuildChunk("IHDR", make([]byte, 13))...)
		data = append(data, BuildChunk("gAMA", []byte{0, 0, 0xB1, 0x8F})...)
		data = append(data, PhysChunk(1, 1, 0)...)
		data = append(data, BuildChunk("IDAT", []byte{1, 2, 3})...)
		data = append(data, BuildChunk("IEND", nil)...)

		res := SetDPI(data, 90)
		require.Equal(t, Replaced, res.Outcome)
		assert.Equal(t, []string{"IHDR", "gAMA", "pHYs", "IDAT", "IEND"}, chunkTypes(t, res.Data))
	})
}

func TestReadPhys(t *testing.T) {
	_, ok := ReadPhys(redPixel(t))
	assert.False(t, ok)

	res := SetDPI(redPixel(t), 90)
	phys, ok := ReadPhys(res.Data)
	require.True(t, ok)
	assert.Equal(t, uint32(3543), phys.X)
	assert.Equal(t, uint32(3543), phys.Y)
	assert.InDelta(t, 90.0, phys.DPI(), 0.01)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", Inserted.String())
	assert.Equal(t, "malformed", Malformed.String())
	assert.Equal(t, "Outcome(42)", Outcome(42).String())
}
