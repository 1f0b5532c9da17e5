package png

import (
	"bytes"
	"image"
	"image/png"
)

// Encode writes img as a plain PNG with no ancillary chunks.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
