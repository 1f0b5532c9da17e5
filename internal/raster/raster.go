package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels caps the decoded size of a source. It is checked against the
// image header before any pixels are allocated.
const MaxPixels = 40_000_000

var ErrDecode = errors.New("source image could not be decoded")

// Raster is a decoded source image travelling through the stages ahead of
// composition.
type Raster struct {
	Img      image.Image
	Bounds   image.Rectangle
	HasAlpha bool
}

type Stage interface {
	Process(r *Raster) error
}

// Decode reads any registered image format and reports its format name.
func Decode(r io.Reader) (*Raster, string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read source: %w", err)
	}
	return DecodeBytes(src)
}

// DecodeBytes is Decode over an in-memory source. Animated PNGs decode to
// their default image and report "png".
func DecodeBytes(src []byte) (*Raster, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, "", fmt.Errorf("%w: empty dimensions %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if format == "apng" {
		format = "png"
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, "", fmt.Errorf("%w: empty bounds %v", ErrDecode, b)
	}
	return New(img), format, nil
}

func New(img image.Image) *Raster {
	return &Raster{
		Img:      img,
		Bounds:   img.Bounds(),
		HasAlpha: !isOpaque(img),
	}
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func (r *Raster) Width() int  { return r.Bounds.Dx() }
func (r *Raster) Height() int { return r.Bounds.Dy() }

func (r *Raster) Pipeline(stages ...Stage) error {
	for _, stage := range stages {
		if err := stage.Process(r); err != nil {
			return err
		}
	}
	r.Bounds = r.Img.Bounds()
	r.HasAlpha = !isOpaque(r.Img)
	return nil
}
