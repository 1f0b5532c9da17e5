package mockup

import (
	"image"
	"image/color"
	"testing"

	"github.com/rm-hull/circle-mockup/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.NRGBA{255, 0, 0, 255}
	blue = color.NRGBA{0, 0, 255, 255}
)

// split fills the first half of the longer axis with a and the rest with b.
func split(w, h int, a, b color.Color) *raster.Raster {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			first := y < h/2
			if w > h {
				first = x < w/2
			}
			if first {
				img.Set(x, y, a)
			} else {
				img.Set(x, y, b)
			}
		}
	}
	return raster.New(img)
}

func assertColor(t *testing.T, want color.NRGBA, img image.Image, x, y int) {
	t.Helper()
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	assert.InDelta(t, want.R, got.R, 2, "R at (%d,%d)", x, y)
	assert.InDelta(t, want.G, got.G, 2, "G at (%d,%d)", x, y)
	assert.InDelta(t, want.B, got.B, 2, "B at (%d,%d)", x, y)
	assert.InDelta(t, want.A, got.A, 2, "A at (%d,%d)", x, y)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          Placement
	}{
		{"square fills the clip exactly", 50, 50, Placement{X: 0, Y: 0, W: 300, H: 300}},
		{"landscape overflows horizontally", 400, 200, Placement{X: -150, Y: 0, W: 600, H: 300}},
		{"portrait overflows vertically", 100, 200, Placement{X: 0, Y: -150, W: 300, H: 600}},
		{"single pixel", 1, 1, Placement{W: 300, H: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fit(tt.width, tt.height, 300))
		})
	}
}

func TestCompose(t *testing.T) {
	c := DefaultCompositor()

	t.Run("canvas is always 340x300", func(t *testing.T) {
		for _, size := range []image.Point{{1, 1}, {1, 500}, {2000, 3}, {640, 480}} {
			img, err := c.Compose(split(size.X, size.Y, red, blue))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 340, 300), img.Bounds(), "source %v", size)
		}
	})

	t.Run("layout of discs", func(t *testing.T) {
		img, err := c.Compose(split(10, 10, red, red))
		require.NoError(t, err)

		assertColor(t, red, img, 150, 150)
		assertColor(t, red, img, 10, 150)
		// inside the backdrop disc only
		assertColor(t, DefaultBackdrop, img, 320, 150)
		// outside both discs
		assertColor(t, color.NRGBA{}, img, 0, 0)
		assertColor(t, color.NRGBA{}, img, 339, 0)
		assertColor(t, color.NRGBA{}, img, 339, 299)
	})

	t.Run("portrait source is centred vertically", func(t *testing.T) {
		img, err := c.Compose(split(100, 200, red, blue))
		require.NoError(t, err)
		assertColor(t, red, img, 150, 100)
		assertColor(t, blue, img, 150, 200)
	})

	t.Run("landscape source is centred horizontally", func(t *testing.T) {
		img, err := c.Compose(split(200, 100, red, blue))
		require.NoError(t, err)
		assertColor(t, red, img, 100, 150)
		assertColor(t, blue, img, 200, 150)
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := c.Compose(split(37, 91, red, blue))
		require.NoError(t, err)
		b, err := c.Compose(split(37, 91, red, blue))
		require.NoError(t, err)
		assert.Equal(t, a.Pix, b.Pix)
	})

	t.Run("invalid geometry", func(t *testing.T) {
		_, err := (&Compositor{Height: 0, Backdrop: DefaultBackdrop}).Compose(split(4, 4, red, red))
		assert.Error(t, err)
	})
}
