package mockup

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/rm-hull/circle-mockup/internal/raster"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const (
	DefaultHeight = 300
	DefaultOffset = 40
)

// DefaultBackdrop is the neutral grey (#E5E7EB) of the shifted disc.
var DefaultBackdrop = color.NRGBA{0xE5, 0xE7, 0xEB, 0xFF}

// Placement is where the source lands relative to the clip disc's bounding
// square, in canvas units.
type Placement struct {
	X, Y, W, H float64
}

// Fit scales a width×height source so that it covers a square of side
// diameter, preserving aspect ratio and centring the overflow.
func Fit(width, height int, diameter float64) Placement {
	ratio := float64(width) / float64(height)
	p := Placement{W: diameter, H: diameter}
	if ratio < 1 {
		p.H = diameter / ratio
		p.Y = (diameter - p.H) / 2
	} else {
		p.W = diameter * ratio
		p.X = (diameter - p.W) / 2
	}
	return p
}

// Compositor lays a source image out on a fixed (Height+Offset)×Height canvas:
// a backdrop disc shifted right by Offset, overlaid by a disc of the same
// size holding the source.
type Compositor struct {
	Height   int
	Offset   int
	Backdrop color.Color
	// Stages run over the source before it is fitted.
	Stages []raster.Stage
}

func DefaultCompositor(stages ...raster.Stage) *Compositor {
	return &Compositor{
		Height:   DefaultHeight,
		Offset:   DefaultOffset,
		Backdrop: DefaultBackdrop,
		Stages:   stages,
	}
}

// Size returns the canvas dimensions.
func (c *Compositor) Size() (int, int) {
	return c.Height + c.Offset, c.Height
}

func (c *Compositor) Compose(src *raster.Raster) (*image.RGBA, error) {
	if c.Height < 1 || c.Offset < 0 {
		return nil, fmt.Errorf("invalid canvas geometry %d/%d", c.Height, c.Offset)
	}
	if err := src.Pipeline(c.Stages...); err != nil {
		return nil, fmt.Errorf("failed to run source stages: %w", err)
	}
	if src.Bounds.Empty() {
		return nil, errors.New("source image is empty")
	}

	w, h := c.Size()
	d := float64(c.Height)
	r := d / 2

	dc := gg.NewContext(w, h)
	dc.SetColor(c.Backdrop)
	dc.DrawCircle(r+float64(c.Offset), r, r)
	dc.Fill()

	dc.DrawCircle(r, r, r)
	dc.Clip()
	dc.DrawImage(c.foreground(src), 0, 0)
	dc.ResetClip()

	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("unexpected canvas type %T", dc.Image())
	}
	return img, nil
}

// foreground renders the fitted source into the clip disc's bounding square.
// Only destination pixels are computed, so extreme aspect ratios cost no
// more than a square source.
func (c *Compositor) foreground(src *raster.Raster) *image.RGBA {
	fg := image.NewRGBA(image.Rect(0, 0, c.Height, c.Height))
	p := Fit(src.Width(), src.Height(), float64(c.Height))
	sx := p.W / float64(src.Width())
	sy := p.H / float64(src.Height())
	s2d := f64.Aff3{
		sx, 0, p.X - sx*float64(src.Bounds.Min.X),
		0, sy, p.Y - sy*float64(src.Bounds.Min.Y),
	}
	draw.CatmullRom.Transform(fg, s2d, src.Img, src.Bounds, draw.Src, nil)
	return fg
}
