package stage

import (
	"image"
	"image/color"

	"github.com/rm-hull/circle-mockup/internal/raster"
)

type GreyscaleStage struct{}

// Process converts the image to greyscale using Rec. 601 luma, keeping alpha.
func (s *GreyscaleStage) Process(r *raster.Raster) error {
	b := r.Img.Bounds()
	gs := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(r.Img.At(x, y)).(color.NRGBA)
			// Reference: https://en.wikipedia.org/wiki/Grayscale#Luma_coding_in_video_systems
			lum := uint8(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B) + 0.5)
			gs.SetNRGBA(x, y, color.NRGBA{lum, lum, lum, c.A})
		}
	}
	r.Img = gs
	return nil
}
