package stage

import (
	"image"

	"github.com/rm-hull/circle-mockup/internal/raster"
	"golang.org/x/image/draw"
)

type ResampleStage struct{}

// Process passes the source through a Catmull-Rom resampler, which smooths
// the hard edges left behind by knockout and blur.
func (s *ResampleStage) Process(r *raster.Raster) error {
	b := r.Img.Bounds()
	smoothed := image.NewNRGBA(b)
	draw.CatmullRom.Scale(smoothed, b, r.Img, b, draw.Over, nil)
	r.Img = smoothed
	return nil
}
