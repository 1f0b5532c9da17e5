package stage

import (
	"github.com/anthonynsimon/bild/blur"
	"github.com/rm-hull/circle-mockup/internal/raster"
)

type GaussianBlurStage struct {
	Sigma float64
}

// Process softens the source with a Gaussian blur of radius Sigma.
func (s *GaussianBlurStage) Process(r *raster.Raster) error {
	r.Img = blur.Gaussian(r.Img, s.Sigma)
	return nil
}
