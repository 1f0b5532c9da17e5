package stage

import (
	"image"
	"image/color"
	"math"

	"github.com/rm-hull/circle-mockup/internal/raster"
)

// KnockoutStage fades pixels close to Target towards transparency, so a
// subject shot against a flat backdrop sits directly on the mock-up disc.
type KnockoutStage struct {
	Tolerance float64
	Target    color.Color
}

// Process scales each pixel's alpha by its RGB distance from Target. An exact
// match becomes fully transparent; anything at or beyond Tolerance is untouched.
func (s *KnockoutStage) Process(r *raster.Raster) error {
	b := r.Img.Bounds()
	out := image.NewNRGBA(b)
	tr, tg, tb, _ := s.Target.RGBA()
	kR, kG, kB := float64(tr>>8), float64(tg>>8), float64(tb>>8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(r.Img.At(x, y)).(color.NRGBA)
			R, G, B := float64(c.R), float64(c.G), float64(c.B)
			dist := math.Sqrt((kR-R)*(kR-R) + (kG-G)*(kG-G) + (kB-B)*(kB-B))
			if dist < s.Tolerance {
				c.A = uint8((dist / s.Tolerance) * float64(c.A))
			}
			out.SetNRGBA(x, y, c)
		}
	}
	r.Img = out
	return nil
}
