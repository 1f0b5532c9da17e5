package mockup

import (
	"fmt"
	"log"

	"github.com/rm-hull/circle-mockup/internal/png"
	"github.com/rm-hull/circle-mockup/internal/raster"
)

// DefaultDPI is the physical resolution declared on every mock-up.
const DefaultDPI = 90

// Renderer runs the whole pipeline for one source: decode, compose, encode
// and tag with a physical resolution.
type Renderer struct {
	Compositor *Compositor
	DPI        float64
}

func NewRenderer(dpi float64, stages ...raster.Stage) *Renderer {
	return &Renderer{
		Compositor: DefaultCompositor(stages...),
		DPI:        dpi,
	}
}

// Render decodes src and returns the finished PNG. A source that cannot be
// decoded yields raster.ErrDecode and no output.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	rs, format, err := raster.DecodeBytes(src)
	if err != nil {
		return nil, err
	}
	log.Printf("Rendering %dx%d %s source (alpha=%t)", rs.Width(), rs.Height(), format, rs.HasAlpha)
	return r.RenderRaster(rs)
}

func (r *Renderer) RenderRaster(rs *raster.Raster) ([]byte, error) {
	canvas, err := r.Compositor.Compose(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to compose mock-up: %w", err)
	}

	encoded, err := png.Encode(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mock-up: %w", err)
	}

	res := png.SetDPI(encoded, r.DPI)
	if !res.Outcome.Modified() {
		log.Printf("Mock-up left without pHYs (%s): %v", res.Outcome, res.Err)
	}
	return res.Data, nil
}
