package cmd

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/rm-hull/circle-mockup/internal/png"
	"github.com/rm-hull/circle-mockup/internal/raster"
)

// Reel renders each input as a mock-up frame and writes them as one
// animated PNG carrying the requested density.
func Reel(inputs []string, output string, frameDelay float64, opts RenderOptions) error {
	renderer, err := opts.Renderer()
	if err != nil {
		return err
	}

	frames := make([]image.Image, 0, len(inputs))
	for _, input := range inputs {
		src, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", input, err)
		}
		rs, _, err := raster.Decode(bytes.NewReader(src))
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", input, err)
		}
		frame, err := renderer.Compositor.Compose(rs)
		if err != nil {
			return fmt.Errorf("failed to compose %s: %w", input, err)
		}
		frames = append(frames, frame)
	}

	apngBytes, err := png.Animate(frames, frameDelay)
	if err != nil {
		return fmt.Errorf("failed to animate: %w", err)
	}

	res := png.SetDPI(apngBytes, opts.DPI)
	if err := writeOutput(output, res.Data); err != nil {
		return err
	}
	log.Printf("Wrote %d frame reel to %s (pHYs %s)", len(frames), output, res.Outcome)
	return nil
}
