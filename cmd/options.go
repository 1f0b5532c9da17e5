package cmd

import (
	"fmt"
	"os"

	"github.com/rm-hull/circle-mockup/internal/imagen"
	"github.com/rm-hull/circle-mockup/internal/mockup"
	"github.com/rm-hull/circle-mockup/internal/png"
	"github.com/rm-hull/circle-mockup/internal/raster/stage"
)

// RenderOptions are the flags shared by every command that produces mock-ups.
type RenderOptions struct {
	DPI    float64
	Stages string
}

func (o RenderOptions) Renderer() (*mockup.Renderer, error) {
	if _, ok := png.PixelsPerMeter(o.DPI); !ok {
		return nil, fmt.Errorf("invalid --dpi %v", o.DPI)
	}
	stages, err := stage.Parse(o.Stages)
	if err != nil {
		return nil, fmt.Errorf("invalid --stages: %w", err)
	}
	return mockup.NewRenderer(o.DPI, stages...), nil
}

// DefaultModel honours IMAGEN_MODEL when set.
func DefaultModel() string {
	if m := os.Getenv("IMAGEN_MODEL"); m != "" {
		return m
	}
	return imagen.DefaultModel
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
