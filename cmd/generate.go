package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/rm-hull/circle-mockup/internal/imagen"
)

func Generate(ctx context.Context, prompt, model, output string, opts RenderOptions) error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return errors.New("environment variable GEMINI_API_KEY not set")
	}

	renderer, err := opts.Renderer()
	if err != nil {
		return err
	}

	src, err := imagen.NewClient(apiKey).Generate(ctx, prompt, model)
	if err != nil {
		return fmt.Errorf("failed to generate image with %s: %w", model, err)
	}

	out, err := renderer.Render(src)
	if err != nil {
		return fmt.Errorf("failed to convert generated image: %w", err)
	}

	if err := writeOutput(output, out); err != nil {
		return err
	}
	log.Printf("Wrote %s (%d bytes)", output, len(out))
	return nil
}
