package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

func Convert(input, output string, opts RenderOptions) error {
	renderer, err := opts.Renderer()
	if err != nil {
		return err
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}

	out, err := renderer.Render(src)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", input, err)
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "-mockup.png"
	}
	if err := writeOutput(output, out); err != nil {
		return err
	}
	log.Printf("Wrote %s (%d bytes, %v dpi)", output, len(out), opts.DPI)
	return nil
}
