package internal

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Renderer turns source image bytes into a finished mock-up PNG.
type Renderer interface {
	Render(src []byte) ([]byte, error)
}

var sourceExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

type Processor struct {
	startTime time.Time
	endTime   time.Time
	inbox     string
	outbox    string
	poolSize  int
	jobs      chan string
	results   chan error
	renderer  Renderer
	files     []string
}

// NewBatch finds every image in inbox without a matching mock-up in outbox.
func NewBatch(inbox, outbox string, poolSize int, renderer Renderer) (*Processor, error) {
	if poolSize < 1 {
		return nil, errors.New("pool size must be at least 1")
	}
	startTime := time.Now()

	if err := os.MkdirAll(outbox, 0755); err != nil {
		return nil, fmt.Errorf("failed to create outbox %s: %w", outbox, err)
	}

	entries, err := os.ReadDir(inbox)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", inbox, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !sourceExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		// if the mock-up already exists, skip processing
		if _, err := os.Stat(outputPath(outbox, entry.Name())); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return nil, err
		}
		files = append(files, entry.Name())
	}

	log.Printf("Inbox %s contains %d new images", inbox, len(files))

	return &Processor{
		startTime: startTime,
		inbox:     inbox,
		outbox:    outbox,
		poolSize:  poolSize,
		jobs:      make(chan string),
		results:   make(chan error),
		renderer:  renderer,
		files:     files,
	}, nil
}

func outputPath(outbox, name string) string {
	return filepath.Join(outbox, strings.TrimSuffix(name, filepath.Ext(name))+".png")
}

// DispatchJobs sends files to the jobs channel for processing by workers.
func (p *Processor) DispatchJobs() {
	go func() {
		for _, file := range p.files {
			p.jobs <- file
		}
		close(p.jobs)
	}()
}

func (p *Processor) StartWorkers() {
	log.Printf("Starting conversion with pool size: %d", p.poolSize)

	for i := range p.poolSize {
		go p.worker(i)
	}
}

func (p *Processor) worker(i int) {
	for file := range p.jobs {
		p.results <- p.processFile(file)
	}
	log.Printf("Worker %d finished", i)
}

func (p *Processor) processFile(name string) error {
	src, err := os.ReadFile(filepath.Join(p.inbox, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	out, err := p.renderer.Render(src)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	tmpFile, err := os.CreateTemp(p.outbox, "mockup-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	cleanupTemp := true
	defer func() {
		_ = tmpFile.Close()
		if cleanupTemp {
			_ = os.Remove(tmpFile.Name())
		}
	}()

	if _, err := tmpFile.Write(out); err != nil {
		return fmt.Errorf("failed to write mock-up to temporary file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file before rename: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), outputPath(p.outbox, name)); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	cleanupTemp = false // Successfully renamed, don't delete
	return nil
}

func (p *Processor) Wait() []error {
	waitFor := len(p.files)

	errors := make([]error, 0, 10)
	for range waitFor {
		err := <-p.results
		if err != nil {
			errors = append(errors, err)
		}
	}
	p.endTime = time.Now()
	elapsed := p.endTime.Sub(p.startTime)
	log.Printf("Converted %d images in %s (errors=%d)", waitFor-len(errors), elapsed, len(errors))
	return errors
}

// ConvertInbox runs a single batch. Per-image failures are logged and do not
// fail the batch; only an unreadable inbox or outbox does.
func ConvertInbox(inbox, outbox string, poolSize int, renderer Renderer) error {
	p, err := NewBatch(inbox, outbox, poolSize, renderer)
	if err != nil {
		return err
	}
	p.StartWorkers()
	p.DispatchJobs()
	for _, err := range p.Wait() {
		log.Printf("Batch error: %v", err)
	}
	return nil
}
