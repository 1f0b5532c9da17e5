package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rm-hull/circle-mockup/internal"
)

// Watch converts new images dropped into inbox until ctx is cancelled.
func Watch(ctx context.Context, inbox, outbox string, every time.Duration, workers int, opts RenderOptions) error {
	internal.Startup()

	if every <= 0 {
		return fmt.Errorf("invalid --every %s", every)
	}

	renderer, err := opts.Renderer()
	if err != nil {
		return err
	}

	sched, err := internal.NewScheduler(inbox, outbox, every, workers, renderer)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Println("Stopping inbox watcher")
	if err := sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}
