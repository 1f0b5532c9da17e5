package internal

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// NewScheduler converts the inbox once, then again every interval.
func NewScheduler(inbox, outbox string, every time.Duration, poolSize int, renderer Renderer) (gocron.Scheduler, error) {
	if err := ConvertInbox(inbox, outbox, poolSize, renderer); err != nil {
		return nil, fmt.Errorf("initial run of job failed: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if err := ConvertInbox(inbox, outbox, poolSize, renderer); err != nil {
				log.Printf("Inbox conversion failed: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	log.Printf("Watching %s every %s", inbox, every)
	scheduler.Start()
	return scheduler, nil
}
