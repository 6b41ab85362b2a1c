package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/d0ren/climatesearch/internal/climate"
)

// Scheduler periodically runs the full ingestion pipeline (fetch, upsert,
// embedding backfill). Runs are strictly sequential within a job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *climate.Service
	interval  time.Duration
}

// New creates a new Scheduler. An interval of 0 disables scheduling.
func New(interval time.Duration, service *climate.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic ingestion job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: ingestion interval not configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		log.Println("scheduler: running ingestion job")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := s.service.Run(ctx); err != nil {
			log.Printf("scheduler: ingestion failed: %v", err)
			return
		}
		log.Println("scheduler: completed ingestion job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
