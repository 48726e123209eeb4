// Package scheduler re-runs the pipeline on a fixed interval so days
// published to the archive after the initial run are eventually derived and
// served.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/heat-index-etl/internal/pipeline"
	"github.com/go-co-op/gocron"
)

// Runner is the pipeline surface the scheduler drives.
type Runner interface {
	Run(ctx context.Context, start, end time.Time) (pipeline.Result, error)
}

// Scheduler owns the periodic refresh job over one acquisition window.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	start     time.Time
	end       time.Time
	logger    *slog.Logger
}

// New creates a Scheduler covering the [start, end) acquisition window.
func New(runner Runner, interval time.Duration, start, end time.Time, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		start:     start,
		end:       end,
		logger:    logger,
	}
}

// Start schedules the periodic refresh and starts the underlying scheduler.
// A non-positive interval disables refreshing; the initial run still happens
// at startup.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("periodic refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.logger.Info("scheduled refresh starting")
		res, err := s.runner.Run(context.Background(), s.start, s.end)
		if err != nil {
			s.logger.Error("scheduled refresh failed", "error", err)
			return
		}
		s.logger.Info("scheduled refresh finished",
			"processed", res.Processed, "skipped", res.Skipped)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("periodic refresh scheduled", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and discards pending jobs. In-flight runs finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
