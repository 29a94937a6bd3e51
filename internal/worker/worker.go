// Package worker runs periodic maintenance jobs in the background.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Job is one unit of periodic work.
type Job struct {
	// Type identifies the job in logs (e.g. "cleanup:idle_worksheets").
	Type string

	// Timeout bounds a single run. Zero means DefaultJobTimeout.
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// DefaultJobTimeout bounds a job run when Job.Timeout is unset.
const DefaultJobTimeout = 30 * time.Second

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs
	WorkerID string

	// PollInterval is how often every job is run
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs running at once.
	// A tick that finds no free slot skips the job until the next tick.
	MaxConcurrency int
}

// Worker runs a fixed set of jobs on every tick
type Worker struct {
	config Config
	jobs   []Job
	logger *slog.Logger
}

// NewWorker creates a new background worker
func NewWorker(jobs []Job, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Minute
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config: config,
		jobs:   jobs,
		logger: logger.With("worker_id", config.WorkerID),
	}
}

// Start runs the jobs every PollInterval until ctx is cancelled.
// It blocks and returns ctx.Err() on shutdown.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
		"jobs", len(w.jobs),
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			return ctx.Err()

		case <-ticker.C:
			for _, job := range w.jobs {
				select {
				case sem <- struct{}{}:
					go func(job Job) {
						defer func() { <-sem }()
						w.process(ctx, job)
					}(job)
				default:
					w.logger.Debug("worker busy, job skipped", "job_type", job.Type)
				}
			}
		}
	}
}

// RunOnce runs every job once, sequentially, and returns the number of
// jobs that failed.
func (w *Worker) RunOnce(ctx context.Context) int {
	failed := 0
	for _, job := range w.jobs {
		if err := w.process(ctx, job); err != nil {
			failed++
		}
	}
	return failed
}

func (w *Worker) process(ctx context.Context, job Job) (err error) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		if err != nil {
			w.logger.Error("job failed", "job_type", job.Type, "error", err)
			return
		}
		w.logger.Debug("job completed", "job_type", job.Type, "duration", time.Since(start))
	}()

	return job.Run(jobCtx)
}
