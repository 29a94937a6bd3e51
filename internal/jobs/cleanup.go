package jobs

import (
	"context"
	"time"

	"github.com/dukerupert/daigou/internal/worker"
)

// Job type constants for cleanup jobs
const (
	JobTypePruneIdleWorksheets = "cleanup:idle_worksheets"
)

// Pruner drops worksheets that have not been used for a while.
// service.CalculatorService satisfies it.
type Pruner interface {
	PruneIdle(ctx context.Context, olderThan time.Duration) int
}

// CleanupResult holds the result of a cleanup run
type CleanupResult struct {
	WorksheetsRemoved int `json:"worksheets_removed"`
}

// PruneIdleWorksheets returns the janitor job that removes worksheets idle
// for longer than ttl.
func PruneIdleWorksheets(p Pruner, ttl time.Duration) worker.Job {
	return worker.Job{
		Type:    JobTypePruneIdleWorksheets,
		Timeout: 10 * time.Second,
		Run: func(ctx context.Context) error {
			_, err := ProcessPruneIdleWorksheets(ctx, p, ttl)
			return err
		},
	}
}

// ProcessPruneIdleWorksheets runs one prune pass.
func ProcessPruneIdleWorksheets(ctx context.Context, p Pruner, ttl time.Duration) (*CleanupResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &CleanupResult{WorksheetsRemoved: p.PruneIdle(ctx, ttl)}, nil
}

// IsCleanupJob checks if a job type is a cleanup job
func IsCleanupJob(jobType string) bool {
	switch jobType {
	case JobTypePruneIdleWorksheets:
		return true
	}
	return false
}
