package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	olderThan time.Duration
	removed   int
	calls     int
}

func (p *fakePruner) PruneIdle(ctx context.Context, olderThan time.Duration) int {
	p.calls++
	p.olderThan = olderThan
	return p.removed
}

func TestProcessPruneIdleWorksheets(t *testing.T) {
	p := &fakePruner{removed: 3}

	result, err := ProcessPruneIdleWorksheets(context.Background(), p, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, result.WorksheetsRemoved)
	assert.Equal(t, 2*time.Hour, p.olderThan)
}

func TestProcessPruneIdleWorksheets_Cancelled(t *testing.T) {
	p := &fakePruner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessPruneIdleWorksheets(ctx, p, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls)
}

func TestPruneIdleWorksheets_Job(t *testing.T) {
	p := &fakePruner{}
	job := PruneIdleWorksheets(p, time.Minute)

	assert.Equal(t, JobTypePruneIdleWorksheets, job.Type)
	assert.True(t, IsCleanupJob(job.Type))
	assert.False(t, IsCleanupJob("email:send"))

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, time.Minute, p.olderThan)
}
