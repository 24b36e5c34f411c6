package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	count atomic.Int64
	err   error
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Run(ctx context.Context) error {
	j.count.Add(1)
	return j.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsJobRepeatedlyAtInterval(t *testing.T) {
	job := &countingJob{name: "ticker"}
	s := NewScheduler(testLogger())
	s.AddJob(job, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	require.Eventually(t, func() bool {
		return job.count.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopHaltsFurtherRuns(t *testing.T) {
	job := &countingJob{name: "stoppable"}
	s := NewScheduler(testLogger())
	s.AddJob(job, 10*time.Millisecond)

	ctx := context.Background()
	s.Start(ctx)

	require.Eventually(t, func() bool {
		return job.count.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	countAtStop := job.count.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, countAtStop, job.count.Load())
}

func TestSchedulerJobErrorDoesNotStopLoop(t *testing.T) {
	job := &countingJob{name: "failing", err: assert.AnError}
	s := NewScheduler(testLogger())
	s.AddJob(job, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	require.Eventually(t, func() bool {
		return job.count.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}
