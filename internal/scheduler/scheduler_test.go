package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonesrussell/harvest/internal/logger"
	"github.com/jonesrussell/harvest/internal/scheduler"
)

func TestAddJobRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	s := scheduler.New(logger.NewNoOp())

	err := s.AddJob("harvest", "not a schedule", func(context.Context) {})
	if err == nil {
		t.Fatal("expected error for invalid cron spec, got nil")
	}
}

func TestAddJobAcceptsStandardSpecs(t *testing.T) {
	t.Parallel()

	s := scheduler.New(logger.NewNoOp())

	for _, spec := range []string{"0 3 * * *", "*/15 * * * *", "@hourly", "@every 30m"} {
		if err := s.AddJob("harvest", spec, func(context.Context) {}); err != nil {
			t.Errorf("AddJob(%q) = %v, want nil", spec, err)
		}
	}
}

func TestSchedulerRunsJobOnSchedule(t *testing.T) {
	t.Parallel()

	s := scheduler.New(logger.NewNoOp())

	var runs atomic.Int32
	err := s.AddJob("harvest", "@every 1s", func(context.Context) {
		runs.Add(1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	if got := runs.Load(); got < 2 {
		t.Errorf("job ran %d times, want at least 2", got)
	}
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	s := scheduler.New(logger.NewNoOp())

	var starts atomic.Int32
	err := s.AddJob("harvest", "@every 1s", func(ctx context.Context) {
		starts.Add(1)
		// Outlive several ticks so overlapping ticks must be skipped.
		<-ctx.Done()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	if got := starts.Load(); got != 1 {
		t.Errorf("job started %d times during one blocked run, want 1", got)
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	s := scheduler.New(logger.NewNoOp())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
