package workers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atlas-desktop/portfolio-sim/internal/workers"
	"go.uber.org/zap"
)

func newPool(n int) *workers.Pool {
	cfg := workers.DefaultPoolConfig("test")
	cfg.NumWorkers = n
	return workers.NewPool(zap.NewNop(), cfg)
}

func TestPoolRunsEveryJob(t *testing.T) {
	for _, n := range []int{1, 4, 64} {
		pool := newPool(n)
		out := make([]int, 100)

		err := pool.Run(context.Background(), len(out), func(_ context.Context, i int) error {
			out[i] = i * i
			return nil
		})
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", n, err)
		}
		for i, v := range out {
			if v != i*i {
				t.Fatalf("workers=%d: slot %d = %d, want %d", n, i, v, i*i)
			}
		}
		if got := pool.Stats().TasksCompleted; got != 100 {
			t.Errorf("workers=%d: completed = %d, want 100", n, got)
		}
	}
}

func TestPoolReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	pool := newPool(4)

	err := pool.Run(context.Background(), 1000, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if pool.Stats().TasksFailed != 1 {
		t.Errorf("failed = %d, want 1", pool.Stats().TasksFailed)
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	for _, n := range []int{1, 4} {
		pool := newPool(n)
		err := pool.Run(context.Background(), 10, func(_ context.Context, i int) error {
			if i == 5 {
				panic("bad path")
			}
			return nil
		})

		var perr *workers.PanicError
		if !errors.As(err, &perr) {
			t.Fatalf("workers=%d: expected PanicError, got %v", n, err)
		}
		if perr.Job != 5 {
			t.Errorf("workers=%d: job = %d, want 5", n, perr.Job)
		}
		stats := pool.Stats()
		if stats.PanicRecovered != 1 {
			t.Errorf("workers=%d: recovered = %d, want 1", n, stats.PanicRecovered)
		}
		if stats.TasksFailed != 1 {
			t.Errorf("workers=%d: failed = %d, want 1", n, stats.TasksFailed)
		}
	}
}

func TestPoolHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, n := range []int{1, 4} {
		err := newPool(n).Run(ctx, 10, func(_ context.Context, i int) error {
			t.Errorf("job %d ran after cancellation", i)
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("workers=%d: expected context.Canceled, got %v", n, err)
		}
	}
}

func TestPoolZeroJobs(t *testing.T) {
	if err := newPool(4).Run(context.Background(), 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
