// Package workers provides bounded parallel execution of indexed jobs.
package workers

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Pool fans indexed jobs out over a fixed number of goroutines. Jobs write
// their results into caller-owned slots, so output order never depends on
// scheduling.
type Pool struct {
	logger *zap.Logger
	config *PoolConfig

	tasksCompleted atomic.Int64
	tasksFailed    atomic.Int64
	panicRecovered atomic.Int64
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	Name          string // Pool name for logging
	NumWorkers    int    // Number of worker goroutines; <= 1 runs inline
	PanicRecovery bool   // Convert job panics into errors
}

// DefaultPoolConfig returns sensible defaults
func DefaultPoolConfig(name string) *PoolConfig {
	return &PoolConfig{
		Name:          name,
		NumWorkers:    runtime.NumCPU(),
		PanicRecovery: true,
	}
}

// PoolStats contains pool statistics
type PoolStats struct {
	TasksCompleted int64 `json:"tasks_completed"`
	TasksFailed    int64 `json:"tasks_failed"`
	PanicRecovered int64 `json:"panic_recovered"`
}

// NewPool creates a new worker pool
func NewPool(logger *zap.Logger, config *PoolConfig) *Pool {
	if config == nil {
		config = DefaultPoolConfig("default")
	}
	return &Pool{logger: logger, config: config}
}

// Run calls fn(i) for every i in [0, n) and waits for all of them. The first
// error cancels the remaining jobs and is returned. Context cancellation is
// checked between jobs.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}

	numWorkers := p.config.NumWorkers
	if numWorkers > n {
		numWorkers = n
	}
	if numWorkers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.execute(ctx, i, fn); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := p.execute(ctx, i, fn); err != nil {
					fail(err)
				}
			}
		}()
	}

submit:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break submit
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// execute runs a single job with optional panic recovery
func (p *Pool) execute(ctx context.Context, i int, fn func(context.Context, int) error) (err error) {
	if p.config.PanicRecovery {
		defer func() {
			if r := recover(); r != nil {
				p.panicRecovered.Add(1)
				p.tasksFailed.Add(1)
				p.logger.Error("worker recovered from panic",
					zap.String("pool", p.config.Name),
					zap.Int("job", i),
					zap.Any("panic", r),
				)
				err = &PanicError{Job: i, Recovered: r}
			}
		}()
	}

	if err = fn(ctx, i); err != nil {
		p.tasksFailed.Add(1)
		return err
	}
	p.tasksCompleted.Add(1)
	return nil
}

// Stats returns current pool statistics
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		TasksCompleted: p.tasksCompleted.Load(),
		TasksFailed:    p.tasksFailed.Load(),
		PanicRecovered: p.panicRecovered.Load(),
	}
}

// PanicError represents a recovered panic
type PanicError struct {
	Job       int
	Recovered interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic recovered in job %d: %v", e.Job, e.Recovered)
}
