package execution

import (
	"context"
	"sync"
	"time"

	"tso/internal/config"
	"tso/internal/domain"
	"tso/internal/ui"
)

// WorkerPool manages a pool of workers for parallel test execution.
// Tests start in the order given, so a reordered selection runs the
// likely failures first.
type WorkerPool struct {
	config   *config.Config
	runner   *Runner
	progress *ui.ProgressBar
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner *Runner) *WorkerPool {
	return &WorkerPool{
		config: cfg,
		runner: runner,
	}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress *ui.ProgressBar) {
	wp.progress = progress
}

// Execute runs tests on Processors workers and hands every outcome to
// onResult from the worker that produced it. With fail-fast set, no new
// test starts after the first failure.
func (wp *WorkerPool) Execute(ctx context.Context, tests []string, onResult func(*domain.CaseEvent)) (Summary, error) {
	var sum Summary
	if len(tests) == 0 {
		return sum, nil
	}

	feedCtx, stopFeeding := context.WithCancel(ctx)
	defer stopFeeding()

	testQueue := make(chan string)
	go func() {
		defer close(testQueue)
		for _, test := range tests {
			select {
			case <-feedCtx.Done():
				return
			case testQueue <- test:
			}
		}
	}()

	var mu sync.Mutex
	startTime := time.Now()
	workerCount := wp.config.Processors
	if workerCount <= 0 {
		workerCount = 1
	}
	failFast := wp.config.Flags.FailFast

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for testPath := range testQueue {
				if feedCtx.Err() != nil {
					continue
				}
				ev := wp.runner.Run(ctx, testPath)
				if onResult != nil {
					onResult(ev)
				}

				mu.Lock()
				if ev.Passed() {
					sum.Passed++
				} else {
					sum.Failed++
					if failFast {
						stopFeeding()
					}
				}
				if wp.progress != nil {
					wp.progress.Update(sum.Passed, sum.Failed)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wp.progress != nil {
		wp.progress.Finish()
	}
	sum.Duration = time.Since(startTime)
	sum.Skipped = len(tests) - sum.Passed - sum.Failed
	return sum, ctx.Err()
}
