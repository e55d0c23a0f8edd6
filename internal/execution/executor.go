package execution

import (
	"context"
	"time"

	"tso/internal/domain"
)

// Executor executes selected test files and reports each outcome
type Executor interface {
	Execute(ctx context.Context, tests []string, onResult func(*domain.CaseEvent)) (Summary, error)
}

// Summary totals a run
type Summary struct {
	Passed   int
	Failed   int
	Skipped  int // Not started because of fail-fast or cancellation
	Duration time.Duration
}
