package uploader

import (
	"context"
	"errors"

	"tso/internal/domain"
)

// Sink receives batches of events. The batcher never calls a sink
// concurrently from the same lane, but the two lanes may overlap.
type Sink interface {
	Upload(ctx context.Context, events []*domain.CaseEvent) error
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(ctx context.Context, events []*domain.CaseEvent) error

// Upload calls f
func (f SinkFunc) Upload(ctx context.Context, events []*domain.CaseEvent) error {
	return f(ctx, events)
}

// Tee uploads every batch to each sink in order. All sinks are tried;
// their errors are joined.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, events []*domain.CaseEvent) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Upload(ctx, events); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
