package storage

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"tso/internal/domain"
)

// Recorder collects uploaded events into a journal. It is an
// uploader.Sink, so it sees exactly the batches the API sees.
type Recorder struct {
	mu      sync.Mutex
	journal domain.Journal
}

// NewRecorder starts a journal for a new run
func NewRecorder(build, session string) *Recorder {
	return &Recorder{journal: domain.Journal{
		RunID:     ulid.Make().String(),
		Build:     build,
		Session:   session,
		StartedAt: time.Now().UTC(),
	}}
}

// Upload appends the batch to the journal
func (r *Recorder) Upload(_ context.Context, events []*domain.CaseEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.journal.Records = append(r.journal.Records, domain.Record{
			ID:    ulid.Make().String(),
			Event: ev,
		})
	}
	return nil
}

// SetSession records the session once it is known
func (r *Recorder) SetSession(session string) {
	r.mu.Lock()
	r.journal.Session = session
	r.mu.Unlock()
}

// Finish stamps the end of the run and returns a copy of the journal
func (r *Recorder) Finish() *domain.Journal {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal.FinishedAt = time.Now().UTC()
	return r.snapshot()
}

// Journal returns a copy of the journal so far
func (r *Recorder) Journal() *domain.Journal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Recorder) snapshot() *domain.Journal {
	j := r.journal
	j.Records = append([]domain.Record(nil), r.journal.Records...)
	return &j
}
