package uploader

import (
	"sync"

	"tso/internal/domain"
)

// message is a queue entry: either an event or the stop marker pushed by
// Shutdown.
type message struct {
	event *domain.CaseEvent
	stop  bool
}

// queue is an unbounded FIFO safe for concurrent use
type queue struct {
	mu    sync.Mutex
	items []message
}

func (q *queue) push(m message) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// take removes up to max messages from the front. It returns the events
// among them and whether the stop marker was reached; messages behind the
// stop marker are left in place.
func (q *queue) take(max int) ([]*domain.CaseEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(len(q.items), max)
	events := make([]*domain.CaseEvent, 0, n)
	for i := 0; i < n; i++ {
		m := q.items[i]
		if m.stop {
			q.items = q.items[i+1:]
			return events, true
		}
		events = append(events, m.event)
	}
	// drop references so the backing array does not pin uploaded events
	clear(q.items[:n])
	q.items = q.items[n:]
	return events, false
}
