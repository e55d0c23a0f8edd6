package domain

import "time"

// Record is one journaled event
type Record struct {
	ID       string     `json:"id"`
	Event    *CaseEvent `json:"event"`
	Resolved bool       `json:"resolved,omitempty"` // Marked as looked at in the failures viewer
}

// Journal is the local record of a test run
type Journal struct {
	RunID      string    `json:"run_id"`
	Build      string    `json:"build,omitempty"`
	Session    string    `json:"session,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Records    []Record  `json:"records"`
}

// JournalStats summarizes a journal
type JournalStats struct {
	Total    int
	Passed   int
	Failed   int
	Duration time.Duration // Sum of the case durations
}

// Stats counts passed and failed records
func (j *Journal) Stats() JournalStats {
	var s JournalStats
	for _, r := range j.Records {
		if r.Event == nil {
			continue
		}
		s.Total++
		if r.Event.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
		s.Duration += r.Event.Duration()
	}
	return s
}

// Failures returns the indexes of failed records
func (j *Journal) Failures() []int {
	var idx []int
	for i, r := range j.Records {
		if r.Event != nil && !r.Event.Passed() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Events returns the journaled events in order
func (j *Journal) Events() []*CaseEvent {
	events := make([]*CaseEvent, 0, len(j.Records))
	for _, r := range j.Records {
		if r.Event != nil {
			events = append(events, r.Event)
		}
	}
	return events
}
