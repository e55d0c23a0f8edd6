package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the wire type of every test case event
const EventType = "case"

// Status is the outcome of an executed test case
type Status int

const (
	StatusFailed Status = 0
	StatusPassed Status = 1
)

func (s Status) String() string {
	if s == StatusPassed {
		return "passed"
	}
	return "failed"
}

// CaseEvent is the recorded outcome of one executed test case.
// It is immutable once constructed.
type CaseEvent struct {
	testPath  TestPath
	duration  time.Duration
	status    Status
	stdout    string
	stderr    string
	createdAt time.Time
}

// NewCaseEvent creates an event stamped with the current UTC time
func NewCaseEvent(path TestPath, duration time.Duration, status Status, stdout, stderr string) *CaseEvent {
	return NewCaseEventAt(path, duration, status, stdout, stderr, time.Now())
}

// NewCaseEventAt creates an event with an explicit creation time
func NewCaseEventAt(path TestPath, duration time.Duration, status Status, stdout, stderr string, createdAt time.Time) *CaseEvent {
	return &CaseEvent{
		testPath:  path.clone(),
		duration:  duration,
		status:    status,
		stdout:    stdout,
		stderr:    stderr,
		createdAt: createdAt.UTC(),
	}
}

func (e *CaseEvent) TestPath() TestPath { return e.testPath.clone() }
func (e *CaseEvent) Duration() time.Duration { return e.duration }
func (e *CaseEvent) Status() Status { return e.status }
func (e *CaseEvent) Stdout() string { return e.stdout }
func (e *CaseEvent) Stderr() string { return e.stderr }
func (e *CaseEvent) CreatedAt() time.Time { return e.createdAt }

// Passed reports whether the case passed
func (e *CaseEvent) Passed() bool { return e.status == StatusPassed }

func (e *CaseEvent) String() string {
	return fmt.Sprintf("%s (%s, %s)", e.testPath, e.status, e.duration)
}

type eventData struct {
	TestPath TestPath `json:"testPath"`
}

type eventBody struct {
	Type      string    `json:"type"`
	TestPath  TestPath  `json:"testPath"`
	Duration  float64   `json:"duration"`
	Status    Status    `json:"status"`
	Stdout    string    `json:"stdout"`
	Stderr    string    `json:"stderr"`
	Data      eventData `json:"data"`
	CreatedAt string    `json:"created_at"`
}

// MarshalJSON encodes the event in the shape the events endpoint accepts.
// Duration is in seconds, created_at is ISO-8601 UTC.
func (e *CaseEvent) MarshalJSON() ([]byte, error) {
	path := e.testPath
	if path == nil {
		path = TestPath{}
	}
	return json.Marshal(eventBody{
		Type:      EventType,
		TestPath:  path,
		Duration:  e.duration.Seconds(),
		Status:    e.status,
		Stdout:    e.stdout,
		Stderr:    e.stderr,
		Data:      eventData{TestPath: path},
		CreatedAt: e.createdAt.Format(time.RFC3339Nano),
	})
}

// UnmarshalJSON decodes an event written by MarshalJSON (journal replay)
func (e *CaseEvent) UnmarshalJSON(data []byte) error {
	var body eventBody
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	if body.Type != "" && body.Type != EventType {
		return fmt.Errorf("unexpected event type %q", body.Type)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, body.CreatedAt)
	if err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	*e = CaseEvent{
		testPath:  body.TestPath,
		duration:  time.Duration(body.Duration * float64(time.Second)),
		status:    body.Status,
		stdout:    body.Stdout,
		stderr:    body.Stderr,
		createdAt: createdAt.UTC(),
	}
	return nil
}
