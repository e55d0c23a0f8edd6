package client

import (
	"fmt"
	"strings"
)

// SessionContext identifies the test session results are reported to
type SessionContext struct {
	Build string
	ID    string
}

// ParseSession reads a session path of the form builds/<build>/test_sessions/<id>
func ParseSession(path string) (SessionContext, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "builds" || parts[2] != "test_sessions" || parts[1] == "" || parts[3] == "" {
		return SessionContext{}, fmt.Errorf("invalid session %q, want builds/<build>/test_sessions/<id>", path)
	}
	return SessionContext{Build: parts[1], ID: parts[3]}, nil
}

// Path renders the session the way the subset tool expects it
func (s SessionContext) Path() string {
	return fmt.Sprintf("builds/%s/test_sessions/%s", s.Build, s.ID)
}

// Registered reports whether the session already exists on the server
func (s SessionContext) Registered() bool {
	return s.ID != ""
}
