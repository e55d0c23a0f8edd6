// Package protect applies the error policy at the boundary between the
// host test runner and tso: a failure in selection or reporting must not
// abort the run unless strict mode asks for it.
package protect

import (
	"fmt"

	"tso/internal/logging"
)

// Error tags a failure with the operation that produced it
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Guard runs fn. A failure is logged and returned as an *Error when
// strict is set; otherwise it is logged and swallowed so the caller can
// fall back to its default behavior.
func Guard(log *logging.Logger, strict bool, op string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	tagged := &Error{Op: op, Err: err}
	if strict {
		log.Errorf("%v", tagged)
		return tagged
	}

	log.Warnf("%v", tagged)
	log.Warnf("tests run in their original order; set TSO_DEBUG=1 for details")
	return nil
}
