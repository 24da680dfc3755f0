package control

import (
	"errors"
	"fmt"
)

// ErrControlTimeout is the sentinel callers match against with errors.Is.
// Send returns it wrapped in *TimeoutError, which also carries the request id.
var ErrControlTimeout = errors.New("control request timed out")

// ErrCancelled is delivered to any Send callers still pending when the
// session is torn down.
var ErrCancelled = errors.New("control request cancelled")

// TimeoutError is the error Send returns when a request's deadline elapses
// before a response arrives. It unwraps to ErrControlTimeout so callers that
// only need the sentinel can still use errors.Is.
type TimeoutError struct {
	RequestID string
	Cause     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("control request %s timed out: %v", e.RequestID, e.Cause)
}

func (e *TimeoutError) Unwrap() error { return ErrControlTimeout }
