package attempt

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned for session IDs the service does not know.
var ErrSessionNotFound = errors.New("session not found")

// ErrPersist wraps a failure to store a finished attempt. The cached session
// is left as it was before the call, so only repeating the same call (the
// same answer, or Complete) is a safe retry.
type ErrPersist struct {
	SessionID string
	Err       error
}

func (e *ErrPersist) Error() string {
	return fmt.Sprintf("persist attempt %s: %v", e.SessionID, e.Err)
}

func (e *ErrPersist) Unwrap() error { return e.Err }
