package poll

import (
	"errors"
	"fmt"
	"time"
)

// State is a step of the validation wait
type State int

const (
	StateFirstCheck State = iota
	StateWaiting
	StateValid
	StateTimeout
	StateQuotaExceeded
)

func (s State) String() string {
	switch s {
	case StateFirstCheck:
		return "FIRST_CHECK"
	case StateWaiting:
		return "WAITING"
	case StateValid:
		return "VALID"
	case StateTimeout:
		return "TIMEOUT"
	case StateQuotaExceeded:
		return "QUOTA_EXCEEDED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether the wait has ended in s
func IsTerminal(s State) bool {
	switch s {
	case StateValid, StateTimeout, StateQuotaExceeded:
		return true
	default:
		return false
	}
}

var (
	ErrTimeout       = errors.New("token was not validated before the timeout")
	ErrQuotaExceeded = errors.New("revision limit exceeded")
)

// Outcome summarises a finished or aborted wait
type Outcome struct {
	State   State
	Checks  int
	Elapsed time.Duration
}

// Error reports a wait that ended in TIMEOUT or QUOTA_EXCEEDED
type Error struct {
	Outcome
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s after %d checks in %s", e.Unwrap(), e.Checks, e.Elapsed.Round(time.Millisecond))
}

func (e *Error) Unwrap() error {
	if e.State == StateQuotaExceeded {
		return ErrQuotaExceeded
	}
	return ErrTimeout
}
