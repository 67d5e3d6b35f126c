// Package failure defines the error taxonomy shared by the process runner,
// the switch workflow and the stats store.
//
// Every failure that crosses a package boundary carries a [Kind], so callers
// can tell a timeout from a lock conflict without matching on message text:
//
//	if failure.KindOf(err) == failure.LockConflict {
//	    // retry later
//	}
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// Unknown is used for errors that carry no classification.
	Unknown Kind = iota
	// StartFailure means a process could not be launched.
	StartFailure
	// Timeout means a process was killed after exceeding its deadline.
	Timeout
	// NonZeroExit means a process ran to completion but reported failure.
	NonZeroExit
	// LockConflict means another writer holds the exclusive lock.
	LockConflict
	// SerializationFailure means a document could not be encoded or written.
	SerializationFailure
	// Cancelled means the caller's context was cancelled.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case StartFailure:
		return "start failure"
	case Timeout:
		return "timeout"
	case NonZeroExit:
		return "non-zero exit"
	case LockConflict:
		return "lock conflict"
	case SerializationFailure:
		return "serialization failure"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "git fetch"
	Err  error  // underlying cause, may be nil
}

// New returns a classified error for op wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, &failure.Error{Kind: failure.Timeout}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
// Returns Unknown for nil or unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
