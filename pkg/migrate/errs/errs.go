// package errs
//
// error taxonomy shared by the runner components. fatal kinds abort a run before any
// task is invoked, the rest are recorded and the run continues.
package errs

import (
	"errors"
	"fmt"
)

// Kind : category of failure
type Kind string

const (
	// Config : job file missing or unreadable, or run configuration invalid. fatal
	Config Kind = "CONFIG"
	// Parse : job file is not a json array. fatal
	Parse Kind = "PARSE"
	// Validation : one job entry is incomplete. local, the entry is skipped
	Validation Kind = "VALIDATION"
	// Environment : launcher executable could not be resolved. fatal
	Environment Kind = "ENVIRONMENT"
	// Execution : an invocation could not be spawned or exited non zero. local
	Execution Kind = "EXECUTION"
)

// Error : a failure tagged with its kind and the operation that produced it
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s : %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s : %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New : wraps err with a kind
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf : builds the wrapped error from a format string, %w is honoured
func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf : the kind of the first *Error in err's chain, empty if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is : reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
