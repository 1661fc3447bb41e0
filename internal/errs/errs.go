// Package errs defines the error taxonomy used across the orchestrator.
// Components never panic for expected failures; they return an *Error
// carrying one of the Kind values below, wrapped with %w chains the way
// the rest of the codebase does.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a coarse error category, not a concrete Go type, so that callers
// can branch on errors.As without a combinatorial explosion of error types.
type Kind string

const (
	// InvalidInput covers unknown enum values, empty required lists, and
	// malformed regexes.
	InvalidInput Kind = "invalid_input"
	// Discovery covers failures enumerating the application catalog.
	Discovery Kind = "discovery"
	// ContainerUp covers a compose project failing to reach readiness.
	ContainerUp Kind = "container_up"
	// DeployExit covers a deploy tool exiting non-zero.
	DeployExit Kind = "deploy_exit"
	// Timeout covers any process-runner timeout.
	Timeout Kind = "timeout"
	// PurgeWarning covers a non-fatal issue in the entity purger.
	PurgeWarning Kind = "purge_warning"
	// Internal covers programmer errors; these should never occur and, if
	// seen, indicate a bug in the orchestrator itself.
	Internal Kind = "internal"
)

// Error is the orchestrator's structured error value.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, Kind) style checks against a sentinel wrapping
// only the Kind (see IsKind).
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs an *Error of the given kind, wrapping an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// ExitCode maps an error's kind to the process exit code conventions from
// the external interface spec: 0 success, 1 generic failure, 2 invalid
// input, 124 timeout, 130 cancelled.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case IsKind(err, InvalidInput):
		return 2
	case IsKind(err, Timeout):
		return 124
	case errors.Is(err, ErrCancelled):
		return 130
	default:
		return 1
	}
}

// ErrCancelled is returned (or wrapped) when a run is aborted by a user
// signal (SIGINT/SIGTERM) rather than failing on its own merits.
var ErrCancelled = errors.New("cancelled by signal")
