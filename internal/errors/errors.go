// Package errors defines the error taxonomy shared by the snapshot engine and
// the transition controller. Use errors.Is() against the sentinels and
// errors.As() to reach the typed values.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error classes.
var (
	// ErrQuery marks a failed read-only gateway call.
	ErrQuery = errors.New("query failed")

	// ErrMutation marks a failed checkout, delete, rename or stash call.
	ErrMutation = errors.New("mutation failed")

	// ErrValidation marks operator input rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNoTrackedStash is returned by the stash-pop command when nothing is tracked.
	ErrNoTrackedStash = errors.New("no stash tracked")

	// ErrStashGone means a remembered stash was dropped outside gbm.
	ErrStashGone = errors.New("stash no longer exists")

	// ErrUnexpectedEvent is returned when an event does not apply to the current state.
	ErrUnexpectedEvent = errors.New("unexpected event")
)

// QueryError wraps a failed read-only gateway operation.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is returns true if the target error is ErrQuery
func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// NewQueryError creates a new QueryError
func NewQueryError(op string, err error) *QueryError {
	return &QueryError{Op: op, Err: err}
}

// MutationError wraps a failed mutating gateway operation.
type MutationError struct {
	Op     string
	Target string
	Err    error
}

func (e *MutationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Is returns true if the target error is ErrMutation
func (e *MutationError) Is(target error) bool { return target == ErrMutation }

// NewMutationError creates a new MutationError
func NewMutationError(op, target string, err error) *MutationError {
	return &MutationError{Op: op, Target: target, Err: err}
}

// ValidationError carries a user-facing reason for a rejected request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Is returns true if the target error is ErrValidation
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validationf creates a ValidationError with a formatted reason.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *GitCommandError) Error() string {
	msg := "git " + strings.Join(e.Args, " ")
	if detail := e.Detail(); detail != "" {
		return msg + ": " + detail
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Detail returns the diagnostic git printed, preferring stderr.
func (e *GitCommandError) Detail() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(e.Stdout)
}

func (e *GitCommandError) Unwrap() error { return e.Err }

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Args:   args,
		Stdout: stdout,
		Stderr: stderr,
		Err:    err,
	}
}

// Is, As and Join re-export the standard helpers so callers need one import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)
