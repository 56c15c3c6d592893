package service

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError rejects malformed or incomplete input. Raised before
// any mutation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports state that changed underneath the caller or an
// operation that the current state forbids. The caller must re-fetch
// and decide again.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflictf(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// ErrForbidden is returned when the caller acts on a resource they do
// not own or lacks the role for.
var ErrForbidden = errors.New("forbidden")

// CascadeStep names one of the ordered revocation cascade steps.
type CascadeStep string

const (
	StepRevokeProfile     CascadeStep = "revoke_profile"
	StepRevokeAssignments CascadeStep = "revoke_assignments"
	StepRejectRequests    CascadeStep = "reject_requests"
	StepEndSessions       CascadeStep = "end_sessions"
	StepOpenAlert         CascadeStep = "open_alert"
)

// PartialCascadeError reports that one or more cascade steps failed
// remotely. Completed steps are not rolled back; recovery is
// re-running the cascade, which is idempotent. Operators see this,
// end users never do.
type PartialCascadeError struct {
	UserID int64
	Failed []CascadeStepError
}

type CascadeStepError struct {
	Step CascadeStep
	Err  error
}

func (e *PartialCascadeError) Error() string {
	steps := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		steps = append(steps, string(f.Step))
	}
	return fmt.Sprintf("cascade partially applied for user %d: failed steps %s", e.UserID, strings.Join(steps, ", "))
}
