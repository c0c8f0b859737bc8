package scheduler

import (
	"errors"
	"fmt"
)

// JobError represents a failure in the render job lifecycle.
//
// Job errors include:
//   - Empty job: Start was given no actions (job never begins)
//   - Job active: Start called while a previous run is still in progress
//   - Render failed: the render collaborator rejected one frame
//   - Assembly failed: the completion handoff (assembler/metadata) failed
//
// JobError carries structured fields for diagnostics.
type JobError struct {
	// Code identifies the error category.
	Code JobErrorCode

	// Message is a human-readable description.
	Message string

	// Action names the action being processed, when applicable.
	Action string

	// Frame is the frame number involved, when applicable (-1 otherwise).
	Frame int
}

// JobErrorCode categorizes job errors.
type JobErrorCode string

const (
	// ErrCodeEmptyJob indicates Start was called with no actions.
	ErrCodeEmptyJob JobErrorCode = "EMPTY_JOB"

	// ErrCodeJobActive indicates Start was called on a running scheduler.
	ErrCodeJobActive JobErrorCode = "JOB_ACTIVE"

	// ErrCodeRenderFailed indicates the render collaborator failed a frame.
	ErrCodeRenderFailed JobErrorCode = "RENDER_FAILED"

	// ErrCodeAssemblyFailed indicates the completion handoff failed.
	ErrCodeAssemblyFailed JobErrorCode = "ASSEMBLY_FAILED"
)

// Error implements the error interface.
func (e *JobError) Error() string {
	switch {
	case e.Action != "" && e.Frame >= 0:
		return fmt.Sprintf("%s: %s (action=%s, frame=%d)", e.Code, e.Message, e.Action, e.Frame)
	case e.Action != "":
		return fmt.Sprintf("%s: %s (action=%s)", e.Code, e.Message, e.Action)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsEmptyJob reports whether err is an empty-job error.
// Uses errors.As to handle wrapped errors.
func IsEmptyJob(err error) bool {
	var je *JobError
	return errors.As(err, &je) && je.Code == ErrCodeEmptyJob
}

// IsAssemblyFailure reports whether err is a completion-handoff failure.
// Uses errors.As to handle wrapped errors.
func IsAssemblyFailure(err error) bool {
	var je *JobError
	return errors.As(err, &je) && je.Code == ErrCodeAssemblyFailed
}

// NewEmptyJobError creates a JobError for a start with no actions.
func NewEmptyJobError() *JobError {
	return &JobError{
		Code:    ErrCodeEmptyJob,
		Message: "no actions found",
		Frame:   -1,
	}
}

// NewRenderError wraps a render collaborator failure for one frame.
func NewRenderError(action string, frame int, err error) *JobError {
	return &JobError{
		Code:    ErrCodeRenderFailed,
		Message: err.Error(),
		Action:  action,
		Frame:   frame,
	}
}

// NewAssemblyError wraps a completion-handoff failure.
func NewAssemblyError(err error) *JobError {
	return &JobError{
		Code:    ErrCodeAssemblyFailed,
		Message: err.Error(),
		Frame:   -1,
	}
}
