// Package engine implements the recipe execution core: the step state
// machine with its retry and timeout policy, entropy-ranked selector
// resolution, the polling wait primitive, and the orchestrator that
// sequences steps and aggregates outcomes. Driving the OS UI, spawning
// processes, file I/O, and OCR live behind the backend interfaces.
package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a step error for the retry policy.
type ErrorClass string

const (
	// ErrorClassValidation indicates a malformed recipe or step target.
	// Never retried; a validation failure aborts before any attempt runs.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassNotFound indicates the target window or element is absent.
	// Retried: the element may simply not exist yet.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassNotReady indicates the target exists but is not
	// interactable (hidden, disabled, still rendering). Retried.
	ErrorClassNotReady ErrorClass = "not_ready"

	// ErrorClassBackend indicates an I/O, process, or OCR failure in a
	// backend. Retried.
	ErrorClassBackend ErrorClass = "backend"

	// ErrorClassUnsupported indicates an unknown action kind. Fatal for
	// the step, never retried.
	ErrorClassUnsupported ErrorClass = "unsupported_action"
)

// StepError is a classified error raised while executing a step. The step
// state machine converts these into retry or failure transitions based on
// the class.
type StepError struct {
	// Class is the error classification for retry logic.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Step is the name of the step the error occurred in, if known.
	Step string `json:"step,omitempty"`

	// Attempt is the 1-based attempt number the error occurred on.
	Attempt int `json:"attempt,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *StepError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("%s (step=%s)", msg, e.Step)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap returns the underlying error for chain inspection.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Is matches errors with the same class, so errors.Is can test a class with
// a bare &StepError{Class: ...} target.
func (e *StepError) Is(target error) bool {
	t, ok := target.(*StepError)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// WithStep attaches the step name to the error.
func (e *StepError) WithStep(name string) *StepError {
	e.Step = name
	return e
}

// WithAttempt attaches the attempt number to the error.
func (e *StepError) WithAttempt(n int) *StepError {
	e.Attempt = n
	return e
}

// NewValidationError creates a validation error. Validation errors bypass
// the retry loop entirely.
func NewValidationError(message string, err error) *StepError {
	return &StepError{Class: ErrorClassValidation, Message: message, Err: err}
}

// NewNotFoundError creates a not-found error for an absent window or element.
func NewNotFoundError(message string, err error) *StepError {
	return &StepError{Class: ErrorClassNotFound, Message: message, Err: err}
}

// NewNotReadyError creates a not-ready error for a present but
// non-interactable target.
func NewNotReadyError(message string, err error) *StepError {
	return &StepError{Class: ErrorClassNotReady, Message: message, Err: err}
}

// NewBackendError creates a backend error for I/O, process, or OCR failures.
func NewBackendError(message string, err error) *StepError {
	return &StepError{Class: ErrorClassBackend, Message: message, Err: err}
}

// NewUnsupportedActionError creates an unsupported-action error for an
// action kind absent from the dispatch table.
func NewUnsupportedActionError(action string) *StepError {
	return &StepError{Class: ErrorClassUnsupported, Message: fmt.Sprintf("unsupported action kind %q", action)}
}

// classOf extracts the error class, defaulting to backend for unclassified
// errors so that unknown failures stay retryable.
func classOf(err error) ErrorClass {
	var se *StepError
	if errors.As(err, &se) {
		return se.Class
	}
	return ErrorClassBackend
}

// IsRetryable reports whether the step state machine may retry after err.
// NotFound, NotReady, and Backend errors are retryable; Validation and
// Unsupported errors are fatal for the step.
func IsRetryable(err error) bool {
	switch classOf(err) {
	case ErrorClassNotFound, ErrorClassNotReady, ErrorClassBackend:
		return true
	default:
		return false
	}
}

// IsNotFound reports whether err is classified as not-found.
func IsNotFound(err error) bool { return classOf(err) == ErrorClassNotFound }

// IsNotReady reports whether err is classified as not-ready.
func IsNotReady(err error) bool { return classOf(err) == ErrorClassNotReady }

// IsValidation reports whether err is classified as a validation error.
func IsValidation(err error) bool {
	var se *StepError
	if errors.As(err, &se) {
		return se.Class == ErrorClassValidation
	}
	return false
}
