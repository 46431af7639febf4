package engine

import (
	"context"
	"errors"
	"time"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// StepState is the state of a step in its execution state machine:
//
//	PENDING -> ATTEMPTING -> {SUCCESS | RETRY_WAIT -> ATTEMPTING | FAILED}
type StepState string

const (
	StepStatePending    StepState = "PENDING"
	StepStateAttempting StepState = "ATTEMPTING"
	StepStateRetryWait  StepState = "RETRY_WAIT"
	StepStateSuccess    StepState = "SUCCESS"
	StepStateFailed     StepState = "FAILED"
)

// StepResult is the aggregated outcome of driving one step to a terminal
// state.
type StepResult struct {
	// Index is the 1-based position of the step in the recipe.
	Index int `json:"index"`

	// Name is the step name (before substitution).
	Name string `json:"name"`

	// Action is the step's action kind.
	Action recipe.ActionType `json:"action"`

	// State is the terminal state, SUCCESS or FAILED.
	State StepState `json:"state"`

	// Attempts is how many attempts ran.
	Attempts int `json:"attempts"`

	// Duration is the wall-clock time spent on the step, retries and
	// retry delays included.
	Duration time.Duration `json:"duration"`

	// Err is the last error when the step failed.
	Err error `json:"-"`

	// Artifact references the diagnostic capture taken on terminal
	// failure, when the UI backend could produce one.
	Artifact string `json:"artifact,omitempty"`
}

// executeStep drives a single step through the state machine. Each attempt
// substitutes the step against the current variable snapshot, dispatches by
// action kind, and converts a false result or error into a retry or a
// terminal failure. Success stops immediately; validation and
// unsupported-action errors bypass the retry budget.
func (o *Orchestrator) executeStep(ctx context.Context, index int, step recipe.ActionStep) StepResult {
	result := StepResult{
		Index:    index,
		Name:     step.Name,
		Action:   step.Action,
		State:    StepStatePending,
		Attempts: 0,
	}
	start := time.Now()

	handler, ok := o.dispatch[step.Action]
	if !ok {
		result.State = StepStateFailed
		result.Err = NewUnsupportedActionError(string(step.Action)).WithStep(step.Name)
		result.Duration = time.Since(start)
		result.Artifact = o.captureDiagnostic(ctx)
		return result
	}

	var lastErr error
	for attempt := 1; attempt <= step.RetryAttempts; attempt++ {
		result.State = StepStateAttempting
		result.Attempts = attempt

		// Re-substitute on every attempt so variables written by earlier
		// steps are visible; the attempt's own result never is.
		substituted := recipe.SubstituteStep(step, o.vars.Snapshot())

		ok, err := handler(ctx, index, substituted)
		if err == nil && ok {
			result.State = StepStateSuccess
			result.Duration = time.Since(start)
			return result
		}
		if err == nil {
			err = NewBackendError("action reported failure", nil)
		}
		var se *StepError
		if errors.As(err, &se) {
			se.WithStep(step.Name).WithAttempt(attempt)
		}
		lastErr = err

		if !IsRetryable(err) {
			break
		}
		if attempt < step.RetryAttempts {
			result.State = StepStateRetryWait
			o.reporter.StepRetry(index, step, attempt, step.RetryAttempts, err)
			o.sleep(ctx, step.RetryDelayDuration())
		}
	}

	result.State = StepStateFailed
	result.Err = lastErr
	result.Duration = time.Since(start)
	result.Artifact = o.captureDiagnostic(ctx)
	return result
}

// sleep blocks for the retry delay, honoring context cancellation.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// captureDiagnostic asks the UI backend for a failure artifact. Capture
// failures only log; they never change the step outcome.
func (o *Orchestrator) captureDiagnostic(ctx context.Context) string {
	if o.ui == nil {
		return ""
	}
	artifact, err := o.ui.CaptureDiagnostic(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("failed to capture diagnostic screenshot")
		return ""
	}
	return artifact
}
