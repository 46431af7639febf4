package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/engine"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// Reporter translates engine lifecycle events into structured logs, metrics,
// and the run event stream. One reporter serves exactly one run; RunID is
// assigned at construction.
type Reporter struct {
	runID   string
	log     zerolog.Logger
	metrics *Metrics
	events  *EventPublisher
}

var _ engine.Reporter = (*Reporter)(nil)

// NewReporter creates a reporter for a single run. Metrics and events may be
// nil when the corresponding subsystem is disabled.
func NewReporter(log zerolog.Logger, metrics *Metrics, events *EventPublisher) *Reporter {
	return &Reporter{
		runID:   uuid.New().String(),
		log:     log.With().Str("component", "reporter").Logger(),
		metrics: metrics,
		events:  events,
	}
}

// RunID returns the identifier assigned to this run.
func (r *Reporter) RunID() string {
	return r.runID
}

func (r *Reporter) RecipeStart(name string, totalSteps int) {
	r.log.Info().
		Str("run_id", r.runID).
		Str("recipe", name).
		Int("steps", totalSteps).
		Msg("recipe run started")
	if r.metrics != nil {
		r.metrics.RecordRunStarted()
	}
	r.publish(Event{
		Type:    EventTypeRunStarted,
		Message: fmt.Sprintf("recipe %q started with %d step(s)", name, totalSteps),
	})
}

func (r *Reporter) StepStart(index, total int, step recipe.ActionStep) {
	r.log.Info().
		Str("run_id", r.runID).
		Int("step", index).
		Int("total", total).
		Str("name", step.Name).
		Str("action", string(step.Action)).
		Msg("step started")
	r.publish(Event{
		Type:      EventTypeStepStarted,
		StepIndex: index,
		StepName:  step.Name,
		Action:    string(step.Action),
		Message:   fmt.Sprintf("step %d/%d: %s", index, total, step.Name),
	})
}

func (r *Reporter) StepSuccess(index int, step recipe.ActionStep, attempts int, duration time.Duration) {
	r.log.Info().
		Str("run_id", r.runID).
		Int("step", index).
		Str("name", step.Name).
		Int("attempts", attempts).
		Dur("duration", duration).
		Msg("step succeeded")
	if r.metrics != nil {
		r.metrics.RecordStepExecution(string(step.Action), "success", duration)
	}
	r.publish(Event{
		Type:      EventTypeStepSucceeded,
		StepIndex: index,
		StepName:  step.Name,
		Action:    string(step.Action),
		Attempt:   attempts,
		Message:   fmt.Sprintf("step %d succeeded after %d attempt(s)", index, attempts),
	})
}

func (r *Reporter) StepFailure(index int, step recipe.ActionStep, err error, artifact string, duration time.Duration) {
	evt := r.log.Error().
		Str("run_id", r.runID).
		Int("step", index).
		Str("name", step.Name).
		Dur("duration", duration).
		Err(err)
	if artifact != "" {
		evt = evt.Str("artifact", artifact)
	}
	evt.Msg("step failed")
	if r.metrics != nil {
		r.metrics.RecordStepExecution(string(step.Action), "failed", duration)
		r.metrics.RecordError(errorClass(err))
	}
	r.publish(Event{
		Type:      EventTypeStepFailed,
		StepIndex: index,
		StepName:  step.Name,
		Action:    string(step.Action),
		Level:     EventLevelError,
		Message:   fmt.Sprintf("step %d failed: %v", index, err),
	})
}

func (r *Reporter) StepRetry(index int, step recipe.ActionStep, attempt, maxAttempts int, err error) {
	r.log.Warn().
		Str("run_id", r.runID).
		Int("step", index).
		Str("name", step.Name).
		Int("attempt", attempt).
		Int("max_attempts", maxAttempts).
		Err(err).
		Msg("step attempt failed, retrying")
	if r.metrics != nil {
		r.metrics.RecordStepRetry(string(step.Action))
	}
	r.publish(Event{
		Type:      EventTypeStepRetried,
		StepIndex: index,
		StepName:  step.Name,
		Action:    string(step.Action),
		Attempt:   attempt,
		Level:     EventLevelWarning,
		Message:   fmt.Sprintf("step %d attempt %d/%d failed: %v", index, attempt, maxAttempts, err),
	})
}

func (r *Reporter) RecipeComplete(name string, totalSteps int, duration time.Duration) {
	r.log.Info().
		Str("run_id", r.runID).
		Str("recipe", name).
		Int("steps", totalSteps).
		Dur("duration", duration).
		Msg("recipe run completed")
	if r.metrics != nil {
		r.metrics.RecordRunCompleted("success", duration)
	}
	r.publish(Event{
		Type:    EventTypeRunCompleted,
		Message: fmt.Sprintf("recipe %q completed in %s", name, duration.Round(time.Millisecond)),
	})
}

func (r *Reporter) RecipeFailure(name string, failedStep int, duration time.Duration, err error) {
	r.log.Error().
		Str("run_id", r.runID).
		Str("recipe", name).
		Int("failed_step", failedStep).
		Dur("duration", duration).
		Err(err).
		Msg("recipe run failed")
	if r.metrics != nil {
		r.metrics.RecordRunCompleted("failed", duration)
	}
	r.publish(Event{
		Type:      EventTypeRunFailed,
		StepIndex: failedStep,
		Level:     EventLevelError,
		Message:   fmt.Sprintf("recipe %q failed at step %d: %v", name, failedStep, err),
	})
}

// errorClass extracts the error classification for metrics labels.
func errorClass(err error) string {
	var se *engine.StepError
	if errors.As(err, &se) {
		return string(se.Class)
	}
	return string(engine.ErrorClassBackend)
}

func (r *Reporter) publish(event Event) {
	if r.events == nil {
		return
	}
	event.RunID = r.runID
	r.events.Publish(event)
}
