package stores

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/engine"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/telemetry"
)

// Recorder persists the history of recipe runs: the run row, each step's
// terminal outcome, and the event stream. Persistence failures only log;
// history never fails an automation run.
type Recorder struct {
	store Store
	log   zerolog.Logger
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store Store, log zerolog.Logger) *Recorder {
	return &Recorder{
		store: store,
		log:   log.With().Str("component", "history").Logger(),
	}
}

// StartRun writes the initial run row in running state.
func (r *Recorder) StartRun(ctx context.Context, runID, recipeName, recipePath string) {
	now := time.Now()
	err := r.store.CreateRun(ctx, &Run{
		ID:         runID,
		RecipeName: recipeName,
		RecipePath: recipePath,
		Status:     RunStatusRunning,
		StartedAt:  now,
		CreatedAt:  now,
	})
	if err != nil {
		r.log.Warn().Err(err).Str("run_id", runID).Msg("failed to record run start")
	}
}

// RecordResult finalizes the run row and writes one record per executed step.
func (r *Recorder) RecordResult(ctx context.Context, runID string, result engine.Result) {
	status := RunStatusCompleted
	var errMsg *string
	if !result.Success {
		status = RunStatusFailed
		if result.LastError != nil {
			msg := result.LastError.Error()
			errMsg = &msg
		}
	}
	if err := r.store.FinishRun(ctx, runID, status, result.FailedStep, errMsg); err != nil {
		r.log.Warn().Err(err).Str("run_id", runID).Msg("failed to record run completion")
	}

	for _, step := range result.Steps {
		rec := &StepRecord{
			RunID:      runID,
			StepIndex:  step.Index,
			StepName:   step.Name,
			Action:     string(step.Action),
			State:      string(step.State),
			Attempts:   step.Attempts,
			DurationMS: step.Duration.Milliseconds(),
			CreatedAt:  time.Now(),
		}
		if step.Err != nil {
			msg := step.Err.Error()
			rec.Error = &msg
		}
		if step.Artifact != "" {
			artifact := step.Artifact
			rec.Artifact = &artifact
		}
		if err := r.store.CreateStepRecord(ctx, rec); err != nil {
			r.log.Warn().Err(err).Str("run_id", runID).Int("step", step.Index).
				Msg("failed to record step outcome")
		}
	}
}

// EventSink returns a subscriber that appends every published event to the
// store's event log.
func (r *Recorder) EventSink(ctx context.Context) telemetry.EventSubscriber {
	return func(event telemetry.Event) {
		rec := &EventRecord{
			EventID:   event.ID,
			RunID:     event.RunID,
			StepIndex: event.StepIndex,
			Type:      event.Type,
			Level:     event.Level,
			Message:   event.Message,
			Timestamp: event.Timestamp,
		}
		if err := r.store.AppendEvent(ctx, rec); err != nil {
			r.log.Warn().Err(err).Str("event", event.Type).Msg("failed to append event")
		}
	}
}
