package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

func testOrchestrator(ui *mockUI) *Orchestrator {
	if ui == nil {
		ui = &mockUI{}
	}
	o := New(Config{
		UI:      ui,
		Process: newMockProcess(),
		FS:      newMockFS(),
		OCR:     &mockOCR{available: true},
		Logger:  zerolog.Nop(),
	})
	o.vars = NewVars(nil)
	return o
}

func testStep(action recipe.ActionType) recipe.ActionStep {
	return recipe.ActionStep{
		Name:          "step under test",
		Action:        action,
		Timeout:       recipe.DefaultTimeoutSeconds,
		RetryAttempts: recipe.DefaultRetryAttempts,
		RetryDelay:    0,
	}
}

func TestExecuteStepExhaustsRetryBudget(t *testing.T) {
	o := testOrchestrator(nil)

	calls := 0
	o.dispatch["click"] = func(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
		calls++
		return false, NewBackendError("element vanished", nil)
	}

	step := testStep(recipe.ActionClick)
	step.RetryAttempts = 5

	result := o.executeStep(context.Background(), 1, step)

	if result.State != StepStateFailed {
		t.Fatalf("expected FAILED, got %s", result.State)
	}
	if calls != 5 {
		t.Errorf("expected exactly 5 attempts, got %d", calls)
	}
	if result.Attempts != 5 {
		t.Errorf("expected Attempts=5, got %d", result.Attempts)
	}
	if result.Artifact == "" {
		t.Error("expected a diagnostic artifact on terminal failure")
	}
}

func TestExecuteStepStopsOnFirstSuccess(t *testing.T) {
	o := testOrchestrator(nil)

	calls := 0
	o.dispatch["click"] = func(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
		calls++
		if calls == 1 {
			return false, NewNotFoundError("not yet", nil)
		}
		return true, nil
	}

	result := o.executeStep(context.Background(), 1, testStep(recipe.ActionClick))

	if result.State != StepStateSuccess {
		t.Fatalf("expected SUCCESS, got %s (err=%v)", result.State, result.Err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
	if result.Attempts != 2 {
		t.Errorf("expected Attempts=2, got %d", result.Attempts)
	}
}

func TestExecuteStepValidationErrorBypassesRetries(t *testing.T) {
	o := testOrchestrator(nil)

	calls := 0
	o.dispatch["click"] = func(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
		calls++
		return false, NewValidationError("bad target", nil)
	}

	result := o.executeStep(context.Background(), 1, testStep(recipe.ActionClick))

	if result.State != StepStateFailed {
		t.Fatalf("expected FAILED, got %s", result.State)
	}
	if calls != 1 {
		t.Errorf("validation error must not be retried, got %d attempts", calls)
	}
	if !IsValidation(result.Err) {
		t.Errorf("expected a validation-classified error, got %v", result.Err)
	}
}

func TestExecuteStepFalseResultCountsAsFailure(t *testing.T) {
	o := testOrchestrator(nil)

	o.dispatch["verify"] = func(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
		return false, nil
	}

	step := testStep(recipe.ActionVerify)
	step.RetryAttempts = 2

	result := o.executeStep(context.Background(), 1, step)

	if result.State != StepStateFailed {
		t.Fatalf("expected FAILED for a false result, got %s", result.State)
	}
	if result.Attempts != 2 {
		t.Errorf("a bare false result is retryable, expected 2 attempts, got %d", result.Attempts)
	}
	var se *StepError
	if !errors.As(result.Err, &se) || se.Class != ErrorClassBackend {
		t.Errorf("expected a backend-classified error, got %v", result.Err)
	}
}

func TestExecuteStepUnknownActionFailsImmediately(t *testing.T) {
	o := testOrchestrator(nil)

	result := o.executeStep(context.Background(), 1, testStep("teleport"))

	if result.State != StepStateFailed {
		t.Fatalf("expected FAILED, got %s", result.State)
	}
	if result.Attempts != 0 {
		t.Errorf("unknown action must fail before any attempt, got %d", result.Attempts)
	}
	if !errors.Is(result.Err, &StepError{Class: ErrorClassUnsupported}) {
		t.Errorf("expected an unsupported-action error, got %v", result.Err)
	}
}

func TestExecuteStepAnnotatesErrorWithStepAndAttempt(t *testing.T) {
	o := testOrchestrator(nil)

	o.dispatch["click"] = func(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
		return false, NewNotFoundError("nothing matched", nil)
	}

	step := testStep(recipe.ActionClick)
	step.RetryAttempts = 2

	result := o.executeStep(context.Background(), 1, step)

	var se *StepError
	if !errors.As(result.Err, &se) {
		t.Fatalf("expected a StepError, got %v", result.Err)
	}
	if se.Step != "step under test" {
		t.Errorf("expected step name on error, got %q", se.Step)
	}
	if se.Attempt != 2 {
		t.Errorf("expected the final attempt number, got %d", se.Attempt)
	}
}

func TestExecuteStepSubstitutesFreshSnapshotEachAttempt(t *testing.T) {
	o := testOrchestrator(nil)
	o.vars.Set("target", "old")

	var seen []string
	o.dispatch["type"] = func(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
		seen = append(seen, step.Target.Text)
		if len(seen) == 1 {
			o.vars.Set("target", "new")
			return false, NewNotReadyError("still rendering", nil)
		}
		return true, nil
	}

	step := testStep(recipe.ActionTypeText)
	step.Target.Text = "${target}"

	result := o.executeStep(context.Background(), 1, step)

	if result.State != StepStateSuccess {
		t.Fatalf("expected SUCCESS, got %s", result.State)
	}
	want := []string{"old", "new"}
	for i, text := range want {
		if seen[i] != text {
			t.Errorf("attempt %d saw %q, want %q", i+1, seen[i], text)
		}
	}
}

func TestStepRetryEventsEmitted(t *testing.T) {
	o := testOrchestrator(nil)
	rec := &recordingReporter{}
	o.reporter = rec

	o.dispatch["click"] = func(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
		return false, NewBackendError("flaky", nil)
	}

	step := testStep(recipe.ActionClick)
	step.RetryAttempts = 3

	o.executeStep(context.Background(), 1, step)

	// Retries fire between attempts, never after the last one.
	if rec.retries != 2 {
		t.Errorf("expected 2 retry events for 3 attempts, got %d", rec.retries)
	}
}
