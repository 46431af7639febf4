package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// recordingReporter counts lifecycle events for assertions.
type recordingReporter struct {
	recipeStarts    int
	stepStarts      int
	stepSuccesses   int
	stepFailures    int
	retries         int
	recipeCompletes int
	recipeFailures  int
}

func (r *recordingReporter) RecipeStart(string, int)       { r.recipeStarts++ }
func (r *recordingReporter) StepStart(int, int, recipe.ActionStep) { r.stepStarts++ }
func (r *recordingReporter) StepSuccess(int, recipe.ActionStep, int, time.Duration) {
	r.stepSuccesses++
}
func (r *recordingReporter) StepFailure(int, recipe.ActionStep, error, string, time.Duration) {
	r.stepFailures++
}
func (r *recordingReporter) StepRetry(int, recipe.ActionStep, int, int, error) { r.retries++ }
func (r *recordingReporter) RecipeComplete(string, int, time.Duration)         { r.recipeCompletes++ }
func (r *recordingReporter) RecipeFailure(string, int, time.Duration, error)   { r.recipeFailures++ }

func testRecipe(steps ...recipe.ActionStep) *recipe.Recipe {
	return &recipe.Recipe{
		Name:        "test-recipe",
		Description: "exercises the orchestrator",
		Version:     "1.0",
		Variables:   make(map[string]any),
		Steps:       steps,
	}
}

func fileWriteStep(name, path, content string) recipe.ActionStep {
	s := testStep(recipe.ActionFileWrite)
	s.Name = name
	s.Target.FilePath = path
	s.Target.Text = content
	return s
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	ui := &mockUI{}
	fs := newMockFS()
	o := New(Config{UI: ui, Process: newMockProcess(), FS: fs, Logger: zerolog.Nop()})

	r := testRecipe(
		fileWriteStep("first", "/tmp/a.txt", "one"),
		fileWriteStep("second", "/tmp/b.txt", "two"),
		fileWriteStep("third", "/tmp/c.txt", "three"),
	)

	result := o.Run(context.Background(), r, RunOptions{})

	if !result.Success {
		t.Fatalf("expected success, got failure at step %d: %v", result.FailedStep, result.LastError)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 step results, got %d", len(result.Steps))
	}
	for i, sr := range result.Steps {
		if sr.Index != i+1 {
			t.Errorf("step result %d has index %d", i, sr.Index)
		}
		if sr.State != StepStateSuccess {
			t.Errorf("step %d ended in %s", sr.Index, sr.State)
		}
	}
	if fs.files["/tmp/c.txt"] != "three" {
		t.Error("third step did not run")
	}
}

func TestRunAbortsOnStepFailure(t *testing.T) {
	rec := &recordingReporter{}
	o := New(Config{UI: &mockUI{}, Process: newMockProcess(), FS: newMockFS(), Reporter: rec, Logger: zerolog.Nop()})

	failing := testStep(recipe.ActionFileRead)
	failing.Name = "read missing file"
	failing.Target.FilePath = "/tmp/absent.txt"
	failing.RetryAttempts = 1

	r := testRecipe(
		fileWriteStep("first", "/tmp/a.txt", "one"),
		failing,
		fileWriteStep("never runs", "/tmp/b.txt", "two"),
	)

	result := o.Run(context.Background(), r, RunOptions{})

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.FailedStep != 2 {
		t.Errorf("expected FailedStep=2, got %d", result.FailedStep)
	}
	if result.LastError == nil {
		t.Error("expected LastError to be set")
	}
	if len(result.Steps) != 2 {
		t.Errorf("expected execution to stop after step 2, got %d step results", len(result.Steps))
	}
	if rec.recipeFailures != 1 || rec.recipeCompletes != 0 {
		t.Errorf("expected exactly one RecipeFailure event, got failures=%d completes=%d",
			rec.recipeFailures, rec.recipeCompletes)
	}
}

func TestRunContinueOnFailureProceedsAndStaysSuccessful(t *testing.T) {
	fs := newMockFS()
	o := New(Config{UI: &mockUI{}, Process: newMockProcess(), FS: fs, Logger: zerolog.Nop()})

	tolerated := testStep(recipe.ActionFileRead)
	tolerated.Name = "optional read"
	tolerated.Target.FilePath = "/tmp/absent.txt"
	tolerated.RetryAttempts = 1
	tolerated.ContinueOnFailure = true

	r := testRecipe(
		tolerated,
		fileWriteStep("still runs", "/tmp/after.txt", "done"),
	)

	result := o.Run(context.Background(), r, RunOptions{})

	if !result.Success {
		t.Fatalf("a tolerated failure must not fail the run: %v", result.LastError)
	}
	if result.FailedStep != 0 {
		t.Errorf("expected FailedStep=0, got %d", result.FailedStep)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("expected both steps to run, got %d results", len(result.Steps))
	}
	if result.Steps[0].State != StepStateFailed {
		t.Errorf("tolerated step should record FAILED, got %s", result.Steps[0].State)
	}
	if fs.files["/tmp/after.txt"] != "done" {
		t.Error("step after the tolerated failure did not run")
	}
}

func TestRunDryRunTouchesNoBackend(t *testing.T) {
	ui := &mockUI{}
	proc := newMockProcess()
	fs := newMockFS()
	o := New(Config{UI: ui, Process: proc, FS: fs, Logger: zerolog.Nop()})

	launch := testStep(recipe.ActionLaunch)
	launch.Name = "launch app"
	launch.Target.App = "notepad.exe"

	r := testRecipe(launch, fileWriteStep("write", "/tmp/x.txt", "x"))

	result := o.Run(context.Background(), r, RunOptions{DryRun: true})

	if !result.Success {
		t.Fatalf("dry run of a valid recipe must succeed: %v", result.LastError)
	}
	if len(result.Steps) != 0 {
		t.Errorf("dry run must execute no steps, got %d results", len(result.Steps))
	}
	if proc.launches != 0 || len(fs.files) != 0 || ui.clicks != 0 {
		t.Error("dry run touched a backend")
	}
}

func TestRunRejectsInvalidRecipe(t *testing.T) {
	o := New(Config{UI: &mockUI{}, Process: newMockProcess(), FS: newMockFS(), Logger: zerolog.Nop()})

	r := testRecipe() // no steps
	result := o.Run(context.Background(), r, RunOptions{})

	if result.Success {
		t.Fatal("expected validation failure for an empty recipe")
	}
	if !IsValidation(result.LastError) {
		t.Errorf("expected a validation-classified error, got %v", result.LastError)
	}
	if len(result.Steps) != 0 {
		t.Errorf("validation failure must execute no steps, got %d", len(result.Steps))
	}
}

func TestRunStepResultsVisibleToLaterSteps(t *testing.T) {
	ui := &mockUI{}
	fs := newMockFS()
	fs.files["/tmp/input.txt"] = "hello from disk"
	o := New(Config{UI: ui, Process: newMockProcess(), FS: fs, Logger: zerolog.Nop()})

	read := testStep(recipe.ActionFileRead)
	read.Name = "read input"
	read.Target.FilePath = "/tmp/input.txt"

	typeBack := testStep(recipe.ActionTypeText)
	typeBack.Name = "type it back"
	typeBack.Target.Text = "got: ${step_1_result}"

	r := testRecipe(read, typeBack)

	result := o.Run(context.Background(), r, RunOptions{})

	if !result.Success {
		t.Fatalf("run failed: %v", result.LastError)
	}
	if len(ui.typed) != 1 || ui.typed[0] != "got: hello from disk" {
		t.Errorf("expected substituted step result to be typed, got %v", ui.typed)
	}
}

func TestRunRecoversFromHandlerPanic(t *testing.T) {
	rec := &recordingReporter{}
	o := New(Config{UI: &mockUI{}, Process: newMockProcess(), FS: newMockFS(), Reporter: rec, Logger: zerolog.Nop()})

	o.dispatch["click"] = func(ctx context.Context, index int, step recipe.ActionStep) (bool, error) {
		panic("backend blew up")
	}

	click := testStep(recipe.ActionClick)
	click.Name = "panicking click"

	result := o.Run(context.Background(), testRecipe(click), RunOptions{})

	if result.Success {
		t.Fatal("expected failure after panic")
	}
	if result.FailedStep != 1 {
		t.Errorf("expected FailedStep=1, got %d", result.FailedStep)
	}
	if result.LastError == nil {
		t.Error("expected LastError to carry the panic context")
	}
	if rec.recipeFailures != 1 {
		t.Errorf("expected one RecipeFailure event, got %d", rec.recipeFailures)
	}
}

func TestRunVariableSeedIsConsulted(t *testing.T) {
	fs := newMockFS()
	o := New(Config{UI: &mockUI{}, Process: newMockProcess(), FS: fs, Logger: zerolog.Nop()})

	write := fileWriteStep("write greeting", "/tmp/${name}.txt", "hi ${name}")

	r := testRecipe(write)
	r.Variables["name"] = "alice"

	result := o.Run(context.Background(), r, RunOptions{})

	if !result.Success {
		t.Fatalf("run failed: %v", result.LastError)
	}
	if fs.files["/tmp/alice.txt"] != "hi alice" {
		t.Errorf("expected substituted path and content, got %v", fs.files)
	}
}

func TestCleanupClosesUIBackend(t *testing.T) {
	ui := &mockUI{}
	o := New(Config{UI: ui, Process: newMockProcess(), FS: newMockFS(), Logger: zerolog.Nop()})

	if err := o.Cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if !ui.closed {
		t.Error("expected the UI backend to be closed")
	}
}
