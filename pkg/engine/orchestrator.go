package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// Reporter receives the lifecycle events of a recipe run. It is constructed
// explicitly by the caller and handed to the orchestrator; its lifecycle is
// exactly one run, never process-wide.
type Reporter interface {
	RecipeStart(name string, totalSteps int)
	StepStart(index, total int, step recipe.ActionStep)
	StepSuccess(index int, step recipe.ActionStep, attempts int, duration time.Duration)
	StepFailure(index int, step recipe.ActionStep, err error, artifact string, duration time.Duration)
	StepRetry(index int, step recipe.ActionStep, attempt, maxAttempts int, err error)
	RecipeComplete(name string, totalSteps int, duration time.Duration)
	RecipeFailure(name string, failedStep int, duration time.Duration, err error)
}

// Config assembles the collaborators an orchestrator needs. UI, Process,
// Filesystem, and OCR are the external backends; Reporter receives
// lifecycle events.
type Config struct {
	UI       UIBackend
	Process  ProcessBackend
	FS       FilesystemBackend
	OCR      OCRBackend
	Reporter Reporter

	// Logger is the engine's structured logger.
	Logger zerolog.Logger
}

// handlerFunc executes one substituted step attempt. It returns the action
// result; a false result counts as a failure even without an error.
type handlerFunc func(ctx context.Context, index int, step recipe.ActionStep) (bool, error)

// Orchestrator sequences the steps of one recipe strictly in declared
// order on a single control thread: one step, one attempt at a time. It
// owns the live recipe and its variable mapping for the duration of a run.
type Orchestrator struct {
	ui       UIBackend
	process  ProcessBackend
	fs       FilesystemBackend
	ocr      OCRBackend
	reporter Reporter
	log      zerolog.Logger

	resolver *Resolver
	dispatch map[recipe.ActionType]handlerFunc

	// vars is the run's mutable variable mapping; current is the 1-based
	// index of the step being executed.
	vars    *Vars
	current int
}

// Result is the aggregated outcome of a recipe run.
type Result struct {
	// Success reports whether the run completed without an aborting step
	// failure. Steps that failed with continue_on_failure set do not
	// clear it.
	Success bool `json:"success"`

	// Duration is the total wall-clock run time.
	Duration time.Duration `json:"duration"`

	// FailedStep is the 1-based index of the step that aborted the run,
	// or 0 when no step did.
	FailedStep int `json:"failed_step,omitempty"`

	// LastError is the error context of the aborting step.
	LastError error `json:"-"`

	// Steps are the per-step outcomes in execution order.
	Steps []StepResult `json:"steps"`
}

// RunOptions tunes a single run.
type RunOptions struct {
	// DryRun performs structural validation only and invokes no backend.
	DryRun bool
}

// New creates an orchestrator. The dispatch table is fixed at construction:
// every supported action kind maps to exactly one handler, and nothing is
// looked up dynamically beyond this table.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		ui:       cfg.UI,
		process:  cfg.Process,
		fs:       cfg.FS,
		ocr:      cfg.OCR,
		reporter: cfg.Reporter,
		log:      cfg.Logger,
		resolver: NewResolver(cfg.UI),
	}
	if o.reporter == nil {
		o.reporter = nopReporter{}
	}

	o.dispatch = map[recipe.ActionType]handlerFunc{
		recipe.ActionLaunch:     o.handleLaunch,
		recipe.ActionWaitFor:    o.handleWaitFor,
		recipe.ActionClick:      o.handleClick,
		recipe.ActionTypeText:   o.handleType,
		recipe.ActionHotkey:     o.handleHotkey,
		recipe.ActionVerify:     o.handleVerify,
		recipe.ActionReadText:   o.handleReadText,
		recipe.ActionFileWrite:  o.handleFileWrite,
		recipe.ActionFileRead:   o.handleFileRead,
		recipe.ActionFileCopy:   o.handleFileCopy,
		recipe.ActionScreenshot: o.handleScreenshot,
		recipe.ActionOCRText:    o.handleOCRText,
	}
	return o
}

// Run executes the recipe and returns the aggregated outcome. It never lets
// an error or panic escape: the result always carries the completion status
// and, on failure, the failing step index and last error context.
//
// A FAILED step with continue_on_failure set lets the run proceed;
// otherwise the run aborts at that step and no later steps execute. There
// is no rollback of steps already applied.
func (o *Orchestrator) Run(ctx context.Context, r *recipe.Recipe, opts RunOptions) (result Result) {
	start := time.Now()
	result = Result{Success: true}

	defer func() {
		if rec := recover(); rec != nil {
			o.log.Error().Interface("panic", rec).Msg("recovered panic during recipe run")
			result.Success = false
			result.FailedStep = o.current
			result.LastError = fmt.Errorf("panic during step %d: %v", o.current, rec)
			result.Duration = time.Since(start)
			o.reporter.RecipeFailure(r.Name, o.current, result.Duration, result.LastError)
		}
	}()

	if errs := NewParserCheck(r); len(errs) > 0 {
		result.Success = false
		result.LastError = NewValidationError("recipe failed validation", errs)
		result.Duration = time.Since(start)
		return result
	}
	if opts.DryRun {
		result.Duration = time.Since(start)
		return result
	}

	o.vars = NewVars(r.Variables)
	o.current = 0
	o.reporter.RecipeStart(r.Name, len(r.Steps))

	for i, step := range r.Steps {
		o.current = i + 1
		o.reporter.StepStart(o.current, len(r.Steps), step)

		stepResult := o.executeStep(ctx, o.current, step)
		result.Steps = append(result.Steps, stepResult)

		if stepResult.State == StepStateSuccess {
			o.reporter.StepSuccess(o.current, step, stepResult.Attempts, stepResult.Duration)
			continue
		}

		o.reporter.StepFailure(o.current, step, stepResult.Err, stepResult.Artifact, stepResult.Duration)
		if !step.ContinueOnFailure {
			result.Success = false
			result.FailedStep = o.current
			result.LastError = stepResult.Err
			break
		}
	}

	result.Duration = time.Since(start)
	if result.Success {
		o.reporter.RecipeComplete(r.Name, len(result.Steps), result.Duration)
	} else {
		o.reporter.RecipeFailure(r.Name, result.FailedStep, result.Duration, result.LastError)
	}
	return result
}

// Vars exposes the run's variable mapping, primarily for persistence and
// tests. It is nil before the first run.
func (o *Orchestrator) Vars() *Vars {
	return o.vars
}

// Cleanup releases cached backend handles. Connection caches live for the
// orchestrator's lifetime and are invalidated only here.
func (o *Orchestrator) Cleanup() error {
	if o.ui == nil {
		return nil
	}
	return o.ui.Close()
}

// NewParserCheck validates a recipe structurally, sharing the parser's
// constraint set with callers that build recipes in memory.
func NewParserCheck(r *recipe.Recipe) recipe.ValidationErrors {
	return recipe.NewParser().Check(r)
}

// nopReporter discards all lifecycle events.
type nopReporter struct{}

func (nopReporter) RecipeStart(string, int)                                                    {}
func (nopReporter) StepStart(int, int, recipe.ActionStep)                                      {}
func (nopReporter) StepSuccess(int, recipe.ActionStep, int, time.Duration)                     {}
func (nopReporter) StepFailure(int, recipe.ActionStep, error, string, time.Duration)           {}
func (nopReporter) StepRetry(int, recipe.ActionStep, int, int, error)                          {}
func (nopReporter) RecipeComplete(string, int, time.Duration)                                  {}
func (nopReporter) RecipeFailure(string, int, time.Duration, error)                            {}
