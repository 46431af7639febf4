package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/engine"
	fsprovider "github.com/SimplyAISolution/windows-desktop-automator/pkg/providers/fs"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/providers/native"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/providers/ocr"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/stores"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/telemetry"
)

func newRunCommand() *cobra.Command {
	var (
		dryRun      bool
		history     bool
		historyDB   string
		metrics     bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run <recipe.yaml>",
		Short: "Execute an automation recipe",
		Long: `Execute an automation recipe step by step.

Steps run strictly in declared order. A failing step is retried up to its
retry budget; when the budget is exhausted the run aborts unless the step
sets continue_on_failure. Steps that produce output store it in the
variable map under step_<index>_result for later steps to substitute.`,
		Example: `  # Execute a recipe
  automator run recipes/notepad.yaml

  # Validate and plan without touching the desktop
  automator run --dry-run recipes/notepad.yaml

  # Record the run in the local history database
  automator run --history recipes/notepad.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipe(cmd.Context(), args[0], runOptions{
				dryRun:      dryRun,
				history:     history,
				historyDB:   historyDB,
				metrics:     metrics,
				metricsAddr: metricsAddr,
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the recipe without executing any step")
	cmd.Flags().BoolVar(&history, "history", false, "record the run in the history database")
	cmd.Flags().StringVar(&historyDB, "history-db", "automator_history.db", "path to the history database")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "expose Prometheus metrics during the run")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "metrics endpoint listen address")

	return cmd
}

type runOptions struct {
	dryRun      bool
	history     bool
	historyDB   string
	metrics     bool
	metricsAddr string
}

func runRecipe(ctx context.Context, path string, opts runOptions) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}

	r, err := recipe.NewParser().ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to load recipe: %w", err)
	}
	for _, warning := range recipe.Warnings(r) {
		log.Warn().Msg(warning)
	}

	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = opts.metrics
	cfg.Metrics.ListenAddress = opts.metricsAddr

	m, err := telemetry.NewMetrics(cfg.Metrics)
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}
	if err := m.StartMetricsServer(log); err != nil {
		return err
	}

	events := telemetry.NewEventPublisher(cfg.Events)
	reporter := telemetry.NewReporter(log, m, events)

	var recorder *stores.Recorder
	if opts.history && !opts.dryRun {
		store, err := stores.NewSQLiteStore(stores.Config{Path: opts.historyDB})
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize history database: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate history database: %w", err)
		}

		recorder = stores.NewRecorder(store, log)
		events.Subscribe(recorder.EventSink(ctx))
		recorder.StartRun(ctx, reporter.RunID(), r.Name, path)
	}

	ui := native.NewUIBackend(log, artifactsDir)
	fsBackend, err := fsprovider.NewBackend(log, allowedDirs)
	if err != nil {
		return fmt.Errorf("failed to set up filesystem backend: %w", err)
	}

	orch := engine.New(engine.Config{
		UI:       ui,
		Process:  native.NewProcessBackend(log),
		FS:       fsBackend,
		OCR:      ocr.NewBackend(log, ui.CaptureRegion),
		Reporter: reporter,
		Logger:   log,
	})
	defer func() {
		if err := orch.Cleanup(); err != nil {
			log.Warn().Err(err).Msg("cleanup failed")
		}
	}()

	result := orch.Run(ctx, r, engine.RunOptions{DryRun: opts.dryRun})

	if recorder != nil {
		recorder.RecordResult(ctx, reporter.RunID(), result)
	}

	printSummary(r, result, opts.dryRun)
	if !result.Success {
		return fmt.Errorf("recipe failed at step %d: %w", result.FailedStep, result.LastError)
	}
	return nil
}

func printSummary(r *recipe.Recipe, result engine.Result, dryRun bool) {
	if dryRun {
		fmt.Printf("Recipe %q is valid (%d steps). No steps were executed.\n", r.Name, len(r.Steps))
		return
	}

	if result.Success {
		fmt.Printf("Recipe %q completed: %d/%d steps in %s.\n",
			r.Name, len(result.Steps), len(r.Steps), result.Duration.Round(time.Millisecond))
	} else {
		fmt.Printf("Recipe %q failed at step %d after %s: %v\n",
			r.Name, result.FailedStep, result.Duration.Round(time.Millisecond), result.LastError)
	}
	for _, step := range result.Steps {
		marker := "ok"
		if step.State != engine.StepStateSuccess {
			marker = "FAILED"
		}
		fmt.Printf("  [%s] %d. %s (%s, %d attempt(s), %s)\n",
			marker, step.Index, step.Name, step.Action, step.Attempts, step.Duration.Round(time.Millisecond))
	}
}

// buildLogger derives the run logger from the global flags.
func buildLogger() (zerolog.Logger, error) {
	cfg := telemetry.DefaultConfig().Logging
	if verbose {
		cfg.Level = "debug"
	}
	if jsonOutput {
		cfg.Format = "json"
	}
	return telemetry.NewLogger(cfg)
}
