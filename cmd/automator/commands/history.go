package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var historyDB string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with "automator run --history".

Runs, their per-step outcomes and the event log are kept in a local
SQLite database.`,
	}

	cmd.PersistentFlags().StringVar(&historyDB, "history-db", "automator_history.db", "path to the history database")

	cmd.AddCommand(newHistoryListCommand(&historyDB))
	cmd.AddCommand(newHistoryShowCommand(&historyDB))
	cmd.AddCommand(newHistoryDeleteCommand(&historyDB))

	return cmd
}

func newHistoryListCommand(historyDB *string) *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Example: `  automator history list
  automator history list --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(cmd.Context(), *historyDB, func(ctx context.Context, store *stores.SQLiteStore) error {
				runs, err := store.ListRuns(ctx, limit, offset)
				if err != nil {
					return err
				}
				if jsonOutput {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(runs)
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tRECIPE\tSTATUS\tSTARTED\tFAILED STEP")
				for _, run := range runs {
					failed := "-"
					if run.FailedStep > 0 {
						failed = fmt.Sprintf("%d", run.FailedStep)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						run.ID, run.RecipeName, run.Status, run.StartedAt.Format(time.RFC3339), failed)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	return cmd
}

func newHistoryShowCommand(historyDB *string) *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:     "show <run-id>",
		Short:   "Show one run with its per-step outcomes",
		Example: `  automator history show 6a1f0c2e-...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(cmd.Context(), *historyDB, func(ctx context.Context, store *stores.SQLiteStore) error {
				run, err := store.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				steps, err := store.ListStepRecords(ctx, run.ID)
				if err != nil {
					return err
				}

				if jsonOutput {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(struct {
						Run   *stores.Run          `json:"run"`
						Steps []*stores.StepRecord `json:"steps"`
					}{run, steps})
				}

				fmt.Printf("Run %s\n", run.ID)
				fmt.Printf("  Recipe:  %s (%s)\n", run.RecipeName, run.RecipePath)
				fmt.Printf("  Status:  %s\n", run.Status)
				fmt.Printf("  Started: %s\n", run.StartedAt.Format(time.RFC3339))
				if run.CompletedAt != nil {
					fmt.Printf("  Ended:   %s\n", run.CompletedAt.Format(time.RFC3339))
				}
				if run.Error != nil {
					fmt.Printf("  Error:   %s\n", *run.Error)
				}
				fmt.Println()

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "#\tSTEP\tACTION\tSTATE\tATTEMPTS\tDURATION")
				for _, s := range steps {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%dms\n",
						s.StepIndex, s.StepName, s.Action, s.State, s.Attempts, s.DurationMS)
				}
				if err := w.Flush(); err != nil {
					return err
				}

				if events {
					recs, err := store.ListEvents(ctx, run.ID, 0, 0)
					if err != nil {
						return err
					}
					fmt.Println()
					for _, e := range recs {
						fmt.Printf("%s %-8s %-14s %s\n",
							e.Timestamp.Format(time.RFC3339), e.Level, e.Type, e.Message)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&events, "events", false, "include the run's event log")

	return cmd
}

func newHistoryDeleteCommand(historyDB *string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <run-id>",
		Short:   "Delete a recorded run and its steps and events",
		Example: `  automator history delete 6a1f0c2e-...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(cmd.Context(), *historyDB, func(ctx context.Context, store *stores.SQLiteStore) error {
				if err := store.DeleteRun(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("Deleted run %s.\n", args[0])
				return nil
			})
		},
	}
}

func withHistoryStore(ctx context.Context, path string, fn func(context.Context, *stores.SQLiteStore) error) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("history database %s not found, record a run with --history first", path)
	}
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return fn(ctx, store)
}
