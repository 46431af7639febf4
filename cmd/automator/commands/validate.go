package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

func newValidateCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate <recipe.yaml>",
		Short: "Validate a recipe without executing it",
		Long: `Validate a recipe file.

Parsing and structural checks run exactly as they would before a run:
unknown action kinds, missing required fields, bad selector combinations
and malformed variable references are all reported. Nothing is executed.`,
		Example: `  # Validate a single recipe
  automator validate recipes/notepad.yaml

  # Re-validate on every save while editing
  automator validate --watch recipes/notepad.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger()
			if err != nil {
				return err
			}
			if watch {
				return watchRecipe(cmd.Context(), log, args[0])
			}
			return validateRecipe(args[0])
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-validate whenever the file changes")

	return cmd
}

func validateRecipe(path string) error {
	r, err := recipe.NewParser().ParseFile(path)
	if err != nil {
		return fmt.Errorf("recipe is invalid: %w", err)
	}
	for _, warning := range recipe.Warnings(r) {
		fmt.Printf("warning: %s\n", warning)
	}
	fmt.Printf("Recipe %q is valid (%d steps).\n", r.Name, len(r.Steps))
	return nil
}

// watchRecipe re-validates path every time it changes on disk. Editors
// commonly replace the file on save, so the parent directory is watched
// and events are filtered by name.
func watchRecipe(ctx context.Context, log zerolog.Logger, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve recipe path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	report := func() {
		if err := validateRecipe(abs); err != nil {
			fmt.Printf("invalid: %v\n", err)
		}
	}
	report()
	log.Info().Str("path", abs).Msg("watching for changes")

	// Saves often arrive as a burst of write/create events. Debounce so a
	// single save produces a single validation pass.
	var pending *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(100*time.Millisecond, report)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}
