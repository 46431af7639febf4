package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/providers"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/providers/native"
	"github.com/SimplyAISolution/windows-desktop-automator/pkg/providers/ocr"
)

func newListProvidersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-providers",
		Short: "List the available automation backends",
		Long: `List the automation backends compiled into this binary and whether
each one is usable on this machine. OCR, for example, requires the
tesseract binary to be present on PATH.`,
		Example: `  automator list-providers
  automator list-providers --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger()
			if err != nil {
				return err
			}

			ui := native.NewUIBackend(log, artifactsDir)

			registry := providers.NewRegistry()
			register := func(p providers.Provider) error {
				return registry.Register(p)
			}
			if err := register(providers.Provider{
				Name:        "native-ui",
				Kind:        providers.KindUI,
				Description: "window and element automation via the native desktop",
				Available:   true,
			}); err != nil {
				return err
			}
			if err := register(providers.Provider{
				Name:        "native-process",
				Kind:        providers.KindProcess,
				Description: "application launch and liveness checks",
				Available:   true,
			}); err != nil {
				return err
			}
			if err := register(providers.Provider{
				Name:        "fs",
				Kind:        providers.KindFilesystem,
				Description: "allow-listed file read, write and copy",
				Available:   true,
			}); err != nil {
				return err
			}
			if err := register(providers.Provider{
				Name:        "ocr",
				Kind:        providers.KindOCR,
				Description: "text extraction from screenshots via tesseract",
				Available:   ocr.NewBackend(log, ui.CaptureRegion).Available(),
			}); err != nil {
				return err
			}

			list := registry.List()
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tAVAILABLE\tDESCRIPTION")
			for _, p := range list {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", p.Name, p.Kind, p.Available, p.Description)
			}
			return w.Flush()
		},
	}

	return cmd
}
