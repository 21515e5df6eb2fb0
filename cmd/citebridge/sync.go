package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/citebridge/citebridge/internal/client"
)

var syncCmd = &cobra.Command{
	Use:   "sync [collection-key...]",
	Short: "Sync Zotero collections to NotebookLM",
	Long: `Sync uploads new or changed collection PDFs as notebook sources and,
unless disabled, pulls generated notes back onto the matching items.

Without arguments the collections enabled in the config are synced.`,
	Example: `  citebridge sync
  citebridge sync ABC123XY DEF456ZW
  citebridge sync --no-notes`,
	RunE: runSync,
}

var syncNoNotes bool

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncNoNotes, "no-notes", false,
		"Skip reverse sync of generated notes")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if syncNoNotes {
		cfg.Sync.SyncNotesBack = false
	}

	api, err := client.New(cfg, logger, progressPrinter())
	if err != nil {
		return err
	}
	defer api.Close()

	result := api.Engine.SyncAll(ctx, args)

	if jsonOutput {
		return printJSON(result)
	}

	printInfo("\n%s", result.Summary())
	for _, msg := range result.Errors {
		printWarning("  %s", msg)
	}
	if !result.Success() {
		return fmt.Errorf("sync finished with %d errors", len(result.Errors))
	}
	printSuccess("Sync complete")
	return nil
}

// progressPrinter streams engine status lines to the terminal, except in
// JSON mode where stdout must stay machine-readable.
func progressPrinter() func(string) {
	if jsonOutput {
		return nil
	}
	return func(msg string) { printInfo("%s", msg) }
}
