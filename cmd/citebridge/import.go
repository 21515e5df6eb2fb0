package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/citebridge/citebridge/internal/client"
	"github.com/citebridge/citebridge/internal/services/sync"
)

var importCmd = &cobra.Command{
	Use:   "import <notebook-id>...",
	Short: "Import NotebookLM sources into Zotero",
	Long: `Import materializes every source of a notebook as a Zotero item inside
an "NLM: <notebook>" collection. Extracted full text is attached as a
child note unless --no-fulltext is given.`,
	Example: `  citebridge import nb-4f2a
  citebridge import nb-4f2a nb-9c1d --no-fulltext
  citebridge import nb-4f2a --collection "Thesis Sources"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var (
	importNoFullText bool
	importCollection string
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importNoFullText, "no-fulltext", false,
		"Skip extracted full text (metadata only, much faster)")
	importCmd.Flags().StringVar(&importCollection, "collection", "",
		"Zotero collection name override (single notebook only)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if importCollection != "" && len(args) > 1 {
		return fmt.Errorf("--collection applies to a single notebook, got %d", len(args))
	}

	api, err := client.New(cfg, logger, progressPrinter())
	if err != nil {
		return err
	}
	defer api.Close()

	if importCollection != "" {
		result := api.Engine.ImportNotebookSources(ctx, args[0], "", sync.ImportOptions{
			CollectionName:  importCollection,
			IncludeFullText: !importNoFullText,
		})
		if jsonOutput {
			return printJSON(result)
		}
		printInfo("%s", result.Message)
		for _, msg := range result.Errors {
			printWarning("  %s", msg)
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("import finished with %d errors", len(result.Errors))
		}
		printSuccess("Import complete")
		return nil
	}

	result := api.Engine.ImportAllNotebooks(ctx, args, !importNoFullText)

	if jsonOutput {
		return printJSON(result)
	}
	printInfo("\n%s", result.Summary())
	for _, msg := range result.Errors {
		printWarning("  %s", msg)
	}
	if !result.Success() {
		return fmt.Errorf("import finished with %d errors", len(result.Errors))
	}
	printSuccess("Import complete")
	return nil
}
