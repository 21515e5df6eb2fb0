package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/citebridge/citebridge/internal/client"
)

var notebooksCmd = &cobra.Command{
	Use:   "notebooks",
	Short: "List NotebookLM notebooks",
	Long:  `Notebooks lists every notebook in the authenticated NotebookLM account with its ID and source count.`,
	RunE:  runNotebooks,
}

func init() {
	rootCmd.AddCommand(notebooksCmd)
}

func runNotebooks(cmd *cobra.Command, args []string) error {
	nlm, err := client.NewNotebookLM(cfg, logger)
	if err != nil {
		return err
	}

	notebooks, err := nlm.ListNotebooks(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(notebooks)
	}

	if len(notebooks) == 0 {
		printInfo("No notebooks found")
		return nil
	}
	for _, nb := range notebooks {
		printInfo("%-24s %s (%d sources)", nb.ID, nb.Title, nb.SourceCount)
	}
	return nil
}
