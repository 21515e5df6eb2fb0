package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citebridge/citebridge/internal/client"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test connections to both services",
	Long:  `Check makes a minimal request to Zotero and NotebookLM and reports whether each is reachable with the current credentials.`,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	api, err := client.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer api.Close()

	results := api.Engine.TestConnections(context.Background())

	if jsonOutput {
		return printJSON(results)
	}

	failed := 0
	for _, service := range []string{"zotero", "notebooklm"} {
		if results[service] {
			printSuccess("%-12s OK", service)
		} else {
			printError("%-12s FAILED", service)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of 2 connections failed", failed)
	}
	return nil
}
