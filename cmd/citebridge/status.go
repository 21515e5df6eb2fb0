package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/citebridge/citebridge/internal/client"
	"github.com/citebridge/citebridge/internal/clients/notebooklm"
	"github.com/citebridge/citebridge/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state and recent activity",
	Long:  `Status reports configuration health, aggregate sync statistics, and the most recent sync log entries. It never contacts either service.`,
	RunE:  runStatus,
}

var statusLogLimit int

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusLogLimit, "limit", 10,
		"Number of recent log entries to show")
}

type statusReport struct {
	ZoteroConfigured string                `json:"zotero_configured"`
	NotebookLMAuth   bool                  `json:"notebooklm_authenticated"`
	Stats            *models.SyncStats     `json:"stats"`
	RecentLogs       []models.SyncLogEntry `json:"recent_logs,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := client.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	logs, err := store.RecentLogs(statusLogLimit)
	if err != nil {
		return err
	}

	report := statusReport{
		ZoteroConfigured: "no",
		NotebookLMAuth:   notebooklm.IsAuthenticated(cfg.NotebookLM.AuthFile),
		Stats:            stats,
		RecentLogs:       logs,
	}
	if cfg.Zotero.Configured() {
		report.ZoteroConfigured = "library " + cfg.Zotero.LibraryID
	}

	if jsonOutput {
		return printJSON(report)
	}

	printInfo("Zotero:      %s", report.ZoteroConfigured)
	if report.NotebookLMAuth {
		printInfo("NotebookLM:  authenticated")
	} else {
		printWarning("NotebookLM:  not authenticated (run 'citebridge login')")
	}
	printInfo("")
	printInfo("Collections synced:  %d", stats.CollectionsSynced)
	printInfo("Items synced:        %d", stats.ItemsSynced)
	printInfo("Notes synced back:   %d", stats.NotesSyncedBack)
	if stats.LastSync != "" {
		printInfo("Last sync:           %s", stats.LastSync)
	}

	if len(logs) > 0 {
		printInfo("\nRecent activity:")
		for _, entry := range logs {
			details := entry.Details
			if i := strings.IndexByte(details, '\n'); i >= 0 {
				details = details[:i] + " ..."
			}
			printInfo("  %s  %-14s %-8s %s", entry.Timestamp, entry.Action, entry.Status, details)
		}
	}
	return nil
}
