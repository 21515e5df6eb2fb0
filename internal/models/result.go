package models

import (
	"fmt"
	"strings"
)

// SyncResult is the outcome of a single per-collection (or per-notebook)
// sync operation.
type SyncResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message,omitempty"`
	ItemsSynced  int      `json:"items_synced"`
	ItemsSkipped int      `json:"items_skipped"`
	Errors       []string `json:"errors,omitempty"`
}

// NewSyncResult returns a result that starts out successful.
func NewSyncResult() *SyncResult {
	return &SyncResult{Success: true}
}

// AddError appends a per-entity error without aborting the operation.
func (r *SyncResult) AddError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Fail appends an operation-scoped error and marks the result failed.
func (r *SyncResult) Fail(format string, args ...interface{}) {
	r.AddError(format, args...)
	r.Success = false
}

// FullSyncResult aggregates the outcome of a whole sync or import run.
type FullSyncResult struct {
	CollectionsProcessed int      `json:"collections_processed"`
	ItemsUploaded        int      `json:"items_uploaded"`
	ItemsSkipped         int      `json:"items_skipped"`
	NotesSyncedBack      int      `json:"notes_synced_back"`
	Errors               []string `json:"errors,omitempty"`
	Log                  []string `json:"log,omitempty"`
}

// Success reports whether the run completed with zero accumulated errors.
// Skipped items are not errors.
func (r *FullSyncResult) Success() bool {
	return len(r.Errors) == 0
}

// AddError appends an error to the aggregate list.
func (r *FullSyncResult) AddError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddLog appends a human-readable line to the run log.
func (r *FullSyncResult) AddLog(format string, args ...interface{}) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

// Summary returns a multi-line human-readable report.
func (r *FullSyncResult) Summary() string {
	lines := []string{
		fmt.Sprintf("Collections processed: %d", r.CollectionsProcessed),
		fmt.Sprintf("Items uploaded to NotebookLM: %d", r.ItemsUploaded),
		fmt.Sprintf("Items skipped (already synced): %d", r.ItemsSkipped),
		fmt.Sprintf("Notes synced back to Zotero: %d", r.NotesSyncedBack),
	}
	if len(r.Errors) > 0 {
		lines = append(lines, fmt.Sprintf("Errors: %d", len(r.Errors)))
	}
	return strings.Join(lines, "\n")
}
