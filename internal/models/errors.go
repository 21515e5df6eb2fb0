package models

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNotConfigured      = errors.New("service not configured")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrNotebookNotFound   = errors.New("notebook not found")
	ErrSourceNotReady     = errors.New("source not ready")
)

// APIError represents an error response from either remote service.
type APIError struct {
	Service    string `json:"service"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Service, e.StatusCode, e.Message)
}

// SyncError wraps a failure scoped to a single entity during a sync run.
type SyncError struct {
	Op    string // "upload", "note", "import"
	Key   string // collection or notebook key
	Title string // entity title, for human-readable output
	Err   error
}

func (e *SyncError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Title, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Key, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
