// Package state persists what has already been mirrored between Zotero
// and NotebookLM. The reconciliation engine is the only writer.
package state

import (
	"errors"

	"github.com/citebridge/citebridge/internal/models"
)

// Errors
var (
	ErrNotFound = errors.New("record not found")
)

// Store manages sync state persistence. Every operation is transactional
// per call and idempotent under retry.
type Store interface {
	// UpsertCollection inserts or merges a collection mapping. An empty
	// notebookID never overwrites a stored non-empty one.
	UpsertCollection(zoteroKey, name, notebookID string) error

	// Collection returns the mapping for a Zotero collection key, or
	// ErrNotFound.
	Collection(zoteroKey string) (*models.SyncedCollection, error)

	// NotebookIDFor returns the mapped notebook ID, or "" with
	// ErrNotFound when the collection has never been synced.
	NotebookIDFor(zoteroKey string) (string, error)

	// IsItemSynced reports whether an item is already mirrored for this
	// collection. With a non-empty fileHash, a stored differing hash
	// means "changed, re-sync" and yields false.
	IsItemSynced(zoteroKey, collectionKey, fileHash string) (bool, error)

	// UpsertItem inserts or merges an item record. Empty fileHash or
	// sourceID values never erase stored non-empty ones.
	UpsertItem(zoteroKey, collectionKey, title, fileHash, sourceID string) error

	// ItemsForCollection lists item records for a collection.
	ItemsForCollection(collectionKey string) ([]models.SyncedItem, error)

	// IsNoteSynced reports whether a generated note was already mirrored
	// (or recorded as unmatched).
	IsNoteSynced(noteID string) (bool, error)

	// RecordNoteSync marks a generated note as handled. itemKey and
	// noteKey are empty when no matching item was found.
	RecordNoteSync(notebookID, noteID, itemKey, noteKey string) error

	// AppendLog adds an entry to the sync audit trail.
	AppendLog(action, status, details string) error

	// RecentLogs returns up to limit entries, newest first.
	RecentLogs(limit int) ([]models.SyncLogEntry, error)

	// Stats summarizes the stored sync state.
	Stats() (*models.SyncStats, error)

	// Close releases resources.
	Close() error
}
