// Package sync implements the reconciliation engine that moves content
// between the Zotero library and NotebookLM. The engine talks to both
// services only through the capability interfaces below, so tests drive
// it with in-memory fakes.
package sync

import (
	"context"
	"time"

	"github.com/citebridge/citebridge/internal/models"
)

// SourceClient is the reference-manager side of the sync. Implemented by
// clients/zotero.
type SourceClient interface {
	TestConnection(ctx context.Context) error

	ListCollections(ctx context.Context) ([]models.Collection, error)
	ListCollectionItems(ctx context.Context, collectionKey string) ([]models.Item, error)

	// FetchPrimaryAttachment returns a local path to the item's PDF, or
	// "" with a nil error when the item has none.
	FetchPrimaryAttachment(ctx context.Context, itemKey, downloadDir string) (string, error)

	CreateNote(ctx context.Context, parentItemKey, title, html string, tags []string) (string, error)
	FindOrCreateCollection(ctx context.Context, name string) (string, error)
	ImportSourceAsItem(ctx context.Context, params models.ImportSourceParams) (string, error)
}

// TargetClient is the notebook-service side of the sync. Implemented by
// clients/notebooklm.
type TargetClient interface {
	TestConnection(ctx context.Context) error

	ListNotebooks(ctx context.Context) ([]models.Notebook, error)
	FindOrCreateNotebook(ctx context.Context, title string) (models.Notebook, error)

	ListSources(ctx context.Context, notebookID string) ([]models.Source, error)
	UploadFileSource(ctx context.Context, notebookID, filePath string, wait bool, timeout time.Duration) (models.Source, error)
	UploadURLSource(ctx context.Context, notebookID, url string, wait bool, timeout time.Duration) (models.Source, error)

	// AllSourcesWithContent returns every source with its extracted text.
	// A per-source fulltext failure yields a metadata-only entry, never
	// an error for the whole notebook.
	AllSourcesWithContent(ctx context.Context, notebookID string) ([]models.SourceFullText, error)

	ListNotes(ctx context.Context, notebookID string) ([]models.Note, error)
}

// ProgressFunc receives human-readable status lines while an operation
// runs. A nil ProgressFunc is a no-op.
type ProgressFunc func(msg string)
