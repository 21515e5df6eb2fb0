// Package client wires configuration, the two service clients, the state
// store, and the reconciliation engine into one high-level API consumed
// by the CLI.
package client

import (
	"fmt"

	"github.com/citebridge/citebridge/internal/clients/notebooklm"
	"github.com/citebridge/citebridge/internal/clients/zotero"
	"github.com/citebridge/citebridge/internal/config"
	"github.com/citebridge/citebridge/internal/events"
	"github.com/citebridge/citebridge/internal/models"
	"github.com/citebridge/citebridge/internal/services/sync"
	"github.com/citebridge/citebridge/internal/state"
)

// Client provides the high-level API for CiteBridge operations.
type Client struct {
	Engine     *sync.Engine
	Zotero     *zotero.Client
	NotebookLM *notebooklm.Client
	Store      state.Store

	config *config.Config
	logger *events.Logger
}

// New creates a fully wired client. progress may be nil.
func New(cfg *config.Config, logger *events.Logger, progress sync.ProgressFunc) (*Client, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare data directories: %w", err)
	}

	zot, err := NewZotero(cfg, logger)
	if err != nil {
		return nil, err
	}
	nlm, err := NewNotebookLM(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := state.NewSQLiteStore(cfg.Storage.StateDB, logger)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	return &Client{
		Engine:     sync.NewEngine(cfg, zot, nlm, store, logger, progress),
		Zotero:     zot,
		NotebookLM: nlm,
		Store:      store,
		config:     cfg,
		logger:     logger,
	}, nil
}

// NewZotero creates just the Zotero client, for commands that only read
// the library.
func NewZotero(cfg *config.Config, logger *events.Logger) (*zotero.Client, error) {
	if !cfg.Zotero.Configured() {
		return nil, fmt.Errorf("zotero api_key and library_id are required: %w", models.ErrNotConfigured)
	}
	return zotero.New(&cfg.Zotero, &cfg.API, logger), nil
}

// NewNotebookLM creates just the NotebookLM client, for commands that
// only touch notebooks.
func NewNotebookLM(cfg *config.Config, logger *events.Logger) (*notebooklm.Client, error) {
	return notebooklm.New(&cfg.NotebookLM, &cfg.API, logger)
}

// OpenStore opens only the state store, for status-style commands that
// never talk to either service.
func OpenStore(cfg *config.Config, logger *events.Logger) (state.Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare data directories: %w", err)
	}
	return state.NewSQLiteStore(cfg.Storage.StateDB, logger)
}

// Close releases the state store.
func (c *Client) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
