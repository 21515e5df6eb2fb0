// Package notebooklm implements the target-side capability contract
// against the NotebookLM web API using browser-session cookie auth.
package notebooklm

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/citebridge/citebridge/internal/config"
	"github.com/citebridge/citebridge/internal/events"
	"github.com/citebridge/citebridge/internal/models"
	"github.com/citebridge/citebridge/internal/transport"
)

// pollInterval is how often source processing status is re-checked
// while waiting for an upload to become ready.
const pollInterval = 2 * time.Second

// Client is a high-level client for one NotebookLM account.
type Client struct {
	transport *transport.Client
	logger    *events.Logger
}

// New creates a NotebookLM client from config. It loads auth state
// eagerly so callers learn about missing login before the first sync.
func New(cfg *config.NotebookLMConfig, api *config.APIConfig, logger *events.Logger) (*Client, error) {
	auth, err := LoadAuth(cfg.AuthFile)
	if err != nil {
		return nil, err
	}

	t := transport.New("notebooklm", cfg.BaseURL, api, logger)
	t.SetHeader("Cookie", auth.CookieHeader())

	return &Client{
		transport: t,
		logger:    logger.WithField("component", "notebooklm_client"),
	}, nil
}

// Wire envelopes for the NotebookLM API.

type notebookEnvelope struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	SourceCount int    `json:"source_count"`
	CreatedAt   string `json:"created_at"`
}

func (e notebookEnvelope) model() models.Notebook {
	return models.Notebook{
		ID:          e.ID,
		Title:       e.Title,
		SourceCount: e.SourceCount,
		CreatedAt:   e.CreatedAt,
	}
}

type sourceEnvelope struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

func (e sourceEnvelope) model() models.Source {
	title := e.Title
	if title == "" {
		title = "Untitled"
	}
	return models.Source{
		ID:         e.ID,
		Title:      title,
		SourceType: e.Kind,
		Status:     e.Status,
		Ready:      e.Status == "ready",
		URL:        e.URL,
	}
}

type fulltextEnvelope struct {
	SourceID  string `json:"source_id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	URL       string `json:"url"`
	Content   string `json:"content"`
	CharCount int    `json:"char_count"`
}

type noteEnvelope struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TestConnection verifies the session by listing notebooks.
func (c *Client) TestConnection(ctx context.Context) error {
	notebooks, err := c.ListNotebooks(ctx)
	if err != nil {
		return fmt.Errorf("notebooklm connection test: %w", err)
	}
	c.logger.WithField("notebooks", len(notebooks)).Debug("Connection OK")
	return nil
}

// ListNotebooks returns all notebooks in the account.
func (c *Client) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	var raw []notebookEnvelope
	if err := c.transport.GetJSON(ctx, "/notebooks", &raw); err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}

	notebooks := make([]models.Notebook, 0, len(raw))
	for _, env := range raw {
		notebooks = append(notebooks, env.model())
	}
	return notebooks, nil
}

// CreateNotebook creates a notebook with the given title.
func (c *Client) CreateNotebook(ctx context.Context, title string) (models.Notebook, error) {
	var created notebookEnvelope
	body := map[string]string{"title": title}
	if err := c.transport.PostJSON(ctx, "/notebooks", body, &created); err != nil {
		return models.Notebook{}, fmt.Errorf("create notebook %q: %w", title, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"notebook": created.ID,
		"title":    created.Title,
	}).Info("Created notebook")
	return created.model(), nil
}

// FindNotebookByTitle looks up a notebook by exact title. Returns
// ErrNotebookNotFound when no notebook matches.
func (c *Client) FindNotebookByTitle(ctx context.Context, title string) (models.Notebook, error) {
	notebooks, err := c.ListNotebooks(ctx)
	if err != nil {
		return models.Notebook{}, err
	}
	for _, nb := range notebooks {
		if nb.Title == title {
			return nb, nil
		}
	}
	return models.Notebook{}, fmt.Errorf("notebook %q: %w", title, models.ErrNotebookNotFound)
}

// FindOrCreateNotebook returns the notebook with the given title,
// creating it when absent.
func (c *Client) FindOrCreateNotebook(ctx context.Context, title string) (models.Notebook, error) {
	nb, err := c.FindNotebookByTitle(ctx, title)
	if err == nil {
		return nb, nil
	}
	if !errors.Is(err, models.ErrNotebookNotFound) {
		return models.Notebook{}, err
	}
	return c.CreateNotebook(ctx, title)
}

// ListSources returns all sources in a notebook.
func (c *Client) ListSources(ctx context.Context, notebookID string) ([]models.Source, error) {
	var raw []sourceEnvelope
	path := fmt.Sprintf("/notebooks/%s/sources", notebookID)
	if err := c.transport.GetJSON(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("list sources for %s: %w", notebookID, err)
	}

	sources := make([]models.Source, 0, len(raw))
	for _, env := range raw {
		sources = append(sources, env.model())
	}
	return sources, nil
}

// UploadFileSource uploads a local file as a source. With wait set it
// polls until processing finishes, failing with ErrSourceNotReady if the
// timeout elapses first.
func (c *Client) UploadFileSource(ctx context.Context, notebookID, filePath string, wait bool, timeout time.Duration) (models.Source, error) {
	var created sourceEnvelope
	path := fmt.Sprintf("/notebooks/%s/sources", notebookID)
	err := c.transport.UploadFile(ctx, path, "file", filePath, nil, &created)
	if err != nil {
		return models.Source{}, fmt.Errorf("upload %s: %w", filepath.Base(filePath), err)
	}

	src := created.model()
	if src.Title == "Untitled" {
		base := filepath.Base(filePath)
		src.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	c.logger.WithFields(map[string]interface{}{
		"source":   src.ID,
		"notebook": notebookID,
	}).Info("Uploaded source")

	if wait && !src.Ready {
		return c.waitForSource(ctx, notebookID, src, timeout)
	}
	return src, nil
}

// UploadURLSource adds a URL as a source.
func (c *Client) UploadURLSource(ctx context.Context, notebookID, url string, wait bool, timeout time.Duration) (models.Source, error) {
	var created sourceEnvelope
	path := fmt.Sprintf("/notebooks/%s/sources", notebookID)
	body := map[string]string{"url": url}
	if err := c.transport.PostJSON(ctx, path, body, &created); err != nil {
		return models.Source{}, fmt.Errorf("add url source: %w", err)
	}

	src := created.model()
	if src.Title == "Untitled" {
		src.Title = url
	}
	if wait && !src.Ready {
		return c.waitForSource(ctx, notebookID, src, timeout)
	}
	return src, nil
}

// waitForSource polls the source until it reports ready.
func (c *Client) waitForSource(ctx context.Context, notebookID string, src models.Source, timeout time.Duration) (models.Source, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return src, ctx.Err()
		case <-ticker.C:
		}

		var env sourceEnvelope
		path := fmt.Sprintf("/notebooks/%s/sources/%s", notebookID, src.ID)
		if err := c.transport.GetJSON(ctx, path, &env); err != nil {
			return src, fmt.Errorf("poll source %s: %w", src.ID, err)
		}

		polled := env.model()
		if polled.Title == "Untitled" {
			polled.Title = src.Title
		}
		if polled.Ready {
			return polled, nil
		}
		if polled.Status == "failed" {
			return polled, fmt.Errorf("source %s processing failed", src.ID)
		}
		if time.Now().After(deadline) {
			return polled, fmt.Errorf("source %s still %q after %s: %w",
				src.ID, polled.Status, timeout, models.ErrSourceNotReady)
		}
	}
}

// SourceFullText returns the extracted text content of a source.
func (c *Client) SourceFullText(ctx context.Context, notebookID, sourceID string) (models.SourceFullText, error) {
	var env fulltextEnvelope
	path := fmt.Sprintf("/notebooks/%s/sources/%s/fulltext", notebookID, sourceID)
	if err := c.transport.GetJSON(ctx, path, &env); err != nil {
		return models.SourceFullText{}, fmt.Errorf("fulltext for %s: %w", sourceID, err)
	}

	return models.SourceFullText{
		ID:         env.SourceID,
		Title:      env.Title,
		SourceType: env.Kind,
		URL:        env.URL,
		Content:    env.Content,
		CharCount:  env.CharCount,
	}, nil
}

// AllSourcesWithContent returns every source in a notebook with its full
// text. A fulltext failure for one source does not abort the rest; that
// source is returned with metadata only.
func (c *Client) AllSourcesWithContent(ctx context.Context, notebookID string) ([]models.SourceFullText, error) {
	sources, err := c.ListSources(ctx, notebookID)
	if err != nil {
		return nil, err
	}

	results := make([]models.SourceFullText, 0, len(sources))
	for _, src := range sources {
		full, err := c.SourceFullText(ctx, notebookID, src.ID)
		if err != nil {
			c.logger.WithError(err).WithField("source", src.ID).
				Error("Fulltext fetch failed, keeping metadata only")
			results = append(results, models.SourceFullText{
				ID:         src.ID,
				Title:      src.Title,
				SourceType: src.SourceType,
				URL:        src.URL,
			})
			continue
		}

		// The list endpoint sometimes carries fields the fulltext
		// endpoint omits.
		if full.URL == "" {
			full.URL = src.URL
		}
		if full.SourceType == "" {
			full.SourceType = src.SourceType
		}
		results = append(results, full)

		c.logger.WithFields(map[string]interface{}{
			"source": full.ID,
			"chars":  full.CharCount,
		}).Debug("Fetched source fulltext")
	}
	return results, nil
}

// ListNotes returns all notes in a notebook.
func (c *Client) ListNotes(ctx context.Context, notebookID string) ([]models.Note, error) {
	var raw []noteEnvelope
	path := fmt.Sprintf("/notebooks/%s/notes", notebookID)
	if err := c.transport.GetJSON(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("list notes for %s: %w", notebookID, err)
	}

	notes := make([]models.Note, 0, len(raw))
	for _, env := range raw {
		notes = append(notes, models.Note{
			ID:      env.ID,
			Title:   env.Title,
			Content: env.Content,
		})
	}
	return notes, nil
}
