// Package zotero implements the source-side capability contract against
// the Zotero Web API (v3), with local-storage-first attachment access.
package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/citebridge/citebridge/internal/config"
	"github.com/citebridge/citebridge/internal/events"
	"github.com/citebridge/citebridge/internal/models"
	"github.com/citebridge/citebridge/internal/transport"
)

// Client is a high-level client for one Zotero library.
type Client struct {
	transport  *transport.Client
	libraryID  string
	storageDir string
	logger     *events.Logger
}

// New creates a Zotero client from config.
func New(cfg *config.ZoteroConfig, api *config.APIConfig, logger *events.Logger) *Client {
	prefix := "/users/" + cfg.LibraryID
	if cfg.LibraryType == "group" {
		prefix = "/groups/" + cfg.LibraryID
	}

	t := transport.New("zotero", cfg.BaseURL+prefix, api, logger)
	t.SetHeader("Zotero-API-Version", "3")
	if cfg.APIKey != "" {
		t.SetHeader("Zotero-API-Key", cfg.APIKey)
	}

	storageDir := cfg.StorageDir
	if storageDir == "" {
		storageDir = DetectStorageDir()
	}

	return &Client{
		transport:  t,
		libraryID:  cfg.LibraryID,
		storageDir: storageDir,
		logger:     logger.WithField("component", "zotero_client"),
	}
}

// parentKey handles the API quirk that parentCollection is either a
// collection key or the JSON literal false.
type parentKey string

func (p *parentKey) UnmarshalJSON(data []byte) error {
	if string(data) == "false" || string(data) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = parentKey(s)
	return nil
}

// Wire envelopes for the Zotero API.

type collectionEnvelope struct {
	Key  string `json:"key"`
	Data struct {
		Key              string    `json:"key"`
		Name             string    `json:"name"`
		ParentCollection parentKey `json:"parentCollection"`
	} `json:"data"`
	Meta struct {
		NumItems int `json:"numItems"`
	} `json:"meta"`
}

type itemEnvelope struct {
	Key  string `json:"key"`
	Data struct {
		Key      string `json:"key"`
		Title    string `json:"title"`
		ItemType string `json:"itemType"`
		Creators []struct {
			CreatorType string `json:"creatorType"`
			FirstName   string `json:"firstName"`
			LastName    string `json:"lastName"`
			Name        string `json:"name"`
		} `json:"creators"`
		Date        string `json:"date"`
		DOI         string `json:"DOI"`
		URL         string `json:"url"`
		Abstract    string `json:"abstractNote"`
		ContentType string `json:"contentType"`
		Filename    string `json:"filename"`
		Tags        []struct {
			Tag string `json:"tag"`
		} `json:"tags"`
		Collections []string `json:"collections"`
	} `json:"data"`
}

// writeResponse is the envelope returned by Zotero write endpoints.
type writeResponse struct {
	Successful map[string]struct {
		Key  string `json:"key"`
		Data struct {
			Key string `json:"key"`
		} `json:"data"`
	} `json:"successful"`
	Failed map[string]struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"failed"`
}

// firstKey returns the key of the first created object, or "".
func (r *writeResponse) firstKey() string {
	for _, created := range r.Successful {
		if created.Key != "" {
			return created.Key
		}
		if created.Data.Key != "" {
			return created.Data.Key
		}
	}
	return ""
}

// TestConnection verifies API access with a minimal request.
func (c *Client) TestConnection(ctx context.Context) error {
	var out []collectionEnvelope
	if err := c.transport.GetJSON(ctx, "/collections?limit=1", &out); err != nil {
		return fmt.Errorf("zotero connection test: %w", err)
	}
	return nil
}

// ListCollections returns all collections in the library.
func (c *Client) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var raw []collectionEnvelope
	if err := c.transport.GetJSON(ctx, "/collections", &raw); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	collections := make([]models.Collection, 0, len(raw))
	for _, env := range raw {
		name := env.Data.Name
		if name == "" {
			name = "Untitled"
		}
		collections = append(collections, models.Collection{
			Key:       env.Data.Key,
			Name:      name,
			ParentKey: string(env.Data.ParentCollection),
			NumItems:  env.Meta.NumItems,
		})
	}

	c.logger.WithField("count", len(collections)).Debug("Listed collections")
	return collections, nil
}

// ListCollectionItems returns the top-level items of a collection.
// Attachment and note sub-entities are excluded.
func (c *Client) ListCollectionItems(ctx context.Context, collectionKey string) ([]models.Item, error) {
	var raw []itemEnvelope
	path := fmt.Sprintf("/collections/%s/items", collectionKey)
	if err := c.transport.GetJSON(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("list items for %s: %w", collectionKey, err)
	}

	var items []models.Item
	for _, env := range raw {
		if env.Data.ItemType == "attachment" || env.Data.ItemType == "note" {
			continue
		}

		item := models.Item{
			Key:         env.Data.Key,
			Title:       env.Data.Title,
			ItemType:    env.Data.ItemType,
			Date:        env.Data.Date,
			DOI:         env.Data.DOI,
			URL:         env.Data.URL,
			Abstract:    env.Data.Abstract,
			Collections: env.Data.Collections,
		}
		if item.Title == "" {
			item.Title = "Untitled"
		}
		for _, cr := range env.Data.Creators {
			item.Creators = append(item.Creators, models.Creator{
				CreatorType: cr.CreatorType,
				FirstName:   cr.FirstName,
				LastName:    cr.LastName,
				Name:        cr.Name,
			})
		}
		for _, tag := range env.Data.Tags {
			item.Tags = append(item.Tags, tag.Tag)
		}
		items = append(items, item)
	}

	c.logger.WithFields(map[string]interface{}{
		"collection": collectionKey,
		"count":      len(items),
	}).Debug("Listed collection items")
	return items, nil
}

// FetchPrimaryAttachment locates the item's PDF attachment and returns a
// local path to it: the Zotero storage directory when available, an API
// download into downloadDir otherwise. Returns "" (no error) when the
// item has no PDF attachment.
func (c *Client) FetchPrimaryAttachment(ctx context.Context, itemKey, downloadDir string) (string, error) {
	var children []itemEnvelope
	path := fmt.Sprintf("/items/%s/children", itemKey)
	if err := c.transport.GetJSON(ctx, path, &children); err != nil {
		return "", fmt.Errorf("list children of %s: %w", itemKey, err)
	}

	var attachmentKey, filename string
	for _, child := range children {
		if child.Data.ContentType == "application/pdf" {
			attachmentKey = child.Data.Key
			filename = child.Data.Filename
			break
		}
	}
	if attachmentKey == "" {
		c.logger.WithField("item", itemKey).Debug("No PDF attachment")
		return "", nil
	}
	if filename == "" {
		filename = attachmentKey + ".pdf"
	}

	if local := c.findLocalAttachment(attachmentKey); local != "" {
		return local, nil
	}

	dest := filepath.Join(downloadDir, filename)
	if err := c.transport.Download(ctx, fmt.Sprintf("/items/%s/file", attachmentKey), dest); err != nil {
		return "", fmt.Errorf("download attachment %s: %w", attachmentKey, err)
	}

	c.logger.WithField("path", dest).Debug("Downloaded attachment")
	return dest, nil
}

// CreateNote creates a note attached to an item and returns its key.
func (c *Client) CreateNote(ctx context.Context, parentItemKey, title, html string, tags []string) (string, error) {
	if len(tags) == 0 {
		tags = []string{"notebooklm-sync"}
	}

	payload := []map[string]interface{}{{
		"itemType":   "note",
		"parentItem": parentItemKey,
		"note":       fmt.Sprintf("<h2>%s</h2>\n%s", EscapeHTML(title), html),
		"tags":       tagList(tags),
	}}

	var resp writeResponse
	if err := c.transport.PostJSON(ctx, "/items", payload, &resp); err != nil {
		return "", fmt.Errorf("create note on %s: %w", parentItemKey, err)
	}

	key := resp.firstKey()
	if key == "" {
		return "", fmt.Errorf("create note on %s: %w", parentItemKey, writeFailure(&resp))
	}

	c.logger.WithFields(map[string]interface{}{
		"note": key,
		"item": parentItemKey,
	}).Debug("Created note")
	return key, nil
}

// CreateCollection creates a collection and returns its key.
func (c *Client) CreateCollection(ctx context.Context, name, parent string) (string, error) {
	entry := map[string]interface{}{"name": name}
	if parent != "" {
		entry["parentCollection"] = parent
	}

	var resp writeResponse
	if err := c.transport.PostJSON(ctx, "/collections", []map[string]interface{}{entry}, &resp); err != nil {
		return "", fmt.Errorf("create collection %q: %w", name, err)
	}

	key := resp.firstKey()
	if key == "" {
		return "", fmt.Errorf("create collection %q: %w", name, writeFailure(&resp))
	}
	return key, nil
}

// FindOrCreateCollection looks up a collection by exact name, creating it
// when absent.
func (c *Client) FindOrCreateCollection(ctx context.Context, name string) (string, error) {
	collections, err := c.ListCollections(ctx)
	if err != nil {
		return "", err
	}
	for _, coll := range collections {
		if coll.Name == name {
			return coll.Key, nil
		}
	}
	return c.CreateCollection(ctx, name, "")
}

func writeFailure(resp *writeResponse) error {
	for _, failure := range resp.Failed {
		return fmt.Errorf("write rejected (%d): %s", failure.Code, failure.Message)
	}
	return fmt.Errorf("write returned no created objects")
}

func tagList(tags []string) []map[string]string {
	out := make([]map[string]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, map[string]string{"tag": t})
	}
	return out
}
