package zotero_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citebridge/citebridge/internal/clients/zotero"
	"github.com/citebridge/citebridge/internal/config"
	"github.com/citebridge/citebridge/internal/events"
	"github.com/citebridge/citebridge/internal/models"
)

func newClient(t *testing.T, serverURL, storageDir string) *zotero.Client {
	t.Helper()
	return zotero.New(&config.ZoteroConfig{
		APIKey:      "zk-test",
		LibraryID:   "12345",
		LibraryType: "user",
		StorageDir:  storageDir,
		BaseURL:     serverURL,
	}, &config.APIConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 0,
		UserAgent:  "citebridge-test",
	}, events.Discard())
}

func TestListCollections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/12345/collections", r.URL.Path)
		assert.Equal(t, "zk-test", r.Header.Get("Zotero-API-Key"))
		assert.Equal(t, "3", r.Header.Get("Zotero-API-Version"))

		// parentCollection is false for top-level, a key for children.
		fmt.Fprint(w, `[
			{"key":"AAA","data":{"key":"AAA","name":"ML Papers","parentCollection":false},"meta":{"numItems":2}},
			{"key":"BBB","data":{"key":"BBB","name":"Vision","parentCollection":"AAA"},"meta":{"numItems":7}}
		]`)
	}))
	defer server.Close()

	collections, err := newClient(t, server.URL, "").ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, collections, 2)

	assert.Equal(t, "ML Papers", collections[0].Name)
	assert.Empty(t, collections[0].ParentKey)
	assert.Equal(t, 2, collections[0].NumItems)
	assert.Equal(t, "AAA", collections[1].ParentKey)
}

func TestListCollectionItemsFiltersSubEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/12345/collections/AAA/items", r.URL.Path)
		fmt.Fprint(w, `[
			{"key":"IT1","data":{"key":"IT1","title":"Attention Is All You Need","itemType":"journalArticle",
				"creators":[{"creatorType":"author","firstName":"Ashish","lastName":"Vaswani"}],
				"date":"2017","DOI":"10.1/x","url":"https://arxiv.org/abs/1706.03762",
				"tags":[{"tag":"transformers"}],"collections":["AAA"]}},
			{"key":"AT1","data":{"key":"AT1","itemType":"attachment","contentType":"application/pdf"}},
			{"key":"NT1","data":{"key":"NT1","itemType":"note"}}
		]`)
	}))
	defer server.Close()

	items, err := newClient(t, server.URL, "").ListCollectionItems(context.Background(), "AAA")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "IT1", item.Key)
	assert.Equal(t, "Attention Is All You Need", item.Title)
	assert.Equal(t, "journalArticle", item.ItemType)
	require.Len(t, item.Creators, 1)
	assert.Equal(t, "Vaswani", item.Creators[0].LastName)
	assert.Equal(t, []string{"transformers"}, item.Tags)
}

func TestFetchPrimaryAttachment(t *testing.T) {
	t.Run("prefers local storage", func(t *testing.T) {
		storageDir := t.TempDir()
		attachDir := filepath.Join(storageDir, "ATT1")
		require.NoError(t, os.MkdirAll(attachDir, 0o755))
		localPDF := filepath.Join(attachDir, "paper.pdf")
		require.NoError(t, os.WriteFile(localPDF, []byte("local pdf"), 0o644))

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/users/12345/items/IT1/children", r.URL.Path)
			fmt.Fprint(w, `[{"key":"ATT1","data":{"key":"ATT1","itemType":"attachment",
				"contentType":"application/pdf","filename":"paper.pdf"}}]`)
		}))
		defer server.Close()

		path, err := newClient(t, server.URL, storageDir).
			FetchPrimaryAttachment(context.Background(), "IT1", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, localPDF, path)
	})

	t.Run("falls back to API download", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/12345/items/IT1/children":
				fmt.Fprint(w, `[{"key":"ATT1","data":{"key":"ATT1","itemType":"attachment",
					"contentType":"application/pdf","filename":"remote.pdf"}}]`)
			case "/users/12345/items/ATT1/file":
				_, _ = w.Write([]byte("remote pdf bytes"))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		downloadDir := t.TempDir()
		path, err := newClient(t, server.URL, t.TempDir()).
			FetchPrimaryAttachment(context.Background(), "IT1", downloadDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(downloadDir, "remote.pdf"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "remote pdf bytes", string(content))
	})

	t.Run("no attachment returns empty path without error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"key":"SNAP","data":{"key":"SNAP","itemType":"attachment","contentType":"text/html"}}]`)
		}))
		defer server.Close()

		path, err := newClient(t, server.URL, "").
			FetchPrimaryAttachment(context.Background(), "IT1", t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, path)
	})
}

func TestCreateNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/12345/items", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		body, _ := io.ReadAll(r.Body)
		var payload []map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Len(t, payload, 1)

		assert.Equal(t, "note", payload[0]["itemType"])
		assert.Equal(t, "IT1", payload[0]["parentItem"])
		note := payload[0]["note"].(string)
		assert.True(t, strings.HasPrefix(note, "<h2>NotebookLM: Summary</h2>"))
		assert.Contains(t, note, "generated content")

		fmt.Fprint(w, `{"successful":{"0":{"key":"NOTE1","data":{"key":"NOTE1"}}},"failed":{}}`)
	}))
	defer server.Close()

	key, err := newClient(t, server.URL, "").CreateNote(context.Background(),
		"IT1", "NotebookLM: Summary", "<p>generated content</p>", []string{"notebooklm-sync"})
	require.NoError(t, err)
	assert.Equal(t, "NOTE1", key)
}

func TestCreateNoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"successful":{},"failed":{"0":{"code":400,"message":"invalid parent"}}}`)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL, "").CreateNote(context.Background(),
		"BAD", "title", "content", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parent")
}

func TestFindOrCreateCollection(t *testing.T) {
	var created bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/12345/collections" && r.Method == http.MethodGet:
			fmt.Fprint(w, `[{"key":"EX1","data":{"key":"EX1","name":"NLM: Research","parentCollection":false},"meta":{"numItems":0}}]`)
		case r.URL.Path == "/users/12345/collections" && r.Method == http.MethodPost:
			created = true
			fmt.Fprint(w, `{"successful":{"0":{"key":"NEW1","data":{"key":"NEW1"}}},"failed":{}}`)
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL, "")

	key, err := client.FindOrCreateCollection(context.Background(), "NLM: Research")
	require.NoError(t, err)
	assert.Equal(t, "EX1", key)
	assert.False(t, created)

	key, err = client.FindOrCreateCollection(context.Background(), "NLM: Brand New")
	require.NoError(t, err)
	assert.Equal(t, "NEW1", key)
	assert.True(t, created)
}

func TestImportSourceAsItem(t *testing.T) {
	var itemPayload, notePayload []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload []map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))

		if payload[0]["itemType"] == "note" {
			notePayload = payload
			fmt.Fprint(w, `{"successful":{"0":{"key":"NOTE9"}},"failed":{}}`)
			return
		}
		itemPayload = payload
		fmt.Fprint(w, `{"successful":{"0":{"key":"ITEM9"}},"failed":{}}`)
	}))
	defer server.Close()

	key, err := newClient(t, server.URL, "").ImportSourceAsItem(context.Background(),
		models.ImportSourceParams{
			SourceType:    "youtube",
			Title:         "Intro to Transformers",
			URL:           "https://youtube.com/watch?v=x",
			FullText:      "transcript <with> markup & symbols",
			CollectionKey: "COLL9",
			Tags:          []string{"notebooklm-import"},
		})
	require.NoError(t, err)
	assert.Equal(t, "ITEM9", key)

	require.NotNil(t, itemPayload)
	assert.Equal(t, "videoRecording", itemPayload[0]["itemType"])
	assert.Equal(t, "YouTube", itemPayload[0]["videoRecordingFormat"])
	assert.Equal(t, []interface{}{"COLL9"}, itemPayload[0]["collections"])

	require.NotNil(t, notePayload)
	note := notePayload[0]["note"].(string)
	assert.Contains(t, note, "Full Text (from NotebookLM)")
	assert.Contains(t, note, "transcript &lt;with&gt; markup &amp; symbols")
}

func TestItemTypeForSource(t *testing.T) {
	assert.Equal(t, "webpage", zotero.ItemTypeForSource("web_page"))
	assert.Equal(t, "journalArticle", zotero.ItemTypeForSource("pdf"))
	assert.Equal(t, "artwork", zotero.ItemTypeForSource("image"))
	assert.Equal(t, "document", zotero.ItemTypeForSource("something_new"))
}

func TestTruncateFullText(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, zotero.TruncateFullText(short))

	long := strings.Repeat("a", zotero.MaxNoteChars+100)
	got := zotero.TruncateFullText(long)
	assert.Contains(t, got, fmt.Sprintf("[...truncated, %d chars total]", len(long)))
	assert.Less(t, len(got), len(long))
}

func TestTruncateFullTextCountsRunes(t *testing.T) {
	t.Run("multi-byte character at the ceiling survives intact", func(t *testing.T) {
		text := strings.Repeat("a", zotero.MaxNoteChars-1) + "€" + strings.Repeat("b", 10)

		got := zotero.TruncateFullText(text)
		assert.True(t, utf8.ValidString(got))

		marker := fmt.Sprintf("\n\n[...truncated, %d chars total]", zotero.MaxNoteChars+10)
		assert.True(t, strings.HasSuffix(got, "€"+marker))
		assert.NotContains(t, got, "b")
	})

	t.Run("at the character ceiling despite larger byte size", func(t *testing.T) {
		text := strings.Repeat("é", zotero.MaxNoteChars)
		assert.Equal(t, text, zotero.TruncateFullText(text))
	})
}
