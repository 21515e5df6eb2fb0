package transport_test

import (
	"context"
	"encoding/json"
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

	"github.com/citebridge/citebridge/internal/config"
	"github.com/citebridge/citebridge/internal/events"
	"github.com/citebridge/citebridge/internal/models"
	"github.com/citebridge/citebridge/internal/transport"
)

func newClient(t *testing.T, baseURL string) *transport.Client {
	t.Helper()
	return transport.New("test", baseURL, &config.APIConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		UserAgent:  "citebridge-test",
	}, events.Discard())
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "citebridge-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_ = json.NewEncoder(w).Encode(map[string]string{"hello": "world"})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	client.SetHeader("X-Api-Key", "secret")

	var out map[string]string
	require.NoError(t, client.GetJSON(context.Background(), "/ping", &out))
	assert.Equal(t, "world", out["hello"])
}

func TestPostJSONSendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"ML Papers"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	err := client.PostJSON(context.Background(), "/collections",
		map[string]string{"name": "ML Papers"}, nil)
	require.NoError(t, err)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer server.Close()

	var out map[string]bool
	require.NoError(t, newClient(t, server.URL).GetJSON(context.Background(), "/flaky", &out))
	assert.Equal(t, 3, calls)
	assert.True(t, out["ok"])
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "no such thing", http.StatusNotFound)
	}))
	defer server.Close()

	err := newClient(t, server.URL).GetJSON(context.Background(), "/missing", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var apiErr *models.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "test", apiErr.Service)
}

func TestErrorBodyTrimmedOnRuneBoundary(t *testing.T) {
	// 199 ASCII bytes followed by a 2-byte rune straddling the 200-byte cut.
	body := strings.Repeat("a", 199) + "é" + strings.Repeat("b", 50)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, body, http.StatusBadRequest)
	}))
	defer server.Close()

	err := newClient(t, server.URL).GetJSON(context.Background(), "/bad", nil)
	require.Error(t, err)

	var apiErr *models.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, utf8.ValidString(apiErr.Message))
	assert.Equal(t, strings.Repeat("a", 199), apiErr.Message)
}

func TestDownload(t *testing.T) {
	content := []byte("%PDF-1.4 fake pdf bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, newClient(t, server.URL).Download(context.Background(), "/file", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestUploadFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "upload.pdf")
	require.NoError(t, os.WriteFile(src, []byte("pdf content"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "nb-1", r.FormValue("notebook_id"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "upload.pdf", header.Filename)

		data, _ := io.ReadAll(f)
		assert.Equal(t, "pdf content", string(data))

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "src-1"})
	}))
	defer server.Close()

	var out map[string]string
	err := newClient(t, server.URL).UploadFile(context.Background(), "/sources", "file", src,
		map[string]string{"notebook_id": "nb-1"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "src-1", out["id"])
}
