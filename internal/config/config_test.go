package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citebridge/citebridge/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "user", cfg.Zotero.LibraryType)
	assert.Equal(t, "https://api.zotero.org", cfg.Zotero.BaseURL)
	assert.True(t, cfg.Sync.SyncNotesBack)
	assert.Equal(t, 200, cfg.Sync.MaxFileSizeMB)
	assert.False(t, cfg.Zotero.Configured())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad library type", func(c *config.Config) { c.Zotero.LibraryType = "shared" }},
		{"zero timeout", func(c *config.Config) { c.API.Timeout = 0 }},
		{"zero file ceiling", func(c *config.Config) { c.Sync.MaxFileSizeMB = 0 }},
		{"bad log level", func(c *config.Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"missing state db", func(c *config.Config) { c.Storage.StateDB = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	yaml := `
zotero:
  api_key: zk-test
  library_id: "12345"
  library_type: user
sync:
  enabled_collections:
    - ABC123
    - DEF456
  max_file_size_mb: 50
  upload_timeout: 90s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "zk-test", cfg.Zotero.APIKey)
	assert.Equal(t, "12345", cfg.Zotero.LibraryID)
	assert.True(t, cfg.Zotero.Configured())
	assert.Equal(t, []string{"ABC123", "DEF456"}, cfg.Sync.EnabledCollections)
	assert.Equal(t, 50, cfg.Sync.MaxFileSizeMB)
	assert.Equal(t, 90*time.Second, cfg.Sync.UploadTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep defaults.
	assert.Equal(t, "https://api.zotero.org", cfg.Zotero.BaseURL)
	assert.True(t, cfg.Sync.SyncNotesBack)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CITEBRIDGE_LOG_LEVEL", "warn")
	t.Setenv("CITEBRIDGE_ZOTERO_LIBRARY_ID", "99")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "99", cfg.Zotero.LibraryID)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := config.DefaultConfig()
	cfg.Zotero.APIKey = "zk-roundtrip"
	cfg.Zotero.LibraryID = "777"
	cfg.Sync.EnabledCollections = []string{"COLL1"}

	require.NoError(t, config.Save(cfg, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "zk-roundtrip", loaded.Zotero.APIKey)
	assert.Equal(t, "777", loaded.Zotero.LibraryID)
	assert.Equal(t, []string{"COLL1"}, loaded.Sync.EnabledCollections)
}
