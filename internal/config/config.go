// Package config holds the application configuration. The loaded value is
// passed explicitly into constructors; nothing reads it ambiently.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Zotero library access
	Zotero ZoteroConfig `json:"zotero" mapstructure:"zotero"`

	// NotebookLM access
	NotebookLM NotebookLMConfig `json:"notebooklm" mapstructure:"notebooklm"`

	// Shared HTTP behavior for both clients
	API APIConfig `json:"api" mapstructure:"api"`

	// Sync behavior
	Sync SyncConfig `json:"sync" mapstructure:"sync"`

	// Local paths
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// ZoteroConfig identifies the library to sync from.
type ZoteroConfig struct {
	APIKey      string `json:"api_key,omitempty" mapstructure:"api_key"`
	LibraryID   string `json:"library_id" mapstructure:"library_id"`
	LibraryType string `json:"library_type" mapstructure:"library_type"` // "user" or "group"
	StorageDir  string `json:"storage_dir,omitempty" mapstructure:"storage_dir"`
	BaseURL     string `json:"base_url" mapstructure:"base_url"`
}

// Configured reports whether the Zotero side has usable credentials.
func (c *ZoteroConfig) Configured() bool {
	return c.APIKey != "" && c.LibraryID != ""
}

// NotebookLMConfig locates the NotebookLM session.
type NotebookLMConfig struct {
	// AuthFile is the browser storage-state JSON holding session cookies.
	// Empty means the client's default location.
	AuthFile string `json:"auth_file,omitempty" mapstructure:"auth_file"`
	BaseURL  string `json:"base_url" mapstructure:"base_url"`
}

// APIConfig for remote-service communication.
type APIConfig struct {
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"`
	UserAgent  string        `json:"user_agent" mapstructure:"user_agent"`
}

// SyncConfig for synchronization behavior.
type SyncConfig struct {
	// EnabledCollections are the Zotero collection keys synced by default.
	EnabledCollections []string `json:"enabled_collections" mapstructure:"enabled_collections"`

	// SyncNotesBack enables reverse sync of generated notes into Zotero.
	SyncNotesBack bool `json:"sync_notes_back" mapstructure:"sync_notes_back"`

	// MaxFileSizeMB skips attachments larger than this.
	MaxFileSizeMB int `json:"max_file_size_mb" mapstructure:"max_file_size_mb"`

	// UploadTimeout caps the wait for a single source to finish processing.
	UploadTimeout time.Duration `json:"upload_timeout" mapstructure:"upload_timeout"`
}

// StorageConfig for local file paths.
type StorageConfig struct {
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
	StateDB string `json:"state_db" mapstructure:"state_db"`
	TempDir string `json:"temp_dir,omitempty" mapstructure:"temp_dir"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level      string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string `json:"format" mapstructure:"format"` // text, json
	File       string `json:"file,omitempty" mapstructure:"file"`
	MaxSize    int    `json:"max_size" mapstructure:"max_size"` // MB per rotated file
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `json:"max_age" mapstructure:"max_age"` // days
	Color      bool   `json:"color" mapstructure:"color"`
}

// DefaultDataDir returns ~/.citebridge, falling back to a relative
// directory when the home directory cannot be resolved.
func DefaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".citebridge")
	}
	return ".citebridge"
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()

	return &Config{
		Zotero: ZoteroConfig{
			LibraryType: "user",
			BaseURL:     "https://api.zotero.org",
		},
		NotebookLM: NotebookLMConfig{
			BaseURL: "https://notebooklm.google.com/api",
		},
		API: APIConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			UserAgent:  "citebridge/1.0",
		},
		Sync: SyncConfig{
			SyncNotesBack: true,
			MaxFileSizeMB: 200,
			UploadTimeout: 2 * time.Minute,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
			StateDB: filepath.Join(dataDir, "sync_state.db"),
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
			Color:      true,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Zotero.LibraryType != "user" && c.Zotero.LibraryType != "group" {
		return fmt.Errorf("zotero.library_type must be \"user\" or \"group\", got %q", c.Zotero.LibraryType)
	}

	if c.Zotero.BaseURL == "" {
		return errors.New("zotero.base_url is required")
	}

	if c.NotebookLM.BaseURL == "" {
		return errors.New("notebooklm.base_url is required")
	}

	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}

	if c.Sync.MaxFileSizeMB <= 0 {
		return errors.New("sync.max_file_size_mb must be positive")
	}

	if c.Storage.StateDB == "" {
		return errors.New("storage.state_db is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		filepath.Dir(c.Storage.StateDB),
	}

	if c.Storage.TempDir != "" {
		dirs = append(dirs, c.Storage.TempDir)
	}
	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
