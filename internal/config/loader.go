package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "CITEBRIDGE"

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load reads configuration from the given YAML file (or the default
// locations when path is empty), applies CITEBRIDGE_* environment
// overrides, and validates the result. A missing config file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultDataDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Keep the state DB under the data dir unless set explicitly.
	if cfg.Storage.StateDB == "" {
		cfg.Storage.StateDB = filepath.Join(cfg.Storage.DataDir, "sync_state.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so partial config files and env
// overrides merge onto the defaults.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("zotero.api_key", def.Zotero.APIKey)
	v.SetDefault("zotero.library_id", def.Zotero.LibraryID)
	v.SetDefault("zotero.library_type", def.Zotero.LibraryType)
	v.SetDefault("zotero.storage_dir", def.Zotero.StorageDir)
	v.SetDefault("zotero.base_url", def.Zotero.BaseURL)

	v.SetDefault("notebooklm.auth_file", def.NotebookLM.AuthFile)
	v.SetDefault("notebooklm.base_url", def.NotebookLM.BaseURL)

	v.SetDefault("api.timeout", def.API.Timeout.String())
	v.SetDefault("api.max_retries", def.API.MaxRetries)
	v.SetDefault("api.user_agent", def.API.UserAgent)

	v.SetDefault("sync.enabled_collections", def.Sync.EnabledCollections)
	v.SetDefault("sync.sync_notes_back", def.Sync.SyncNotesBack)
	v.SetDefault("sync.max_file_size_mb", def.Sync.MaxFileSizeMB)
	v.SetDefault("sync.upload_timeout", def.Sync.UploadTimeout.String())

	v.SetDefault("storage.data_dir", def.Storage.DataDir)
	v.SetDefault("storage.state_db", def.Storage.StateDB)
	v.SetDefault("storage.temp_dir", def.Storage.TempDir)

	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.max_size", def.Log.MaxSize)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age", def.Log.MaxAge)
	v.SetDefault("log.color", def.Log.Color)
}

// Save writes the configuration to a YAML file, creating the parent
// directory if needed.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("zotero.api_key", cfg.Zotero.APIKey)
	v.Set("zotero.library_id", cfg.Zotero.LibraryID)
	v.Set("zotero.library_type", cfg.Zotero.LibraryType)
	v.Set("zotero.storage_dir", cfg.Zotero.StorageDir)
	v.Set("zotero.base_url", cfg.Zotero.BaseURL)

	v.Set("notebooklm.auth_file", cfg.NotebookLM.AuthFile)
	v.Set("notebooklm.base_url", cfg.NotebookLM.BaseURL)

	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("api.max_retries", cfg.API.MaxRetries)
	v.Set("api.user_agent", cfg.API.UserAgent)

	v.Set("sync.enabled_collections", cfg.Sync.EnabledCollections)
	v.Set("sync.sync_notes_back", cfg.Sync.SyncNotesBack)
	v.Set("sync.max_file_size_mb", cfg.Sync.MaxFileSizeMB)
	v.Set("sync.upload_timeout", cfg.Sync.UploadTimeout.String())

	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("storage.state_db", cfg.Storage.StateDB)
	v.Set("storage.temp_dir", cfg.Storage.TempDir)

	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.max_size", cfg.Log.MaxSize)
	v.Set("log.max_backups", cfg.Log.MaxBackups)
	v.Set("log.max_age", cfg.Log.MaxAge)
	v.Set("log.color", cfg.Log.Color)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
