package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/citebridge/citebridge/internal/clients/notebooklm"
	"github.com/citebridge/citebridge/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store Zotero credentials",
	Long: `Login saves the Zotero API key and library ID into the config file.

NotebookLM uses a browser session export instead of an API key: place the
storage_state.json from the browser login flow at ~/.notebooklm/ (or set
notebooklm.auth_file), or export it via the ` + notebooklm.EnvAuthJSON + ` variable.`,
	Example: `  citebridge login
  citebridge login --api-key zk-... --library-id 1234567`,
	RunE: runLogin,
}

var (
	loginAPIKey      string
	loginLibraryID   string
	loginLibraryType string
)

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVar(&loginAPIKey, "api-key", "",
		"Zotero API key (will prompt if not provided)")
	loginCmd.Flags().StringVar(&loginLibraryID, "library-id", "",
		"Zotero library ID (will prompt if not provided)")
	loginCmd.Flags().StringVar(&loginLibraryType, "library-type", "user",
		"Zotero library type (user or group)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	if loginLibraryType != "user" && loginLibraryType != "group" {
		return fmt.Errorf("library-type must be user or group, got %q", loginLibraryType)
	}

	if loginAPIKey == "" {
		key, err := promptSecret("Zotero API key: ")
		if err != nil {
			return fmt.Errorf("read api key: %w", err)
		}
		loginAPIKey = strings.TrimSpace(key)
	}
	if loginLibraryID == "" {
		fmt.Print("Zotero library ID: ")
		reader := bufio.NewReader(os.Stdin)
		id, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read library id: %w", err)
		}
		loginLibraryID = strings.TrimSpace(id)
	}
	if loginAPIKey == "" || loginLibraryID == "" {
		return fmt.Errorf("api key and library id are both required")
	}

	cfg.Zotero.APIKey = loginAPIKey
	cfg.Zotero.LibraryID = loginLibraryID
	cfg.Zotero.LibraryType = loginLibraryType

	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	printSuccess("Credentials saved to %s", path)

	if !notebooklm.IsAuthenticated(cfg.NotebookLM.AuthFile) {
		printWarning("NotebookLM session not found; export storage_state.json to %s",
			notebooklm.DefaultAuthPath())
	}
	return nil
}
