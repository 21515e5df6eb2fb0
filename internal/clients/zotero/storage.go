package zotero

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// findLocalAttachment looks for a PDF in the Zotero storage layout
// (storage/{ATTACHMENT_KEY}/{filename}). Returns "" when not found.
func (c *Client) findLocalAttachment(attachmentKey string) string {
	if c.storageDir == "" {
		return ""
	}

	dir := filepath.Join(c.storageDir, attachmentKey)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			path := filepath.Join(dir, entry.Name())
			c.logger.WithField("path", path).Debug("Found local attachment")
			return path
		}
	}
	return ""
}

// DetectStorageDir probes the platform-typical Zotero storage locations
// and returns the first that exists, or "".
func DetectStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin", "windows":
		candidates = []string{
			filepath.Join(home, "Zotero", "storage"),
		}
	default: // linux and friends
		candidates = []string{
			filepath.Join(home, "Zotero", "storage"),
			filepath.Join(home, ".zotero", "zotero", "storage"),
			filepath.Join(home, "snap", "zotero-snap", "common", "Zotero", "storage"),
		}
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
