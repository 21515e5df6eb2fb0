package zotero

import (
	"context"
	"fmt"
	"strings"

	"github.com/citebridge/citebridge/internal/models"
)

// MaxNoteChars is the ceiling on note content attached to imported items.
// Zotero rejects very large note payloads, so extracted full text beyond
// this is cut and marked.
const MaxNoteChars = 500_000

// itemTypeForSource maps NotebookLM source kinds to Zotero item types.
// Unknown kinds fall back to the generic document type.
var itemTypeForSource = map[string]string{
	"web_page":           "webpage",
	"pdf":                "journalArticle",
	"youtube":            "videoRecording",
	"google_docs":        "document",
	"google_slides":      "presentation",
	"google_spreadsheet": "document",
	"google_drive_audio": "audioRecording",
	"google_drive_video": "videoRecording",
	"csv":                "document",
	"docx":               "document",
	"markdown":           "document",
	"pasted_text":        "document",
	"image":              "artwork",
}

// ItemTypeForSource resolves a source-type hint to a Zotero item type.
func ItemTypeForSource(sourceType string) string {
	if t, ok := itemTypeForSource[sourceType]; ok {
		return t
	}
	return "document"
}

// ImportSourceAsItem creates a library item from a NotebookLM source and,
// when full text is present, attaches it as a child note (truncated at
// MaxNoteChars with an explicit marker). Returns the new item key.
func (c *Client) ImportSourceAsItem(ctx context.Context, params models.ImportSourceParams) (string, error) {
	itemType := ItemTypeForSource(params.SourceType)

	tags := params.Tags
	if len(tags) == 0 {
		tags = []string{"notebooklm-import", "nlm-source"}
	}

	data := map[string]interface{}{
		"itemType": itemType,
		"title":    params.Title,
		"tags":     tagList(tags),
	}
	if params.CollectionKey != "" {
		data["collections"] = []string{params.CollectionKey}
	}
	if params.URL != "" {
		data["url"] = params.URL
	}

	switch itemType {
	case "webpage":
		data["websiteTitle"] = "NotebookLM Source"
	case "videoRecording":
		data["videoRecordingFormat"] = "YouTube"
	case "document":
		data["publisher"] = "NotebookLM Import"
	}

	var resp writeResponse
	if err := c.transport.PostJSON(ctx, "/items", []map[string]interface{}{data}, &resp); err != nil {
		return "", fmt.Errorf("import source %q: %w", params.Title, err)
	}

	itemKey := resp.firstKey()
	if itemKey == "" {
		return "", fmt.Errorf("import source %q: %w", params.Title, writeFailure(&resp))
	}

	c.logger.WithFields(map[string]interface{}{
		"item":      itemKey,
		"item_type": itemType,
	}).Debug("Created imported item")

	if params.FullText != "" {
		content := fmt.Sprintf("<pre>%s</pre>", EscapeHTML(TruncateFullText(params.FullText)))
		if _, err := c.CreateNote(ctx, itemKey, "Full Text (from NotebookLM)", content,
			[]string{"nlm-fulltext"}); err != nil {
			return "", fmt.Errorf("attach fulltext to %s: %w", itemKey, err)
		}
	}

	return itemKey, nil
}

// TruncateFullText cuts text at MaxNoteChars characters, appending a
// marker that records the original size. Counting is by rune so a
// multi-byte character at the ceiling is never split.
func TruncateFullText(text string) string {
	if len(text) <= MaxNoteChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxNoteChars {
		return text
	}
	return string(runes[:MaxNoteChars]) +
		fmt.Sprintf("\n\n[...truncated, %d chars total]", len(runes))
}

// EscapeHTML escapes the characters Zotero's note HTML treats specially.
func EscapeHTML(text string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(text)
}
