package models

// Notebook represents a NotebookLM notebook.
type Notebook struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	SourceCount int    `json:"source_count"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Source represents an uploaded artifact inside a notebook.
type Source struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourceType string `json:"source_type,omitempty"`
	Status     string `json:"status,omitempty"`
	Ready      bool   `json:"ready"`
	URL        string `json:"url,omitempty"`
}

// SourceFullText is a source together with its extracted text content.
// A failed fulltext fetch yields a record with metadata only (empty Content).
type SourceFullText struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourceType string `json:"source_type,omitempty"`
	URL        string `json:"url,omitempty"`
	Content    string `json:"content,omitempty"`
	CharCount  int    `json:"char_count"`
}

// Note represents a generated note in a notebook.
type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}
