package models

// Collection represents a Zotero collection (folder of items).
type Collection struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	ParentKey string `json:"parent_key,omitempty"`
	NumItems  int    `json:"num_items"`
}

// Creator is an author, editor, or other contributor on an item.
type Creator struct {
	CreatorType string `json:"creator_type"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Name        string `json:"name,omitempty"`
}

// ImportSourceParams describes a NotebookLM source being materialized as
// a Zotero item.
type ImportSourceParams struct {
	SourceType    string
	Title         string
	URL           string
	FullText      string
	CollectionKey string
	Tags          []string
}

// Item represents a top-level Zotero library item (paper, book, webpage).
// Attachments and notes are child entities and never appear as Items.
type Item struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	ItemType    string    `json:"item_type"`
	Creators    []Creator `json:"creators,omitempty"`
	Date        string    `json:"date,omitempty"`
	DOI         string    `json:"doi,omitempty"`
	URL         string    `json:"url,omitempty"`
	Abstract    string    `json:"abstract,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Collections []string  `json:"collections,omitempty"`
}
