package models

// SyncedCollection is the persisted mapping between a Zotero collection
// and the NotebookLM notebook it syncs into.
type SyncedCollection struct {
	ID         int64  `json:"id"`
	ZoteroKey  string `json:"zotero_key"`
	ZoteroName string `json:"zotero_name"`
	NotebookID string `json:"notebook_id"`
	LastSynced string `json:"last_synced"`
}

// SyncedItem records that a Zotero item has been mirrored into a notebook.
// The same item is tracked independently per collection it belongs to.
type SyncedItem struct {
	ID            int64  `json:"id"`
	ZoteroKey     string `json:"zotero_key"`
	CollectionKey string `json:"collection_key"`
	Title         string `json:"title"`
	FileHash      string `json:"file_hash,omitempty"`
	SourceID      string `json:"source_id,omitempty"`
	LastSynced    string `json:"last_synced"`
}

// SyncLogEntry is one row of the append-only sync audit trail.
type SyncLogEntry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	Details   string `json:"details,omitempty"`
}

// Log entry statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// SyncStats summarizes the sync state database.
type SyncStats struct {
	CollectionsSynced int    `json:"collections_synced"`
	ItemsSynced       int    `json:"items_synced"`
	NotesSyncedBack   int    `json:"notes_synced_back"`
	LastSync          string `json:"last_sync,omitempty"`
}
