package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/citebridge/citebridge/internal/events"
	"github.com/citebridge/citebridge/internal/models"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore opens (creating if necessary) the sync state database.
// A failure here is fatal for the caller: no sync may proceed without a
// usable store.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "state_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	store.logger.WithField("path", dbPath).Debug("Sync state DB ready")
	return store, nil
}

// initialize creates tables on first use.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS synced_collections (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        zotero_key TEXT UNIQUE NOT NULL,
        zotero_name TEXT NOT NULL,
        nlm_notebook_id TEXT,
        last_synced TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS synced_items (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        zotero_key TEXT NOT NULL,
        collection_zotero_key TEXT NOT NULL,
        title TEXT,
        file_hash TEXT,
        nlm_source_id TEXT,
        last_synced TIMESTAMP,
        UNIQUE(zotero_key, collection_zotero_key)
    );

    CREATE INDEX IF NOT EXISTS idx_synced_items_collection
        ON synced_items(collection_zotero_key);

    CREATE TABLE IF NOT EXISTS nlm_notes_synced (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        nlm_notebook_id TEXT NOT NULL,
        nlm_note_id TEXT NOT NULL,
        zotero_item_key TEXT,
        zotero_note_key TEXT,
        synced_at TIMESTAMP,
        UNIQUE(nlm_note_id)
    );

    CREATE TABLE IF NOT EXISTS sync_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        action TEXT NOT NULL,
        status TEXT NOT NULL,
        details TEXT
    );
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// UpsertCollection inserts or merges a collection mapping.
func (s *SQLiteStore) UpsertCollection(zoteroKey, name, notebookID string) error {
	_, err := s.db.Exec(`
        INSERT INTO synced_collections (zotero_key, zotero_name, nlm_notebook_id, last_synced)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(zotero_key) DO UPDATE SET
            zotero_name = excluded.zotero_name,
            nlm_notebook_id = COALESCE(NULLIF(excluded.nlm_notebook_id, ''), nlm_notebook_id),
            last_synced = excluded.last_synced
    `, zoteroKey, name, notebookID, now())
	if err != nil {
		return fmt.Errorf("upsert collection %s: %w", zoteroKey, err)
	}
	return nil
}

// Collection returns the mapping for a Zotero collection key.
func (s *SQLiteStore) Collection(zoteroKey string) (*models.SyncedCollection, error) {
	var (
		coll       models.SyncedCollection
		notebookID sql.NullString
		lastSynced sql.NullString
	)

	err := s.db.QueryRow(`
        SELECT id, zotero_key, zotero_name, nlm_notebook_id, last_synced
        FROM synced_collections WHERE zotero_key = ?
    `, zoteroKey).Scan(&coll.ID, &coll.ZoteroKey, &coll.ZoteroName, &notebookID, &lastSynced)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", zoteroKey, err)
	}

	coll.NotebookID = notebookID.String
	coll.LastSynced = lastSynced.String
	return &coll, nil
}

// NotebookIDFor returns the mapped notebook ID for a collection.
func (s *SQLiteStore) NotebookIDFor(zoteroKey string) (string, error) {
	coll, err := s.Collection(zoteroKey)
	if err != nil {
		return "", err
	}
	return coll.NotebookID, nil
}

// IsItemSynced reports whether an item is already mirrored and unchanged.
func (s *SQLiteStore) IsItemSynced(zoteroKey, collectionKey, fileHash string) (bool, error) {
	var stored sql.NullString
	err := s.db.QueryRow(`
        SELECT file_hash FROM synced_items
        WHERE zotero_key = ? AND collection_zotero_key = ?
    `, zoteroKey, collectionKey).Scan(&stored)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query item %s/%s: %w", zoteroKey, collectionKey, err)
	}

	// A hash mismatch means the file changed and needs re-sync. When
	// either side has no hash, existence alone counts as synced.
	if fileHash != "" && stored.String != "" && stored.String != fileHash {
		return false, nil
	}
	return true, nil
}

// UpsertItem inserts or merges an item record.
func (s *SQLiteStore) UpsertItem(zoteroKey, collectionKey, title, fileHash, sourceID string) error {
	_, err := s.db.Exec(`
        INSERT INTO synced_items
            (zotero_key, collection_zotero_key, title, file_hash, nlm_source_id, last_synced)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(zotero_key, collection_zotero_key) DO UPDATE SET
            title = excluded.title,
            file_hash = COALESCE(NULLIF(excluded.file_hash, ''), file_hash),
            nlm_source_id = COALESCE(NULLIF(excluded.nlm_source_id, ''), nlm_source_id),
            last_synced = excluded.last_synced
    `, zoteroKey, collectionKey, title, fileHash, sourceID, now())
	if err != nil {
		return fmt.Errorf("upsert item %s/%s: %w", zoteroKey, collectionKey, err)
	}
	return nil
}

// ItemsForCollection lists item records for a collection.
func (s *SQLiteStore) ItemsForCollection(collectionKey string) ([]models.SyncedItem, error) {
	rows, err := s.db.Query(`
        SELECT id, zotero_key, collection_zotero_key, title,
               file_hash, nlm_source_id, last_synced
        FROM synced_items
        WHERE collection_zotero_key = ?
        ORDER BY id
    `, collectionKey)
	if err != nil {
		return nil, fmt.Errorf("query items for %s: %w", collectionKey, err)
	}
	defer rows.Close()

	var items []models.SyncedItem
	for rows.Next() {
		var (
			item                       models.SyncedItem
			title, hash, srcID, synced sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.ZoteroKey, &item.CollectionKey,
			&title, &hash, &srcID, &synced); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		item.Title = title.String
		item.FileHash = hash.String
		item.SourceID = srcID.String
		item.LastSynced = synced.String
		items = append(items, item)
	}

	return items, rows.Err()
}

// IsNoteSynced reports whether a generated note has been handled.
func (s *SQLiteStore) IsNoteSynced(noteID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM nlm_notes_synced WHERE nlm_note_id = ?", noteID,
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query note %s: %w", noteID, err)
	}
	return true, nil
}

// RecordNoteSync marks a generated note as handled, matched or not.
func (s *SQLiteStore) RecordNoteSync(notebookID, noteID, itemKey, noteKey string) error {
	_, err := s.db.Exec(`
        INSERT OR REPLACE INTO nlm_notes_synced
            (nlm_notebook_id, nlm_note_id, zotero_item_key, zotero_note_key, synced_at)
        VALUES (?, ?, ?, ?, ?)
    `, notebookID, noteID, itemKey, noteKey, now())
	if err != nil {
		return fmt.Errorf("record note sync %s: %w", noteID, err)
	}
	return nil
}

// AppendLog adds an entry to the sync audit trail.
func (s *SQLiteStore) AppendLog(action, status, details string) error {
	_, err := s.db.Exec(
		"INSERT INTO sync_log (action, status, details) VALUES (?, ?, ?)",
		action, status, details,
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// RecentLogs returns up to limit entries, newest first.
func (s *SQLiteStore) RecentLogs(limit int) ([]models.SyncLogEntry, error) {
	rows, err := s.db.Query(`
        SELECT timestamp, action, status, details
        FROM sync_log ORDER BY id DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []models.SyncLogEntry
	for rows.Next() {
		var (
			entry   models.SyncLogEntry
			details sql.NullString
		)
		if err := rows.Scan(&entry.Timestamp, &entry.Action, &entry.Status, &details); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		entry.Details = details.String
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Stats summarizes the stored sync state.
func (s *SQLiteStore) Stats() (*models.SyncStats, error) {
	stats := &models.SyncStats{}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM synced_collections").
		Scan(&stats.CollectionsSynced); err != nil {
		return nil, fmt.Errorf("count collections: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM synced_items").
		Scan(&stats.ItemsSynced); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM nlm_notes_synced").
		Scan(&stats.NotesSyncedBack); err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}

	var last sql.NullString
	if err := s.db.QueryRow("SELECT MAX(last_synced) FROM synced_items").
		Scan(&last); err != nil {
		return nil, fmt.Errorf("query last sync: %w", err)
	}
	stats.LastSync = last.String

	return stats, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
