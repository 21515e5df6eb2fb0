package state

import (
	"sort"
	"sync"
	"time"

	"github.com/citebridge/citebridge/internal/models"
)

// MockStore provides an in-memory Store implementation for testing.
type MockStore struct {
	mu          sync.RWMutex
	collections map[string]*models.SyncedCollection
	items       map[[2]string]*models.SyncedItem
	notes       map[string]struct{}
	logs        []models.SyncLogEntry
	nextID      int64

	// FailUpsertItem, when set, is returned from UpsertItem. Lets tests
	// exercise store-error paths.
	FailUpsertItem error
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		collections: make(map[string]*models.SyncedCollection),
		items:       make(map[[2]string]*models.SyncedItem),
		notes:       make(map[string]struct{}),
	}
}

func (m *MockStore) UpsertCollection(zoteroKey, name, notebookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[zoteroKey]
	if !ok {
		m.nextID++
		coll = &models.SyncedCollection{ID: m.nextID, ZoteroKey: zoteroKey}
		m.collections[zoteroKey] = coll
	}
	coll.ZoteroName = name
	if notebookID != "" {
		coll.NotebookID = notebookID
	}
	coll.LastSynced = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func (m *MockStore) Collection(zoteroKey string) (*models.SyncedCollection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[zoteroKey]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *coll
	return &copied, nil
}

func (m *MockStore) NotebookIDFor(zoteroKey string) (string, error) {
	coll, err := m.Collection(zoteroKey)
	if err != nil {
		return "", err
	}
	return coll.NotebookID, nil
}

func (m *MockStore) IsItemSynced(zoteroKey, collectionKey, fileHash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[[2]string{zoteroKey, collectionKey}]
	if !ok {
		return false, nil
	}
	if fileHash != "" && item.FileHash != "" && item.FileHash != fileHash {
		return false, nil
	}
	return true, nil
}

func (m *MockStore) UpsertItem(zoteroKey, collectionKey, title, fileHash, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpsertItem != nil {
		return m.FailUpsertItem
	}

	key := [2]string{zoteroKey, collectionKey}
	item, ok := m.items[key]
	if !ok {
		m.nextID++
		item = &models.SyncedItem{
			ID:            m.nextID,
			ZoteroKey:     zoteroKey,
			CollectionKey: collectionKey,
		}
		m.items[key] = item
	}
	item.Title = title
	if fileHash != "" {
		item.FileHash = fileHash
	}
	if sourceID != "" {
		item.SourceID = sourceID
	}
	item.LastSynced = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func (m *MockStore) ItemsForCollection(collectionKey string) ([]models.SyncedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []models.SyncedItem
	for key, item := range m.items {
		if key[1] == collectionKey {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *MockStore) IsNoteSynced(noteID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.notes[noteID]
	return ok, nil
}

func (m *MockStore) RecordNoteSync(notebookID, noteID, itemKey, noteKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notes[noteID] = struct{}{}
	return nil
}

func (m *MockStore) AppendLog(action, status, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logs = append(m.logs, models.SyncLogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Action:    action,
		Status:    status,
		Details:   details,
	})
	return nil
}

func (m *MockStore) RecentLogs(limit int) ([]models.SyncLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []models.SyncLogEntry
	for i := len(m.logs) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, m.logs[i])
	}
	return entries, nil
}

func (m *MockStore) Stats() (*models.SyncStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.SyncStats{
		CollectionsSynced: len(m.collections),
		ItemsSynced:       len(m.items),
		NotesSyncedBack:   len(m.notes),
	}
	for _, item := range m.items {
		if item.LastSynced > stats.LastSync {
			stats.LastSync = item.LastSynced
		}
	}
	return stats, nil
}

func (m *MockStore) Close() error {
	return nil
}

// Logs returns a copy of all appended log entries, oldest first.
func (m *MockStore) Logs() []models.SyncLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.SyncLogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}
