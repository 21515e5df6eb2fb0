package sync

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/citebridge/citebridge/internal/config"
	"github.com/citebridge/citebridge/internal/events"
	"github.com/citebridge/citebridge/internal/fingerprint"
	"github.com/citebridge/citebridge/internal/match"
	"github.com/citebridge/citebridge/internal/models"
	"github.com/citebridge/citebridge/internal/state"
)

// Engine orchestrates forward sync, reverse note sync, and source import
// between the two services. It is the only writer to the state store.
type Engine struct {
	cfg      *config.Config
	source   SourceClient
	target   TargetClient
	store    state.Store
	logger   *events.Logger
	progress ProgressFunc
}

// NewEngine wires an engine from its collaborators. progress may be nil.
func NewEngine(cfg *config.Config, source SourceClient, target TargetClient,
	store state.Store, logger *events.Logger, progress ProgressFunc) *Engine {
	if progress == nil {
		progress = func(string) {}
	}
	return &Engine{
		cfg:      cfg,
		source:   source,
		target:   target,
		store:    store,
		logger:   logger.WithField("component", "sync_engine"),
		progress: progress,
	}
}

// emit logs a status line and forwards it to the progress callback.
func (e *Engine) emit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	e.logger.Info(msg)
	e.progress(msg)
}

// SyncAll runs a full bidirectional sync. With no explicit keys it syncs
// the collections enabled in config.
func (e *Engine) SyncAll(ctx context.Context, collectionKeys []string) *models.FullSyncResult {
	result := &models.FullSyncResult{}

	keys := collectionKeys
	if len(keys) == 0 {
		keys = e.cfg.Sync.EnabledCollections
	}
	if len(keys) == 0 {
		result.AddError("no collections selected for sync")
		return result
	}

	e.emit("Reading Zotero collections...")
	collections, err := e.source.ListCollections(ctx)
	if err != nil {
		result.AddError("list collections: %v", err)
		return result
	}
	byKey := make(map[string]models.Collection, len(collections))
	for _, coll := range collections {
		byKey[coll.Key] = coll
	}

	for _, key := range keys {
		coll, ok := byKey[key]
		if !ok {
			result.AddError("collection %s not found in Zotero", key)
			result.AddLog("collection %s not found", key)
			continue
		}

		e.emit("Syncing collection: %s...", coll.Name)

		fwd := e.syncCollectionForward(ctx, coll)
		result.CollectionsProcessed++
		result.ItemsUploaded += fwd.ItemsSynced
		result.ItemsSkipped += fwd.ItemsSkipped
		result.Errors = append(result.Errors, fwd.Errors...)
		result.AddLog("%s: %d uploaded, %d skipped", coll.Name, fwd.ItemsSynced, fwd.ItemsSkipped)

		if e.cfg.Sync.SyncNotesBack {
			rev := e.syncCollectionReverse(ctx, coll)
			result.NotesSyncedBack += rev.ItemsSynced
			result.Errors = append(result.Errors, rev.Errors...)
			if rev.ItemsSynced > 0 {
				result.AddLog("%s: %d notes synced back", coll.Name, rev.ItemsSynced)
			}
		}
	}

	status := models.StatusSuccess
	if !result.Success() {
		status = models.StatusPartial
	}
	if err := e.store.AppendLog("full_sync", status, result.Summary()); err != nil {
		e.logger.WithError(err).Error("Failed to write sync log")
	}

	e.emit("Sync complete")
	return result
}

// syncCollectionForward mirrors one collection into its notebook.
func (e *Engine) syncCollectionForward(ctx context.Context, coll models.Collection) *models.SyncResult {
	result := models.NewSyncResult()

	e.emit("  Finding notebook: %s...", coll.Name)
	notebook, err := e.target.FindOrCreateNotebook(ctx, coll.Name)
	if err != nil {
		result.Fail("collection %s: %v", coll.Name, err)
		return result
	}
	if err := e.store.UpsertCollection(coll.Key, coll.Name, notebook.ID); err != nil {
		result.Fail("record collection %s: %v", coll.Name, err)
		return result
	}

	// Snapshot what the notebook already holds so a lost state DB does
	// not cause duplicate uploads.
	existing, err := e.target.ListSources(ctx, notebook.ID)
	if err != nil {
		result.Fail("list sources for %s: %v", coll.Name, err)
		return result
	}
	existingTitles := make(match.TitleSet, len(existing))
	for _, src := range existing {
		existingTitles.Add(src.Title)
	}

	e.emit("  Reading items from %s...", coll.Name)
	items, err := e.source.ListCollectionItems(ctx, coll.Key)
	if err != nil {
		result.Fail("list items for %s: %v", coll.Name, err)
		return result
	}
	if len(items) == 0 {
		result.Message = fmt.Sprintf("No items in %s", coll.Name)
		return result
	}

	downloadDir, err := os.MkdirTemp(e.cfg.Storage.TempDir, "citebridge_")
	if err != nil {
		result.Fail("create download dir: %v", err)
		return result
	}
	defer os.RemoveAll(downloadDir)

	for _, item := range items {
		if err := e.syncItemForward(ctx, coll, notebook.ID, item, existingTitles, downloadDir, result); err != nil {
			syncErr := &models.SyncError{Op: "upload", Key: coll.Key, Title: item.Title, Err: err}
			result.AddError("%v", syncErr)
			e.emit("  Error: %v", syncErr)
		}
	}

	result.Message = fmt.Sprintf("%s: %d uploaded, %d skipped",
		coll.Name, result.ItemsSynced, result.ItemsSkipped)
	return result
}

// syncItemForward decides what to do with a single item: skip, record,
// or upload. Failures bubble to the caller, which isolates them per item.
func (e *Engine) syncItemForward(ctx context.Context, coll models.Collection, notebookID string,
	item models.Item, existingTitles match.TitleSet, downloadDir string, result *models.SyncResult) error {

	// Resolve the attachment up front so the synced check can use the
	// content fingerprint. A missing fingerprint degrades the check to
	// existence only.
	path, err := e.source.FetchPrimaryAttachment(ctx, item.Key, downloadDir)
	if err != nil {
		return err
	}
	var hash string
	if path != "" {
		if h, err := fingerprint.File(path); err == nil {
			hash = h
		}
	}

	synced, err := e.store.IsItemSynced(item.Key, coll.Key, hash)
	if err != nil {
		return err
	}
	if synced {
		result.ItemsSkipped++
		return nil
	}

	if existingTitles.Contains(item.Title) {
		e.emit("  Already in notebook: %s", item.Title)
		result.ItemsSkipped++
		return e.store.UpsertItem(item.Key, coll.Key, item.Title, "", "")
	}

	if path == "" {
		e.emit("  No PDF for: %s", item.Title)
		// Recorded anyway so non-PDF items are not re-examined.
		result.ItemsSkipped++
		return e.store.UpsertItem(item.Key, coll.Key, item.Title, "", "")
	}

	if size := fingerprint.FileSizeMB(path); size > float64(e.cfg.Sync.MaxFileSizeMB) {
		e.emit("  Skipping %s (%.1fMB > %dMB limit)", item.Title, size, e.cfg.Sync.MaxFileSizeMB)
		result.ItemsSkipped++
		return nil
	}

	e.emit("  Uploading: %s...", item.Title)
	src, err := e.target.UploadFileSource(ctx, notebookID, path, true, e.cfg.Sync.UploadTimeout)
	if err != nil {
		return err
	}

	if err := e.store.UpsertItem(item.Key, coll.Key, item.Title, hash, src.ID); err != nil {
		return err
	}
	result.ItemsSynced++
	e.emit("  Uploaded: %s", item.Title)
	return nil
}

// syncCollectionReverse mirrors generated notes back onto library items.
func (e *Engine) syncCollectionReverse(ctx context.Context, coll models.Collection) *models.SyncResult {
	result := models.NewSyncResult()

	notebookID, err := e.store.NotebookIDFor(coll.Key)
	if errors.Is(err, state.ErrNotFound) || notebookID == "" {
		return result // collection never forward-synced yet
	}
	if err != nil {
		result.Fail("reverse sync %s: %v", coll.Name, err)
		return result
	}

	e.emit("  Reading NotebookLM notes for %s...", coll.Name)
	notes, err := e.target.ListNotes(ctx, notebookID)
	if err != nil {
		result.Fail("list notes for %s: %v", coll.Name, err)
		return result
	}
	if len(notes) == 0 {
		return result
	}

	items, err := e.source.ListCollectionItems(ctx, coll.Key)
	if err != nil {
		result.Fail("list items for %s: %v", coll.Name, err)
		return result
	}

	for _, note := range notes {
		if err := e.syncNoteReverse(ctx, notebookID, note, items, result); err != nil {
			result.AddError("%v", &models.SyncError{Op: "note", Key: notebookID, Title: note.Title, Err: err})
		}
	}
	return result
}

// syncNoteReverse pairs one generated note with a library item by title
// overlap. First match wins; unmatched notes are recorded so they are
// never retried.
func (e *Engine) syncNoteReverse(ctx context.Context, notebookID string, note models.Note,
	items []models.Item, result *models.SyncResult) error {

	synced, err := e.store.IsNoteSynced(note.ID)
	if err != nil {
		return err
	}
	if synced {
		return nil
	}

	var matched *models.Item
	for i := range items {
		if match.Overlaps(items[i].Title, note.Title) {
			matched = &items[i]
			break
		}
	}

	if matched == nil {
		e.emit("  No Zotero match for note: %s", note.Title)
		return e.store.RecordNoteSync(notebookID, note.ID, "", "")
	}

	noteKey, err := e.source.CreateNote(ctx, matched.Key,
		"NotebookLM: "+note.Title, note.Content,
		[]string{"notebooklm-sync", "ai-generated"})
	if err != nil {
		return err
	}
	if err := e.store.RecordNoteSync(notebookID, note.ID, matched.Key, noteKey); err != nil {
		return err
	}
	result.ItemsSynced++
	e.emit("  Note synced to Zotero: %s -> %s", note.Title, matched.Title)
	return nil
}

// ImportOptions controls a notebook source import.
type ImportOptions struct {
	// CollectionName overrides the Zotero collection name. Default is
	// the notebook title.
	CollectionName string

	// IncludeFullText fetches extracted text and attaches it as notes.
	// Slower, but preserves the content.
	IncludeFullText bool
}

// ImportNotebookSources materializes every source of a notebook as a
// Zotero item inside an "NLM: <name>" collection.
func (e *Engine) ImportNotebookSources(ctx context.Context, notebookID, notebookTitle string, opts ImportOptions) *models.SyncResult {
	result := models.NewSyncResult()

	collName := opts.CollectionName
	if collName == "" {
		collName = notebookTitle
	}
	if collName == "" {
		collName = "NotebookLM Import"
	}

	e.emit("Creating Zotero collection: %s...", collName)
	collKey, err := e.source.FindOrCreateCollection(ctx, "NLM: "+collName)
	if err != nil {
		result.Fail("create collection %q: %v", collName, err)
		return result
	}

	var sources []models.SourceFullText
	if opts.IncludeFullText {
		e.emit("Reading sources with full text from %s...", collName)
		sources, err = e.target.AllSourcesWithContent(ctx, notebookID)
	} else {
		e.emit("Reading source list from %s...", collName)
		var listed []models.Source
		listed, err = e.target.ListSources(ctx, notebookID)
		for _, src := range listed {
			sources = append(sources, models.SourceFullText{
				ID:         src.ID,
				Title:      src.Title,
				SourceType: src.SourceType,
				URL:        src.URL,
			})
		}
	}
	if err != nil {
		result.Fail("read sources for %s: %v", collName, err)
		return result
	}
	if len(sources) == 0 {
		result.Message = fmt.Sprintf("No sources found in notebook %s", collName)
		e.emit("  %s", result.Message)
		return result
	}

	e.emit("  Found %d sources to import", len(sources))

	for _, src := range sources {
		if err := e.importSource(ctx, collKey, collName, src, result); err != nil {
			syncErr := &models.SyncError{Op: "import", Key: notebookID, Title: src.Title, Err: err}
			result.AddError("%v", syncErr)
			e.emit("  Error: %v", syncErr)
		}
	}

	// The mapping is recorded even when some sources failed, so a rerun
	// targets the same collection.
	if err := e.store.UpsertCollection(collKey, collName, notebookID); err != nil {
		result.AddError("record collection mapping: %v", err)
	}

	result.Message = fmt.Sprintf("Imported %d sources, skipped %d",
		result.ItemsSynced, result.ItemsSkipped)

	status := models.StatusSuccess
	if len(result.Errors) > 0 {
		status = models.StatusError
	}
	if err := e.store.AppendLog("import_sources", status, result.Message); err != nil {
		e.logger.WithError(err).Error("Failed to write sync log")
	}
	return result
}

// importSource creates one Zotero item for a source unless an item with
// the same title already exists in the collection.
func (e *Engine) importSource(ctx context.Context, collKey, collName string,
	src models.SourceFullText, result *models.SyncResult) error {

	// Re-fetched per source so items created earlier in this run count.
	existing, err := e.source.ListCollectionItems(ctx, collKey)
	if err != nil {
		return err
	}
	for _, item := range existing {
		if match.Equal(item.Title, src.Title) {
			e.emit("  Already in Zotero: %s", src.Title)
			result.ItemsSkipped++
			return nil
		}
	}

	e.emit("  Importing: %s [%s]", src.Title, src.SourceType)
	itemKey, err := e.source.ImportSourceAsItem(ctx, models.ImportSourceParams{
		SourceType:    src.SourceType,
		Title:         src.Title,
		URL:           src.URL,
		FullText:      src.Content,
		CollectionKey: collKey,
		Tags:          []string{"notebooklm-import", "nlm:" + collName},
	})
	if err != nil {
		return err
	}

	if err := e.store.UpsertItem(itemKey, collKey, src.Title, "", src.ID); err != nil {
		return err
	}
	result.ItemsSynced++
	e.emit("  Imported: %s", src.Title)
	return nil
}

// ImportAllNotebooks imports sources from multiple notebooks, one Zotero
// collection per notebook.
func (e *Engine) ImportAllNotebooks(ctx context.Context, notebookIDs []string, includeFullText bool) *models.FullSyncResult {
	result := &models.FullSyncResult{}

	notebooks, err := e.target.ListNotebooks(ctx)
	if err != nil {
		result.AddError("list notebooks: %v", err)
		return result
	}
	byID := make(map[string]models.Notebook, len(notebooks))
	for _, nb := range notebooks {
		byID[nb.ID] = nb
	}

	for _, id := range notebookIDs {
		title := id
		if nb, ok := byID[id]; ok {
			title = nb.Title
		}

		e.emit("Importing notebook: %s...", title)
		imported := e.ImportNotebookSources(ctx, id, title, ImportOptions{
			IncludeFullText: includeFullText,
		})

		result.CollectionsProcessed++
		result.ItemsUploaded += imported.ItemsSynced
		result.ItemsSkipped += imported.ItemsSkipped
		result.Errors = append(result.Errors, imported.Errors...)
		result.AddLog("%s: %s", title, imported.Message)
	}

	e.emit("Import complete")
	return result
}

// TestConnections probes both services and reports per-service health.
func (e *Engine) TestConnections(ctx context.Context) map[string]bool {
	results := make(map[string]bool, 2)

	e.emit("Testing Zotero connection...")
	if err := e.source.TestConnection(ctx); err != nil {
		e.logger.WithError(err).Error("Zotero connection failed")
		results["zotero"] = false
	} else {
		results["zotero"] = true
	}

	e.emit("Testing NotebookLM connection...")
	if err := e.target.TestConnection(ctx); err != nil {
		e.logger.WithError(err).Error("NotebookLM connection failed")
		results["notebooklm"] = false
	} else {
		results["notebooklm"] = true
	}

	return results
}

// Stats returns aggregate sync statistics from the state store.
func (e *Engine) Stats() (*models.SyncStats, error) {
	return e.store.Stats()
}
