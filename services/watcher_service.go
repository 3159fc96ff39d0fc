package services

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatcherService ingests PDFs dropped into a watched directory, so a
// deployment can be fed by file copy as well as by upload. Each path keeps
// a stable document id across rewrites: old records are deleted before
// re-ingestion, so a rewritten file never duplicates its chunks.
type WatcherService struct {
	ragService RAGService
	index      VectorIndex

	// docIDs maps watched paths to their document ids. Accessed only from
	// the event loop goroutine.
	docIDs map[string]string
}

// NewWatcherService creates a watcher backed by the given RAG service and
// vector index.
func NewWatcherService(ragService RAGService, index VectorIndex) *WatcherService {
	return &WatcherService{
		ragService: ragService,
		index:      index,
		docIDs:     make(map[string]string),
	}
}

// WatchDirectory blocks, syncing PDFs under dirPath into the index until
// the context is cancelled. Editors that write via temp-file-and-rename
// fire both Create and Write, which are handled the same way.
func (s *WatcherService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.handleEvent(ctx, event)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)

			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
		return
	}

	<-ctx.Done()
}

// handleEvent processes a single filesystem event. A Write or Create
// deletes the path's previous records and re-ingests under the same
// document id; a Remove or Rename drops the path from the index.
func (s *WatcherService) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !isPDF(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		docID := s.docIDs[event.Name]
		if docID != "" {
			log.Printf("WATCHER: PDF modified: %s. Re-indexing...", event.Name)
			if err := s.index.DeleteByDoc(ctx, docID); err != nil {
				log.Printf("WATCHER ERROR: Failed to delete old records for %s: %v", event.Name, err)
				return
			}
		} else {
			log.Printf("WATCHER: New PDF detected: %s. Ingesting...", event.Name)
		}

		ingestedID, err := s.ragService.IngestPDF(ctx, event.Name, docID)
		if err != nil {
			log.Printf("WATCHER ERROR: Failed to ingest %s: %v", event.Name, err)
			return
		}
		s.docIDs[event.Name] = ingestedID
		log.Printf("WATCHER: Ingested %s as document %s", event.Name, ingestedID)

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		docID := s.docIDs[event.Name]
		if docID == "" {
			return
		}
		log.Printf("WATCHER: PDF removed/renamed: %s. Removing from index...", event.Name)
		if err := s.index.DeleteByDoc(ctx, docID); err != nil {
			log.Printf("WATCHER ERROR: Failed to delete records for %s: %v", event.Name, err)
			return
		}
		delete(s.docIDs, event.Name)
	}
}

func isPDF(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}
