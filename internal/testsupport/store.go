package testsupport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sonicvoyager/internal/config"
	"sonicvoyager/internal/library"
)

// MustOpenCatalog opens a library.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordCapture writes a size-byte artifact under the output directory and
// catalogs it.
func RecordCapture(t testing.TB, store *library.Store, cfg *config.Config, title string, size int64, created time.Time) *library.Entry {
	t.Helper()

	path := filepath.Join(cfg.Paths.OutputDir, title+".webm")
	WriteFile(t, path, size)
	entry, err := store.Record(context.Background(), library.Entry{
		SessionID:  "session-" + title,
		Title:      title,
		Path:       path,
		Format:     "webm-vp9-opus",
		MimeType:   "video/webm;codecs=vp9,opus",
		SizeBytes:  size,
		StartedAt:  created.Add(-time.Minute),
		FinishedAt: created,
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return entry
}
