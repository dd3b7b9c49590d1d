package library_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"sonicvoyager/internal/library"
	"sonicvoyager/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	if store.Path() != cfg.CatalogPath() {
		t.Fatalf("unexpected catalog path %q", store.Path())
	}

	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty catalog, got %d entries", len(entries))
	}

	// Reopening an existing catalog keeps the version row intact.
	store.Close()
	reopened, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	reopened.Close()
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", cfg.CatalogPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := library.Open(cfg); !errors.Is(err, library.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRecordAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	entry, err := store.Record(ctx, library.Entry{
		SessionID:       "abc",
		Title:           "Night_Drive",
		Genre:           "SYNTHWAVE",
		Preset:          "Grid",
		Path:            "/tmp/Night_Drive_1.webm",
		Format:          "webm-vp9-opus",
		MimeType:        "video/webm;codecs=vp9,opus",
		SizeBytes:       2048,
		DurationSeconds: 12.5,
		Frames:          750,
		Validated:       true,
		StartedAt:       created.Add(-13 * time.Second),
		FinishedAt:      created,
		CreatedAt:       created,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected id to be assigned")
	}

	got, err := store.Get(ctx, entry.ShortID())
	if err != nil {
		t.Fatalf("Get by prefix failed: %v", err)
	}
	if got.Title != "Night_Drive" || got.Genre != "SYNTHWAVE" || got.Frames != 750 || !got.Validated {
		t.Fatalf("unexpected entry: %#v", got)
	}
	if !got.CreatedAt.Equal(created) || got.Elapsed() != 13*time.Second {
		t.Fatalf("timestamps not preserved: created=%v elapsed=%v", got.CreatedAt, got.Elapsed())
	}
	if got.FileName() != "Night_Drive_1.webm" {
		t.Fatalf("unexpected file name %q", got.FileName())
	}
}

func TestRecordRequiresPathAndTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	if _, err := store.Record(ctx, library.Entry{Title: "x"}); err == nil {
		t.Fatal("expected error without path")
	}
	if _, err := store.Record(ctx, library.Entry{Path: "/tmp/x.webm"}); err == nil {
		t.Fatal("expected error without title")
	}
}

func TestRecordRejectsDuplicatePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	e := library.Entry{Title: "a", Path: "/tmp/a.webm", Format: "webm"}
	if _, err := store.Record(ctx, e); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}
	if _, err := store.Record(ctx, e); err == nil {
		t.Fatal("expected unique path violation")
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	testsupport.RecordCapture(t, store, cfg, "first", 10, base)
	testsupport.RecordCapture(t, store, cfg, "third", 30, base.Add(2*time.Hour))
	testsupport.RecordCapture(t, store, cfg, "second", 20, base.Add(time.Hour+500*time.Millisecond))

	all, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var titles []string
	for _, e := range all {
		titles = append(titles, e.Title)
	}
	if strings.Join(titles, ",") != "third,second,first" {
		t.Fatalf("unexpected order: %v", titles)
	}

	limited, err := store.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].Title != "third" {
		t.Fatalf("unexpected limited list: %v", limited)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Count != 3 || stats.Bytes != 60 || stats.Unchecked != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGetAndRemoveMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	if _, err := store.Get(ctx, "deadbeef"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Remove(ctx, "deadbeef"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on remove, got %v", err)
	}

	entry := testsupport.RecordCapture(t, store, cfg, "gone", 5, time.Now())
	if err := store.Remove(ctx, entry.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Get(ctx, entry.ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected entry to be removed, got %v", err)
	}
}

func TestGetAmbiguousPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"aaaa-1111", "aaaa-2222"} {
		if _, err := store.Record(ctx, library.Entry{ID: id, Title: id, Path: "/tmp/" + id, Format: "webm"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if _, err := store.Get(ctx, "aaaa"); !errors.Is(err, library.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	got, err := store.Get(ctx, "aaaa-2222")
	if err != nil || got.ID != "aaaa-2222" {
		t.Fatalf("exact id lookup failed: %v %#v", err, got)
	}
}
