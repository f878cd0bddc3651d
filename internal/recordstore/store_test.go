package recordstore_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bookscan/internal/book"
	"bookscan/internal/recordstore"
	"bookscan/internal/services"
)

func openStore(t *testing.T, path string) *recordstore.Store {
	t.Helper()
	store, err := recordstore.Open(context.Background(), recordstore.Options{Path: path, Source: "https://ndlsearch.ndl.go.jp/api/opensearch"})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord() book.Record {
	return book.Record{
		ISBN:      "9780134685991",
		Title:     "Effective Modern C++",
		Author:    "Scott Meyers",
		PubDate:   "2014",
		Publisher: "O'Reilly",
	}
}

func TestPutGetOverwrite(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "books.db"))
	ctx := context.Background()

	if err := store.Put(ctx, sampleRecord()); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	updated := sampleRecord()
	updated.PubDate = "2015"
	updated.Transcript = "エフェクティブ"
	if err := store.Put(ctx, updated); err != nil {
		t.Fatalf("second Put returned error: %v", err)
	}

	entry, err := store.Get(ctx, "9780134685991")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected stored entry")
	}
	if entry.Record != updated {
		t.Fatalf("expected last write to win, got %+v", entry.Record)
	}
	if entry.Source != "https://ndlsearch.ndl.go.jp/api/opensearch" {
		t.Fatalf("unexpected source %q", entry.Source)
	}
	if entry.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be set")
	}
	if n, err := store.Count(ctx); err != nil || n != 1 {
		t.Fatalf("Count = %d, %v; want 1", n, err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "books.db"))
	entry, err := store.Get(context.Background(), "9783161484100")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %+v", entry)
	}
}

func TestRecordsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.db")
	ctx := context.Background()

	first, err := recordstore.Open(ctx, recordstore.Options{Path: path})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := first.Put(ctx, sampleRecord()); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}

	second := openStore(t, path)
	entry, err := second.Get(ctx, "9780134685991")
	if err != nil || entry == nil {
		t.Fatalf("expected record after reopen, got %v %v", entry, err)
	}
	if entry.Record != sampleRecord() {
		t.Fatalf("unexpected record %+v", entry.Record)
	}
}

func TestStoreIsReadableAsPlainSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.db")
	ctx := context.Background()
	store, err := recordstore.Open(ctx, recordstore.Options{Path: path})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Put(ctx, sampleRecord()); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()

	var title, publisher string
	if err := db.QueryRow("SELECT title, publisher FROM books WHERE isbn = ?", "9780134685991").Scan(&title, &publisher); err != nil {
		t.Fatalf("query books view: %v", err)
	}
	if title != "Effective Modern C++" || publisher != "O'Reilly" {
		t.Fatalf("unexpected view row: %q %q", title, publisher)
	}
}

func TestOpenFailsWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.db")
	openStore(t, path)

	_, err := recordstore.Open(context.Background(), recordstore.Options{Path: path, LockTimeout: 100 * time.Millisecond})
	if !errors.Is(err, recordstore.ErrLocked) {
		t.Fatalf("expected lock contention error, got %v", err)
	}
	if !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected store marker, got %v", err)
	}
}

func TestReadOnlyRejectsPut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.db")
	ctx := context.Background()
	writer, err := recordstore.Open(ctx, recordstore.Options{Path: path})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := writer.Put(ctx, sampleRecord()); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reader, err := recordstore.Open(ctx, recordstore.Options{Path: path, ReadOnly: true})
	if err != nil {
		t.Fatalf("read-only Open returned error: %v", err)
	}
	defer reader.Close()

	entries, err := reader.List(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("List = %v, %v", entries, err)
	}
	if err := reader.Put(ctx, sampleRecord()); !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected read-only Put to fail, got %v", err)
	}
}

func TestReadOnlyMissingStore(t *testing.T) {
	_, err := recordstore.Open(context.Background(), recordstore.Options{Path: filepath.Join(t.TempDir(), "absent.db"), ReadOnly: true})
	if !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestPutRequiresISBN(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "books.db"))
	rec := sampleRecord()
	rec.ISBN = " "
	if err := store.Put(context.Background(), rec); !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}
