package testsupport

import (
	"context"
	"testing"

	"bookscan/internal/book"
	"bookscan/internal/config"
	"bookscan/internal/recordstore"
)

// MustOpenStore opens the record store named by cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *recordstore.Store {
	t.Helper()

	store, err := recordstore.Open(context.Background(), recordstore.Options{
		Path:   cfg.Store.Path,
		Source: cfg.Lookup.Endpoint,
	})
	if err != nil {
		t.Fatalf("recordstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutRecord stores rec and fails the test on error.
func PutRecord(t testing.TB, store *recordstore.Store, rec book.Record) {
	t.Helper()

	if err := store.Put(context.Background(), rec); err != nil {
		t.Fatalf("store.Put: %v", err)
	}
}
