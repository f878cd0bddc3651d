package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"bookscan/internal/book"
	"bookscan/internal/services"
)

// Entry is a stored record with its row metadata.
type Entry struct {
	Record    book.Record `json:"record"`
	Source    string      `json:"source,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// timeLayout is fixed-width so updated_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Put upserts rec under rec.ISBN, replacing any previous value.
func (s *Store) Put(ctx context.Context, rec book.Record) error {
	if s.readOnly {
		return services.Wrap(services.ErrStore, "store", "put", "store opened read-only", nil)
	}
	key := strings.TrimSpace(rec.ISBN)
	if key == "" {
		return services.Wrap(services.ErrStore, "store", "put", "record has no ISBN", nil)
	}
	rec.ISBN = key
	value, err := json.Marshal(rec)
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "put", "encode record", err)
	}
	updated := s.now().UTC().Format(timeLayout)

	err = retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
INSERT INTO records (isbn, value, source, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(isbn) DO UPDATE SET
    value = excluded.value,
    source = excluded.source,
    updated_at = excluded.updated_at`,
			key, string(value), s.source, updated)
		return execErr
	})
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "put", key, err)
	}
	return nil
}

// Get returns the entry stored for isbn, or nil when there is none.
func (s *Store) Get(ctx context.Context, isbn string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT isbn, value, source, updated_at FROM records WHERE isbn = ?", strings.TrimSpace(isbn))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "get", isbn, err)
	}
	return entry, nil
}

// List returns every entry, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT isbn, value, source, updated_at FROM records ORDER BY updated_at DESC, isbn ASC")
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "list", "", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStore, "store", "list", "", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "list", "", err)
	}
	return entries, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM records").Scan(&n); err != nil {
		return 0, services.Wrap(services.ErrStore, "store", "count", "", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		key, value, source, updated string
	)
	if err := row.Scan(&key, &value, &source, &updated); err != nil {
		return nil, err
	}
	var rec book.Record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	rec.ISBN = key
	ts, err := time.Parse(timeLayout, updated)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for %s: %w", key, err)
	}
	return &Entry{Record: rec, Source: source, UpdatedAt: ts}, nil
}
