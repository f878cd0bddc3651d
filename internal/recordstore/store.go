package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"bookscan/internal/services"
)

// ErrLocked reports that another process holds the store lock.
var ErrLocked = errors.New("record store is locked by another process")

// Options configures Open.
type Options struct {
	Path string
	// LockTimeout bounds the wait for the store lock; zero tries once.
	LockTimeout time.Duration
	// ReadOnly opens an existing store under a shared lock. Nothing is
	// migrated or written, and Put is rejected.
	ReadOnly bool
	// Source is stamped on every row written through this Store.
	Source string
}

// Store manages record persistence backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	lock     *flock.Flock
	readOnly bool
	source   string
	now      func() time.Time

	closeOnce sync.Once
	closeErr  error
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	lockRetryDelay          = 50 * time.Millisecond
)

// LockPath returns the advisory lock file guarding the store at path.
func LockPath(path string) string {
	return path + ".lock"
}

// Open acquires the store lock, opens the database, and applies migrations.
// Every error is marked services.ErrStore.
func Open(ctx context.Context, opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, services.Wrap(services.ErrStore, "store", "open", "store path required", nil)
	}

	if opts.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, services.Wrap(services.ErrStore, "store", "open", path, err)
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "open", "create store directory", err)
	}

	lock := flock.New(LockPath(path))
	if err := acquireLock(ctx, lock, opts); err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "lock", LockPath(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrStore, "store", "open", "open sqlite db", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if !opts.ReadOnly {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous = FULL")
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, services.Wrap(services.ErrStore, "store", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{
		db:       db,
		path:     path,
		lock:     lock,
		readOnly: opts.ReadOnly,
		source:   strings.TrimSpace(opts.Source),
		now:      time.Now,
	}
	if !opts.ReadOnly {
		if err := store.applyMigrations(ctx); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, services.Wrap(services.ErrStore, "store", "migrate", "", err)
		}
	}
	return store, nil
}

func acquireLock(ctx context.Context, lock *flock.Flock, opts Options) error {
	try := lock.TryLock
	tryCtx := lock.TryLockContext
	if opts.ReadOnly {
		try = lock.TryRLock
		tryCtx = lock.TryRLockContext
	}

	var (
		ok  bool
		err error
	)
	if opts.LockTimeout <= 0 {
		ok, err = try()
	} else {
		lockCtx, cancel := context.WithTimeout(ctx, opts.LockTimeout)
		defer cancel()
		ok, err = tryCtx(lockCtx, lockRetryDelay)
		if errors.Is(err, context.DeadlineExceeded) {
			ok, err = false, nil
		}
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close checkpoints the write-ahead log, closes the database, and releases the
// lock. It is safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		var errs []error
		if !s.readOnly {
			if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				errs = append(errs, fmt.Errorf("checkpoint wal: %w", err))
			}
		}
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sqlite db: %w", err))
		}
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
		if len(errs) > 0 {
			s.closeErr = services.Wrap(services.ErrStore, "store", "close", "", errors.Join(errs...))
		}
	})
	return s.closeErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
