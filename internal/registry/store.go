package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mvnd/internal/config"
)

// Store persists the set of running daemons shared by every client and daemon
// on the machine. Each process opens its own Store; SQLite serializes writers.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Pragmas applied to every pooled connection through the DSN.
var connectionPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// Explicit transactions take the write lock at BEGIN, so the busy handler
// covers them instead of a later read-to-write upgrade failing outright.
const txLock = "immediate"

const (
	maxBusyAttempts = 8
	firstBusyDelay  = 10 * time.Millisecond
	maxBusyDelay    = 200 * time.Millisecond
)

// Open connects to the registry database under cfg.Paths.RegistryDir,
// creating it on first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Paths.RegistryDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure registry directory: %w", err)
	}

	path := cfg.RegistryPath()
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func dsn(path string) string {
	query := url.Values{}
	for _, pragma := range connectionPragmas {
		query.Add("_pragma", pragma)
	}
	query.Set("_txlock", txLock)
	return "file:" + path + "?" + query.Encode()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// exec runs a write statement, retrying while another process holds the
// write lock beyond busy_timeout.
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := retryBusy(ctx, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// retryBusy runs op until it succeeds, fails with a non-busy error, or the
// attempts run out.
func retryBusy(ctx context.Context, op func() error) error {
	delay := firstBusyDelay
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !isBusy(err) || attempt == maxBusyAttempts {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, maxBusyDelay)
	}
}

// isBusy matches SQLITE_BUSY and its extended codes.
func isBusy(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code()&0xff == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
