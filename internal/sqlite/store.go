// Package sqlite implements the Foreman project-state store on a single
// embedded SQLite database file. Concurrency comes from independent client
// processes sharing the file: the database runs in WAL mode so readers are
// never blocked by an in-flight writer, every public operation is one
// short-lived transaction, and cross-process races are resolved by bounded
// retry on conflict rather than application-level locks.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/millbridge/foreman/internal/paths"
	"github.com/millbridge/foreman/pkg/types"
)

// Store is a handle on the project database. It is safe for concurrent use;
// the underlying pool is capped at one connection so a read immediately
// following a write on the same Store observes the write.
type Store struct {
	db  *sql.DB
	cfg types.Config
	log *slog.Logger
}

// Open opens (creating if necessary) the project database under
// cfg.DataDir and applies the schema idempotently.
func Open(cfg types.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// _txlock=immediate makes every transaction take the write lock at
	// BEGIN, before the first read. Without it a deferred transaction that
	// read under a stale WAL snapshot fails its upgrade with
	// SQLITE_BUSY_SNAPSHOT, which busy_timeout does not wait on.
	dbPath := paths.DatabaseFile(cfg.DataDir)
	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps readers unblocked during writes from other processes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	busyMs := cfg.BusyTimeout.Milliseconds()
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busyMs)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// Slightly faster writes, still safe with WAL.
	db.Exec("PRAGMA synchronous=NORMAL")

	// Single connection: serializes this process's writers and guarantees
	// read-after-write on the same Store.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:  db,
		cfg: cfg,
		log: slog.Default().With("component", "store"),
	}

	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside one transaction, committing on success. The
// deferred rollback is a no-op after commit. Errors come back raw; the
// public operation classifies and logs them once at its boundary.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// readRetry runs a read, retrying a bounded number of times while the
// database is busy, and returns the last raw error for the caller to
// classify. Writes never pass through here: they fail fast and leave the
// retry decision to the caller.
func (s *Store) readRetry(fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		if attempt >= s.cfg.ReadRetries {
			return err
		}
		time.Sleep(retryBackoff(attempt))
	}
}

// fail classifies err against the store error taxonomy, logs it with the
// operation context, and returns the wrapped error. No error leaves the
// store unlogged.
func (s *Store) fail(op string, err error) error {
	s.log.Error("store operation failed", "op", op, "err", err)
	if classified := classify(err); classified != nil {
		return fmt.Errorf("%s: %w: %v", op, classified, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// retryBackoff returns the sleep before retry n, doubling from 10ms.
func retryBackoff(attempt int) time.Duration {
	return 10 * time.Millisecond << attempt
}

// newID generates a UUID v7 entity id, falling back to v4 if the clock
// misbehaves.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// now returns the current UTC time truncated for stable round-tripping
// through the TEXT columns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// timeFormat is the column encoding for timestamps. Nanosecond precision
// keeps creation-time ordering deterministic within one process.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// formatNullableTime encodes an optional timestamp, nil becoming SQL NULL.
func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseNullableTime decodes an optional timestamp column.
func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
