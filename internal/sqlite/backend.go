// Package sqlite implements types.RowStore on a local data directory.
//
// Each sheet is persisted as one JSONL file, which is the source of truth.
// On Attach the files are loaded into a fresh SQLite database that serves
// reads and position lookups; every write updates SQLite and then rewrites
// the sheet's file atomically. Row positions behave like a spreadsheet:
// the header is position 1 and deleting a row shifts later rows up.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/cvtracker/internal/metrics"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

const (
	backendName = "sqlite"
	dbFileName  = "tracker.db"
	lockName    = ".lock"
)

// ErrLocked is returned by Attach when another process holds the data
// directory.
var ErrLocked = errors.New("data directory is locked by another process")

// Backend is a local RowStore.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	lock     *flock.Flock
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

var (
	_ types.RowStore     = (*Backend)(nil)
	_ types.HeaderWriter = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// WithMetrics sets the collector that records backend requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Backend) { b.metrics = m }
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "sqlite")
	return b
}

// Attach locks the data directory, builds the SQLite schema and loads
// every sheet file. Returns ErrAlreadyAttached if already attached and
// ErrLocked if another process owns the directory.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendSQLite {
		return fmt.Errorf("attaching %s config: %w", config.Backend, types.ErrBackendUnknown)
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	lock := flock.New(filepath.Join(config.DataDir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking data directory: %w", err)
	}
	if !ok {
		return ErrLocked
	}

	db, err := b.openDB(config.DataDir)
	if err != nil {
		lock.Unlock()
		return err
	}

	n, err := loadAllJSONL(db, config.DataDir)
	if err != nil {
		db.Close()
		lock.Unlock()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.lock = lock
	b.config = config
	b.attached = true
	b.logger.Info("attached", "data_dir", config.DataDir, "sheets", n)
	return nil
}

// openDB recreates the SQLite database file. The JSONL files are
// authoritative, so any previous database is discarded.
func (b *Backend) openDB(dataDir string) (*sql.DB, error) {
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return db, nil
}

// Detach closes the database and releases the directory lock. Detach is
// idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	var errs []error
	if err := b.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	if err := b.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("unlocking data directory: %w", err))
	}
	b.db = nil
	b.lock = nil
	b.attached = false
	return errors.Join(errs...)
}
