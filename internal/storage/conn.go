package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	_ "modernc.org/sqlite"
)

// dsnPragmas are applied by the driver to every new connection.
const dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=foreign_keys(1)"

// Manager owns the single logical connection to the store. The first Open
// creates the file if needed and upgrades its schema; every later Open
// returns the same handle.
type Manager struct {
	path     string
	migrator *Migrator
	logger   *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	db    *sql.DB

	opens atomic.Int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for open and migration messages.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMigrator replaces the embedded migrator.
func WithMigrator(migrator *Migrator) Option {
	return func(m *Manager) {
		m.migrator = migrator
	}
}

// NewManager returns a Manager for the SQLite file at path. Nothing is
// opened until the first call to Open.
func NewManager(path string, opts ...Option) *Manager {
	m := &Manager{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the database file path.
func (m *Manager) Path() string {
	return m.path
}

// Open returns the ready connection, opening and migrating the store on
// first use. Concurrent first calls share one open, which runs to completion
// even if the caller that started it is cancelled.
func (m *Manager) Open(ctx context.Context) (*sql.DB, error) {
	if db := m.cached(); db != nil {
		return db, nil
	}

	v, err, _ := m.group.Do("open", func() (any, error) {
		if db := m.cached(); db != nil {
			return db, nil
		}
		db, err := m.open(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.db = db
		m.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

func (m *Manager) cached() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *Manager) open(ctx context.Context) (*sql.DB, error) {
	m.opens.Add(1)

	migrator := m.migrator
	if migrator == nil {
		var err error
		if migrator, err = NewMigrator(m.logger); err != nil {
			return nil, &ConnectionError{Path: m.path, Err: err}
		}
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return nil, &ConnectionError{Path: m.path, Err: fmt.Errorf("create db directory: %w", err)}
	}

	db, err := sql.Open("sqlite", m.path+dsnPragmas)
	if err != nil {
		return nil, &ConnectionError{Path: m.path, Err: err}
	}

	// SQLite allows one writer; a single connection serializes every transaction.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Path: m.path, Err: err}
	}

	from, to, err := migrator.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, &ConnectionError{Path: m.path, Err: err}
	}

	m.logger.InfoContext(ctx, "Store opened",
		"path", m.path,
		"schema_from", from,
		"schema_version", to)
	return db, nil
}

// Version reports the store's on-disk schema version.
func (m *Manager) Version(ctx context.Context) (uint, error) {
	db, err := m.Open(ctx)
	if err != nil {
		return 0, err
	}
	return userVersion(ctx, db)
}

// Opens reports how many physical opens have been attempted.
func (m *Manager) Opens() int64 {
	return m.opens.Load()
}

// Close releases the connection. A later Open reopens the store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
