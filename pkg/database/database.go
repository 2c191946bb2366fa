// Package database wraps the SQLite handle shared by the key-value store and
// the event store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lepinkainen/nsite-directory/pkg/filesystem"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultFile is the database file name used when no path is configured
const DefaultFile = "nsite-directory.db"

var (
	// openDatabases stores active database connections, keyed by path
	openDatabases = make(map[string]*Database)
	// openMutex protects openDatabases
	openMutex = &sync.Mutex{}
)

// Database represents a thread-safe database connection
type Database struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	refs   int
}

// Config holds database configuration
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// DefaultConfig returns the default database configuration
func DefaultConfig() Config {
	return Config{
		Path:        DefaultFile,
		BusyTimeout: 5 * time.Second,
	}
}

// Open returns a connection for config.Path. Opening the same path twice
// returns the same handle; it is closed once every opener has called Close.
func Open(config Config) (*Database, error) {
	openMutex.Lock()
	defer openMutex.Unlock()

	if config.Path == "" {
		config.Path = DefaultFile
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	if db, ok := openDatabases[config.Path]; ok {
		db.refs++
		return db, nil
	}

	if err := filesystem.EnsureDirectoryExists(config.Path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := configure(db, config); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
		return nil, err
	}

	database := &Database{
		db:     db,
		dbPath: config.Path,
		refs:   1,
	}
	openDatabases[config.Path] = database

	slog.Debug("Database opened", "path", config.Path)
	return database, nil
}

// configure applies the SQLite pragmas and pool settings
func configure(db *sql.DB, config Config) error {
	busy := fmt.Sprintf("PRAGMA busy_timeout=%d", config.BusyTimeout.Milliseconds())
	if _, err := db.Exec(busy); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to read journal mode: %w", err)
	}

	if !strings.EqualFold(journalMode, "wal") {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil { // Enable WAL mode for concurrent readers/writers
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	pragmas := []string{
		"PRAGMA synchronous=NORMAL", // Balance between performance and safety
		"PRAGMA temp_store=memory",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close releases this reference to the database
func (db *Database) Close() error {
	openMutex.Lock()
	defer openMutex.Unlock()

	db.refs--
	if db.refs > 0 {
		return nil
	}
	delete(openDatabases, db.dbPath)

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.db != nil {
		err := db.db.Close()
		db.db = nil
		return err
	}
	return nil
}

// DB returns the underlying sql.DB instance (thread-safe)
func (db *Database) DB() *sql.DB {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.db
}

// Path returns the database file path
func (db *Database) Path() string {
	return db.dbPath
}

// ExecuteSchema executes a schema statement
func (db *Database) ExecuteSchema(schema string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.db.Exec(schema)
	return err
}

// Transaction executes a function within a database transaction
func (db *Database) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				slog.Error("Failed to rollback transaction", "error", rollbackErr)
			}
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			slog.Error("Failed to rollback transaction", "error", rollbackErr)
		}
		return err
	}

	return tx.Commit()
}

// Info returns the SQLite version and table count, used by the stats command
func (db *Database) Info(ctx context.Context) (map[string]any, error) {
	info := make(map[string]any)

	var version string
	if err := db.DB().QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return nil, fmt.Errorf("failed to get SQLite version: %w", err)
	}
	info["sqlite_version"] = version

	var tableCount int
	err := db.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&tableCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get table count: %w", err)
	}
	info["table_count"] = tableCount
	info["path"] = db.dbPath

	return info, nil
}
