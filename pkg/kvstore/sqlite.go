package kvstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lepinkainen/nsite-directory/pkg/database"
)

// DefaultTable is the table used by NewSQLiteStore
const DefaultTable = "kv_store"

// SQLiteStore is a Store persisted in a SQLite table
type SQLiteStore struct {
	db        *database.Database
	tableName string
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates the key-value table if needed and returns a store on it
func NewSQLiteStore(db *database.Database, tableName string) (*SQLiteStore, error) {
	if tableName == "" {
		tableName = DefaultTable
	}

	s := &SQLiteStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize key-value table %s: %w", tableName, err)
	}

	return s, nil
}

// initialize creates the table if it doesn't exist
func (s *SQLiteStore) initialize() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_expires ON %s(expires_at);
	`, s.tableName, s.tableName, s.tableName)

	return s.db.ExecuteSchema(schema)
}

// Get retrieves a value from the store
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	query := fmt.Sprintf(`
		SELECT value FROM %s
		WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)
	`, s.tableName)

	var value string
	err := s.db.DB().QueryRow(query, key, time.Now().UnixMilli()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get value for %q: %w", key, err)
	}

	return value, true, nil
}

// Set stores a value in the store
func (s *SQLiteStore) Set(key, value string, ttl time.Duration) error {
	now := time.Now()

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixMilli(), Valid: true}
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, s.tableName)

	if _, err := s.db.DB().Exec(query, key, value, expiresAt, now.UnixMilli()); err != nil {
		return fmt.Errorf("failed to set value for %q: %w", key, err)
	}

	return nil
}

// Delete removes a value from the store
func (s *SQLiteStore) Delete(key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.tableName)

	if _, err := s.db.DB().Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete value for %q: %w", key, err)
	}

	return nil
}

// CleanupExpired removes expired entries from the store
func (s *SQLiteStore) CleanupExpired() error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.tableName)

	result, err := s.db.DB().Exec(query, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to cleanup expired entries: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		slog.Debug("Cleaned up expired key-value entries", "table", s.tableName, "count", rowsAffected)
	}

	return nil
}

// CountPrefix returns how many live entries have keys starting with prefix
func (s *SQLiteStore) CountPrefix(prefix string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE substr(key, 1, ?) = ? AND (expires_at IS NULL OR expires_at > ?)
	`, s.tableName)

	var count int
	err := s.db.DB().QueryRow(query, utf8.RuneCountInString(prefix), prefix, time.Now().UnixMilli()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries with prefix %q: %w", prefix, err)
	}

	return count, nil
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// the number removed
func (s *SQLiteStore) DeletePrefix(prefix string) (int64, error) {
	if strings.TrimSpace(prefix) == "" {
		return 0, fmt.Errorf("refusing to delete with an empty prefix")
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE substr(key, 1, ?) = ?`, s.tableName)

	result, err := s.db.DB().Exec(query, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries with prefix %q: %w", prefix, err)
	}

	return result.RowsAffected()
}
