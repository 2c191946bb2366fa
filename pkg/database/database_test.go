package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultFile, config.Path)
	assert.Positive(t, config.BusyTimeout)
}

func TestOpen_SharesHandleByPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shared.db")

	first, err := Open(Config{Path: path})
	require.NoError(t, err)
	second, err := Open(Config{Path: path})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, path, first.Path())

	require.NoError(t, first.Close())
	assert.NoError(t, second.DB().Ping(), "handle stays open while referenced")
	require.NoError(t, second.Close())

	third, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer third.Close()
	assert.NotSame(t, first, third, "a fully closed path is reopened")
}

func TestTransaction(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "tx.db")})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.ExecuteSchema(`CREATE TABLE items (name TEXT NOT NULL)`))
	ctx := context.Background()

	err = db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO items (name) VALUES ('kept')`)
		return err
	})
	require.NoError(t, err)

	rollback := errors.New("rollback")
	err = db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO items (name) VALUES ('discarded')`); err != nil {
			return err
		}
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	var count int
	require.NoError(t, db.DB().QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestInfo(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "info.db")})
	require.NoError(t, err)
	defer db.Close()

	info, err := db.Info(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, info["sqlite_version"])
	assert.Equal(t, 0, info["table_count"])
}
