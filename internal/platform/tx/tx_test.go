package tx_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focuslock/internal/platform/kv"
	"focuslock/internal/platform/tx"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE items (name TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func TestWithinCommits(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	err := tx.Within(context.Background(), db, func(dbTx *sql.Tx) error {
		_, err := dbTx.Exec(`INSERT INTO items (name) VALUES ('a'), ('b')`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count(t, db))
}

func TestWithinRollsBackOnError(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	boom := errors.New("boom")
	err := tx.Within(context.Background(), db, func(dbTx *sql.Tx) error {
		if _, err := dbTx.Exec(`INSERT INTO items (name) VALUES ('a')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db))
}
