package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T, name string) *sql.DB {
	t.Helper()
	d, err := Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func countRows(t *testing.T, d *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestOpen_AppliesAllMigrations(t *testing.T) {
	d := openMem(t, "dbmigrate")

	applied, err := appliedVersions(d)
	require.NoError(t, err)
	migs, err := loadMigrations()
	require.NoError(t, err)
	assert.Len(t, applied, len(migs))

	for _, table := range []string{"users", "chats", "categories", "chat_category", "revoked_tokens"} {
		assert.Equal(t, 0, countRows(t, d, table), table)
	}
}

func TestOpen_EnforcesForeignKeys(t *testing.T) {
	d := openMem(t, "dbfk")
	_, err := d.Exec(`INSERT INTO chats (user_id, text) VALUES (999, 'orphan')`)
	assert.Error(t, err, "chat without owner must violate the foreign key")
}

func TestReset_DropsDataAndReapplies(t *testing.T) {
	d := openMem(t, "dbreset")
	_, err := d.Exec(`INSERT INTO users (username, email, password_hash) VALUES ('bob', 'bob@x.com', 'h')`)
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, d, "users"))

	require.NoError(t, Reset(d))
	assert.Equal(t, 0, countRows(t, d, "users"))

	applied, err := appliedVersions(d)
	require.NoError(t, err)
	assert.NotEmpty(t, applied)
}

func TestRollbackLast_NothingApplied(t *testing.T) {
	d := openMem(t, "dbrollback")
	require.NoError(t, RollbackAll(d))
	require.NoError(t, RollbackLast(d))
	applied, err := appliedVersions(d)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestChatCategoryTouchTrigger(t *testing.T) {
	d := openMem(t, "dbtrigger")
	_, err := d.Exec(`INSERT INTO users (id, username, email, password_hash) VALUES (1, 'bob', 'bob@x.com', 'h')`)
	require.NoError(t, err)
	_, err = d.Exec(`INSERT INTO chats (id, user_id, text) VALUES (1, 1, 'buy milk')`)
	require.NoError(t, err)
	_, err = d.Exec(`INSERT INTO categories (id, user_id, text) VALUES (1, 1, 'home')`)
	require.NoError(t, err)
	_, err = d.Exec(`INSERT INTO chat_category (chat_id, category_id, last_modified) VALUES (1, 1, '2000-01-01 00:00:00')`)
	require.NoError(t, err)

	_, err = d.Exec(`UPDATE chat_category SET category_id = 1 WHERE chat_id = 1`)
	require.NoError(t, err)

	var touched string
	require.NoError(t, d.QueryRow(`SELECT strftime('%Y', last_modified) FROM chat_category WHERE chat_id = 1`).Scan(&touched))
	assert.NotEqual(t, "2000", touched)

	_, err = d.Exec(`INSERT INTO chat_category (chat_id, category_id) VALUES (1, 1)`)
	assert.Error(t, err, "duplicate association must be rejected")
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	d := openMem(t, "dbtx")
	ctx := context.Background()

	err := WithTx(ctx, d, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES ('a', 'a@x.com', 'h')`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, d, "users"))

	boom := errors.New("boom")
	err = WithTx(ctx, d, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES ('b', 'b@x.com', 'h')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, countRows(t, d, "users"))

	assert.Panics(t, func() {
		_ = WithTx(ctx, d, func(tx *sql.Tx) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES ('c', 'c@x.com', 'h')`)
			panic("kaboom")
		})
	})
	assert.Equal(t, 1, countRows(t, d, "users"))
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "app.db?_foreign_keys=on&_busy_timeout=5000", withPragmas("app.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on&_busy_timeout=5000", withPragmas("file:x?mode=memory"))
}
