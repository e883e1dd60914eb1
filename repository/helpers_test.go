package repository

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chatTracker/internal/db"
	"chatTracker/models"
)

// openTestDB opens a fresh in-memory SQLite database named after the test.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err, "open db")
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// seedRegular creates a regular user named username with email username@x.com.
func seedRegular(t *testing.T, repo *UserRepository, username string) *models.RegularUser {
	t.Helper()
	u, err := models.NewRegularUser(username, username+"@x.com", "pw")
	require.NoError(t, err)
	created, err := repo.CreateRegular(context.Background(), u)
	require.NoError(t, err, "create %s", username)
	return created
}
