package testutil

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"chatTracker/internal/db"
	"chatTracker/models"
	"chatTracker/repository"
)

var dbSeq atomic.Int64

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// Each call gets its own database, named after the test, and it is closed via t.Cleanup.
func OpenInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	// We use a shared cache memory database so that multiple connections share the same DB.
	dsn := "file:" + name + "_" + itoa(dbSeq.Add(1)) + "?mode=memory&cache=shared"
	d, err := db.Open(dsn)
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// CreateRegularUser inserts a regular user with the given credentials.
func CreateRegularUser(t *testing.T, d *sql.DB, username, password string) *models.User {
	t.Helper()
	u, err := models.NewRegularUser(username, username+"@mail.com", password)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	created, err := repository.NewUserRepository(d).CreateRegular(ctx, u)
	require.NoError(t, err, "create regular user %s", username)
	return &created.User
}

// CreateAdmin inserts an admin with the given credentials and admin id.
func CreateAdmin(t *testing.T, d *sql.DB, username, password, adminID string) *models.User {
	t.Helper()
	a, err := models.NewAdmin(username, username+"@mail.com", password, adminID)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	created, err := repository.NewUserRepository(d).CreateAdmin(ctx, a)
	require.NoError(t, err, "create admin %s", username)
	return &created.User
}

// GenerateJWTHS256 returns a signed JWT string carrying the claims the app expects.
func GenerateJWTHS256(t *testing.T, secret string, userID int64, name, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  itoa(userID),
		"name": name,
		"role": role,
		"jti":  "test-" + name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err, "sign token")
	return s
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
