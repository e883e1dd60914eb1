package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepository_RevokeAndPurge(t *testing.T) {
	d := openTestDB(t)
	repo := NewTokenRepository(d)
	ctx := context.Background()
	now := time.Now()

	revoked, err := repo.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.Revoke(ctx, "abc", now.Add(time.Hour)))
	require.NoError(t, repo.Revoke(ctx, "abc", now.Add(time.Hour)))
	require.NoError(t, repo.Revoke(ctx, "old", now.Add(-time.Hour)))
	assert.Error(t, repo.Revoke(ctx, "", now))

	revoked, err = repo.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	n, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	revoked, err = repo.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
	revoked, err = repo.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
}
