package boltstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/models"
)

func newRepo(t *testing.T) *SessionsRepo {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "state", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSessions_PutGetDelete(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	s := models.Session{ID: "s1", UserID: 7, Username: "alice", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, r.Put(ctx, s))

	got, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)
	assert.Equal(t, s.Username, got.Username)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

	require.NoError(t, r.Delete(ctx, "s1"))
	_, err = r.Get(ctx, "s1")
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, r.Delete(ctx, "never-existed"))
}

func TestSessions_PurgeExpired(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Put(ctx, models.Session{ID: "old", UserID: 1, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, r.Put(ctx, models.Session{ID: "edge", UserID: 1, ExpiresAt: now}))
	require.NoError(t, r.Put(ctx, models.Session{ID: "live", UserID: 2, ExpiresAt: now.Add(time.Hour)}))

	n, err := r.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = r.Get(ctx, "old")
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = r.Get(ctx, "live")
	require.NoError(t, err)
}

func TestSessions_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	r, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r.Put(ctx, models.Session{ID: "keep", UserID: 3, ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, r.Close())

	r, err = Open(path)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.Get(ctx, "keep")
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.UserID)
}

func TestSessions_CanceledContext(t *testing.T) {
	r := newRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Get(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}
