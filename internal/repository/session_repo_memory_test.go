package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/busbooking/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	name string
}

func TestNewSessionRepository(t *testing.T) {
	repo := NewSessionRepository[*fakeSession](nil)
	assert.NotNil(t, repo)
	assert.Zero(t, repo.Len())
}

func TestSessionRepository_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository[*fakeSession](clock.Fake(time.Unix(0, 0)))

	s := &fakeSession{name: "first"}
	require.NoError(t, repo.Create(ctx, "s1", s))
	assert.Error(t, repo.Create(ctx, "s1", &fakeSession{}))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "s1"), ErrSessionNotFound)
}

func TestSessionRepository_ExpireIdle(t *testing.T) {
	ctx := context.Background()
	clk := clock.Fake(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	repo := NewSessionRepository[*fakeSession](clk)

	require.NoError(t, repo.Create(ctx, "idle", &fakeSession{name: "idle"}))
	require.NoError(t, repo.Create(ctx, "active", &fakeSession{name: "active"}))

	clk.Advance(20 * time.Minute)
	_, err := repo.Get(ctx, "active")
	require.NoError(t, err)

	clk.Advance(15 * time.Minute)
	expired, err := repo.ExpireIdle(ctx, 30*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, []string{"idle"}, expired)
	assert.Equal(t, 1, repo.Len())

	_, err = repo.Get(ctx, "idle")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = repo.Get(ctx, "active")
	assert.NoError(t, err)
}
