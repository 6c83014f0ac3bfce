package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour).WithClock(func() time.Time { return now })

	sess, err := s.Create(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, sess.Token, 64)

	got, err := s.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.UserID)

	require.NoError(t, s.Delete(ctx, sess.Token))
	_, err = s.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour).WithClock(func() time.Time { return now })

	sess, err := s.Create(ctx, 1)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = s.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokensAreUnique(t *testing.T) {
	assert.NotEqual(t, NewToken(), NewToken())
}
