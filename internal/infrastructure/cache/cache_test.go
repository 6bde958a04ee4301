package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedStore(start time.Time) (*MemoryStore, *time.Time) {
	now := start
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, now := newClockedStore(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	got, expiresAt, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, now.Add(time.Minute), expiresAt)

	*now = now.Add(time.Minute)
	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	s, now := newClockedStore(time.Now())

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	*now = now.Add(24 * time.Hour)

	_, expiresAt, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, expiresAt.IsZero())
}

func TestMemoryStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, s.Invalidate(ctx, "a", "missing"))

	_, _, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	_, _, err = s.Get(ctx, "b")
	assert.NoError(t, err)
}

type feed struct {
	IDs []string `json:"ids"`
}

func TestTyped_GetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := NewTyped[feed](NewMemoryStore(), time.Minute)

	calls := 0
	load := func(context.Context) (feed, error) {
		calls++
		return feed{IDs: []string{"cash", "card"}}, nil
	}

	first, err := c.GetOrLoad(ctx, "tenders", load)
	require.NoError(t, err)
	second, err := c.GetOrLoad(ctx, "tenders", load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx, "tenders"))
	_, ok, err := c.Get(ctx, "tenders")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTyped_GetOrLoadPropagatesLoadError(t *testing.T) {
	c := NewTyped[feed](NewMemoryStore(), time.Minute)
	boom := errors.New("backend down")

	_, err := c.GetOrLoad(context.Background(), "tenders", func(context.Context) (feed, error) {
		return feed{}, boom
	})

	assert.ErrorIs(t, err, boom)
}
