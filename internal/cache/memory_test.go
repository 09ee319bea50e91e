package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"uid":"1"}`)
	require.NoError(t, c.Set(ctx, "user:1", value, time.Minute))
	value[0] = 'X' // the cache keeps its own copy

	got, ok, err := c.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"uid":"1"}`, string(got))

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "user:1")
	assert.False(t, ok, "entry should expire at its deadline")

	require.NoError(t, c.Set(ctx, "templates", []byte("[]"), 0))
	now = now.Add(24 * time.Hour)
	_, ok, _ = c.Get(ctx, "templates")
	assert.True(t, ok, "zero expiration never expires")

	require.NoError(t, c.Delete(ctx, "templates"))
	_, ok, _ = c.Get(ctx, "templates")
	assert.False(t, ok)
}
