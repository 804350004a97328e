package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetSetDelete(t *testing.T) {
	c := New()

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("k", []byte("v"), time.Minute)
	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)

	c.Delete("k")
	_, ok = c.Get("k")
	require.False(t, ok)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(func() time.Time { return now })

	c.Set("k", []byte("v"), 5*time.Minute)

	now = now.Add(4 * time.Minute)
	_, ok := c.Get("k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	require.False(t, ok)
}

func TestSetOverwritesAndResetsTTL(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(func() time.Time { return now })

	c.Set("k", []byte("one"), time.Minute)
	now = now.Add(50 * time.Second)
	c.Set("k", []byte("two"), time.Minute)

	now = now.Add(30 * time.Second)
	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, []byte("two"), got)
}
