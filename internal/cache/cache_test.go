package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSet(t *testing.T) {
	c, err := New(4, 0)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_LRUEviction(t *testing.T) {
	c, err := New(3, 0)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Full cache: inserting a fourth key evicts exactly the LRU entry "a".
	c.Set("d", 4)
	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	c, err := New(3, 0)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the eviction victim.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4)
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, err := New(4, 10*time.Millisecond)
	require.NoError(t, err)

	c.Set("k", "v")

	base := time.Now()
	c.now = func() time.Time { return base.Add(11 * time.Millisecond) }

	_, ok := c.Get("k")
	assert.False(t, ok)
	// Expired entry is removed on read, not just masked.
	assert.Equal(t, 0, c.Len())
}

func TestCache_TTLUnexpiredHit(t *testing.T) {
	c, err := New(4, time.Minute)
	require.NoError(t, err)

	c.Set("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCache_Clear(t *testing.T) {
	c, err := New(4, 0)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestKey_StructuralEquality(t *testing.T) {
	type args struct {
		ID   string
		Runs int
	}

	k1, err := Key(args{ID: "m1", Runs: 60})
	require.NoError(t, err)
	k2, err := Key(args{ID: "m1", Runs: 60})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := Key(args{ID: "m1", Runs: 61})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestKey_MapKeyOrderIrrelevant(t *testing.T) {
	k1, err := Key(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)
	k2, err := Key(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestKey_ScalarPassthrough(t *testing.T) {
	k, err := Key("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", k)

	k, err = Key(7)
	require.NoError(t, err)
	assert.Equal(t, "7", k)
}
