package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_MemoryOnly(t *testing.T) {
	c, err := New(nil, 2)
	require.NoError(t, err)

	k1 := Key{Path: "a.js", ContentHash: "1", OptionsHash: "o"}
	k2 := Key{Path: "b.js", ContentHash: "2", OptionsHash: "o"}
	k3 := Key{Path: "c.js", ContentHash: "3", OptionsHash: "o"}

	_, ok := c.Get(k1)
	assert.False(t, ok)

	c.Put(k1, Entry{Status: "rewritten", Code: "a"})
	c.Put(k2, Entry{Status: "unchanged"})
	got, ok := c.Get(k1)
	require.True(t, ok)
	assert.Equal(t, "a", got.Code)

	// k2 is now least recently used.
	c.Put(k3, Entry{Status: "unchanged"})
	_, ok = c.Get(k2)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_FallsThroughToStore(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	key := Key{Path: "a.js", ContentHash: Hash("x"), OptionsHash: Hash("o")}
	warm, err := New(store, 8)
	require.NoError(t, err)
	warm.Put(key, Entry{Status: "rewritten", Code: "out"})

	cold, err := New(store, 8)
	require.NoError(t, err)
	got, ok := cold.Get(key)
	require.True(t, ok)
	assert.Equal(t, "out", got.Code)
	assert.Equal(t, 1, cold.Len())

	cold.Purge()
	assert.Equal(t, 0, cold.Len())
	_, ok = cold.Get(key)
	assert.True(t, ok)
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("a", "b"), Hash("a", "b"))
	assert.NotEqual(t, Hash("ab"), Hash("a", "b"))
	assert.Len(t, Hash(""), 64)
}
