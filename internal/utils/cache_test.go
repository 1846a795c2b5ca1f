package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGetForget(t *testing.T) {
	cache := NewCache[string, int]()

	cache.Put("key1", 42)
	value, ok := cache.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, 42, value)

	_, ok = cache.Get("missing")
	assert.False(t, ok)

	cache.Forget("key1")
	_, ok = cache.Get("key1")
	assert.False(t, ok)

	assert.Equal(t, CacheStats{Hits: 1, Misses: 2}, cache.Stats())
}

func TestCache_ResetKeepsCounters(t *testing.T) {
	cache := NewCache[string, string]()
	cache.Put("a", "1")
	cache.Put("b", "2")
	_, _ = cache.Get("a")

	assert.ElementsMatch(t, []string{"a", "b"}, cache.Keys())

	cache.Reset()
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, int64(1), cache.Stats().Hits)
}

func TestCache_Load(t *testing.T) {
	cache := NewCache[string, int]()
	calls := 0
	load := func() (int, error) {
		calls++
		return 7, nil
	}

	for range 2 {
		v, err := cache.Load("k", load)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}
	assert.Equal(t, 1, calls)

	_, err := cache.Load("bad", func() (int, error) { return 0, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	_, ok := cache.Get("bad")
	assert.False(t, ok)
}

func TestCache_GetFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	cache := NewCache[string, string]()
	require.NoError(t, cache.PutStamped(path, "first", path))

	value, ok := cache.GetFresh(path, path)
	require.True(t, ok)
	assert.Equal(t, "first", value)

	require.NoError(t, os.WriteFile(path, []byte("second, longer"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	_, ok = cache.GetFresh(path, path)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, int64(1), cache.Stats().Evictions)

	t.Run("unstamped entries are never fresh", func(t *testing.T) {
		cache.Put(path, "plain")
		_, ok := cache.GetFresh(path, path)
		assert.False(t, ok)
	})

	t.Run("missing file", func(t *testing.T) {
		err := cache.PutStamped("x", "x", filepath.Join(dir, "nope"))
		assert.Error(t, err)
	})
}
