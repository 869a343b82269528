package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/cache"
)

func openStore(t *testing.T) *cache.SQLiteStore {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRoundTrip(t *testing.T) {
	store := openStore(t)

	store.Put("src/lib.rs", &cache.Entry{
		Hash: "abc123",
		Vectors: map[string][]float32{
			"alpha": {1, 0.5, -0.25},
			"beta":  {0, -1, 2},
		},
	})
	require.NoError(t, store.Flush())

	entry, err := store.Lookup("src/lib.rs")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "abc123", entry.Hash)
	assert.Equal(t, []float32{1, 0.5, -0.25}, entry.Vectors["alpha"])
	assert.Equal(t, []float32{0, -1, 2}, entry.Vectors["beta"])
}

func TestLookupMiss(t *testing.T) {
	store := openStore(t)

	entry, err := store.Lookup("never/written.rs")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestFlushReplacesVectors(t *testing.T) {
	store := openStore(t)

	store.Put("a.rs", &cache.Entry{
		Hash:    "v1",
		Vectors: map[string][]float32{"old": {1}, "stale": {2}},
	})
	require.NoError(t, store.Flush())

	store.Put("a.rs", &cache.Entry{
		Hash:    "v2",
		Vectors: map[string][]float32{"new": {3}},
	})
	require.NoError(t, store.Flush())

	entry, err := store.Lookup("a.rs")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "v2", entry.Hash)
	assert.Equal(t, map[string][]float32{"new": {3}}, entry.Vectors)
}

func TestFlushWithNothingPending(t *testing.T) {
	store := openStore(t)
	assert.NoError(t, store.Flush())
}

func TestModelMeta(t *testing.T) {
	store := openStore(t)

	name, dim, err := store.Model()
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Zero(t, dim)

	require.NoError(t, store.SetModel("nomic-embed-text", 768))
	name, dim, err = store.Model()
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", name)
	assert.Equal(t, 768, dim)

	require.NoError(t, store.SetModel("all-minilm", 384))
	name, dim, err = store.Model()
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", name)
	assert.Equal(t, 384, dim)
}

func TestPurge(t *testing.T) {
	store := openStore(t)

	store.Put("a.rs", &cache.Entry{Hash: "h", Vectors: map[string][]float32{"f": {1, 2}}})
	require.NoError(t, store.Flush())
	require.NoError(t, store.Purge())

	entry, err := store.Lookup("a.rs")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestReopenSeesFlushedData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	store, err := cache.Open(dbPath)
	require.NoError(t, err)
	store.Put("a.rs", &cache.Entry{Hash: "h", Vectors: map[string][]float32{"f": {7}}})
	require.NoError(t, store.Flush())
	require.NoError(t, store.Close())

	store, err = cache.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	entry, err := store.Lookup("a.rs")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []float32{7}, entry.Vectors["f"])
}
