package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	c := NewCollection(CollectionConfig{Dimensions: 4})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCollection_UpsertAndSearch(t *testing.T) {
	c := newTestCollection(t)

	require.NoError(t, c.Upsert("a", []float32{1, 0, 0, 0}))
	require.NoError(t, c.Upsert("b", []float32{0, 1, 0, 0}))
	require.NoError(t, c.Upsert("c", []float32{0.9, 0.1, 0, 0}))

	results, err := c.Search([]float32{1, 0, 0, 0}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.Less(t, results[0].Distance, results[1].Distance)
}

func TestCollection_UpsertReplacesExisting(t *testing.T) {
	c := newTestCollection(t)

	require.NoError(t, c.Upsert("doc", []float32{1, 0, 0, 0}))
	require.NoError(t, c.Upsert("doc", []float32{0, 1, 0, 0}))

	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 1, c.Orphans())

	results, err := c.Search([]float32{0, 1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc", results[0].ID)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-5)
}

func TestCollection_DeleteIsLazy(t *testing.T) {
	c := newTestCollection(t)
	require.NoError(t, c.Upsert("a", []float32{1, 0, 0, 0}))
	require.NoError(t, c.Upsert("b", []float32{0, 1, 0, 0}))

	require.NoError(t, c.Delete("a"))

	assert.False(t, c.Contains("a"))
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 1, c.Orphans())

	// Deleted ID never surfaces in search results
	results, err := c.Search([]float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestCollection_DeleteMissingIsNoop(t *testing.T) {
	c := newTestCollection(t)
	assert.NoError(t, c.Delete("ghost"))
}

func TestCollection_DimensionMismatch(t *testing.T) {
	c := newTestCollection(t)

	err := c.Upsert("a", []float32{1, 0})
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 4, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	_, err = c.Search([]float32{1}, 1)
	require.ErrorAs(t, err, &dimErr)
}

func TestCollection_EmptySearch(t *testing.T) {
	c := newTestCollection(t)

	results, err := c.Search([]float32{1, 0, 0, 0}, 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCollection_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.hnsw")

	c := NewCollection(CollectionConfig{Dimensions: 4})
	require.NoError(t, c.Upsert("a", []float32{1, 0, 0, 0}))
	require.NoError(t, c.Upsert("b", []float32{0, 1, 0, 0}))
	require.NoError(t, c.Delete("b"))
	require.NoError(t, c.Save(path))
	require.NoError(t, c.Close())

	loaded := NewCollection(CollectionConfig{Dimensions: 4})
	defer loaded.Close()
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, 1, loaded.Count())
	assert.True(t, loaded.Contains("a"))
	assert.False(t, loaded.Contains("b"))

	results, err := loaded.Search([]float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestCollection_ClosedOperationsFail(t *testing.T) {
	c := NewCollection(CollectionConfig{Dimensions: 4})
	require.NoError(t, c.Close())

	assert.Error(t, c.Upsert("a", []float32{1, 0, 0, 0}))
	_, err := c.Search([]float32{1, 0, 0, 0}, 1)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Count())
	assert.NoError(t, c.Close())
}
