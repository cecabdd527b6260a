package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/semdex/internal/errors"
)

func TestStore_OpenCloseReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 4)
	require.NoError(t, err)
	require.NoError(t, s.Metadata().Upsert("h1", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Content().Upsert("h1", []float32{0, 1, 0, 0}))
	require.NoError(t, s.Save())
	require.NoError(t, s.Close())

	// Reopening restores both collections
	s2, err := Open(dir, 4)
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, 1, s2.Metadata().Count())
	assert.Equal(t, 1, s2.Content().Count())
}

func TestStore_SecondOpenIsLockedOut(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, 4)
	require.NoError(t, err)
	defer s.Close()

	_, err = Open(dir, 4)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStoreFailed, errors.GetCode(err))
}

func TestStore_Reset(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 4)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Metadata().Upsert("h1", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Catalog().Upsert(testRecord("h1", "/a.txt")))
	require.NoError(t, s.Save())

	require.NoError(t, s.Reset())

	assert.Equal(t, 0, s.Metadata().Count())
	assert.Equal(t, 0, s.Content().Count())
	n, err := s.Catalog().Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Usable after reset
	assert.NoError(t, s.Metadata().Upsert("h2", []float32{0, 1, 0, 0}))
}

func TestStore_ResetIsSafeWithConcurrentReaders(t *testing.T) {
	s, err := Open(t.TempDir(), 4)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Metadata().Upsert("h1", []float32{1, 0, 0, 0}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.Metadata().Count()
			s.Content().Count()
		}
	}()

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Reset())
	}
	<-done

	assert.Equal(t, 0, s.Metadata().Count())
}
