package progress

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_CountersAndSnapshot(t *testing.T) {
	tr := NewTracker()

	tr.SetScanning(true)
	tr.SetWatching(true)
	for i := 0; i < 10; i++ {
		tr.FileDiscovered()
	}
	tr.SetCurrentFile("docs/readme.md")
	tr.FileProcessed()
	tr.FileFailed("bad.pdf", errors.New("unreadable"))

	snap := tr.Snapshot()
	assert.Equal(t, 10, snap.TotalDiscovered)
	assert.Equal(t, 1, snap.Processed)
	assert.Equal(t, 1, snap.Failed)
	assert.True(t, snap.Scanning)
	assert.True(t, snap.Watching)
	assert.Equal(t, 20.0, snap.ProgressPct)
	assert.Contains(t, snap.LastError, "bad.pdf")
	assert.Empty(t, snap.CurrentFile) // cleared by FileFailed
}

func TestTracker_IdleState(t *testing.T) {
	// Given: scanner finished, watcher still running
	tr := NewTracker()
	tr.SetScanning(true)
	tr.SetWatching(true)
	tr.SetScanning(false)

	// Then: scanning is false while watching stays true until shutdown
	snap := tr.Snapshot()
	assert.False(t, snap.Scanning)
	assert.True(t, snap.Watching)
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.FileDiscovered()
	tr.FileProcessed()
	tr.SetWatching(true)

	tr.Reset()

	snap := tr.Snapshot()
	assert.Zero(t, snap.TotalDiscovered)
	assert.Zero(t, snap.Processed)
	assert.Zero(t, snap.Failed)
	assert.False(t, snap.Watching)
}

func TestTracker_ConcurrentUpdates(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.FileDiscovered()
				tr.FileProcessed()
			}
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	assert.Equal(t, 800, snap.TotalDiscovered)
	assert.Equal(t, 800, snap.Processed)
}
