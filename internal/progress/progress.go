// Package progress provides thread-safe tracking of indexing progress.
package progress

import (
	"sync"
	"time"
)

// Snapshot is an immutable view of indexing progress.
type Snapshot struct {
	TotalDiscovered int     `json:"total_discovered"`
	Processed       int     `json:"processed"`
	Failed          int     `json:"failed"`
	CurrentFile     string  `json:"current_file,omitempty"`
	LastError       string  `json:"last_error,omitempty"`
	Scanning        bool    `json:"scanning"`
	Watching        bool    `json:"watching"`
	ProgressPct     float64 `json:"progress_pct"`
	ElapsedSeconds  int     `json:"elapsed_seconds"`
}

// Tracker holds shared progress counters mutated by producers and consumers.
// All state sits behind a single mutex; callers read through Snapshot only.
type Tracker struct {
	mu sync.RWMutex

	totalDiscovered int
	processed       int
	failed          int
	currentFile     string
	lastError       string
	scanning        bool
	watching        bool
	startTime       time.Time
}

// NewTracker creates a tracker with zeroed counters.
func NewTracker() *Tracker {
	return &Tracker{
		startTime: time.Now(),
	}
}

// FileDiscovered increments the discovered count. Called by the scanner as
// it walks, so progress is meaningful before processing completes.
func (t *Tracker) FileDiscovered() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalDiscovered++
}

// FileProcessed increments the processed count.
func (t *Tracker) FileProcessed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processed++
	t.currentFile = ""
}

// FileFailed increments the failure count and records the last error.
func (t *Tracker) FileFailed(path string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
	t.currentFile = ""
	if err != nil {
		t.lastError = path + ": " + err.Error()
	}
}

// SetCurrentFile records the file a worker is processing.
func (t *Tracker) SetCurrentFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentFile = path
}

// SetScanning toggles the scanning flag. True from scanner start to
// completion; independent of the watching flag.
func (t *Tracker) SetScanning(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanning = on
}

// SetWatching toggles the watching flag. True from watcher start until
// shutdown.
func (t *Tracker) SetWatching(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watching = on
}

// Reset zeroes all counters. Called when the indexed root changes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalDiscovered = 0
	t.processed = 0
	t.failed = 0
	t.currentFile = ""
	t.lastError = ""
	t.scanning = false
	t.watching = false
	t.startTime = time.Now()
}

// Snapshot returns a consistent copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var pct float64
	if t.totalDiscovered > 0 {
		pct = float64(t.processed+t.failed) / float64(t.totalDiscovered) * 100.0
	}

	return Snapshot{
		TotalDiscovered: t.totalDiscovered,
		Processed:       t.processed,
		Failed:          t.failed,
		CurrentFile:     t.currentFile,
		LastError:       t.lastError,
		Scanning:        t.scanning,
		Watching:        t.watching,
		ProgressPct:     pct,
		ElapsedSeconds:  int(time.Since(t.startTime).Seconds()),
	}
}
