package scanner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/progress"
	"github.com/Aman-CERP/semdex/internal/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755))

	files := map[string]string{
		"readme.md":                 "# hello",
		"docs/notes.txt":            "some notes",
		"docs/.hidden.txt":          "secret",
		"docs/~$report.docx":        "office temp",
		".git/config":               "[core]",
		"node_modules/pkg/index.js": "module.exports = {}",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(name)), []byte(content), 0o644))
	}
	return root
}

func drain(t *testing.T, q *task.Queue) []task.Task {
	t.Helper()
	var tasks []task.Task
	for {
		tk, ok := q.TryPop()
		if !ok {
			return tasks
		}
		tasks = append(tasks, tk)
	}
}

func newTestScanner(root string, queue *task.Queue, tracker *progress.Tracker) *Scanner {
	cfg := config.NewConfig()
	return New(NewFilter(root, cfg.Paths.Exclude), cfg.Limits, queue, tracker, discardLogger())
}

func TestScan_EnqueuesOnlyIndexableFiles(t *testing.T) {
	// Given a tree with hidden, temp, and excluded entries
	root := setupTree(t)
	queue := task.NewQueue(128)
	tracker := progress.NewTracker()

	// When scanning
	err := newTestScanner(root, queue, tracker).Scan(context.Background(), root)

	// Then only the two regular files are enqueued as adds
	require.NoError(t, err)
	tasks := drain(t, queue)
	require.Len(t, tasks, 2)

	paths := []string{tasks[0].Path, tasks[1].Path}
	assert.Contains(t, paths, filepath.Join(root, "readme.md"))
	assert.Contains(t, paths, filepath.Join(root, "docs", "notes.txt"))
	for _, tk := range tasks {
		assert.Equal(t, task.KindAdd, tk.Kind)
		assert.False(t, tk.EnqueuedAt.IsZero())
	}

	snap := tracker.Snapshot()
	assert.Equal(t, 2, snap.TotalDiscovered)
	assert.False(t, snap.Scanning)
}

func TestScan_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), []byte("0123456789012345"), 0o644))

	cfg := config.NewConfig()
	cfg.Limits.TextMaxBytes = 10
	queue := task.NewQueue(16)
	s := New(NewFilter(root, nil), cfg.Limits, queue, progress.NewTracker(), discardLogger())

	require.NoError(t, s.Scan(context.Background(), root))
	assert.Empty(t, drain(t, queue))
}

func TestScan_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("content"), 0o644))
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	queue := task.NewQueue(16)
	require.NoError(t, newTestScanner(root, queue, progress.NewTracker()).Scan(context.Background(), root))

	tasks := drain(t, queue)
	require.Len(t, tasks, 1)
	assert.Equal(t, target, tasks[0].Path)
}

func TestScan_InvalidRoot(t *testing.T) {
	queue := task.NewQueue(16)
	s := newTestScanner("/nonexistent", queue, progress.NewTracker())

	err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	err = s.Scan(context.Background(), file)
	assert.Error(t, err)
}

func TestScan_ContextCancellation(t *testing.T) {
	root := setupTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	queue := task.NewQueue(16)
	err := newTestScanner(root, queue, progress.NewTracker()).Scan(ctx, root)

	assert.ErrorIs(t, err, context.Canceled)
}
