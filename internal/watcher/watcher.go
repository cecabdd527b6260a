package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/semdex/internal/progress"
	"github.com/Aman-CERP/semdex/internal/scanner"
	"github.com/Aman-CERP/semdex/internal/task"
)

// Watcher converts fsnotify events into queue tasks. Directories are
// watched recursively; new directories are registered and walked as
// they appear so files created inside them are not missed.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	filter    *scanner.Filter
	queue     *task.Queue
	tracker   *progress.Tracker
	logger    *slog.Logger

	root    string
	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// New creates a watcher pushing tasks into queue.
func New(filter *scanner.Filter, window time.Duration, queue *task.Queue, tracker *progress.Tracker, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		debouncer: NewDebouncer(window),
		filter:    filter,
		queue:     queue,
		tracker:   tracker,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start watches root recursively until ctx is canceled or Stop is
// called. It blocks; run it in a goroutine.
func (w *Watcher) Start(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	w.root = absRoot

	if err := w.addRecursive(absRoot); err != nil {
		return fmt.Errorf("register watch directories: %w", err)
	}

	w.tracker.SetWatching(true)
	defer w.tracker.SetWatching(false)
	w.logger.Info("watching for changes", slog.String("root", absRoot))

	go w.forwardBatches(ctx)

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// handleEvent filters and converts one fsnotify event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.filter.Skip(path) {
		return
	}

	isDir := false
	if info, err := os.Stat(path); err == nil {
		isDir = info.IsDir()
	}

	var op Op
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			// Register and backfill the new directory; files written
			// before the watch took effect would otherwise be missed.
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("watch new directory", slog.String("path", path), slog.String("error", err.Error()))
			}
			w.backfillDir(path)
			return
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRenamedAway
	default:
		// Chmod and unknown ops are ignored.
		return
	}

	if isDir {
		return
	}

	w.debouncer.Add(FileEvent{Path: path, Op: op, Timestamp: time.Now()})
}

// backfillDir enqueues add tasks for files already inside a newly
// created directory.
func (w *Watcher) backfillDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if w.filter.Skip(path) {
			return nil
		}
		w.debouncer.Add(FileEvent{Path: path, Op: OpCreate, Timestamp: time.Now()})
		return nil
	})
}

// forwardBatches turns debounced batches into queue tasks.
func (w *Watcher) forwardBatches(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.enqueueBatch(events)
		}
	}
}

// enqueueBatch pairs renamed-away events with creates in the same batch
// into move tasks, then enqueues everything else directly. An unpaired
// renamed-away degrades to a delete; a cross-batch move is recovered
// later by the pipeline's hash check.
func (w *Watcher) enqueueBatch(events []FileEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	var renamedAway []FileEvent
	var rest []FileEvent
	for _, ev := range events {
		if ev.Op == OpRenamedAway {
			renamedAway = append(renamedAway, ev)
		} else {
			rest = append(rest, ev)
		}
	}

	for _, ev := range rest {
		var tk task.Task
		switch ev.Op {
		case OpCreate:
			if len(renamedAway) > 0 {
				tk = task.NewMoveTask(renamedAway[0].Path, ev.Path)
				renamedAway = renamedAway[1:]
			} else {
				tk = task.NewTask(task.KindAdd, ev.Path)
			}
		case OpModify:
			tk = task.NewTask(task.KindModify, ev.Path)
		case OpDelete:
			tk = task.NewTask(task.KindDelete, ev.Path)
		default:
			continue
		}
		w.push(tk)
	}

	for _, ev := range renamedAway {
		w.push(task.NewTask(task.KindDelete, ev.Path))
	}
}

func (w *Watcher) push(tk task.Task) {
	if err := w.queue.Push(tk); err != nil {
		w.logger.Error("enqueue task failed",
			slog.String("kind", tk.Kind.String()),
			slog.String("path", tk.Path),
			slog.String("error", err.Error()))
		return
	}
	w.tracker.FileDiscovered()
}

// addRecursive registers dir and every non-filtered subdirectory.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.filter.Skip(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
