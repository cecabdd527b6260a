package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/embed"
	"github.com/Aman-CERP/semdex/internal/errors"
	"github.com/Aman-CERP/semdex/internal/extract"
	"github.com/Aman-CERP/semdex/internal/progress"
	"github.com/Aman-CERP/semdex/internal/scanner"
	"github.com/Aman-CERP/semdex/internal/store"
	"github.com/Aman-CERP/semdex/internal/task"
	"github.com/Aman-CERP/semdex/internal/watcher"
)

// Pipeline ties the producers and the worker pool together for one
// indexed root at a time. Pointing it at a new root tears the session
// down, resets the store, and starts over.
type Pipeline struct {
	cfg       *config.Config
	store     *store.Store
	embedder  embed.Embedder
	extractor *extract.FileExtractor
	tracker   *progress.Tracker
	logger    *slog.Logger

	mu      sync.Mutex
	baseCtx context.Context
	session *session
	root    string
}

// session is the per-root run state.
type session struct {
	queue   *task.Queue
	workers *Workers
	watcher *watcher.Watcher
	cancel  context.CancelFunc
	done    sync.WaitGroup
}

// Status is a point-in-time view of the pipeline.
type Status struct {
	Root         string
	QueueDepth   int
	IndexedFiles int
	ContentCount int
	Progress     progress.Snapshot
}

// New assembles a pipeline. Start must be called before tasks flow.
func New(cfg *config.Config, st *store.Store, embedder embed.Embedder, tracker *progress.Tracker, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		embedder:  embedder,
		extractor: extract.New(cfg.Limits),
		tracker:   tracker,
		logger:    logger,
	}
}

// Start validates root and begins the initial scan, the watcher, and
// the worker pool. It returns once the session is launched; indexing
// continues in the background.
func (p *Pipeline) Start(ctx context.Context, root string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		return errors.New(errors.ErrCodeInternal, "pipeline already started", nil)
	}

	absRoot, err := validateRoot(root)
	if err != nil {
		return err
	}

	// A persisted index built for a different root is stale in full.
	if prev := p.store.IndexedRoot(); prev != "" && prev != absRoot {
		p.logger.Info("index belongs to a different root, resetting",
			slog.String("indexed", prev), slog.String("requested", absRoot))
		if err := p.store.Reset(); err != nil {
			return err
		}
	}
	if err := p.store.SetIndexedRoot(absRoot); err != nil {
		return err
	}

	p.baseCtx = ctx
	return p.startSession(absRoot)
}

// SetRoot re-points the pipeline at a different directory. The new root
// is validated before anything is torn down; on failure the current
// session keeps running untouched. On success the store is wiped and
// the new root scanned from scratch.
func (p *Pipeline) SetRoot(root string) error {
	absRoot, err := validateRoot(root)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if absRoot == p.root {
		return nil
	}
	p.logger.Info("switching indexed root",
		slog.String("from", p.root), slog.String("to", absRoot))

	p.stopSession()
	if err := p.store.Reset(); err != nil {
		return err
	}
	if err := p.store.SetIndexedRoot(absRoot); err != nil {
		return err
	}
	p.tracker.Reset()
	return p.startSession(absRoot)
}

// startSession launches workers, scan, and watch for root.
// Caller holds p.mu.
func (p *Pipeline) startSession(root string) error {
	queue := task.NewQueue(p.cfg.Performance.QueueCapacity)
	filter := scanner.NewFilter(root, p.cfg.Paths.Exclude)

	workers, err := NewWorkers(
		p.cfg.Performance.IndexWorkers,
		p.cfg.Performance.HashCacheSize,
		queue, p.store, p.embedder, p.extractor, p.tracker, p.logger)
	if err != nil {
		return err
	}

	w, err := watcher.New(filter, p.cfg.DebounceWindow(), queue, p.tracker, p.logger)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err)
	}

	ctx, cancel := context.WithCancel(p.baseCtx)
	s := &session{queue: queue, workers: workers, watcher: w, cancel: cancel}

	workers.Start(ctx)

	sc := scanner.New(filter, p.cfg.Limits, queue, p.tracker, p.logger)
	s.done.Add(2)
	go func() {
		defer s.done.Done()
		if err := sc.Scan(ctx, root); err != nil && ctx.Err() == nil {
			p.logger.Error("initial scan failed", slog.String("error", err.Error()))
			return
		}
		p.reconcileDeleted(ctx, queue)
	}()
	go func() {
		defer s.done.Done()
		if err := w.Start(ctx, root); err != nil && ctx.Err() == nil {
			p.logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	p.session = s
	p.root = root
	return nil
}

// reconcileDeleted enqueues deletes for cataloged paths that no longer
// exist on disk. Covers files removed while the indexer was not running.
func (p *Pipeline) reconcileDeleted(ctx context.Context, queue *task.Queue) {
	paths, err := p.store.Catalog().Paths()
	if err != nil {
		p.logger.Warn("reconcile: list catalog paths", slog.String("error", err.Error()))
		return
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := queue.Push(task.NewTask(task.KindDelete, path)); err != nil {
				p.logger.Warn("reconcile: enqueue delete", slog.String("path", path), slog.String("error", err.Error()))
				return
			}
		}
	}
}

// stopSession cancels the running session and waits for in-flight work.
// Caller holds p.mu.
func (p *Pipeline) stopSession() {
	s := p.session
	if s == nil {
		return
	}

	s.cancel()
	s.watcher.Stop()
	s.queue.Close()
	s.workers.Wait()
	s.done.Wait()

	dropped := 0
	for {
		if _, ok := s.queue.TryPop(); !ok {
			break
		}
		dropped++
	}
	if dropped > 0 {
		p.logger.Debug("discarded queued tasks on session stop", slog.Int("count", dropped))
	}

	if err := p.store.Save(); err != nil {
		p.logger.Error("save index on session stop", slog.String("error", err.Error()))
	}

	p.session = nil
	p.root = ""
}

// Status reports current pipeline state.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		Root:     p.root,
		Progress: p.tracker.Snapshot(),
	}
	if p.session != nil {
		st.QueueDepth = p.session.queue.Len()
	}
	if n, err := p.store.Catalog().Count(); err == nil {
		st.IndexedFiles = n
	}
	st.ContentCount = p.store.Content().Count()
	return st
}

// Root returns the currently indexed root.
func (p *Pipeline) Root() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.root
}

// Stop shuts the pipeline down, letting workers finish their current
// file, and persists the index.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopSession()
}

// validateRoot resolves root and confirms it is a readable directory.
func validateRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidRoot, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidRoot, err)
	}
	if !info.IsDir() {
		return "", errors.New(errors.ErrCodeInvalidRoot, "path is not a directory", nil).
			WithDetail("path", absRoot)
	}
	if _, err := os.ReadDir(absRoot); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidRoot, err)
	}
	return absRoot, nil
}
