// Package pipeline runs the indexing loop: a worker pool drains the task
// queue, extracts and embeds files, and commits them to the store one
// file at a time.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/semdex/internal/embed"
	"github.com/Aman-CERP/semdex/internal/errors"
	"github.com/Aman-CERP/semdex/internal/extract"
	"github.com/Aman-CERP/semdex/internal/progress"
	"github.com/Aman-CERP/semdex/internal/store"
	"github.com/Aman-CERP/semdex/internal/task"
)

// popTimeout bounds how long an idle worker blocks on the queue before
// rechecking its context.
const popTimeout = 500 * time.Millisecond

// Workers is the pool consuming the task queue. Each task commits
// atomically per file: either all vector and catalog writes for the
// file land, or none do.
type Workers struct {
	count     int
	queue     *task.Queue
	store     *store.Store
	embedder  embed.Embedder
	extractor *extract.FileExtractor
	tracker   *progress.Tracker
	logger    *slog.Logger

	// hashCache short-circuits re-embedding when a modify event did not
	// change the content.
	hashCache *lru.Cache[string, string]

	wg sync.WaitGroup
}

// NewWorkers creates a pool of count workers.
func NewWorkers(count int, cacheSize int, queue *task.Queue, st *store.Store, embedder embed.Embedder, extractor *extract.FileExtractor, tracker *progress.Tracker, logger *slog.Logger) (*Workers, error) {
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}

	return &Workers{
		count:     count,
		queue:     queue,
		store:     st,
		embedder:  embedder,
		extractor: extractor,
		tracker:   tracker,
		logger:    logger,
		hashCache: cache,
	}, nil
}

// Start launches the workers. They run until ctx is canceled; a worker
// mid-file finishes that file before exiting.
func (w *Workers) Start(ctx context.Context) {
	for i := 0; i < w.count; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.run(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker has exited.
func (w *Workers) Wait() {
	w.wg.Wait()
}

func (w *Workers) run(ctx context.Context, id int) {
	logger := w.logger.With(slog.Int("worker", id))
	for {
		if ctx.Err() != nil {
			return
		}
		tk, ok := w.queue.Pop(popTimeout)
		if !ok {
			continue
		}
		w.handle(ctx, logger, tk)
	}
}

// handle dispatches one task and records the outcome.
func (w *Workers) handle(ctx context.Context, logger *slog.Logger, tk task.Task) {
	w.tracker.SetCurrentFile(tk.Path)
	defer w.tracker.SetCurrentFile("")

	var err error
	switch tk.Kind {
	case task.KindAdd, task.KindModify:
		err = w.processUpsert(ctx, tk)
	case task.KindDelete:
		err = w.processDelete(tk)
	case task.KindMove:
		err = w.processMove(ctx, tk)
	default:
		logger.Warn("unknown task kind", slog.String("kind", tk.Kind.String()))
		return
	}

	if err != nil {
		attrs := []any{
			slog.String("kind", tk.Kind.String()),
			slog.String("path", tk.Path),
			slog.String("error", err.Error()),
		}
		if errors.IsFatal(err) {
			logger.Error("task failed", attrs...)
		} else {
			logger.Warn("task failed", attrs...)
		}
		w.tracker.FileFailed(tk.Path, err)
		return
	}
	w.tracker.FileProcessed()
}

// processUpsert indexes the file at tk.Path. The content hash keys every
// store write, so reprocessing the same content is a no-op and a crashed
// half-commit is simply overwritten on retry.
func (w *Workers) processUpsert(ctx context.Context, tk task.Task) error {
	data, err := os.ReadFile(tk.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// File vanished between enqueue and processing.
			return nil
		}
		return errors.Wrap(errors.ErrCodeFileUnreadable, err)
	}
	hash := hashBytes(data)

	// Fast path: this path committed this exact content already.
	if cached, ok := w.hashCache.Get(tk.Path); ok && cached == hash {
		return nil
	}

	catalog := w.store.Catalog()
	existing, err := catalog.GetByPath(tk.Path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}

	// A newer task for this path already committed; this one is stale.
	if existing != nil && existing.EnqueuedAt.After(tk.EnqueuedAt) {
		return nil
	}

	// Unchanged content at the same path is a no-op.
	if existing != nil && existing.Hash == hash {
		w.hashCache.Add(tk.Path, hash)
		return nil
	}

	// Same content already indexed under another path: the file moved
	// or was copied. Re-point the record instead of re-embedding content.
	elsewhere, err := catalog.GetByHash(hash)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	if elsewhere != nil && elsewhere.Path != tk.Path {
		return w.relocate(ctx, hash, tk)
	}

	res, err := w.extractor.Extract(tk.Path)
	if err != nil {
		return err
	}

	if err := w.commit(ctx, hash, res, tk.EnqueuedAt); err != nil {
		return err
	}

	// Content rewrite: drop the superseded hash's vectors.
	if existing != nil && existing.Hash != hash {
		w.dropVectors(existing.Hash)
	}

	w.hashCache.Add(tk.Path, hash)
	return nil
}

// commit writes the vectors first and the catalog row last. A catalog
// failure rolls the vectors back so the file is either fully indexed or
// absent.
func (w *Workers) commit(ctx context.Context, hash string, res *extract.Result, enqueuedAt time.Time) error {
	metaVec, err := w.embedder.Embed(ctx, res.Metadata.Text())
	if err != nil {
		return errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
	}

	var contentVec []float32
	if res.Text != "" {
		contentVec, err = w.embedder.Embed(ctx, res.Text)
		if err != nil {
			return errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
		}
	}

	if err := w.store.Metadata().Upsert(hash, metaVec); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	if contentVec != nil {
		if err := w.store.Content().Upsert(hash, contentVec); err != nil {
			w.store.Metadata().Delete(hash)
			return errors.Wrap(errors.ErrCodeStoreFailed, err)
		}
	}

	rec := store.FileRecord{
		Hash:       hash,
		Path:       res.Metadata.Path,
		Size:       res.Metadata.Size,
		ModifiedAt: res.Metadata.ModifiedAt,
		MimeType:   res.Metadata.MimeType,
		EnqueuedAt: enqueuedAt,
	}
	if err := w.store.Catalog().Upsert(rec); err != nil {
		w.dropVectors(hash)
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	return nil
}

// relocate updates the path of an already-indexed content hash: fresh
// metadata embedding for the new location, content vector untouched.
// Any record with a different hash already occupying the target path is
// evicted first, so the unique path index cannot reject the update.
func (w *Workers) relocate(ctx context.Context, hash string, tk task.Task) error {
	occupant, err := w.store.Catalog().GetByPath(tk.Path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	if occupant != nil && occupant.Hash != hash {
		if err := w.store.Catalog().DeleteByHash(occupant.Hash); err != nil {
			return errors.Wrap(errors.ErrCodeStoreFailed, err)
		}
		w.dropVectors(occupant.Hash)
	}

	meta, err := w.extractor.Metadata(tk.Path)
	if err != nil {
		return err
	}

	metaVec, err := w.embedder.Embed(ctx, meta.Text())
	if err != nil {
		return errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
	}
	if err := w.store.Metadata().Upsert(hash, metaVec); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	if err := w.store.Catalog().UpdatePath(hash, tk.Path, tk.EnqueuedAt); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}

	if tk.PrevPath != "" {
		w.hashCache.Remove(tk.PrevPath)
	}
	w.hashCache.Add(tk.Path, hash)
	return nil
}

// processDelete removes the index entry for tk.Path. A record committed
// by a task enqueued after this delete wins and the delete is dropped.
func (w *Workers) processDelete(tk task.Task) error {
	rec, err := w.store.Catalog().GetByPath(tk.Path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	if rec == nil {
		return nil
	}
	if rec.EnqueuedAt.After(tk.EnqueuedAt) {
		return nil
	}

	if err := w.store.Catalog().DeleteByHash(rec.Hash); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	w.dropVectors(rec.Hash)
	w.hashCache.Remove(tk.Path)
	return nil
}

// processMove handles an explicit rename. If the content is unchanged
// the move is a metadata-only relocate; otherwise the old entry goes
// and the new path is indexed from scratch.
func (w *Workers) processMove(ctx context.Context, tk task.Task) error {
	prev, err := w.store.Catalog().GetByPath(tk.PrevPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	if prev == nil {
		// Old path was never indexed; treat as a plain add.
		return w.processUpsert(ctx, tk)
	}

	data, err := os.ReadFile(tk.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeFileUnreadable, err)
	}

	if hashBytes(data) == prev.Hash {
		return w.relocate(ctx, prev.Hash, tk)
	}

	// Content changed in flight: replace the old entry entirely.
	if err := w.store.Catalog().DeleteByHash(prev.Hash); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	w.dropVectors(prev.Hash)
	w.hashCache.Remove(tk.PrevPath)
	return w.processUpsert(ctx, tk)
}

func (w *Workers) dropVectors(hash string) {
	if err := w.store.Metadata().Delete(hash); err != nil {
		w.logger.Warn("drop metadata vector", slog.String("hash", hash), slog.String("error", err.Error()))
	}
	if err := w.store.Content().Delete(hash); err != nil {
		w.logger.Warn("drop content vector", slog.String("hash", hash), slog.String("error", err.Error()))
	}
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
