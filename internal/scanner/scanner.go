// Package scanner walks the indexed root once at startup and enqueues an
// add task for every indexable file. It is a pure producer; all hashing
// and extraction happens in the pipeline workers.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/errors"
	"github.com/Aman-CERP/semdex/internal/extract"
	"github.com/Aman-CERP/semdex/internal/progress"
	"github.com/Aman-CERP/semdex/internal/task"
)

// Scanner performs the initial one-shot scan of a directory tree.
type Scanner struct {
	filter  *Filter
	limits  config.LimitsConfig
	queue   *task.Queue
	tracker *progress.Tracker
	logger  *slog.Logger
}

// New creates a Scanner pushing into queue and reporting to tracker.
func New(filter *Filter, limits config.LimitsConfig, queue *task.Queue, tracker *progress.Tracker, logger *slog.Logger) *Scanner {
	return &Scanner{
		filter:  filter,
		limits:  limits,
		queue:   queue,
		tracker: tracker,
		logger:  logger,
	}
}

// Scan walks root and enqueues an add task per file. Symlinks and
// filtered paths are skipped; oversized files are skipped with a log
// line rather than failed. Scan returns once the walk completes or ctx
// is canceled.
func (s *Scanner) Scan(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRoot, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRoot, err)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidRoot, "root path is not a directory", nil).
			WithDetail("path", absRoot)
	}

	s.tracker.SetScanning(true)
	defer s.tracker.SetScanning(false)

	s.logger.Info("scan started", slog.String("root", absRoot))
	discovered := 0

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.logger.Warn("scan entry error", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		if d.IsDir() {
			if path != absRoot && s.filter.Skip(path) {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks are skipped to avoid cycles and double indexing.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if s.filter.Skip(path) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			s.logger.Warn("scan stat error", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if limit := extract.SizeLimitFor(filepath.Ext(path), s.limits); fi.Size() > limit {
			s.logger.Debug("skipping oversized file",
				slog.String("path", path),
				slog.Int64("size", fi.Size()),
				slog.Int64("limit", limit))
			return nil
		}

		if err := s.queue.Push(task.NewTask(task.KindAdd, path)); err != nil {
			return err
		}
		s.tracker.FileDiscovered()
		discovered++
		return nil
	})

	if walkErr != nil {
		if walkErr == context.Canceled || ctx.Err() != nil {
			s.logger.Info("scan canceled", slog.Int("discovered", discovered))
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeQueueFailed, walkErr)
	}

	s.logger.Info("scan complete", slog.Int("discovered", discovered))
	return nil
}
