package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/semdex/internal/errors"
)

// Querier answers one ranked query. Satisfied by *Ranker.
type Querier interface {
	Query(ctx context.Context, query string, limit int) ([]Result, error)
}

// Executor serializes queries against the ranker and enforces the
// single-flight rule: a new query cancels whichever query is still
// running. Every query also carries a fixed timeout.
type Executor struct {
	ranker  Querier
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// NewExecutor wraps ranker with cancellation and timeout handling.
func NewExecutor(ranker Querier, timeout time.Duration, logger *slog.Logger) *Executor {
	return &Executor{ranker: ranker, timeout: timeout, logger: logger}
}

// Search runs one query. If another query is in flight it is canceled
// first; the superseded caller gets a search-failed error. A query that
// exceeds the timeout returns a timeout error.
func (e *Executor) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	qctx, cancel := context.WithTimeout(ctx, e.timeout)

	e.mu.Lock()
	if e.cancel != nil {
		e.logger.Debug("canceling superseded query")
		e.cancel()
	}
	e.cancel = cancel
	e.gen++
	myGen := e.gen
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		// Only clear the slot if a newer query has not claimed it.
		if e.gen == myGen {
			e.cancel = nil
		}
		e.mu.Unlock()
	}()

	start := time.Now()
	results, err := e.ranker.Query(qctx, query, limit)
	if err != nil {
		switch qctx.Err() {
		case context.DeadlineExceeded:
			return nil, errors.New(errors.ErrCodeSearchTimeout, "search timed out", err).
				WithDetail("timeout", e.timeout.String())
		case context.Canceled:
			return nil, errors.New(errors.ErrCodeSearchFailed, "search superseded by a newer query", err)
		}
		return nil, err
	}

	// The query may have finished before it observed its cancellation;
	// results for a superseded query are discarded, not returned.
	if qctx.Err() == context.Canceled {
		return nil, errors.New(errors.ErrCodeSearchFailed, "search superseded by a newer query", qctx.Err())
	}

	e.logger.Debug("search complete",
		slog.String("query", query),
		slog.Int("results", len(results)),
		slog.Duration("elapsed", time.Since(start)))
	return results, nil
}
