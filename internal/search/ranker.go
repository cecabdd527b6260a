// Package search answers queries against the two vector collections.
// Each document gets a metadata score and a content score; a weighted
// blend ranks the final list, with content weighted above metadata.
package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/embed"
	"github.com/Aman-CERP/semdex/internal/errors"
	"github.com/Aman-CERP/semdex/internal/store"
)

// Result is one ranked search hit.
type Result struct {
	// Rank is the 1-based position in the result list.
	Rank int `json:"rank"`

	// Path is the file path of the hit.
	Path string `json:"path"`

	// Score is the combined relevance score in (0, 1).
	Score float64 `json:"score"`

	// MetadataScore is the sigmoid-scaled metadata similarity.
	MetadataScore float64 `json:"metadata_score"`

	// ContentScore is the sigmoid-scaled content similarity.
	ContentScore float64 `json:"content_score"`
}

// Ranker runs the two-collection query and blends the scores.
type Ranker struct {
	store    *store.Store
	embedder embed.Embedder
	cfg      config.SearchConfig
}

// NewRanker creates a Ranker using the weights and sigmoid parameters
// from cfg.
func NewRanker(st *store.Store, embedder embed.Embedder, cfg config.SearchConfig) *Ranker {
	return &Ranker{store: st, embedder: embedder, cfg: cfg}
}

// Query embeds the query once, searches both collections in parallel,
// and returns up to limit blended results. A document found in only one
// collection scores the other side at the maximum cosine distance.
func (r *Ranker) Query(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New(errors.ErrCodeQueryEmpty, "search query is empty", nil)
	}
	if limit <= 0 {
		limit = r.cfg.MaxResults
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
	}

	var metaHits, contentHits []store.VectorResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metaHits, err = r.searchCollection(gctx, r.store.Metadata(), vec)
		return err
	})
	g.Go(func() error {
		var err error
		contentHits, err = r.searchCollection(gctx, r.store.Content(), vec)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSearchFailed, err)
	}

	return r.blend(metaHits, contentHits, limit)
}

func (r *Ranker) searchCollection(ctx context.Context, coll *store.Collection, vec []float32) ([]store.VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return coll.Search(vec, r.cfg.Candidates)
}

// blend joins the two hit lists by document ID, scores both sides, and
// sorts by combined score with path as the deterministic tie-break.
func (r *Ranker) blend(metaHits, contentHits []store.VectorResult, limit int) ([]Result, error) {
	type joined struct {
		dMeta    float64
		dContent float64
	}

	docs := make(map[string]*joined, len(metaHits)+len(contentHits))
	get := func(id string) *joined {
		if j, ok := docs[id]; ok {
			return j
		}
		j := &joined{dMeta: store.MaxCosineDistance, dContent: store.MaxCosineDistance}
		docs[id] = j
		return j
	}
	for _, h := range metaHits {
		get(h.ID).dMeta = float64(h.Distance)
	}
	for _, h := range contentHits {
		get(h.ID).dContent = float64(h.Distance)
	}

	results := make([]Result, 0, len(docs))
	for id, j := range docs {
		rec, err := r.store.Catalog().GetByHash(id)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSearchFailed, err)
		}
		if rec == nil {
			// Vector outlived its catalog row; skip rather than surface
			// a pathless hit.
			continue
		}

		metaScore := r.sigmoid(j.dMeta)
		contentScore := r.sigmoid(j.dContent)
		results = append(results, Result{
			Path:          rec.Path,
			Score:         r.cfg.MetadataWeight*metaScore + r.cfg.ContentWeight*contentScore,
			MetadataScore: metaScore,
			ContentScore:  contentScore,
		})
	}

	sort.Slice(results, func(i, k int) bool {
		if results[i].Score != results[k].Score {
			return results[i].Score > results[k].Score
		}
		return results[i].Path < results[k].Path
	})

	if len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// sigmoid maps a cosine distance to a score in (0, 1). Distances below
// the midpoint approach 1, distances above it approach 0, and the scale
// controls how sharp the transition is.
func (r *Ranker) sigmoid(distance float64) float64 {
	return 1.0 / (1.0 + math.Exp(r.cfg.SigmoidScale*(distance-r.cfg.SigmoidMidpoint)))
}
