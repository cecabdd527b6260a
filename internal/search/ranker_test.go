package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/errors"
	"github.com/Aman-CERP/semdex/internal/store"
)

// vocabEmbedder returns fixed vectors for known texts so ranking
// behavior can be asserted exactly.
type vocabEmbedder struct {
	vectors map[string][]float32
}

func (v *vocabEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := v.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 0, 1}, nil
}

func (v *vocabEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := v.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (v *vocabEmbedder) Dimensions() int   { return 4 }
func (v *vocabEmbedder) ModelName() string { return "vocab-fixture" }
func (v *vocabEmbedder) Close() error      { return nil }

func searchConfig() config.SearchConfig {
	return config.NewConfig().Search
}

func addDoc(t *testing.T, st *store.Store, hash, path string, metaVec, contentVec []float32) {
	t.Helper()
	require.NoError(t, st.Metadata().Upsert(hash, metaVec))
	if contentVec != nil {
		require.NoError(t, st.Content().Upsert(hash, contentVec))
	}
	require.NoError(t, st.Catalog().Upsert(store.FileRecord{
		Hash:       hash,
		Path:       path,
		Size:       1,
		ModifiedAt: time.Now(),
		MimeType:   "text/plain",
		EnqueuedAt: time.Now(),
	}))
}

func TestQuery_EmptyQueryRejected(t *testing.T) {
	st, err := store.Open(t.TempDir(), 4)
	require.NoError(t, err)
	defer st.Close()
	r := NewRanker(st, &vocabEmbedder{}, searchConfig())

	_, err = r.Query(context.Background(), "   ", 10)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryEmpty, errors.GetCode(err))
}

func TestQuery_RanksSemanticMatchFirst(t *testing.T) {
	// Given a cat note whose content aligns with the query and a dog
	// note that does not
	st, err := store.Open(t.TempDir(), 4)
	require.NoError(t, err)
	defer st.Close()

	emb := &vocabEmbedder{vectors: map[string][]float32{
		"feline pet": {1, 0, 0, 0},
	}}
	addDoc(t, st, "cat-hash", "/notes/cat.txt",
		[]float32{0.9, 0.1, 0, 0}, []float32{0.95, 0.05, 0, 0})
	addDoc(t, st, "dog-hash", "/notes/dog.txt",
		[]float32{0, 1, 0, 0}, []float32{0.1, 0.9, 0, 0})

	r := NewRanker(st, emb, searchConfig())
	results, err := r.Query(context.Background(), "feline pet", 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/notes/cat.txt", results[0].Path)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "/notes/dog.txt", results[1].Path)
	assert.Equal(t, 2, results[1].Rank)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQuery_MetadataOnlyDocStillRanks(t *testing.T) {
	// A doc absent from the content collection scores that side at the
	// max distance but still appears in results
	st, err := store.Open(t.TempDir(), 4)
	require.NoError(t, err)
	defer st.Close()

	emb := &vocabEmbedder{vectors: map[string][]float32{
		"report": {1, 0, 0, 0},
	}}
	addDoc(t, st, "img-hash", "/photos/report-scan.png",
		[]float32{0.9, 0.1, 0, 0}, nil)

	r := NewRanker(st, emb, searchConfig())
	results, err := r.Query(context.Background(), "report", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/photos/report-scan.png", results[0].Path)
	assert.Greater(t, results[0].MetadataScore, results[0].ContentScore)
	assert.Less(t, results[0].ContentScore, 0.01)
}

func TestQuery_ContentWeightDominatesMetadata(t *testing.T) {
	// One doc matches on metadata only, the other on content only, at
	// identical distances; the content match must rank first
	st, err := store.Open(t.TempDir(), 4)
	require.NoError(t, err)
	defer st.Close()

	emb := &vocabEmbedder{vectors: map[string][]float32{
		"budget": {1, 0, 0, 0},
	}}
	addDoc(t, st, "meta-hash", "/a/budget.txt",
		[]float32{1, 0, 0, 0}, []float32{0, 0, 1, 0})
	addDoc(t, st, "content-hash", "/b/plan.txt",
		[]float32{0, 0, 1, 0}, []float32{1, 0, 0, 0})

	r := NewRanker(st, emb, searchConfig())
	results, err := r.Query(context.Background(), "budget", 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/b/plan.txt", results[0].Path)
}

func TestQuery_TiesBreakByPath(t *testing.T) {
	st, err := store.Open(t.TempDir(), 4)
	require.NoError(t, err)
	defer st.Close()

	emb := &vocabEmbedder{vectors: map[string][]float32{
		"same": {1, 0, 0, 0},
	}}
	vec := []float32{0.8, 0.2, 0, 0}
	addDoc(t, st, "hash-b", "/b.txt", vec, vec)
	addDoc(t, st, "hash-a", "/a.txt", vec, vec)

	r := NewRanker(st, emb, searchConfig())
	results, err := r.Query(context.Background(), "same", 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/a.txt", results[0].Path)
	assert.Equal(t, "/b.txt", results[1].Path)
}

func TestQuery_LimitTruncates(t *testing.T) {
	st, err := store.Open(t.TempDir(), 4)
	require.NoError(t, err)
	defer st.Close()

	emb := &vocabEmbedder{vectors: map[string][]float32{"q": {1, 0, 0, 0}}}
	for i, h := range []string{"h1", "h2", "h3"} {
		vec := []float32{1, float32(i) * 0.1, 0, 0}
		addDoc(t, st, h, "/f"+h+".txt", vec, vec)
	}

	r := NewRanker(st, emb, searchConfig())
	results, err := r.Query(context.Background(), "q", 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQuery_EmptyIndexReturnsNoResults(t *testing.T) {
	st, err := store.Open(t.TempDir(), 4)
	require.NoError(t, err)
	defer st.Close()

	r := NewRanker(st, &vocabEmbedder{}, searchConfig())
	results, err := r.Query(context.Background(), "anything", 10)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSigmoid_MonotoneDecreasingInDistance(t *testing.T) {
	r := NewRanker(nil, nil, searchConfig())

	prev := 1.1
	for d := 0.0; d <= 2.0; d += 0.1 {
		score := r.sigmoid(d)
		assert.Less(t, score, prev, "score must strictly decrease with distance")
		assert.Greater(t, score, 0.0)
		assert.Less(t, score, 1.0)
		prev = score
	}

	// Midpoint maps to 0.5
	assert.InDelta(t, 0.5, r.sigmoid(searchConfig().SigmoidMidpoint), 1e-9)
}
