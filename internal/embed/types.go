// Package embed defines the embedding contract the pipeline depends on and
// provides a deterministic hash-based embedder as the built-in default.
// The embedding engine itself is an external collaborator; anything that
// can produce a fixed-dimension vector from text satisfies Embedder.
package embed

import (
	"context"
	"math"
)

// StaticDimensions is the embedding dimension of the built-in static embedder.
const StaticDimensions = 256

// Embedder converts text into fixed-dimension vectors.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
// Zero vectors pass through unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}

	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
	return v
}
