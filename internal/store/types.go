// Package store persists the index: two HNSW vector collections (metadata
// and content) plus a SQLite catalog of file records keyed by content hash.
package store

import (
	"fmt"
	"time"
)

// Collection names for the two embedding spaces.
const (
	CollectionMetadata = "metadata"
	CollectionContent  = "content"
)

// MaxCosineDistance is the orthogonal-or-worse distance assigned to a
// document absent from one collection when joining search results.
const MaxCosineDistance = 2.0

// VectorResult is a single nearest-neighbor hit from a collection.
type VectorResult struct {
	// ID is the document ID (content hash).
	ID string

	// Distance is the cosine distance to the query, in [0, 2].
	Distance float32
}

// FileRecord is a catalog row describing one indexed file.
// Records are keyed by content hash, so identical content re-added
// under the same path is a no-op.
type FileRecord struct {
	// Hash is the SHA-256 of the file content, hex encoded.
	Hash string

	// Path is the absolute file path.
	Path string

	// Size in bytes at index time.
	Size int64

	// ModifiedAt is the file mtime at index time.
	ModifiedAt time.Time

	// MimeType of the file.
	MimeType string

	// EnqueuedAt is when the task that produced this record entered the
	// queue. Stale tasks compare against it so the record reflects the
	// most recently observed filesystem state, not queue drain order.
	EnqueuedAt time.Time
}

// CollectionConfig holds tunables for one vector collection.
type CollectionConfig struct {
	Dimensions int
	M          int
	EfSearch   int
}

// ErrDimensionMismatch is returned when a vector's length does not match
// the collection's configured dimensions.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
