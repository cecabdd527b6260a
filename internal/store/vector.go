package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// Collection is an HNSW-backed vector collection with string document IDs.
// Deletion is lazy: removed IDs are dropped from the mappings but their
// nodes stay in the graph, which avoids a coder/hnsw bug when deleting
// the last node. Orphans are skipped at search time.
type Collection struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config CollectionConfig

	// string ID <-> internal graph key
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// collectionMeta is the gob-persisted sidecar holding ID mappings.
type collectionMeta struct {
	IDMap   map[string]uint64
	NextKey uint64
	Config  CollectionConfig
}

// NewCollection creates an empty collection using cosine distance.
func NewCollection(cfg CollectionConfig) *Collection {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &Collection{
		graph:  graph,
		config: cfg,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// Upsert inserts a vector under id, replacing any existing vector for it.
// Replacement reuses lazy deletion rather than removing the old node.
func (c *Collection) Upsert(id string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("collection is closed")
	}
	if len(vector) != c.config.Dimensions {
		return ErrDimensionMismatch{Expected: c.config.Dimensions, Got: len(vector)}
	}

	if oldKey, exists := c.idMap[id]; exists {
		delete(c.keyMap, oldKey)
		delete(c.idMap, id)
	}

	key := c.nextKey
	c.nextKey++

	vec := make([]float32, len(vector))
	copy(vec, vector)
	normalizeInPlace(vec)

	c.graph.Add(hnsw.MakeNode(key, vec))
	c.idMap[id] = key
	c.keyMap[key] = id

	return nil
}

// Search returns up to k nearest neighbors by cosine distance.
// Lazy-deleted orphans are filtered out.
func (c *Collection) Search(query []float32, k int) ([]VectorResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("collection is closed")
	}
	if len(query) != c.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: c.config.Dimensions, Got: len(query)}
	}
	if c.graph.Len() == 0 {
		return []VectorResult{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	// Overfetch to compensate for orphans dropped below.
	nodes := c.graph.Search(q, k+c.orphanCountLocked())

	results := make([]VectorResult, 0, k)
	for _, node := range nodes {
		id, ok := c.keyMap[node.Key]
		if !ok {
			continue
		}
		results = append(results, VectorResult{
			ID:       id,
			Distance: c.graph.Distance(q, node.Value),
		})
		if len(results) == k {
			break
		}
	}

	return results, nil
}

// Delete removes ids from the collection. Missing ids are ignored.
func (c *Collection) Delete(ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("collection is closed")
	}

	for _, id := range ids {
		if key, exists := c.idMap[id]; exists {
			delete(c.keyMap, key)
			delete(c.idMap, id)
		}
	}
	return nil
}

// Contains reports whether id has a live vector.
func (c *Collection) Contains(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.idMap[id]
	return exists && !c.closed
}

// Count returns the number of live vectors.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return 0
	}
	return len(c.idMap)
}

// Orphans returns the number of lazy-deleted nodes still in the graph.
func (c *Collection) Orphans() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return 0
	}
	return c.orphanCountLocked()
}

func (c *Collection) orphanCountLocked() int {
	return c.graph.Len() - len(c.idMap)
}

// Save persists the graph and its ID mappings atomically (temp + rename).
// Orphans travel with the graph; they stay filtered after Load.
func (c *Collection) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("collection is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := c.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return c.saveMeta(path + ".meta")
}

func (c *Collection) saveMeta(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create meta file: %w", err)
	}

	meta := collectionMeta{
		IDMap:   c.idMap,
		NextKey: c.nextKey,
		Config:  c.config,
	}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close meta file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load restores the graph and ID mappings saved by Save.
func (c *Collection) Load(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("collection is closed")
	}

	if err := c.loadMeta(path + ".meta"); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	// coder/hnsw Import requires an io.ByteReader.
	if err := c.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}

func (c *Collection) loadMeta(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open meta file: %w", err)
	}
	defer file.Close()

	var meta collectionMeta
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return fmt.Errorf("decode meta: %w", err)
	}

	c.idMap = meta.IDMap
	c.nextKey = meta.NextKey
	c.config = meta.Config
	c.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range meta.IDMap {
		c.keyMap[key] = id
	}
	return nil
}

// Close releases the collection. Further calls fail.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.graph = nil
	return nil
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
