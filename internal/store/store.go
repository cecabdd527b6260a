package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/Aman-CERP/semdex/internal/errors"
)

// Index file names inside the data directory.
const (
	metadataIndexFile = "metadata.hnsw"
	contentIndexFile  = "content.hnsw"
	catalogFile       = "catalog.db"
	lockFile          = "semdex.lock"
	rootFile          = "root"
)

// Store bundles the two vector collections and the catalog behind a
// single lifecycle. A file lock on the data directory keeps concurrent
// processes from corrupting the index.
type Store struct {
	dataDir string
	dims    int
	lock    *flock.Flock
	catalog *Catalog

	// mu guards the collection pointers, which Reset swaps out.
	mu       sync.RWMutex
	metadata *Collection
	content  *Collection
}

// Open acquires the data directory lock and loads any persisted index.
// A missing index starts empty; an unreadable one is reported as corrupt
// so the caller can decide to rebuild.
func Open(dataDir string, dims int) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	if !locked {
		return nil, errors.New(errors.ErrCodeStoreFailed,
			"index data directory is locked by another process", nil).
			WithDetail("data_dir", dataDir)
	}

	catalog, err := OpenCatalog(filepath.Join(dataDir, catalogFile))
	if err != nil {
		lock.Unlock()
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, err)
	}

	s := &Store{
		dataDir:  dataDir,
		dims:     dims,
		lock:     lock,
		metadata: NewCollection(CollectionConfig{Dimensions: dims}),
		content:  NewCollection(CollectionConfig{Dimensions: dims}),
		catalog:  catalog,
	}

	if err := s.loadCollections(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// loadCollections restores persisted graphs when their files exist.
func (s *Store) loadCollections() error {
	for _, c := range []struct {
		name string
		file string
		coll *Collection
	}{
		{CollectionMetadata, metadataIndexFile, s.metadata},
		{CollectionContent, contentIndexFile, s.content},
	} {
		path := filepath.Join(s.dataDir, c.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := c.coll.Load(path); err != nil {
			return errors.New(errors.ErrCodeCorruptIndex,
				fmt.Sprintf("cannot load %s index", c.name), err).
				WithDetail("path", path)
		}
		slog.Debug("loaded vector collection",
			slog.String("collection", c.name),
			slog.Int("count", c.coll.Count()))
	}
	return nil
}

// Metadata returns the metadata-embedding collection.
func (s *Store) Metadata() *Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// Content returns the content-embedding collection.
func (s *Store) Content() *Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content
}

// Catalog returns the file-record catalog.
func (s *Store) Catalog() *Catalog { return s.catalog }

// Save persists both collections to the data directory.
// The catalog writes through on every statement and needs no save step.
func (s *Store) Save() error {
	if err := s.Metadata().Save(filepath.Join(s.dataDir, metadataIndexFile)); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	if err := s.Content().Save(filepath.Join(s.dataDir, contentIndexFile)); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	return nil
}

// IndexedRoot returns the root directory this index was built for, or
// "" when the index is fresh.
func (s *Store) IndexedRoot() string {
	data, err := os.ReadFile(filepath.Join(s.dataDir, rootFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetIndexedRoot records the root directory the index belongs to.
func (s *Store) SetIndexedRoot(root string) error {
	if err := os.WriteFile(filepath.Join(s.dataDir, rootFile), []byte(root+"\n"), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	return nil
}

// Reset wipes the index: fresh collections, an emptied catalog, and the
// persisted graph files removed. Used when the indexed root changes.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.metadata.Close()
	s.content.Close()
	s.metadata = NewCollection(CollectionConfig{Dimensions: s.dims})
	s.content = NewCollection(CollectionConfig{Dimensions: s.dims})
	s.mu.Unlock()

	if err := s.catalog.Clear(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}

	for _, f := range []string{metadataIndexFile, contentIndexFile} {
		path := filepath.Join(s.dataDir, f)
		for _, p := range []string{path, path + ".meta"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return errors.Wrap(errors.ErrCodeStoreFailed, err)
			}
		}
	}
	if err := os.Remove(filepath.Join(s.dataDir, rootFile)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStoreFailed, err)
	}
	return nil
}

// Close saves nothing; callers save explicitly. It releases the catalog,
// the collections, and the directory lock.
func (s *Store) Close() error {
	var firstErr error
	if err := s.Metadata().Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.Content().Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.catalog.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
