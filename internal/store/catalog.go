package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Catalog is the SQLite table of file records backing the vector
// collections. It answers path-to-hash lookups for delete and move
// handling and carries the enqueue timestamps used to discard stale
// tasks.
type Catalog struct {
	db *sql.DB
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS files (
	hash        TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	size        INTEGER NOT NULL,
	modified_at INTEGER NOT NULL,
	mime_type   TEXT NOT NULL,
	enqueued_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_files_path ON files(path);
`

// OpenCatalog opens or creates the catalog database at path.
// WAL mode keeps readers unblocked during worker writes.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	// Workers share one connection; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Upsert writes a record, replacing any row with the same hash or path.
// A replaced path row covers content rewrites, where the old hash's
// vectors are deleted separately by the caller.
func (c *Catalog) Upsert(rec FileRecord) error {
	_, err := c.db.Exec(`
		INSERT INTO files (hash, path, size, modified_at, mime_type, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			path = excluded.path,
			size = excluded.size,
			modified_at = excluded.modified_at,
			mime_type = excluded.mime_type,
			enqueued_at = excluded.enqueued_at
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			size = excluded.size,
			modified_at = excluded.modified_at,
			mime_type = excluded.mime_type,
			enqueued_at = excluded.enqueued_at`,
		rec.Hash, rec.Path, rec.Size,
		rec.ModifiedAt.UnixNano(), rec.MimeType, rec.EnqueuedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert file record: %w", err)
	}
	return nil
}

// GetByHash returns the record for a content hash, or nil when absent.
func (c *Catalog) GetByHash(hash string) (*FileRecord, error) {
	return c.getOne(`SELECT hash, path, size, modified_at, mime_type, enqueued_at
		FROM files WHERE hash = ?`, hash)
}

// GetByPath returns the record for a path, or nil when absent.
func (c *Catalog) GetByPath(path string) (*FileRecord, error) {
	return c.getOne(`SELECT hash, path, size, modified_at, mime_type, enqueued_at
		FROM files WHERE path = ?`, path)
}

func (c *Catalog) getOne(query string, arg any) (*FileRecord, error) {
	var rec FileRecord
	var modifiedAt, enqueuedAt int64

	err := c.db.QueryRow(query, arg).Scan(
		&rec.Hash, &rec.Path, &rec.Size, &modifiedAt, &rec.MimeType, &enqueuedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query file record: %w", err)
	}

	rec.ModifiedAt = time.Unix(0, modifiedAt)
	rec.EnqueuedAt = time.Unix(0, enqueuedAt)
	return &rec, nil
}

// UpdatePath rewrites the path of an existing record. Used for moves
// where the content hash is unchanged.
func (c *Catalog) UpdatePath(hash, newPath string, enqueuedAt time.Time) error {
	res, err := c.db.Exec(`UPDATE files SET path = ?, enqueued_at = ? WHERE hash = ?`,
		newPath, enqueuedAt.UnixNano(), hash)
	if err != nil {
		return fmt.Errorf("update file path: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update file path: no record for hash %s", hash)
	}
	return nil
}

// DeleteByHash removes the record for a hash. Missing rows are a no-op.
func (c *Catalog) DeleteByHash(hash string) error {
	if _, err := c.db.Exec(`DELETE FROM files WHERE hash = ?`, hash); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}

// DeleteByPath removes the record for a path and returns its hash,
// or "" when no record existed.
func (c *Catalog) DeleteByPath(path string) (string, error) {
	rec, err := c.GetByPath(path)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	if err := c.DeleteByHash(rec.Hash); err != nil {
		return "", err
	}
	return rec.Hash, nil
}

// Count returns the number of cataloged files.
func (c *Catalog) Count() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count file records: %w", err)
	}
	return n, nil
}

// Paths returns all cataloged paths. Used by status reporting and the
// rescan diff on startup.
func (c *Catalog) Paths() ([]string, error) {
	rows, err := c.db.Query(`SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Clear deletes every record. Used when the indexed root changes.
func (c *Catalog) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM files`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
