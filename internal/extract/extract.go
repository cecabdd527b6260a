// Package extract turns files into plain text plus structured metadata for
// embedding. Dispatch is by extension and mime type; unsupported types
// still yield metadata so the file remains findable by name and location.
package extract

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/errors"
)

// FileMetadata is the structured description of a file that gets embedded
// into the metadata collection alongside the raw content embedding.
type FileMetadata struct {
	Name       string
	Extension  string
	Path       string
	ParentDir  string
	Size       int64
	ModifiedAt time.Time
	MimeType   string
}

// Text renders the metadata as the document text that gets embedded.
// Field labels are included so a query like "pdf in reports folder"
// has tokens to match against.
func (m FileMetadata) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s (%s)\n", m.Name, m.Extension)
	fmt.Fprintf(&b, "Path: %s\n", m.Path)
	fmt.Fprintf(&b, "Parent Dir: %s\n", m.ParentDir)
	fmt.Fprintf(&b, "Size: %d bytes\n", m.Size)
	fmt.Fprintf(&b, "Modified At: %s\n", m.ModifiedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Type: %s", m.MimeType)
	return b.String()
}

// Result is the output of a successful extraction.
type Result struct {
	// Text is the extracted plain text. Empty when the type is unsupported;
	// the file is then indexed by metadata only.
	Text string

	// Metadata describes the file.
	Metadata FileMetadata
}

// Extractor produces text and metadata for a path.
type Extractor interface {
	// Extract reads the file and returns its text and metadata.
	// Failure modes map to error codes: ERR_201 (missing), ERR_202
	// (unreadable), ERR_203 (over the type's size limit). Unsupported
	// content is not an error; Result.Text is empty.
	Extract(path string) (*Result, error)
}

// textExtensions are types read verbatim as text.
var textExtensions = map[string]bool{
	".txt": true, ".csv": true, ".tsv": true, ".log": true,
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".java": true, ".cpp": true, ".c": true, ".h": true, ".cs": true,
	".php": true, ".rb": true, ".go": true, ".rs": true, ".swift": true,
	".kt": true, ".scala": true, ".css": true, ".scss": true,
	".json": true, ".xml": true, ".yaml": true, ".yml": true,
	".ini": true, ".cfg": true, ".conf": true, ".sql": true,
	".sh": true, ".bash": true, ".zsh": true,
}

// registry maps extensions to specialized extraction functions.
// Text extensions fall through to plain text reading.
var registry = map[string]func(data []byte) (string, error){
	".md":       extractMarkdown,
	".markdown": extractMarkdown,
	".html":     extractHTML,
	".htm":      extractHTML,
	".xhtml":    extractHTML,
}

// FileExtractor is the default Extractor implementation.
type FileExtractor struct {
	limits config.LimitsConfig
}

// New creates a FileExtractor with the given size limits.
func New(limits config.LimitsConfig) *FileExtractor {
	return &FileExtractor{limits: limits}
}

var _ Extractor = (*FileExtractor)(nil)

// Extract reads the file and returns its text and metadata.
func (e *FileExtractor) Extract(path string) (*Result, error) {
	meta, err := e.Metadata(path)
	if err != nil {
		return nil, err
	}

	if limit := SizeLimitFor(meta.Extension, e.limits); meta.Size > limit {
		return nil, errors.New(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s exceeds %d byte limit", path, limit), nil).
			WithDetail("size", fmt.Sprintf("%d", meta.Size))
	}

	text, err := e.extractText(path, meta.Extension)
	if err != nil {
		return nil, err
	}

	return &Result{Text: text, Metadata: meta}, nil
}

// Metadata stats the file and returns its metadata without reading
// content. Used for moves where the content hash is known unchanged.
func (e *FileExtractor) Metadata(path string) (FileMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileMetadata{}, errors.Wrap(errors.ErrCodeFileNotFound, err)
		}
		return FileMetadata{}, errors.Wrap(errors.ErrCodeFileUnreadable, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	return FileMetadata{
		Name:       filepath.Base(path),
		Extension:  ext,
		Path:       path,
		ParentDir:  filepath.Dir(path),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		MimeType:   mimeTypeFor(ext),
	}, nil
}

// extractText dispatches to the right extraction function for the type.
// Unknown types return empty text, not an error.
func (e *FileExtractor) extractText(path, ext string) (string, error) {
	fn, special := registry[ext]
	if !special && !textExtensions[ext] && !strings.HasPrefix(mimeTypeFor(ext), "text/") {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileUnreadable, err)
	}

	if isBinaryContent(data) {
		return "", nil
	}

	if special {
		return fn(data)
	}
	return string(data), nil
}

// SizeLimitFor returns the size limit for a file type.
// PDFs and office documents get larger budgets than plain text.
func SizeLimitFor(ext string, limits config.LimitsConfig) int64 {
	switch ext {
	case ".pdf":
		return limits.PDFMaxBytes
	case ".docx", ".xlsx", ".pptx":
		return limits.OfficeMaxBytes
	case ".txt", ".md", ".py", ".js", ".html", ".css":
		return limits.TextMaxBytes
	default:
		return limits.DefaultMaxBytes
	}
}

// mimeTypeFor guesses a mime type from an extension.
func mimeTypeFor(ext string) string {
	if mt := mime.TypeByExtension(ext); mt != "" {
		// Strip charset parameters for stable values.
		if i := strings.Index(mt, ";"); i > 0 {
			return mt[:i]
		}
		return mt
	}
	return "application/octet-stream"
}

// isBinaryContent checks if content appears to be binary.
func isBinaryContent(content []byte) bool {
	// Check first 512 bytes for null bytes
	checkLen := 512
	if len(content) < checkLen {
		checkLen = len(content)
	}

	for i := 0; i < checkLen; i++ {
		if content[i] == 0 {
			return true
		}
	}

	return false
}
