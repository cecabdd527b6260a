package scanner

import (
	"path/filepath"
	"strings"
)

// tempPrefixes mark hidden files and editor temp artifacts that are
// never indexed.
var tempPrefixes = []string{".", "__", "~$"}

// Filter decides which paths the scanner and watcher ignore. Exclude
// patterns match individual path segments, so "node_modules" skips the
// directory anywhere in the tree. A .gitignore at the root, when
// present, is honored as well.
type Filter struct {
	root     string
	patterns []string
	ignore   *ignoreMatcher
}

// NewFilter creates a filter rooted at root with the given exclude
// patterns. Patterns use filepath.Match syntax. An unreadable or
// missing root .gitignore is treated as empty.
func NewFilter(root string, patterns []string) *Filter {
	ignore, _ := loadIgnoreFile(filepath.Join(root, ".gitignore"))
	return &Filter{root: root, patterns: patterns, ignore: ignore}
}

// Skip reports whether path should be ignored. It checks every segment
// below the root, so files inside excluded or hidden directories are
// skipped too.
func (f *Filter) Skip(path string) bool {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	if rel == "." {
		return false
	}

	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if f.skipSegment(seg) {
			return true
		}
	}
	return f.ignore.Match(rel)
}

func (f *Filter) skipSegment(seg string) bool {
	for _, p := range tempPrefixes {
		if strings.HasPrefix(seg, p) {
			return true
		}
	}
	for _, pattern := range f.patterns {
		if ok, err := filepath.Match(pattern, seg); err == nil && ok {
			return true
		}
	}
	return false
}
