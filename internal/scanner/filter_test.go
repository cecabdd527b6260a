package scanner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Skip(t *testing.T) {
	root := filepath.FromSlash("/project")
	f := NewFilter(root, []string{".git", "node_modules", "*.bak"})

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"regular file", "/project/docs/readme.txt", false},
		{"root itself", "/project", false},
		{"hidden file", "/project/.env", true},
		{"hidden dir contents", "/project/.git/config", true},
		{"python cache", "/project/src/__pycache__/mod.pyc", true},
		{"office temp", "/project/docs/~$report.docx", true},
		{"excluded dir anywhere", "/project/web/node_modules/pkg/index.js", true},
		{"glob pattern", "/project/data/dump.bak", true},
		{"outside root", "/elsewhere/file.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Skip(filepath.FromSlash(tt.path)))
		})
	}
}
