package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/semdex/internal/pipeline"
	"github.com/Aman-CERP/semdex/internal/progress"
	"github.com/Aman-CERP/semdex/internal/search"
)

func TestRenderer_Results(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Results("cat", []search.Result{
		{Rank: 1, Path: "/notes/cat.txt", Score: 0.912},
		{Rank: 2, Path: "/notes/pets.md", Score: 0.544},
	})

	out := buf.String()
	assert.Contains(t, out, `Results for "cat":`)
	assert.Contains(t, out, "1. /notes/cat.txt (0.912)")
	assert.Contains(t, out, "2. /notes/pets.md (0.544)")
}

func TestRenderer_NoResults(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Results("nothing", nil)

	assert.Contains(t, buf.String(), `No results for "nothing"`)
}

func TestRenderer_Status(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Status(pipeline.Status{
		Root:         "/home/user/docs",
		IndexedFiles: 42,
		QueueDepth:   3,
		Progress: progress.Snapshot{
			Scanning:        true,
			TotalDiscovered: 100,
			Processed:       42,
			ProgressPct:     42.0,
			CurrentFile:     "/home/user/docs/big.pdf",
			Failed:          1,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Root: /home/user/docs")
	assert.Contains(t, out, "Indexed files: 42")
	assert.Contains(t, out, "State: scanning")
	assert.Contains(t, out, "42% (42/100)")
	assert.Contains(t, out, "Processing: /home/user/docs/big.pdf")
	assert.Contains(t, out, "Failed: 1")
}

func TestRenderer_Error(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Error(errors.New("index locked"))

	assert.Contains(t, buf.String(), "error: index locked")
}
