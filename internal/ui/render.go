// Package ui renders search results and pipeline status for the
// terminal. Output is colored on a TTY and plain when piped.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/semdex/internal/pipeline"
	"github.com/Aman-CERP/semdex/internal/search"
)

// Renderer writes formatted output to a writer.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer for out, picking colored styles when
// out is a terminal.
func NewRenderer(out io.Writer) *Renderer {
	styles := NoColorStyles()
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		styles = DefaultStyles()
	}
	return &Renderer{out: out, styles: styles}
}

// Results renders a ranked result list.
func (r *Renderer) Results(query string, results []search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(r.out, r.styles.Dim.Render("No results for \""+query+"\""))
		return
	}

	fmt.Fprintln(r.out, r.styles.Header.Render(fmt.Sprintf("Results for %q:", query)))
	for _, res := range results {
		fmt.Fprintf(r.out, "  %2d. %s %s\n",
			res.Rank,
			r.styles.Path.Render(res.Path),
			r.styles.Score.Render(fmt.Sprintf("(%.3f)", res.Score)))
	}
}

// Status renders the pipeline status block.
func (r *Renderer) Status(st pipeline.Status) {
	label := func(s string) string { return r.styles.Label.Render(s) }

	fmt.Fprintln(r.out, r.styles.Header.Render("Index status"))
	fmt.Fprintf(r.out, "  %s %s\n", label("Root:"), st.Root)
	fmt.Fprintf(r.out, "  %s %d\n", label("Indexed files:"), st.IndexedFiles)
	fmt.Fprintf(r.out, "  %s %d\n", label("Queue depth:"), st.QueueDepth)

	state := "idle"
	switch {
	case st.Progress.Scanning:
		state = "scanning"
	case st.Progress.Watching:
		state = "watching"
	}
	fmt.Fprintf(r.out, "  %s %s\n", label("State:"), state)

	if st.Progress.Scanning {
		fmt.Fprintf(r.out, "  %s %.0f%% (%d/%d)\n",
			label("Progress:"),
			st.Progress.ProgressPct,
			st.Progress.Processed,
			st.Progress.TotalDiscovered)
	}
	if st.Progress.CurrentFile != "" {
		fmt.Fprintf(r.out, "  %s %s\n", label("Processing:"), st.Progress.CurrentFile)
	}
	if st.Progress.Failed > 0 {
		fmt.Fprintf(r.out, "  %s %s\n", label("Failed:"),
			r.styles.Warning.Render(fmt.Sprintf("%d", st.Progress.Failed)))
	}
	if st.Progress.LastError != "" {
		fmt.Fprintf(r.out, "  %s %s\n", label("Last error:"),
			r.styles.Error.Render(st.Progress.LastError))
	}
}

// Error renders an error line.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.out, r.styles.Error.Render("error: "+err.Error()))
}

// Info renders a plain informational line.
func (r *Renderer) Info(msg string) {
	fmt.Fprintln(r.out, msg)
}

// Rule renders a horizontal separator.
func (r *Renderer) Rule() {
	fmt.Fprintln(r.out, r.styles.Dim.Render(strings.Repeat("-", 40)))
}
