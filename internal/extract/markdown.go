package extract

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

var (
	mdHeadingRe   = regexp.MustCompile(`^#{1,6}\s+`)
	mdLinkRe      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdImageRe     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdEmphasisRe  = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+?)(\*{1,3}|_{1,3})`)
	mdInlineCode  = regexp.MustCompile("`([^`]*)`")
	mdHTMLTagRe   = regexp.MustCompile(`<[^>]+>`)
	mdListMarkRe  = regexp.MustCompile(`^\s*([-*+]|\d+\.)\s+`)
	mdBlockquote  = regexp.MustCompile(`^\s*>\s?`)
	mdTableRuleRe = regexp.MustCompile(`^\s*\|?[\s:|-]+\|?\s*$`)
)

// extractMarkdown strips markdown syntax, keeping heading and link text.
// Fenced code blocks are kept verbatim since code content is searchable.
func extractMarkdown(data []byte) (string, error) {
	var out strings.Builder
	inFence := false

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		if mdTableRuleRe.MatchString(line) && strings.Contains(line, "-") {
			continue
		}

		line = mdHeadingRe.ReplaceAllString(line, "")
		line = mdBlockquote.ReplaceAllString(line, "")
		line = mdListMarkRe.ReplaceAllString(line, "")
		line = mdImageRe.ReplaceAllString(line, "$1")
		line = mdLinkRe.ReplaceAllString(line, "$1")
		line = mdEmphasisRe.ReplaceAllString(line, "$2")
		line = mdInlineCode.ReplaceAllString(line, "$1")
		line = mdHTMLTagRe.ReplaceAllString(line, "")
		line = strings.ReplaceAll(line, "|", " ")

		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", err
	}

	return strings.TrimSpace(out.String()), nil
}
