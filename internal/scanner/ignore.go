package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ignoreMatcher evaluates gitignore-style patterns against slash-separated
// paths relative to the indexed root. Rules are evaluated in order; the last
// matching rule wins, so negations can re-include earlier exclusions.
//
// Directory-only patterns ("build/") match the named segment and everything
// beneath it. The matcher does not distinguish files from directories, so a
// plain file named "build" is skipped too.
type ignoreMatcher struct {
	rules []ignoreRule
}

type ignoreRule struct {
	regex    *regexp.Regexp
	negation bool
	dirOnly  bool
	anchored bool
}

// loadIgnoreFile parses a .gitignore file into a matcher. A missing file
// yields a nil matcher, which matches nothing.
func loadIgnoreFile(path string) (*ignoreMatcher, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	m := &ignoreMatcher{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.addPattern(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.rules) == 0 {
		return nil, nil
	}
	return m, nil
}

func (m *ignoreMatcher) addPattern(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || (strings.HasPrefix(pattern, "#") && !strings.HasPrefix(pattern, `\#`)) {
		return
	}

	var r ignoreRule

	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = strings.TrimPrefix(pattern, `\`)
	case strings.HasPrefix(pattern, "!"):
		r.negation = true
		pattern = strings.TrimPrefix(pattern, "!")
	}

	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	// A slash anywhere else also anchors: "doc/frotz" means /doc/frotz,
	// not **/doc/frotz.
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		r.anchored = true
	}

	r.regex = regexp.MustCompile("^" + ignorePatternRegex(pattern) + "$")
	m.rules = append(m.rules, r)
}

// Match reports whether rel (slash-separated, relative to the root) is
// excluded by the loaded patterns.
func (m *ignoreMatcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	ignored := false
	for _, r := range m.rules {
		if matchIgnoreRule(rel, r) {
			ignored = !r.negation
		}
	}
	return ignored
}

func matchIgnoreRule(rel string, r ignoreRule) bool {
	parts := strings.Split(rel, "/")

	if r.anchored {
		if r.regex.MatchString(rel) {
			return true
		}
		// Anchored directory patterns also cover paths inside the
		// matched directory.
		for i := 1; i < len(parts); i++ {
			if r.regex.MatchString(strings.Join(parts[:i], "/")) {
				return true
			}
		}
		return false
	}

	if r.dirOnly {
		for _, part := range parts {
			if r.regex.MatchString(part) {
				return true
			}
		}
		return false
	}

	if r.regex.MatchString(parts[len(parts)-1]) || r.regex.MatchString(rel) {
		return true
	}
	for _, part := range parts {
		if r.regex.MatchString(part) {
			return true
		}
	}
	return false
}

// ignorePatternRegex translates gitignore glob syntax into a regular
// expression. * never crosses a slash, ** does.
func ignorePatternRegex(pattern string) string {
	var b strings.Builder

	i := 0
	for i < len(pattern) {
		c := pattern[i]

		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString("(?:.*/)?")
					i += 3
					continue
				}
				if i == 0 || pattern[i-1] == '/' {
					b.WriteString(".*")
					i += 2
					continue
				}
			}
			b.WriteString("[^/]*")
			i++

		case '?':
			b.WriteString("[^/]")
			i++

		case '[':
			j := i + 1
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				b.WriteString(pattern[i : j+1])
				i = j + 1
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}

		case '\\':
			if i+1 < len(pattern) {
				b.WriteString(regexp.QuoteMeta(string(pattern[i+1])))
				i += 2
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}

		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}

	return b.String()
}
