package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// extractHTML parses the document and returns its visible text.
// Script, style, and head content is dropped.
func extractHTML(data []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return "", err
	}

	var out strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "head", "template":
				return
			}
		case html.TextNode:
			text := strings.TrimFunc(n.Data, unicode.IsSpace)
			if text != "" {
				out.WriteString(text)
				out.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := whitespaceRe.ReplaceAllString(out.String(), " ")
	return strings.TrimSpace(text), nil
}
