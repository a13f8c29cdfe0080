package search

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Attributes must be quoted so that prose like "a<b and c>d" is never
// taken for a tag.
const tagAttrs = `(?:\s+[a-zA-Z-]+=(?:"[^"]*"|'[^']*'))*\s*/?>`

var (
	highlightTag = regexp.MustCompile(`(?i)</?(?:b|strong|em|i|mark|span)` + tagAttrs)
	breakTag     = regexp.MustCompile(`(?i)</?(?:br|p|div|li)` + tagAttrs)
)

// CleanSnippet reduces a result title or snippet to plain text. Backends
// return highlight markup (<strong>, <span class="highlight">) and HTML
// entities; the model only needs the words. Only those tags are
// removed, so code and maths such as "a<b" or "List<T>" survive.
// Whitespace runs collapse to one space.
func CleanSnippet(s string) string {
	if strings.Contains(s, "<") {
		s = breakTag.ReplaceAllString(s, " ")
		s = highlightTag.ReplaceAllString(s, "")
	}
	if strings.Contains(s, "&") {
		// After tag removal, so an escaped "&lt;b&gt;" stays visible.
		s = html.UnescapeString(s)
	}
	return strings.Join(strings.Fields(s), " ")
}
