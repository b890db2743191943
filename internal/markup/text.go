package markup

import (
	"strings"
	"unicode"

	xhtml "golang.org/x/net/html"
)

// PlainText extracts the visible text of page HTML, whitespace collapsed.
func PlainText(content string) string {
	z := xhtml.NewTokenizer(strings.NewReader(content))
	var parts []string
	skip := 0
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return strings.Join(parts, " ")
		case xhtml.TextToken:
			if skip == 0 {
				parts = append(parts, strings.Fields(string(z.Text()))...)
			}
		case xhtml.StartTagToken:
			if name, _ := z.TagName(); isRawText(name) {
				skip++
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); isRawText(name) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawText(tag []byte) bool {
	s := string(tag)
	return s == "script" || s == "style"
}

// Snippet returns up to width runes of text centred on the first
// case-insensitive occurrence of query. Cut ends are marked with "...".
func Snippet(text, query string, width int) string {
	runes := []rune(text)
	if width <= 0 || len(runes) <= width {
		return text
	}
	at := indexFold(runes, []rune(query))
	if at < 0 {
		at = 0
	}
	start := at - width/2
	if start < 0 {
		start = 0
	}
	end := start + width
	if end > len(runes) {
		end = len(runes)
		start = end - width
	}
	out := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}

func indexFold(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if unicode.ToLower(s[i+j]) != unicode.ToLower(sub[j]) {
				continue outer
			}
		}
		return i
	}
	return -1
}

// ContainsFold reports whether text contains query, ignoring case.
func ContainsFold(text, query string) bool {
	return indexFold([]rune(text), []rune(query)) >= 0
}
