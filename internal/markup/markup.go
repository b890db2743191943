// Package markup applies the wiki transforms to stored page HTML and
// derives the plain text used for search.
package markup

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/gowiki/gowiki/internal/page"
)

// Transform rewrites page HTML.
type Transform interface {
	Run(content string) string
}

var autoURL = regexp.MustCompile(`\b(https?://[^ \t\n\r<>()&"]+[^ \t\n\r<>()&".])`)

// AutoLink turns bare http(s) URLs in text into links.
type AutoLink struct{}

func (AutoLink) Run(content string) string {
	return rewriteText(content, func(text string) string {
		return autoURL.ReplaceAllString(text, `<a class="autourl" href="$1">$1</a>`)
	})
}

// WikiWords links every WikiWord in text. Exists decides between a plain
// link and a "does not exist yet" link.
type WikiWords struct {
	Exists func(name string) bool
}

func (w WikiWords) Run(content string) string {
	return rewriteText(content, func(text string) string {
		return page.WikiWord.ReplaceAllStringFunc(text, func(word string) string {
			if w.Exists != nil && w.Exists(page.CleanName(word)) {
				return `<a class="wikiword" href="/` + word + `">` + word + `</a>`
			}
			return `<a title="` + word + ` does not exist yet." class="wikiword_new" href="/` + word + `">` + word + `?</a>`
		})
	})
}

var externalHref = regexp.MustCompile(`href="(http[^"]+)"`)

// HideReferers sends external links through a redirector so the wiki's
// URL does not leak as a referer. An empty Prefix disables it.
type HideReferers struct {
	Prefix string
}

func (h HideReferers) Run(content string) string {
	if h.Prefix == "" {
		return content
	}
	return externalHref.ReplaceAllStringFunc(content, func(m string) string {
		target := externalHref.FindStringSubmatch(m)[1]
		if strings.HasPrefix(target, h.Prefix) {
			return m
		}
		return `href="` + h.Prefix + url.QueryEscape(html.UnescapeString(target)) + `"`
	})
}

// Pipeline runs transforms in order.
type Pipeline []Transform

// NewPipeline is the standard wiki rendering: auto-link URLs, link
// WikiWords, then hide referers on the external links.
func NewPipeline(exists func(string) bool, refererHider string) Pipeline {
	return Pipeline{
		AutoLink{},
		WikiWords{Exists: exists},
		HideReferers{Prefix: refererHider},
	}
}

func (p Pipeline) Run(content string) string {
	for _, t := range p {
		content = t.Run(content)
	}
	return content
}

// rewriteText applies fn to raw text runs that sit outside tags, outside
// <a> elements, and outside script/style. Everything else is copied byte for byte.
func rewriteText(content string, fn func(string) string) string {
	z := xhtml.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	b.Grow(len(content))
	anchors, raw := 0, 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			b.Write(z.Raw())
			return b.String()
		}
		tok := string(z.Raw())
		switch tt {
		case xhtml.TextToken:
			if anchors == 0 && raw == 0 {
				tok = fn(tok)
			}
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "a":
				anchors++
			case "script", "style":
				raw++
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "a":
				if anchors > 0 {
					anchors--
				}
			case "script", "style":
				if raw > 0 {
					raw--
				}
			}
		}
		b.WriteString(tok)
	}
}
