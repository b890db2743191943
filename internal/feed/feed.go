// Package feed renders revision lists as Atom or RSS feeds.
package feed

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"
	"github.com/gowiki/gowiki/internal/page"
)

// RecentChanges is the site-wide feed of the newest revisions.
func RecentChanges(baseURL, siteName string, revs []*page.Revision) *feeds.Feed {
	f := newFeed(siteName+": Recent Changes", baseURL+"/"+page.RecentChanges, "Recent changes on "+siteName, revs)
	for _, r := range revs {
		f.Items = append(f.Items, item(baseURL, r, r.Name))
	}
	return f
}

// PageHistory is the feed of one page's revisions.
func PageHistory(baseURL, name string, revs []*page.Revision) *feeds.Feed {
	p := &page.Page{Name: name}
	f := newFeed(name+": History", baseURL+p.HistoryURL(), "Revision history of "+name, revs)
	for _, r := range revs {
		f.Items = append(f.Items, item(baseURL, r, fmt.Sprintf("%s (version %d)", r.Name, r.Version)))
	}
	return f
}

func newFeed(title, link, desc string, revs []*page.Revision) *feeds.Feed {
	updated := time.Unix(0, 0).UTC()
	if len(revs) > 0 {
		updated = revs[0].CreatedAt
	}
	return &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: link},
		Description: desc,
		Id:          link,
		Updated:     updated,
		Created:     updated,
	}
}

func item(baseURL string, r *page.Revision, title string) *feeds.Item {
	p := &page.Page{Name: r.Name}
	desc := r.Description()
	if r.Comment != "" {
		desc += ": " + r.Comment
	}
	it := &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: baseURL + p.ViewURL()},
		Description: desc,
		Id:          baseURL + p.ViewURL() + "#" + r.ID,
		Created:     r.CreatedAt,
		Updated:     r.CreatedAt,
		Author:      &feeds.Author{Name: r.Nickname()},
	}
	if r.Editor != nil && r.Editor.Email != "" {
		it.Author.Email = r.Editor.Email
	}
	return it
}

// Format is a feed serialization.
type Format string

const (
	Atom Format = "atom"
	RSS  Format = "rss"
)

// ParseFormat maps a file extension (without dot) to a Format.
func ParseFormat(ext string) (Format, bool) {
	switch Format(ext) {
	case Atom, RSS:
		return Format(ext), true
	}
	return "", false
}

// ContentType of the serialized feed.
func (f Format) ContentType() string {
	if f == RSS {
		return "application/rss+xml; charset=utf-8"
	}
	return "application/atom+xml; charset=utf-8"
}

// Render serializes f in format.
func Render(f *feeds.Feed, format Format) (string, error) {
	if format == RSS {
		return f.ToRss()
	}
	return f.ToAtom()
}
