package page

import (
	"html"
	"net/url"
	"time"
)

// Editor identifies who saved a revision.
type Editor struct {
	Sub      string `json:"sub" bson:"sub"`
	Nickname string `json:"nickname" bson:"nickname"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
}

// Page is the current state of a wiki page. Version counts the revisions
// written so far; a Page with Version 0 has never been saved.
type Page struct {
	Name       string    `json:"name" bson:"name"`
	Content    string    `json:"content,omitempty" bson:"content,omitempty"`
	Text       string    `json:"text,omitempty" bson:"text,omitempty"`
	Editor     *Editor   `json:"editor,omitempty" bson:"editor,omitempty"`
	Version    int64     `json:"version" bson:"version"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt" bson:"modifiedAt"`
}

// Revision is an immutable snapshot written on every save.
type Revision struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Version    int64     `json:"version" bson:"version"`
	Content    string    `json:"content,omitempty" bson:"content,omitempty"`
	Editor     *Editor   `json:"editor,omitempty" bson:"editor,omitempty"`
	RemoteAddr string    `json:"remoteAddr,omitempty" bson:"remoteAddr,omitempty"`
	Comment    string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// SearchResult is one hit of a full-text page search.
type SearchResult struct {
	Name       string    `json:"name"`
	Snippet    string    `json:"snippet"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

const descriptionLayout = "Mon, Jan 02, 2006 at 03:04 PM"

// NewPage returns the placeholder shown for a page that has not been written yet.
func NewPage(name string, now time.Time) *Page {
	return &Page{
		Name:       name,
		Content:    "<h1>" + html.EscapeString(name) + "</h1>",
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// Exists reports whether the page has been saved at least once.
func (p *Page) Exists() bool { return p != nil && p.Version > 0 }

func (p *Page) ViewURL() string    { return "/" + p.Name }
func (p *Page) HistoryURL() string { return "/" + p.Name + "?mode=history" }

// DiffURL links the diff view of two revisions of this page.
func (p *Page) DiffURL(v1, v2 string) string {
	q := url.Values{}
	q.Set("mode", "diff")
	q.Set("v1", v1)
	q.Set("v2", v2)
	return "/" + p.Name + "?" + q.Encode()
}

// Nickname of the editor, or "anonymous".
func (r *Revision) Nickname() string {
	if r.Editor == nil || r.Editor.Nickname == "" {
		return "anonymous"
	}
	return r.Editor.Nickname
}

// Description is the one-line caption used above diff columns and in feeds.
func (r *Revision) Description() string {
	return "Edited on " + r.CreatedAt.Format(descriptionLayout) + " by " + r.Nickname()
}

// Summary drops the content, for listings.
func (r *Revision) Summary() *Revision {
	cp := *r
	cp.Content = ""
	return &cp
}
