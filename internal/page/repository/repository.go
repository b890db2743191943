package repository

import (
	"context"
	"errors"

	"github.com/gowiki/gowiki/internal/page"
)

var (
	ErrNotFound         = errors.New("page not found")
	ErrRevisionNotFound = errors.New("revision not found")
)

// DefaultHistoryLimit caps history listings when the caller passes <= 0.
const DefaultHistoryLimit = 1000

// Repository persists pages and their revision history.
//
// Save upserts the page and appends rev in one step: it increments the
// page version, stamps rev with a fresh ID, that version, the page name
// and the page's ModifiedAt, and keeps the first CreatedAt it saw.
// History and Recent return revisions newest first without content.
type Repository interface {
	Get(ctx context.Context, name string) (*page.Page, error)
	Exists(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, p *page.Page, rev *page.Revision) (*page.Revision, error)
	List(ctx context.Context) ([]*page.Page, error)
	History(ctx context.Context, name string, limit int) ([]*page.Revision, error)
	Revision(ctx context.Context, name, id string) (*page.Revision, error)
	Recent(ctx context.Context, limit int) ([]*page.Revision, error)
	Search(ctx context.Context, query string, limit int) ([]*page.Page, error)
}

func normLimit(limit int) int {
	if limit <= 0 || limit > DefaultHistoryLimit {
		return DefaultHistoryLimit
	}
	return limit
}
