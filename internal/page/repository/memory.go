package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/gowiki/gowiki/internal/markup"
	"github.com/gowiki/gowiki/internal/page"
)

// MemoryRepo is an in-memory repository used for local runs and unit tests.
// Stored values are copied in and out so callers never share them.
type MemoryRepo struct {
	mu        sync.RWMutex
	pages     map[string]*page.Page
	revisions map[string][]*page.Revision // per page, oldest first
	log       []*page.Revision            // all pages, oldest first
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		pages:     make(map[string]*page.Page),
		revisions: make(map[string][]*page.Revision),
	}
}

func (m *MemoryRepo) Get(ctx context.Context, name string) (*page.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.pages[name]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pages[name]
	return ok, nil
}

func (m *MemoryRepo) Save(ctx context.Context, p *page.Page, rev *page.Revision) (*page.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *p
	if cur, ok := m.pages[p.Name]; ok {
		stored.CreatedAt = cur.CreatedAt
		stored.Version = cur.Version + 1
	} else {
		stored.Version = 1
	}
	m.pages[p.Name] = &stored
	p.Version, p.CreatedAt = stored.Version, stored.CreatedAt

	r := *rev
	r.ID = uuid.NewString()
	r.Name = p.Name
	r.Version = stored.Version
	r.CreatedAt = stored.ModifiedAt
	m.revisions[p.Name] = append(m.revisions[p.Name], &r)
	m.log = append(m.log, &r)

	out := r
	return &out, nil
}

func (m *MemoryRepo) List(ctx context.Context) ([]*page.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*page.Page, 0, len(m.pages))
	for _, p := range m.pages {
		cp := *p
		cp.Content, cp.Text = "", ""
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepo) History(ctx context.Context, name string, limit int) ([]*page.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.revisions[name], normLimit(limit)), nil
}

func (m *MemoryRepo) Revision(ctx context.Context, name, id string) (*page.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.revisions[name] {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrRevisionNotFound
}

func (m *MemoryRepo) Recent(ctx context.Context, limit int) ([]*page.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.log, normLimit(limit)), nil
}

func (m *MemoryRepo) Search(ctx context.Context, query string, limit int) ([]*page.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*page.Page
	for _, p := range m.pages {
		if markup.ContainsFold(p.Name, query) || markup.ContainsFold(p.Text, query) {
			cp := *p
			cp.Content = ""
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModifiedAt.After(out[j].ModifiedAt) })
	if l := normLimit(limit); len(out) > l {
		out = out[:l]
	}
	return out, nil
}

func newestFirst(revs []*page.Revision, limit int) []*page.Revision {
	out := make([]*page.Revision, 0, min(len(revs), limit))
	for i := len(revs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, revs[i].Summary())
	}
	return out
}
