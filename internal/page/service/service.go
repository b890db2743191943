package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gowiki/gowiki/internal/diff"
	"github.com/gowiki/gowiki/internal/markup"
	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/internal/page/repository"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/gowiki/gowiki/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound         = repository.ErrNotFound
	ErrRevisionNotFound = repository.ErrRevisionNotFound
	ErrInvalidName      = errors.New("invalid page name")
	ErrReservedPage     = errors.New("page name is reserved")
	ErrEmptyQuery       = errors.New("empty search query")
)

const (
	generationKey      = "content:generation"
	defaultDiffContext = 5
	snippetWidth       = 160
)

// Service defines the wiki operations used by the handler layer.
type Service interface {
	Load(ctx context.Context, name string) (*page.Page, bool, error)
	Save(ctx context.Context, req SaveRequest) (*page.Revision, error)
	Render(ctx context.Context, p *page.Page) (string, error)
	History(ctx context.Context, name string) ([]*page.Revision, error)
	Revision(ctx context.Context, name, id string) (*page.Revision, error)
	Diff(ctx context.Context, name, v1, v2 string) (*diff.SideBySide, error)
	Recent(ctx context.Context, limit int) ([]*page.Revision, error)
	Search(ctx context.Context, query string, limit int) ([]page.SearchResult, error)
	List(ctx context.Context) ([]*page.Page, error)
}

// SaveRequest is one edit. A nil Editor saves anonymously.
type SaveRequest struct {
	Name       string
	Content    string
	Comment    string
	RemoteAddr string
	Editor     *page.Editor
}

// Options tune a Service. Zero values are usable.
type Options struct {
	HistoryLimit int
	RefererHider string
	DiffContext  int
	// Cache enables the render cache. Nil renders every request.
	Cache    *redis.Client
	CacheTTL time.Duration
	Now      func() time.Time
}

type wikiService struct {
	repo repository.Repository
	opts Options
}

// New returns a Service over repo.
func New(repo repository.Repository, opts Options) Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = repository.DefaultHistoryLimit
	}
	if opts.DiffContext <= 0 {
		opts.DiffContext = defaultDiffContext
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &wikiService{repo: repo, opts: opts}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo(), Options{})
}

func (s *wikiService) Load(ctx context.Context, name string) (*page.Page, bool, error) {
	name = page.CleanName(name)
	p, err := s.repo.Get(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return page.NewPage(name, s.opts.Now()), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", name, err)
	}
	return p, true, nil
}

func (s *wikiService) Save(ctx context.Context, req SaveRequest) (*page.Revision, error) {
	name := page.CleanName(req.Name)
	if !page.ValidName(name) {
		return nil, ErrInvalidName
	}
	if page.IsReserved(name) {
		return nil, ErrReservedPage
	}
	now := s.opts.Now().UTC()
	p := &page.Page{
		Name:       name,
		Content:    req.Content,
		Text:       markup.PlainText(req.Content),
		Editor:     req.Editor,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	rev, err := s.repo.Save(ctx, p, &page.Revision{
		Content:    req.Content,
		Editor:     req.Editor,
		RemoteAddr: req.RemoteAddr,
		Comment:    req.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}

	kind := "updated"
	if rev.Version == 1 {
		kind = "created"
		// A new page turns "does not exist yet" links into plain ones on
		// every other page, so all rendered content goes stale.
		s.bumpGeneration(ctx)
	}
	metrics.PageSaves.WithLabelValues(kind).Inc()
	logger.Infof("page %s %s: version=%d editor=%s", name, kind, rev.Version, rev.Nickname())
	return rev, nil
}

func (s *wikiService) bumpGeneration(ctx context.Context) {
	if s.opts.Cache == nil {
		return
	}
	if err := s.opts.Cache.Incr(ctx, generationKey).Err(); err != nil {
		logger.Warnf("bump render generation: %v", err)
	}
}

func (s *wikiService) generation(ctx context.Context) (int64, error) {
	gen, err := s.opts.Cache.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func renderKey(gen int64, p *page.Page) string {
	return "content:" + strconv.FormatInt(gen, 10) + ":" + p.Name + ":" + strconv.FormatInt(p.Version, 10)
}

// Render applies the wiki transforms. Only saved pages are cached; the
// placeholder of a missing page is rendered every time.
func (s *wikiService) Render(ctx context.Context, p *page.Page) (string, error) {
	if s.opts.Cache == nil || !p.Exists() {
		return s.render(ctx, p)
	}
	gen, err := s.generation(ctx)
	if err != nil {
		metrics.CacheRequests.WithLabelValues("content", "error").Inc()
		logger.Warnf("render generation: %v", err)
		return s.render(ctx, p)
	}
	key := renderKey(gen, p)
	if out, err := s.opts.Cache.Get(ctx, key).Result(); err == nil {
		metrics.CacheRequests.WithLabelValues("content", "hit").Inc()
		return out, nil
	} else if !errors.Is(err, redis.Nil) {
		metrics.CacheRequests.WithLabelValues("content", "error").Inc()
		logger.Warnf("render cache get %s: %v", key, err)
	} else {
		metrics.CacheRequests.WithLabelValues("content", "miss").Inc()
	}

	out, err := s.render(ctx, p)
	if err != nil {
		return "", err
	}
	if err := s.opts.Cache.Set(ctx, key, out, s.opts.CacheTTL).Err(); err != nil {
		logger.Warnf("render cache set %s: %v", key, err)
	}
	return out, nil
}

func (s *wikiService) render(ctx context.Context, p *page.Page) (string, error) {
	start := time.Now()
	defer func() { metrics.RenderSeconds.Observe(time.Since(start).Seconds()) }()

	var lookupErr error
	seen := map[string]bool{}
	exists := func(name string) bool {
		if ok, hit := seen[name]; hit {
			return ok
		}
		ok, err := s.repo.Exists(ctx, name)
		if err != nil && lookupErr == nil {
			lookupErr = err
		}
		seen[name] = ok
		return ok
	}
	out := markup.NewPipeline(exists, s.opts.RefererHider).Run(p.Content)
	if lookupErr != nil {
		return "", fmt.Errorf("render %s: %w", p.Name, lookupErr)
	}
	return out, nil
}

func (s *wikiService) History(ctx context.Context, name string) ([]*page.Revision, error) {
	return s.repo.History(ctx, page.CleanName(name), s.opts.HistoryLimit)
}

func (s *wikiService) Revision(ctx context.Context, name, id string) (*page.Revision, error) {
	return s.repo.Revision(ctx, page.CleanName(name), id)
}

// Diff compares revision v1 (left) with v2 (right).
func (s *wikiService) Diff(ctx context.Context, name, v1, v2 string) (*diff.SideBySide, error) {
	name = page.CleanName(name)
	if v1 == "" || v2 == "" {
		return nil, ErrRevisionNotFound
	}
	from, err := s.repo.Revision(ctx, name, v1)
	if err != nil {
		return nil, err
	}
	to, err := s.repo.Revision(ctx, name, v2)
	if err != nil {
		return nil, err
	}
	return diff.Table(from.Content, to.Content, from.Description(), to.Description(), s.opts.DiffContext), nil
}

func (s *wikiService) Recent(ctx context.Context, limit int) ([]*page.Revision, error) {
	return s.repo.Recent(ctx, limit)
}

func (s *wikiService) Search(ctx context.Context, query string, limit int) ([]page.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	pages, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	out := make([]page.SearchResult, 0, len(pages))
	for _, p := range pages {
		out = append(out, page.SearchResult{
			Name:       p.Name,
			Snippet:    markup.Snippet(p.Text, query, snippetWidth),
			ModifiedAt: p.ModifiedAt,
		})
	}
	return out, nil
}

func (s *wikiService) List(ctx context.Context) ([]*page.Page, error) {
	return s.repo.List(ctx)
}
