package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/gowiki/gowiki/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedRepo keeps current pages in Redis under "page:<name>".
// Concurrent misses for one page share a single backend read. Both the
// fill and Save go through storeNewer, so an entry is never replaced by
// an older version of the page. Redis failures degrade to backend reads;
// they are never returned.
type CachedRepo struct {
	Repository
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewCachedRepo(inner Repository, client *redis.Client, ttl time.Duration) *CachedRepo {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedRepo{Repository: inner, client: client, ttl: ttl}
}

// fillTimeout bounds the shared backend read of a cache miss.
const fillTimeout = 5 * time.Second

func pageKey(name string) string { return "page:" + name }

// storeNewer writes ARGV[1] unless the cached entry has a higher version.
var storeNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' and tonumber(doc.version) and tonumber(doc.version) > tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

func (c *CachedRepo) store(ctx context.Context, p *page.Page) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return storeNewer.Run(ctx, c.client, []string{pageKey(p.Name)}, b, p.Version, c.ttl.Milliseconds()).Err()
}

func (c *CachedRepo) Get(ctx context.Context, name string) (*page.Page, error) {
	key := pageKey(name)
	b, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p page.Page
		if jerr := json.Unmarshal(b, &p); jerr == nil {
			metrics.CacheRequests.WithLabelValues("page", "hit").Inc()
			return &p, nil
		}
		_ = c.client.Del(ctx, key).Err()
	case errors.Is(err, redis.Nil):
	default:
		metrics.CacheRequests.WithLabelValues("page", "error").Inc()
		logger.Warnf("page cache get %s: %v", name, err)
	}
	metrics.CacheRequests.WithLabelValues("page", "miss").Inc()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()
		p, err := c.Repository.Get(fctx, name)
		if err != nil {
			return nil, err
		}
		if err := c.store(fctx, p); err != nil {
			logger.Warnf("page cache set %s: %v", name, err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*page.Page)
	return &cp, nil
}

func (c *CachedRepo) Exists(ctx context.Context, name string) (bool, error) {
	_, err := c.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (c *CachedRepo) Save(ctx context.Context, p *page.Page, rev *page.Revision) (*page.Revision, error) {
	saved, err := c.Repository.Save(ctx, p, rev)
	if err != nil {
		return nil, err
	}
	// The backend already holds the new version; the cache must follow even if the caller went away.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
	defer cancel()
	if err := c.store(cctx, p); err != nil {
		logger.Warnf("page cache update %s: %v", p.Name, err)
		if err := c.client.Del(cctx, pageKey(p.Name)).Err(); err != nil {
			logger.Warnf("page cache invalidate %s: %v", p.Name, err)
		}
	}
	return saved, nil
}
