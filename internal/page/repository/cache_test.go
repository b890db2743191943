package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gowiki/gowiki/internal/page"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// countingRepo counts backend reads.
type countingRepo struct {
	*MemoryRepo
	gets atomic.Int32
}

func (c *countingRepo) Get(ctx context.Context, name string) (*page.Page, error) {
	c.gets.Add(1)
	return c.MemoryRepo.Get(ctx, name)
}

func newCached(t *testing.T) (*CachedRepo, *countingRepo, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := &countingRepo{MemoryRepo: NewMemoryRepo()}
	return NewCachedRepo(inner, client, time.Minute), inner, m
}

func TestCachedRepo_HitsRedisAfterFirstRead(t *testing.T) {
	c, inner, m := newCached(t)
	ctx := context.Background()
	save(t, inner.MemoryRepo, "MainPage", "hello", time.Now())
	require.False(t, m.Exists("page:MainPage"))

	p, err := c.Get(ctx, "MainPage")
	require.NoError(t, err)
	require.Equal(t, "hello", p.Content)
	require.True(t, m.Exists("page:MainPage"))

	p2, err := c.Get(ctx, "MainPage")
	require.NoError(t, err)
	require.Equal(t, "hello", p2.Content)
	require.Equal(t, int32(1), inner.gets.Load())
}

func TestCachedRepo_SaveRefreshesEntry(t *testing.T) {
	c, inner, m := newCached(t)
	ctx := context.Background()
	save(t, c, "MainPage", "v1", time.Now())
	_, err := c.Get(ctx, "MainPage")
	require.NoError(t, err)
	require.True(t, m.Exists("page:MainPage"))

	save(t, c, "MainPage", "v2", time.Now())
	require.True(t, m.Exists("page:MainPage"))

	p, err := c.Get(ctx, "MainPage")
	require.NoError(t, err)
	require.Equal(t, "v2", p.Content)
	require.Equal(t, int64(2), p.Version)
	require.Zero(t, inner.gets.Load())
}

// pausingRepo holds the first Get after it read the backend until release is closed.
type pausingRepo struct {
	*MemoryRepo
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingRepo) Get(ctx context.Context, name string) (*page.Page, error) {
	pg, err := p.MemoryRepo.Get(ctx, name)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return pg, err
}

func TestCachedRepo_SlowFillDoesNotOverwriteNewerSave(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := &pausingRepo{MemoryRepo: NewMemoryRepo(), read: make(chan struct{}), release: make(chan struct{})}
	c := NewCachedRepo(inner, client, time.Minute)
	ctx := context.Background()
	save(t, inner.MemoryRepo, "MainPage", "v1", time.Now())

	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "MainPage")
		done <- err
	}()
	<-inner.read
	save(t, c, "MainPage", "v2", time.Now())
	close(inner.release)
	require.NoError(t, <-done)

	p, err := c.Get(ctx, "MainPage")
	require.NoError(t, err)
	require.Equal(t, int64(2), p.Version)
	require.Equal(t, "v2", p.Content)
}

// ctxRepo fails reads whose context is already done, like a network backend.
type ctxRepo struct {
	*MemoryRepo
}

func (r ctxRepo) Get(ctx context.Context, name string) (*page.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.MemoryRepo.Get(ctx, name)
}

func TestCachedRepo_FillSurvivesCallerCancel(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := ctxRepo{MemoryRepo: NewMemoryRepo()}
	c := NewCachedRepo(inner, client, time.Minute)
	save(t, inner.MemoryRepo, "MainPage", "hello", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err := c.Get(ctx, "MainPage")
	require.NoError(t, err)
	require.Equal(t, "hello", p.Content)
	require.True(t, m.Exists("page:MainPage"))
}

func TestCachedRepo_MissingPageNotCached(t *testing.T) {
	c, _, m := newCached(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "NoSuchPage")
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, m.Exists("page:NoSuchPage"))

	ok, err := c.Exists(ctx, "NoSuchPage")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCachedRepo_TTLExpiry(t *testing.T) {
	c, inner, m := newCached(t)
	ctx := context.Background()
	save(t, inner.MemoryRepo, "MainPage", "hello", time.Now())
	_, err := c.Get(ctx, "MainPage")
	require.NoError(t, err)

	m.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "MainPage")
	require.NoError(t, err)
	require.Equal(t, int32(2), inner.gets.Load())
}

func TestCachedRepo_RedisDownFallsBack(t *testing.T) {
	c, _, m := newCached(t)
	ctx := context.Background()
	save(t, c, "MainPage", "hello", time.Now())
	m.Close()

	p, err := c.Get(ctx, "MainPage")
	require.NoError(t, err)
	require.Equal(t, "hello", p.Content)
}
