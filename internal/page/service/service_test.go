package service

import (
	"context"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/internal/page/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2009, 11, 10, 23, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestLoad_MissingPageReturnsPlaceholder(t *testing.T) {
	svc := NewMemoryService()
	p, found, err := svc.Load(context.Background(), "Main_Page")
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, "MainPage", p.Name)
	require.Equal(t, "<h1>MainPage</h1>", p.Content)
	require.False(t, p.Exists())
}

func TestSave_ValidatesName(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	_, err := svc.Save(ctx, SaveRequest{Name: "lowercase", Content: "x"})
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Save(ctx, SaveRequest{Name: "Recent_Changes", Content: "x"})
	require.ErrorIs(t, err, ErrReservedPage)
}

func TestSave_VersionsAndEditor(t *testing.T) {
	svc := New(repository.NewMemoryRepo(), Options{Now: fixedClock()})
	ctx := context.Background()
	ed := &page.Editor{Sub: "u1", Nickname: "alice"}

	r1, err := svc.Save(ctx, SaveRequest{Name: "Main_Page", Content: "<p>one</p>", Editor: ed, RemoteAddr: "10.0.0.1", Comment: "first"})
	require.NoError(t, err)
	require.Equal(t, int64(1), r1.Version)
	require.Equal(t, "MainPage", r1.Name)
	require.Equal(t, "alice", r1.Nickname())

	r2, err := svc.Save(ctx, SaveRequest{Name: "MainPage", Content: "<p>two</p>"})
	require.NoError(t, err)
	require.Equal(t, int64(2), r2.Version)
	require.Equal(t, "anonymous", r2.Nickname())

	p, found, err := svc.Load(ctx, "MainPage")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "<p>two</p>", p.Content)
	require.Equal(t, "two", p.Text)
	require.Nil(t, p.Editor)
	require.True(t, p.ModifiedAt.After(p.CreatedAt))

	hist, err := svc.History(ctx, "MainPage")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, r2.ID, hist[0].ID)
	require.Empty(t, hist[0].Content)

	rev, err := svc.Revision(ctx, "MainPage", r1.ID)
	require.NoError(t, err)
	require.Equal(t, "<p>one</p>", rev.Content)
	require.Equal(t, "first", rev.Comment)
	require.Equal(t, "10.0.0.1", rev.RemoteAddr)
}

func TestRender_LinksWikiWords(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	_, err := svc.Save(ctx, SaveRequest{Name: "OtherPage", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, SaveRequest{Name: "MainPage", Content: "<p>See OtherPage and NewThing</p>"})
	require.NoError(t, err)

	p, _, err := svc.Load(ctx, "MainPage")
	require.NoError(t, err)
	out, err := svc.Render(ctx, p)
	require.NoError(t, err)
	require.Contains(t, out, `<a class="wikiword" href="/OtherPage">OtherPage</a>`)
	require.Contains(t, out, `class="wikiword_new" href="/NewThing">NewThing?</a>`)
}

func TestRender_CacheInvalidatedByNewPage(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	svc := New(repository.NewMemoryRepo(), Options{Cache: client, CacheTTL: time.Minute})
	ctx := context.Background()

	_, err = svc.Save(ctx, SaveRequest{Name: "MainPage", Content: "<p>Link to OtherPage</p>"})
	require.NoError(t, err)
	p, _, err := svc.Load(ctx, "MainPage")
	require.NoError(t, err)

	out, err := svc.Render(ctx, p)
	require.NoError(t, err)
	require.Contains(t, out, "wikiword_new")
	require.True(t, m.Exists("content:1:MainPage:1"))

	// cached copy is served as-is
	require.NoError(t, m.Set("content:1:MainPage:1", "cached"))
	out, err = svc.Render(ctx, p)
	require.NoError(t, err)
	require.Equal(t, "cached", out)

	_, err = svc.Save(ctx, SaveRequest{Name: "OtherPage", Content: "x"})
	require.NoError(t, err)
	got, err := m.Get(generationKey)
	require.NoError(t, err)
	require.Equal(t, "2", got)

	out, err = svc.Render(ctx, p)
	require.NoError(t, err)
	require.Contains(t, out, `class="wikiword" href="/OtherPage"`)

	// updating an existing page does not bump the generation
	_, err = svc.Save(ctx, SaveRequest{Name: "OtherPage", Content: "y"})
	require.NoError(t, err)
	got, err = m.Get(generationKey)
	require.NoError(t, err)
	require.Equal(t, "2", got)
}

func TestRender_PlaceholderNotCached(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	svc := New(repository.NewMemoryRepo(), Options{Cache: client})
	ctx := context.Background()

	p, _, err := svc.Load(ctx, "MissingPage")
	require.NoError(t, err)
	out, err := svc.Render(ctx, p)
	require.NoError(t, err)
	require.Contains(t, out, "<h1>")
	require.Empty(t, m.Keys())
}

func TestDiff(t *testing.T) {
	svc := New(repository.NewMemoryRepo(), Options{Now: fixedClock()})
	ctx := context.Background()
	r1, err := svc.Save(ctx, SaveRequest{Name: "MainPage", Content: "a\nb\nc\n"})
	require.NoError(t, err)
	r2, err := svc.Save(ctx, SaveRequest{Name: "MainPage", Content: "a\nB\nc\n", Editor: &page.Editor{Sub: "s", Nickname: "bob"}})
	require.NoError(t, err)

	d, err := svc.Diff(ctx, "MainPage", r1.ID, r2.ID)
	require.NoError(t, err)
	require.False(t, d.Identical())
	require.True(t, strings.HasSuffix(d.ToDesc, "by bob"))
	require.True(t, strings.HasSuffix(d.FromDesc, "by anonymous"))

	_, err = svc.Diff(ctx, "MainPage", r1.ID, "nope")
	require.ErrorIs(t, err, ErrRevisionNotFound)
	_, err = svc.Diff(ctx, "MainPage", "", r2.ID)
	require.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestSearch(t *testing.T) {
	svc := New(repository.NewMemoryRepo(), Options{Now: fixedClock()})
	ctx := context.Background()
	_, err := svc.Save(ctx, SaveRequest{Name: "GoPage", Content: "<p>Gophers like <b>channels</b></p>"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, SaveRequest{Name: "RustPage", Content: "<p>Crabs</p>"})
	require.NoError(t, err)

	_, err = svc.Search(ctx, "  ", 10)
	require.ErrorIs(t, err, ErrEmptyQuery)

	res, err := svc.Search(ctx, "CHANNELS", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "GoPage", res[0].Name)
	require.Contains(t, res[0].Snippet, "channels")

	res, err = svc.Search(ctx, "page", 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "RustPage", res[0].Name)
}

func TestRecentAndList(t *testing.T) {
	svc := New(repository.NewMemoryRepo(), Options{Now: fixedClock()})
	ctx := context.Background()
	for _, n := range []string{"BetaPage", "AlphaPage", "BetaPage"} {
		_, err := svc.Save(ctx, SaveRequest{Name: n, Content: n})
		require.NoError(t, err)
	}
	recent, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "BetaPage", recent[0].Name)
	require.Equal(t, int64(2), recent[0].Version)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "AlphaPage", list[0].Name)
}
