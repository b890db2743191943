package feed

import (
	"testing"
	"time"

	"github.com/gowiki/gowiki/internal/page"
	"github.com/stretchr/testify/require"
)

func revisions() []*page.Revision {
	t0 := time.Date(2010, 3, 4, 15, 30, 0, 0, time.UTC)
	return []*page.Revision{
		{ID: "r2", Name: "MainPage", Version: 2, CreatedAt: t0.Add(time.Hour), Comment: "typo",
			Editor: &page.Editor{Sub: "s", Nickname: "alice", Email: "alice@example.com"}},
		{ID: "r1", Name: "OtherPage", Version: 1, CreatedAt: t0},
	}
}

func TestRecentChanges_Atom(t *testing.T) {
	f := RecentChanges("http://wiki.example.com", "Wiki", revisions())
	require.Len(t, f.Items, 2)
	require.Equal(t, "MainPage", f.Items[0].Title)
	require.Equal(t, "http://wiki.example.com/MainPage", f.Items[0].Link.Href)
	require.Equal(t, "alice", f.Items[0].Author.Name)
	require.Contains(t, f.Items[0].Description, "by alice: typo")
	require.Equal(t, "anonymous", f.Items[1].Author.Name)

	out, err := Render(f, Atom)
	require.NoError(t, err)
	require.Contains(t, out, "<feed")
	require.Contains(t, out, "Wiki: Recent Changes")
}

func TestPageHistory_RSS(t *testing.T) {
	f := PageHistory("http://wiki.example.com", "MainPage", revisions()[:1])
	require.Equal(t, "http://wiki.example.com/MainPage?mode=history", f.Link.Href)
	require.Equal(t, "MainPage (version 2)", f.Items[0].Title)

	out, err := Render(f, RSS)
	require.NoError(t, err)
	require.Contains(t, out, "<rss")
	require.Contains(t, out, "MainPage (version 2)")
}

func TestEmptyFeed(t *testing.T) {
	out, err := Render(RecentChanges("http://x", "Wiki", nil), Atom)
	require.NoError(t, err)
	require.Contains(t, out, "<feed")
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("rss")
	require.True(t, ok)
	require.Equal(t, RSS, f)
	require.Contains(t, f.ContentType(), "rss")
	_, ok = ParseFormat("json")
	require.False(t, ok)
}
