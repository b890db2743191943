package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/internal/page/service"
	"github.com/gowiki/gowiki/internal/tokens"
	"github.com/stretchr/testify/require"
)

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("MainPage.html", "<h1>Main</h1>")
	write("Other_Page.html", "<p>other</p>")
	write("lowercase.html", "nope")
	write("RecentChanges.html", "reserved")
	write("README.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "SubDir.html"), 0o755))

	svc := service.NewMemoryService()
	var out bytes.Buffer
	ed := &page.Editor{Sub: "importer", Nickname: "importer"}
	n, err := importDir(context.Background(), svc, dir, ed, &out)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Contains(t, out.String(), "skip lowercase.html")
	require.Contains(t, out.String(), "skip RecentChanges.html")

	p, found, err := svc.Load(context.Background(), "OtherPage")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "<p>other</p>", p.Content)

	hist, err := svc.History(context.Background(), "MainPage")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, importComment, hist[0].Comment)
	require.Equal(t, "importer", hist[0].Nickname())
}

func TestImportDir_MissingDir(t *testing.T) {
	_, err := importDir(context.Background(), service.NewMemoryService(), filepath.Join(t.TempDir(), "nope"), nil, &bytes.Buffer{})
	require.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	secret := "cli-test-secret-32-bytes-xxxxxxxxx"
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("WIKI_ENV_FILE", filepath.Join(t.TempDir(), "none.env"))

	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--sub", "u-7", "--name", "bob"})
	require.NoError(t, root.Execute())

	tok, err := tokens.NewVerifier(secret).Verify(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "u-7", claims["sub"])
	require.Equal(t, "bob", claims["preferred_username"])
}

func TestTokenCommand_RequiresSub(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	root := newRoot()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token"})
	require.Error(t, root.Execute())
}
