package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/gowiki/gowiki/internal/page"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestContainsPatternQuotesQuery(t *testing.T) {
	pat := containsPattern("a.b(")
	require.Equal(t, "i", pat["$options"])

	expr, ok := pat["$regex"].(string)
	require.True(t, ok)
	require.Equal(t, `a\.b\(`, expr)

	re := regexp.MustCompile("(?i)" + expr)
	require.True(t, re.MatchString("see A.B( here"))
	require.False(t, re.MatchString("axb("))
}

func TestSaveUpdate_Editor(t *testing.T) {
	at := time.Date(2012, 3, 4, 5, 6, 7, 0, time.UTC)
	ed := &page.Editor{Sub: "u-1", Nickname: "alice"}
	u := saveUpdate(&page.Page{Name: "MainPage", Content: "<p>x</p>", Text: "x", Editor: ed, CreatedAt: at, ModifiedAt: at})

	set := u["$set"].(bson.M)
	require.Equal(t, "<p>x</p>", set["content"])
	require.Equal(t, "x", set["text"])
	require.Equal(t, at, set["modifiedAt"])
	require.Equal(t, ed, set["editor"])
	require.Equal(t, bson.M{"version": 1}, u["$inc"])
	require.Equal(t, bson.M{"createdAt": at}, u["$setOnInsert"])
	require.NotContains(t, u, "$unset")
}

func TestSaveUpdate_AnonymousClearsEditor(t *testing.T) {
	u := saveUpdate(&page.Page{Name: "MainPage", Content: "c", ModifiedAt: time.Now()})

	require.Equal(t, bson.M{"editor": ""}, u["$unset"])
	require.NotContains(t, u["$set"].(bson.M), "editor")
}

func TestNewRevisionStampsPage(t *testing.T) {
	at := time.Date(2012, 3, 4, 5, 6, 7, 0, time.UTC)
	p := &page.Page{Name: "MainPage", ModifiedAt: at}
	in := &page.Revision{Content: "c", Comment: "first", RemoteAddr: "10.0.0.1"}

	r := newRevision(p, in, 3)
	require.NotEmpty(t, r.ID)
	require.Equal(t, "MainPage", r.Name)
	require.Equal(t, int64(3), r.Version)
	require.Equal(t, at, r.CreatedAt)
	require.Equal(t, "first", r.Comment)
	require.Empty(t, in.ID)

	require.NotEqual(t, r.ID, newRevision(p, in, 4).ID)
}
