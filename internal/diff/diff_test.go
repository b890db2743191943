package diff

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable_ChangeInsertDelete(t *testing.T) {
	oldText := "<h1>Main</h1>\n<p>one</p>\n<p>two</p>\n"
	newText := "<h1>Main</h1>\n<p>uno</p>\n<p>two</p>\n<p>three</p>\n"

	tbl := Table(oldText, newText, "v1", "v2", 0)
	require.False(t, tbl.Identical())

	var kinds []Kind
	for _, r := range tbl.Rows {
		kinds = append(kinds, r.Kind)
	}
	require.Equal(t, []Kind{Equal, Change, Equal, Insert}, kinds)

	change := tbl.Rows[1]
	require.Equal(t, 2, change.OldLine)
	require.Equal(t, "<p>one</p>", change.Old)
	require.Equal(t, 2, change.NewLine)
	require.Equal(t, "<p>uno</p>", change.New)

	ins := tbl.Rows[3]
	require.Equal(t, 0, ins.OldLine)
	require.Equal(t, 4, ins.NewLine)
}

func TestTable_DeletedLines(t *testing.T) {
	tbl := Table("a\nb\nc\n", "a\nc\n", "old", "new", 0)
	require.Len(t, tbl.Rows, 3)
	require.Equal(t, Delete, tbl.Rows[1].Kind)
	require.Equal(t, "b", tbl.Rows[1].Old)
	require.Equal(t, 3, tbl.Rows[2].OldLine)
	require.Equal(t, 2, tbl.Rows[2].NewLine)
}

func TestTable_Identical(t *testing.T) {
	tbl := Table("same\ntext", "same\ntext", "a", "b", 5)
	require.True(t, tbl.Identical())
	require.Empty(t, tbl.Rows)
	require.Contains(t, tbl.HTML(), "No Differences Found")
}

func TestTable_ContextTrimsFarLines(t *testing.T) {
	var oldLines, newLines []string
	for i := 1; i <= 30; i++ {
		oldLines = append(oldLines, fmt.Sprintf("line %d", i))
		newLines = append(newLines, fmt.Sprintf("line %d", i))
	}
	newLines[1] = "changed 2"
	newLines[27] = "changed 28"

	tbl := Table(strings.Join(oldLines, "\n"), strings.Join(newLines, "\n"), "a", "b", 2)

	var seps int
	for _, r := range tbl.Rows {
		if r.Kind == Separator {
			seps++
		}
		if r.Kind == Equal {
			require.NotEqual(t, "line 15", r.Old)
		}
	}
	require.Equal(t, 1, seps)
	// rows 1..4 around the first change, separator, rows 26..30 around the second
	require.Len(t, tbl.Rows, 4+1+5)
}

func TestHTMLEscapesContent(t *testing.T) {
	tbl := Table("<b>x</b>", "<i>y</i>", "from <me>", "to", 0)
	out := tbl.HTML()
	require.Contains(t, out, "&lt;b&gt;x&lt;/b&gt;")
	require.Contains(t, out, "from &lt;me&gt;")
	require.Contains(t, out, `class="diff_change"`)
	require.NotContains(t, out, "<b>x</b>")
}
