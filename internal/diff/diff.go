// Package diff renders side-by-side line diffs of two page revisions
// using the sergi/go-diff engine.
package diff

import (
	"html"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind of a side-by-side row.
type Kind string

const (
	Equal     Kind = "equal"
	Insert    Kind = "insert"
	Delete    Kind = "delete"
	Change    Kind = "change"
	Separator Kind = "separator"
)

// Row is one line of the side-by-side table. Line numbers are 1-based;
// 0 means the side is empty.
type Row struct {
	Kind    Kind   `json:"kind"`
	OldLine int    `json:"oldLine,omitempty"`
	Old     string `json:"old,omitempty"`
	NewLine int    `json:"newLine,omitempty"`
	New     string `json:"new,omitempty"`
}

// SideBySide is a rendered comparison of two texts.
type SideBySide struct {
	FromDesc string `json:"from"`
	ToDesc   string `json:"to"`
	Rows     []Row  `json:"rows"`
}

// Identical reports whether no row carries a change.
func (s *SideBySide) Identical() bool {
	for _, r := range s.Rows {
		if r.Kind != Equal && r.Kind != Separator {
			return false
		}
	}
	return true
}

// Table diffs old against new line by line. With context > 0 only changed
// rows plus context rows around them are kept; skipped stretches become a
// single Separator row.
func Table(oldText, newText, fromDesc, toDesc string, context int) *SideBySide {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	rows := pair(diffs)
	if context > 0 {
		rows = trim(rows, context)
	}
	return &SideBySide{FromDesc: fromDesc, ToDesc: toDesc, Rows: rows}
}

func splitLines(text string) []string {
	parts := strings.SplitAfter(text, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, "\r\n")
	}
	return parts
}

// pair walks the diff ops and lines up runs of deletions with the
// insertions that follow them as Change rows.
func pair(diffs []diffmatchpatch.Diff) []Row {
	var rows []Row
	oldNo, newNo := 0, 0
	var dels, ins []string
	flush := func() {
		n := len(dels)
		if len(ins) > n {
			n = len(ins)
		}
		for i := 0; i < n; i++ {
			r := Row{}
			if i < len(dels) {
				oldNo++
				r.OldLine, r.Old = oldNo, dels[i]
			}
			if i < len(ins) {
				newNo++
				r.NewLine, r.New = newNo, ins[i]
			}
			switch {
			case r.OldLine != 0 && r.NewLine != 0:
				r.Kind = Change
			case r.OldLine != 0:
				r.Kind = Delete
			default:
				r.Kind = Insert
			}
			rows = append(rows, r)
		}
		dels, ins = nil, nil
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			dels = append(dels, splitLines(d.Text)...)
		case diffmatchpatch.DiffInsert:
			ins = append(ins, splitLines(d.Text)...)
		case diffmatchpatch.DiffEqual:
			flush()
			for _, l := range splitLines(d.Text) {
				oldNo++
				newNo++
				rows = append(rows, Row{Kind: Equal, OldLine: oldNo, Old: l, NewLine: newNo, New: l})
			}
		}
	}
	flush()
	return rows
}

func trim(rows []Row, context int) []Row {
	keep := make([]bool, len(rows))
	changed := false
	for i, r := range rows {
		if r.Kind == Equal {
			continue
		}
		changed = true
		lo, hi := i-context, i+context
		if lo < 0 {
			lo = 0
		}
		if hi >= len(rows) {
			hi = len(rows) - 1
		}
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}
	if !changed {
		return nil
	}
	var out []Row
	gap := false
	for i, r := range rows {
		if !keep[i] {
			gap = true
			continue
		}
		if gap && len(out) > 0 {
			out = append(out, Row{Kind: Separator})
		}
		gap = false
		out = append(out, r)
	}
	return out
}

// HTML renders the comparison as a table; every cell is escaped.
func (s *SideBySide) HTML() string {
	var b strings.Builder
	b.WriteString(`<table class="diff">`)
	b.WriteString(`<thead><tr><th class="diff_header" colspan="2">` + html.EscapeString(s.FromDesc) +
		`</th><th class="diff_header" colspan="2">` + html.EscapeString(s.ToDesc) + `</th></tr></thead><tbody>`)
	if s.Identical() {
		b.WriteString(`<tr><td colspan="4" class="diff_none">No Differences Found</td></tr>`)
	}
	for _, r := range s.Rows {
		if r.Kind == Separator {
			b.WriteString(`<tr class="diff_separator"><td colspan="4">...</td></tr>`)
			continue
		}
		b.WriteString(`<tr class="diff_` + string(r.Kind) + `">`)
		b.WriteString(cell(r.OldLine, r.Old))
		b.WriteString(cell(r.NewLine, r.New))
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func cell(n int, text string) string {
	num := ""
	if n > 0 {
		num = strconv.Itoa(n)
	}
	return `<td class="diff_line">` + num + `</td><td>` + html.EscapeString(text) + `</td>`
}
