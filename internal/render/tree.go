package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/takak2166/notion2text/internal/models"
)

// group is a run of siblings rendered as one unit: a single block, or
// consecutive list items of the same type.
type group struct {
	kind   models.BlockType
	blocks []*models.Block
}

func (g group) isList() bool {
	return len(g.blocks) > 0 && g.blocks[0].IsListItem()
}

// groupSiblings splits siblings into list groups and single blocks,
// preserving order.
func groupSiblings(blocks []*models.Block) []group {
	var groups []group
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if n := len(groups); n > 0 && b.IsListItem() && groups[n-1].kind == b.Type {
			groups[n-1].blocks = append(groups[n-1].blocks, b)
			continue
		}
		groups = append(groups, group{kind: b.Type, blocks: []*models.Block{b}})
	}
	return groups
}

// tableRows returns the cells of a table's rows normalized to a common width:
// the declared width, else the longest row. Short rows are padded with empty
// cells and long rows truncated.
func tableRows(rc *Context, table *models.Block) [][][]models.RichTextRun {
	width := 0
	if t, ok := table.Content.(models.Table); ok {
		width = t.Width
	}

	var rows [][][]models.RichTextRun
	for _, child := range table.Children {
		row, ok := child.Content.(models.TableRow)
		if !ok {
			rc.fail(child, "table child is not a table row")
			continue
		}
		rows = append(rows, row.Cells)
	}

	if width <= 0 {
		for _, r := range rows {
			if len(r) > width {
				width = len(r)
			}
		}
	}

	truncated := false
	for i, r := range rows {
		switch {
		case len(r) < width:
			padded := make([][]models.RichTextRun, width)
			copy(padded, r)
			rows[i] = padded
		case len(r) > width:
			rows[i] = r[:width]
			truncated = true
		}
	}
	if truncated {
		rc.fail(table, fmt.Sprintf("rows wider than %d columns were truncated", width))
	}
	return rows
}

// coalesce merges adjacent runs that share a style.
func coalesce(runs []models.RichTextRun) []models.RichTextRun {
	out := make([]models.RichTextRun, 0, len(runs))
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].SameStyle(r) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}

// splitSpace separates leading and trailing whitespace from s.
func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

// longestRun returns the length of the longest run of c in s.
func longestRun(s string, c byte) int {
	longest, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			cur++
			if cur > longest {
				longest = cur
			}
			continue
		}
		cur = 0
	}
	return longest
}

// indent prefixes every non-empty line after the first with pad.
func indent(s, pad string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// prefixLines prefixes every line with prefix; empty lines get the trimmed prefix.
func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = strings.TrimRight(prefix, " ")
			continue
		}
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func joinNonEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// commentText keeps placeholder text from terminating its comment early.
func commentText(s string) string {
	s = strings.ReplaceAll(s, "--", "- -")
	return strings.ReplaceAll(s, "*/", "* /")
}

func pageTitle(b *models.Block) string {
	if ref, ok := b.Content.(models.PageRef); ok && ref.Title != "" {
		return ref.Title
	}
	return "Untitled"
}

func pageLink(b *models.Block) (title, url string) {
	ref, _ := b.Content.(models.PageRef)
	id := ref.PageID
	if id == "" {
		id = b.ID
	}
	title = ref.Title
	if title == "" {
		switch b.Type {
		case models.BlockChildDatabase:
			title = "Untitled database"
		case models.BlockLinkToPage:
			title = "Linked page"
		default:
			title = "Untitled"
		}
	}
	return title, models.PageURL(id)
}

// inlinable reports whether a child page's content is rendered in place.
func inlinable(rc *Context, b *models.Block) bool {
	return rc.InlineChildPages && b.Type == models.BlockChildPage && len(b.Children) > 0
}

// inlinePage renders a child page into its own sink buffer and returns its
// body for inlining in the parent.
func inlinePage(rc *Context, b *models.Block, blocks func(*Context, []*models.Block) string) (string, bool) {
	var body string
	ok := rc.nested(b, func() {
		body = blocks(rc, b.Children)
	})
	if !ok {
		return "", false
	}
	ref, _ := b.Content.(models.PageRef)
	id := ref.PageID
	if id == "" {
		id = b.ID
	}
	rc.Sink.Write(id, rc.strategy.Post(rc, id, pageTitle(b), body))
	return body, true
}
