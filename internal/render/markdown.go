package render

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

// markdown renders CommonMark with GFM tables, strikethrough and task lists.
// The MDX flavor differs in escaping, comments and equations.
type markdown struct {
	mdx bool
	// cell is set while rendering GFM table cells.
	cell bool
}

var (
	mdEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
		"<", `\<`, ">", `\>`, "~", `\~`, "|", `\|`, "&", `\&`, "\n", "\\\n",
	)
	mdxEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
		"<", `\<`, ">", `\>`, "~", `\~`, "|", `\|`, "&", `\&`, "\n", "\\\n",
		"{", `\{`, "}", `\}`,
	)
	urlEscaper = strings.NewReplacer(
		" ", "%20", "(", "%28", ")", "%29", "|", "%7C", "<", "%3C", ">", "%3E", "{", "%7B", "}", "%7D",
	)
)

func (m markdown) escape(s string) string {
	if m.mdx {
		return mdxEscaper.Replace(s)
	}
	return mdEscaper.Replace(s)
}

func (m markdown) comment(text string) string {
	if m.mdx {
		return "{/* " + commentText(text) + " */}"
	}
	return "<!-- " + commentText(text) + " -->"
}

func (m markdown) inline(runs []models.RichTextRun) string {
	runs = coalesce(runs)
	var sb strings.Builder
	for i, r := range runs {
		prev, next := ' ', ' '
		if i > 0 {
			prev = m.edge(runs[i-1], false)
		}
		if i+1 < len(runs) {
			next = m.edge(runs[i+1], true)
		}
		sb.WriteString(m.run(r, prev, next))
	}
	return sb.String()
}

// edge returns the first or last character run renders to. Any markup
// around the run starts and ends with punctuation.
func (m markdown) edge(r models.RichTextRun, first bool) rune {
	lead, core, trail := splitSpace(r.Text)
	switch {
	case core == "", first && lead != "", !first && trail != "":
		return ' '
	case styled(r):
		return '*'
	}
	s := m.escape(core)
	if first {
		c, _ := utf8.DecodeRuneInString(s)
		return c
	}
	c, _ := utf8.DecodeLastRuneInString(s)
	return c
}

func styled(r models.RichTextRun) bool {
	a := r.Annotations
	return a.Code || a.Bold || a.Italic || a.Strikethrough || a.Underline || r.Href != ""
}

// run renders one run between the characters prev and next. Code spans go
// innermost since they cannot contain other markup; surrounding whitespace
// stays outside the emphasis markers. Emphasis that would not parse as
// such next to its neighbors falls back to inline HTML.
func (m markdown) run(r models.RichTextRun, prev, next rune) string {
	lead, core, trail := splitSpace(r.Text)
	if core == "" {
		return m.escape(r.Text)
	}
	if lead != "" {
		prev = ' '
	}
	if trail != "" {
		next = ' '
	}

	a := r.Annotations
	var s string
	if a.Code {
		s = codeSpan(core)
		if m.cell {
			s = strings.ReplaceAll(s, "|", `\|`)
		}
	} else {
		s = m.escape(core)
	}

	// Layers outside the current one put punctuation next to its markers.
	wrapped := a.Underline || r.Href != ""
	outer := func(c rune) rune {
		if wrapped {
			return '*'
		}
		return c
	}

	var stars, openTag, closeTag string
	switch {
	case a.Bold && a.Italic:
		stars, openTag, closeTag = "***", "<strong><em>", "</em></strong>"
	case a.Bold:
		stars, openTag, closeTag = "**", "<strong>", "</strong>"
	case a.Italic:
		stars, openTag, closeTag = "*", "<em>", "</em>"
	}
	if stars != "" {
		p, n := outer(prev), outer(next)
		if a.Strikethrough {
			p, n = '*', '*'
		}
		if flanking(p, s, n) {
			s = stars + s + stars
		} else {
			s = openTag + s + closeTag
		}
	}
	if a.Strikethrough {
		if flanking(outer(prev), s, outer(next)) {
			s = "~~" + s + "~~"
		} else {
			s = "<del>" + s + "</del>"
		}
	}
	if a.Underline {
		s = "<u>" + s + "</u>"
	}
	if r.Href != "" {
		s = "[" + s + "](" + urlEscaper.Replace(r.Href) + ")"
	}
	return m.escape(lead) + s + m.escape(trail)
}

// flanking reports whether delimiters around inner, with prev before and
// next after, open and close emphasis under the CommonMark flanking rules.
func flanking(prev rune, inner string, next rune) bool {
	first, _ := utf8.DecodeRuneInString(inner)
	last, _ := utf8.DecodeLastRuneInString(inner)
	left := !unicode.IsSpace(first) && (!isPunct(first) || unicode.IsSpace(prev) || isPunct(prev))
	right := !unicode.IsSpace(last) && (!isPunct(last) || unicode.IsSpace(next) || isPunct(next))
	return left && right
}

func isPunct(c rune) bool {
	if c < utf8.RuneSelf {
		return strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c)
	}
	return unicode.IsPunct(c) || unicode.IsSymbol(c)
}

func codeSpan(s string) string {
	fence := strings.Repeat("`", longestRun(s, '`')+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

// text renders block-level inline content, escaping characters that would
// start a block construct at the beginning of a line.
func (m markdown) text(runs []models.RichTextRun) string {
	lines := strings.Split(m.inline(runs), "\n")
	for i, l := range lines {
		rest := strings.TrimLeft(l, " \t")
		lines[i] = leadingSpace(l[:len(l)-len(rest)]) + guardLineStart(rest)
	}
	return strings.Join(lines, "\n")
}

// leadingSpace encodes indentation as character references so it survives
// without starting an indented code block.
func leadingSpace(ws string) string {
	var sb strings.Builder
	for _, c := range ws {
		if c == '\t' {
			sb.WriteString("&#9;")
		} else {
			sb.WriteString("&#32;")
		}
	}
	return sb.String()
}

func guardLineStart(l string) string {
	if l == "" {
		return l
	}
	switch l[0] {
	case '#', '-', '+', '=':
		return `\` + l
	}
	i := 0
	for i < len(l) && i < 9 && '0' <= l[i] && l[i] <= '9' {
		i++
	}
	if i > 0 && i < len(l) && (l[i] == '.' || l[i] == ')') {
		return l[:i] + `\` + l[i:]
	}
	return l
}

// flatten replaces line breaks in runs that must stay on one line.
func flatten(runs []models.RichTextRun) []models.RichTextRun {
	out := make([]models.RichTextRun, len(runs))
	for i, r := range runs {
		r.Text = strings.ReplaceAll(r.Text, "\n", " ")
		out[i] = r
	}
	return out
}

// RenderBlocks renders siblings separated by blank lines
func (m markdown) RenderBlocks(rc *Context, blocks []*models.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, g := range groupSiblings(blocks) {
		if g.isList() {
			parts = append(parts, m.list(rc, g.blocks))
			continue
		}
		parts = append(parts, m.block(rc, g.blocks[0]))
	}
	return joinNonEmpty(parts, "\n\n")
}

// children renders the nested blocks of b, or a placeholder when the
// depth guard trips.
func (m markdown) children(rc *Context, b *models.Block) string {
	if len(b.Children) == 0 {
		return ""
	}
	var out string
	if !rc.nested(b, func() { out = m.RenderBlocks(rc, b.Children) }) {
		return m.comment("nesting too deep")
	}
	return out
}

// childSep keeps a nested list tight and separates other nested blocks
// from the parent's text.
func childSep(b *models.Block) string {
	if len(b.Children) > 0 && b.Children[0] != nil && b.Children[0].IsListItem() {
		return "\n"
	}
	return "\n\n"
}

func (m markdown) list(rc *Context, items []*models.Block) string {
	lines := make([]string, 0, len(items))
	for i, b := range items {
		n := i + 1
		lines = append(lines, rc.guard(b, m.comment, func() string {
			return m.listItem(rc, b, n)
		}))
	}
	return joinNonEmpty(lines, "\n")
}

// listItem renders item n (1-based within its group) with its children
// indented to the item's content column.
func (m markdown) listItem(rc *Context, b *models.Block, n int) string {
	var marker string
	var runs []models.RichTextRun
	pad := 2

	switch c := b.Content.(type) {
	case models.ListItem:
		runs = c.RichText
		marker = "- "
		if b.Type == models.BlockNumberedListItem {
			marker = strconv.Itoa(n) + ". "
			pad = len(marker)
		}
	case models.ToDo:
		runs = c.RichText
		marker = "- [ ] "
		if c.Checked {
			marker = "- [x] "
		}
	default:
		rc.fail(b, "list item without list payload")
		return m.comment("failed to render " + string(b.Type) + " block")
	}

	head := marker + m.text(runs)
	if len(runs) == 0 || models.PlainText(runs) == "" {
		head = strings.TrimRight(marker, " ")
	}
	body := m.children(rc, b)
	if body == "" {
		return indent(head, strings.Repeat(" ", pad))
	}
	return indent(head+childSep(b)+body, strings.Repeat(" ", pad))
}

func (m markdown) block(rc *Context, b *models.Block) string {
	return rc.guard(b, m.comment, func() string {
		switch c := b.Content.(type) {
		case models.Paragraph:
			return joinNonEmpty([]string{m.text(c.RichText), m.children(rc, b)}, "\n\n")
		case models.Heading:
			return joinNonEmpty([]string{m.heading(c), m.children(rc, b)}, "\n\n")
		case models.ListItem, models.ToDo:
			return m.list(rc, []*models.Block{b})
		case models.Toggle:
			head := strings.TrimRight("- "+m.text(c.RichText), " ")
			body := m.children(rc, b)
			if body == "" {
				return indent(head, "  ")
			}
			return indent(head+childSep(b)+body, "  ")
		case models.Quote:
			s := joinNonEmpty([]string{m.text(c.RichText), m.children(rc, b)}, "\n\n")
			return prefixLines(s, "> ")
		case models.Callout:
			first := m.text(c.RichText)
			if c.Icon != "" {
				first = joinNonEmpty([]string{c.Icon, first}, " ")
			}
			return prefixLines(joinNonEmpty([]string{first, m.children(rc, b)}, "\n\n"), "> ")
		case models.Code:
			return fenced(codeLanguage(c.Language), c.Text)
		case models.Equation:
			if m.mdx {
				return fenced("math", c.Expression)
			}
			return "$$\n" + c.Expression + "\n$$"
		case models.Image:
			if c.URL == "" {
				rc.fail(b, "image without url")
				return m.comment("image without url")
			}
			alt := m.escape(models.PlainText(flatten(c.Caption)))
			return "![" + alt + "](" + urlEscaper.Replace(c.URL) + ")"
		case models.Link:
			if c.URL == "" {
				rc.fail(b, "link without url")
				return m.comment(string(b.Type) + " without url")
			}
			label := m.escape(models.PlainText(flatten(c.Caption)))
			if label == "" {
				label = m.escape(c.URL)
			}
			return "[" + label + "](" + urlEscaper.Replace(c.URL) + ")"
		case models.Divider:
			return "---"
		case models.Table:
			return m.table(rc, b, c)
		case models.Container:
			if b.Type == models.BlockColumnList {
				return m.columns(rc, b)
			}
			return m.children(rc, b)
		case models.PageRef:
			return m.page(rc, b)
		case models.Unsupported:
			logger.Debug("Skipping unsupported block", map[string]interface{}{
				"block_id":   b.ID,
				"block_type": c.Kind,
			})
			return m.comment("unsupported block: " + c.Kind)
		}
		rc.fail(b, "unexpected payload for block type")
		return m.comment("failed to render " + string(b.Type) + " block")
	})
}

func (m markdown) heading(h models.Heading) string {
	level := h.Level
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	text := m.text(flatten(h.RichText))
	// A trailing '#' would be read as a closing sequence.
	if strings.HasSuffix(text, "#") {
		text = text[:len(text)-1] + `\#`
	}
	return strings.TrimRight(strings.Repeat("#", level)+" "+text, " ")
}

func fenced(lang, body string) string {
	n := longestRun(body, '`') + 1
	if n < 3 {
		n = 3
	}
	fence := strings.Repeat("`", n)
	return fence + lang + "\n" + body + "\n" + fence
}

func codeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "plain text" {
		return ""
	}
	return strings.ReplaceAll(lang, " ", "-")
}

func (m markdown) table(rc *Context, b *models.Block, t models.Table) string {
	rows := tableRows(rc, b)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ""
	}
	width := len(rows[0])

	cm := m
	cm.cell = true
	line := func(cells [][]models.RichTextRun) string {
		texts := make([]string, len(cells))
		for i, cell := range cells {
			texts[i] = cm.inline(flatten(cell))
			if i == 0 && t.HasRowHeader && texts[i] != "" {
				texts[i] = "**" + texts[i] + "**"
			}
		}
		return strings.TrimRight("| "+strings.Join(texts, " | ")+" |", " ")
	}

	var lines []string
	if t.HasColumnHeader {
		lines = append(lines, line(rows[0]))
		rows = rows[1:]
	} else {
		lines = append(lines, "|"+strings.Repeat("  |", width))
	}
	lines = append(lines, "|"+strings.Repeat(" --- |", width))
	for _, r := range rows {
		lines = append(lines, line(r))
	}
	return strings.Join(lines, "\n")
}

// columns renders a column list sequentially, columns separated by rules.
func (m markdown) columns(rc *Context, b *models.Block) string {
	var parts []string
	ok := rc.nested(b, func() {
		for _, col := range b.Children {
			if col != nil {
				parts = append(parts, m.block(rc, col))
			}
		}
	})
	if !ok {
		return m.comment("nesting too deep")
	}
	return joinNonEmpty(parts, "\n\n---\n\n")
}

func (m markdown) page(rc *Context, b *models.Block) string {
	title, url := pageLink(b)
	if !inlinable(rc, b) {
		return "[" + m.escape(title) + "](" + url + ")"
	}
	body, ok := inlinePage(rc, b, m.RenderBlocks)
	if !ok {
		return m.comment("nesting too deep")
	}
	return joinNonEmpty([]string{"## " + m.escape(title), body}, "\n\n")
}
