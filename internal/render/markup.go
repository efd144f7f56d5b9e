package render

import (
	"strings"

	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

// markup renders HTML fragments. The JSX flavor differs in attribute names,
// void elements, brace escaping, style objects and code bodies.
type markup struct {
	jsx bool
}

var (
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	jsxEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "{", "&#123;", "}", "&#125;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	// template literal body
	tmplEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`", "${", `\${`)
)

func (m markup) escape(s string) string {
	if m.jsx {
		return jsxEscaper.Replace(s)
	}
	return htmlEscaper.Replace(s)
}

// text escapes s and turns line breaks into <br> elements.
func (m markup) text(s string) string {
	return strings.ReplaceAll(m.escape(s), "\n", m.void("br", ""))
}

func (m markup) void(tag, attrs string) string {
	if m.jsx {
		return "<" + tag + attrs + " />"
	}
	return "<" + tag + attrs + ">"
}

func (m markup) class(name string) string {
	if m.jsx {
		return ` className="` + name + `"`
	}
	return ` class="` + name + `"`
}

// style renders CSS declarations given as property/value pairs with
// CSS property names.
func (m markup) style(decls ...[2]string) string {
	if m.jsx {
		parts := make([]string, len(decls))
		for i, d := range decls {
			parts[i] = camel(d[0]) + `: "` + d[1] + `"`
		}
		return " style={{" + strings.Join(parts, ", ") + "}}"
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d[0] + ":" + d[1]
	}
	return ` style="` + strings.Join(parts, ";") + `"`
}

func camel(prop string) string {
	parts := strings.Split(prop, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func (m markup) comment(text string) string {
	if m.jsx {
		return "{/* " + commentText(text) + " */}"
	}
	return "<!-- " + commentText(text) + " -->"
}

func (m markup) inline(runs []models.RichTextRun) string {
	var sb strings.Builder
	for _, r := range coalesce(runs) {
		sb.WriteString(m.run(r))
	}
	return sb.String()
}

// run wraps one run from the innermost element (code) outwards; the link
// is always outermost.
func (m markup) run(r models.RichTextRun) string {
	a := r.Annotations
	s := m.text(r.Text)
	if a.Code {
		s = "<code>" + s + "</code>"
	}
	if a.Italic {
		s = "<em>" + s + "</em>"
	}
	if a.Bold {
		s = "<strong>" + s + "</strong>"
	}
	if a.Strikethrough {
		s = "<s>" + s + "</s>"
	}
	if a.Underline {
		s = "<u>" + s + "</u>"
	}
	if a.HasColor() {
		s = "<span" + m.color(a.Color) + ">" + s + "</span>"
	}
	if r.Href != "" {
		s = `<a href="` + attrEscaper.Replace(r.Href) + `">` + s + "</a>"
	}
	return s
}

// color maps an upstream color name ("red", "red_background") to a style.
func (m markup) color(c string) string {
	if name, ok := strings.CutSuffix(c, "_background"); ok {
		return m.style([2]string{"background-color", cssIdent(name)})
	}
	return m.style([2]string{"color", cssIdent(c)})
}

func cssIdent(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			return r
		}
		return -1
	}, s)
}

func wrap(openTag, inner, closeTag string) string {
	if inner == "" {
		return openTag + closeTag
	}
	return openTag + "\n" + inner + "\n" + closeTag
}

// RenderBlocks renders siblings one element per line
func (m markup) RenderBlocks(rc *Context, blocks []*models.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, g := range groupSiblings(blocks) {
		if g.isList() {
			parts = append(parts, m.list(rc, g))
			continue
		}
		parts = append(parts, m.block(rc, g.blocks[0]))
	}
	return joinNonEmpty(parts, "\n")
}

func (m markup) children(rc *Context, b *models.Block) string {
	if len(b.Children) == 0 {
		return ""
	}
	var out string
	if !rc.nested(b, func() { out = m.RenderBlocks(rc, b.Children) }) {
		return m.comment("nesting too deep")
	}
	return out
}

func (m markup) list(rc *Context, g group) string {
	openTag, closeTag := "<ul>", "</ul>"
	switch g.kind {
	case models.BlockNumberedListItem:
		openTag, closeTag = "<ol>", "</ol>"
	case models.BlockToDo:
		openTag = "<ul" + m.class("to-do-list") + ">"
	}

	items := make([]string, 0, len(g.blocks))
	for _, b := range g.blocks {
		items = append(items, rc.guard(b, m.comment, func() string {
			return m.listItem(rc, b)
		}))
	}
	return wrap(openTag, strings.Join(items, "\n"), closeTag)
}

func (m markup) listItem(rc *Context, b *models.Block) string {
	var head string
	switch c := b.Content.(type) {
	case models.ListItem:
		head = m.inline(c.RichText)
	case models.ToDo:
		attrs := ` type="checkbox" disabled`
		if c.Checked {
			attrs += " checked"
		}
		head = m.void("input", attrs) + " " + m.inline(c.RichText)
	default:
		rc.fail(b, "list item without list payload")
		return m.comment("failed to render " + string(b.Type) + " block")
	}

	body := m.children(rc, b)
	if body == "" {
		return "<li>" + head + "</li>"
	}
	return "<li>" + head + "\n" + body + "\n</li>"
}

func (m markup) block(rc *Context, b *models.Block) string {
	return rc.guard(b, m.comment, func() string {
		switch c := b.Content.(type) {
		case models.Paragraph:
			text := m.inline(c.RichText)
			if text != "" {
				text = "<p>" + text + "</p>"
			}
			return joinNonEmpty([]string{text, m.children(rc, b)}, "\n")
		case models.Heading:
			return m.heading(rc, b, c)
		case models.ListItem, models.ToDo:
			return m.list(rc, group{kind: b.Type, blocks: []*models.Block{b}})
		case models.Toggle:
			summary := "<summary>" + m.inline(c.RichText) + "</summary>"
			return wrap("<details>", joinNonEmpty([]string{summary, m.children(rc, b)}, "\n"), "</details>")
		case models.Quote:
			text := m.inline(c.RichText)
			body := m.children(rc, b)
			if body == "" {
				return "<blockquote>" + text + "</blockquote>"
			}
			return "<blockquote>" + text + "\n" + body + "\n</blockquote>"
		case models.Callout:
			head := m.inline(c.RichText)
			if c.Icon != "" {
				head = "<span" + m.class("callout-icon") + ">" + m.escape(c.Icon) + "</span> " + head
			}
			body := m.children(rc, b)
			if body != "" {
				head += "\n" + body + "\n"
			}
			return "<div" + m.class("callout") + ">" + head + "</div>"
		case models.Code:
			return m.code(c)
		case models.Equation:
			return "<div" + m.class("equation") + ">" + m.escape(c.Expression) + "</div>"
		case models.Image:
			if c.URL == "" {
				rc.fail(b, "image without url")
				return m.comment("image without url")
			}
			alt := models.PlainText(c.Caption)
			img := m.void("img", ` src="`+attrEscaper.Replace(c.URL)+`" alt="`+attrEscaper.Replace(alt)+`"`)
			if alt == "" {
				return img
			}
			return wrap("<figure>", img+"\n<figcaption>"+m.inline(c.Caption)+"</figcaption>", "</figure>")
		case models.Link:
			if c.URL == "" {
				rc.fail(b, "link without url")
				return m.comment(string(b.Type) + " without url")
			}
			label := models.PlainText(c.Caption)
			if label == "" {
				label = c.URL
			}
			return `<p><a href="` + attrEscaper.Replace(c.URL) + `">` + m.text(label) + "</a></p>"
		case models.Divider:
			return m.void("hr", "")
		case models.Table:
			return m.table(rc, b, c)
		case models.Container:
			return m.container(rc, b)
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

func (m markup) heading(rc *Context, b *models.Block, h models.Heading) string {
	level := h.Level
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	tag := "h" + string(rune('0'+level))
	head := "<" + tag + ">" + m.inline(h.RichText) + "</" + tag + ">"

	body := m.children(rc, b)
	if !h.Toggleable {
		return joinNonEmpty([]string{head, body}, "\n")
	}
	return wrap("<details>", joinNonEmpty([]string{"<summary>" + head + "</summary>", body}, "\n"), "</details>")
}

// code emits the body verbatim apart from what the element syntax requires.
func (m markup) code(c models.Code) string {
	attrs := ""
	if lang := codeLanguage(c.Language); lang != "" {
		attrs = m.class("language-" + cssIdent(lang))
	}
	if m.jsx {
		return "<pre><code" + attrs + ">{`" + tmplEscaper.Replace(c.Text) + "`}</code></pre>"
	}
	return "<pre><code" + attrs + ">" + htmlEscaper.Replace(c.Text) + "</code></pre>"
}

func (m markup) table(rc *Context, b *models.Block, t models.Table) string {
	rows := tableRows(rc, b)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ""
	}

	row := func(cells [][]models.RichTextRun, header bool) string {
		var sb strings.Builder
		sb.WriteString("<tr>")
		for i, cell := range cells {
			switch {
			case header:
				sb.WriteString("<th>" + m.inline(cell) + "</th>")
			case i == 0 && t.HasRowHeader:
				sb.WriteString(`<th scope="row">` + m.inline(cell) + "</th>")
			default:
				sb.WriteString("<td>" + m.inline(cell) + "</td>")
			}
		}
		sb.WriteString("</tr>")
		return sb.String()
	}

	var parts []string
	if t.HasColumnHeader {
		parts = append(parts, wrap("<thead>", row(rows[0], true), "</thead>"))
		rows = rows[1:]
	}
	if len(rows) > 0 {
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = row(r, false)
		}
		parts = append(parts, wrap("<tbody>", strings.Join(lines, "\n"), "</tbody>"))
	}
	return wrap("<table>", strings.Join(parts, "\n"), "</table>")
}

// container lays columns out side by side; other containers contribute
// only their children.
func (m markup) container(rc *Context, b *models.Block) string {
	switch b.Type {
	case models.BlockColumnList:
		var cols []string
		ok := rc.nested(b, func() {
			for _, col := range b.Children {
				if col != nil {
					cols = append(cols, m.block(rc, col))
				}
			}
		})
		if !ok {
			return m.comment("nesting too deep")
		}
		openTag := "<div" + m.class("column-list") + m.style([2]string{"display", "flex"}, [2]string{"gap", "1rem"}) + ">"
		return wrap(openTag, joinNonEmpty(cols, "\n"), "</div>")
	case models.BlockColumn:
		openTag := "<div" + m.class("column") + m.style([2]string{"flex", "1"}) + ">"
		return wrap(openTag, m.children(rc, b), "</div>")
	}
	return m.children(rc, b)
}

func (m markup) page(rc *Context, b *models.Block) string {
	title, url := pageLink(b)
	if !inlinable(rc, b) {
		return `<p><a href="` + attrEscaper.Replace(url) + `">` + m.text(title) + "</a></p>"
	}
	body, ok := inlinePage(rc, b, m.RenderBlocks)
	if !ok {
		return m.comment("nesting too deep")
	}
	return wrap("<section>", joinNonEmpty([]string{"<h2>" + m.text(title) + "</h2>", body}, "\n"), "</section>")
}
