package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/takak2166/notion2text/internal/models"
)

func TestInlineEscaping(t *testing.T) {
	tests := []struct {
		char string
		want map[models.Format]string
	}{
		{char: "*", want: map[models.Format]string{models.FormatMarkdown: `\*`, models.FormatMDX: `\*`, models.FormatHTML: "*", models.FormatJSX: "*"}},
		{char: "_", want: map[models.Format]string{models.FormatMarkdown: `\_`, models.FormatMDX: `\_`, models.FormatHTML: "_", models.FormatJSX: "_"}},
		{char: "`", want: map[models.Format]string{models.FormatMarkdown: "\\`", models.FormatMDX: "\\`", models.FormatHTML: "`", models.FormatJSX: "`"}},
		{char: "[", want: map[models.Format]string{models.FormatMarkdown: `\[`, models.FormatMDX: `\[`, models.FormatHTML: "[", models.FormatJSX: "["}},
		{char: "<", want: map[models.Format]string{models.FormatMarkdown: `\<`, models.FormatMDX: `\<`, models.FormatHTML: "&lt;", models.FormatJSX: "&lt;"}},
		{char: ">", want: map[models.Format]string{models.FormatMarkdown: `\>`, models.FormatMDX: `\>`, models.FormatHTML: "&gt;", models.FormatJSX: "&gt;"}},
		{char: "&", want: map[models.Format]string{models.FormatMarkdown: `\&`, models.FormatMDX: `\&`, models.FormatHTML: "&amp;", models.FormatJSX: "&amp;"}},
		{char: "{", want: map[models.Format]string{models.FormatMarkdown: "{", models.FormatMDX: `\{`, models.FormatHTML: "{", models.FormatJSX: "&#123;"}},
		{char: "}", want: map[models.Format]string{models.FormatMarkdown: "}", models.FormatMDX: `\}`, models.FormatHTML: "}", models.FormatJSX: "&#125;"}},
		{char: "~", want: map[models.Format]string{models.FormatMarkdown: `\~`, models.FormatMDX: `\~`, models.FormatHTML: "~", models.FormatJSX: "~"}},
		{char: "|", want: map[models.Format]string{models.FormatMarkdown: `\|`, models.FormatMDX: `\|`, models.FormatHTML: "|", models.FormatJSX: "|"}},
		{char: `\`, want: map[models.Format]string{models.FormatMarkdown: `\\`, models.FormatMDX: `\\`, models.FormatHTML: `\`, models.FormatJSX: `\`}},
	}

	for _, tt := range tests {
		for _, f := range models.Formats {
			t.Run(string(f)+" "+tt.char, func(t *testing.T) {
				s, err := Select(string(f))
				require.NoError(t, err)
				assert.Equal(t, tt.want[f], s.Inline([]models.RichTextRun{models.Text(tt.char)}))
			})
		}
	}
}

func TestInline(t *testing.T) {
	link := models.RichTextRun{Text: "site", Href: "https://example.com/?a=1&b=2"}
	red := models.RichTextRun{Text: "warm", Annotations: models.Annotations{Color: "red"}}
	highlight := models.RichTextRun{Text: "mark", Annotations: models.Annotations{Color: "yellow_background"}}
	all := models.RichTextRun{Text: "x", Annotations: models.Annotations{Bold: true, Italic: true, Strikethrough: true, Code: true}}

	tests := []struct {
		name string
		runs []models.RichTextRun
		want map[models.Format]string
	}{
		{
			name: "Empty",
			runs: nil,
			want: map[models.Format]string{models.FormatMarkdown: "", models.FormatMDX: "", models.FormatHTML: "", models.FormatJSX: ""},
		},
		{
			name: "Bold word",
			runs: []models.RichTextRun{models.Text("Hello "), models.Bold("world")},
			want: map[models.Format]string{
				models.FormatMarkdown: "Hello **world**",
				models.FormatMDX:      "Hello **world**",
				models.FormatHTML:     "Hello <strong>world</strong>",
				models.FormatJSX:      "Hello <strong>world</strong>",
			},
		},
		{
			name: "Whitespace moved outside markers",
			runs: []models.RichTextRun{models.Text("a"), models.Bold(" b "), models.Text("c")},
			want: map[models.Format]string{
				models.FormatMarkdown: "a **b** c",
				models.FormatMDX:      "a **b** c",
				models.FormatHTML:     "a<strong> b </strong>c",
				models.FormatJSX:      "a<strong> b </strong>c",
			},
		},
		{
			name: "Adjacent runs coalesced",
			runs: []models.RichTextRun{models.Bold("one"), models.Bold(" two")},
			want: map[models.Format]string{
				models.FormatMarkdown: "**one two**",
				models.FormatMDX:      "**one two**",
				models.FormatHTML:     "<strong>one two</strong>",
				models.FormatJSX:      "<strong>one two</strong>",
			},
		},
		{
			name: "Code innermost",
			runs: []models.RichTextRun{all},
			want: map[models.Format]string{
				models.FormatMarkdown: "~~***`x`***~~",
				models.FormatMDX:      "~~***`x`***~~",
				models.FormatHTML:     "<s><strong><em><code>x</code></em></strong></s>",
				models.FormatJSX:      "<s><strong><em><code>x</code></em></strong></s>",
			},
		},
		{
			name: "Code span with backticks",
			runs: []models.RichTextRun{{Text: "a`b", Annotations: models.Annotations{Code: true}}},
			want: map[models.Format]string{
				models.FormatMarkdown: "``a`b``",
				models.FormatMDX:      "``a`b``",
				models.FormatHTML:     "<code>a`b</code>",
				models.FormatJSX:      "<code>a`b</code>",
			},
		},
		{
			name: "Link",
			runs: []models.RichTextRun{link},
			want: map[models.Format]string{
				models.FormatMarkdown: "[site](https://example.com/?a=1&b=2)",
				models.FormatMDX:      "[site](https://example.com/?a=1&b=2)",
				models.FormatHTML:     `<a href="https://example.com/?a=1&amp;b=2">site</a>`,
				models.FormatJSX:      `<a href="https://example.com/?a=1&amp;b=2">site</a>`,
			},
		},
		{
			name: "Colors",
			runs: []models.RichTextRun{red, models.Text(" "), highlight},
			want: map[models.Format]string{
				models.FormatMarkdown: "warm mark",
				models.FormatMDX:      "warm mark",
				models.FormatHTML:     `<span style="color:red">warm</span> <span style="background-color:yellow">mark</span>`,
				models.FormatJSX:      `<span style={{color: "red"}}>warm</span> <span style={{backgroundColor: "yellow"}}>mark</span>`,
			},
		},
		{
			name: "Emphasis against punctuation",
			runs: []models.RichTextRun{models.Text("a"), models.Bold("(b)"), models.Text("c")},
			want: map[models.Format]string{
				models.FormatMarkdown: "a<strong>(b)</strong>c",
				models.FormatMDX:      "a<strong>(b)</strong>c",
				models.FormatHTML:     "a<strong>(b)</strong>c",
				models.FormatJSX:      "a<strong>(b)</strong>c",
			},
		},
		{
			name: "Strikethrough against punctuation",
			runs: []models.RichTextRun{models.Text("x"), {Text: "!y!", Annotations: models.Annotations{Strikethrough: true}}, models.Text("z")},
			want: map[models.Format]string{
				models.FormatMarkdown: "x<del>!y!</del>z",
				models.FormatMDX:      "x<del>!y!</del>z",
				models.FormatHTML:     "x<s>!y!</s>z",
				models.FormatJSX:      "x<s>!y!</s>z",
			},
		},
		{
			name: "Emphasis inside a word",
			runs: []models.RichTextRun{models.Text("un"), models.Bold("believ"), models.Text("able")},
			want: map[models.Format]string{
				models.FormatMarkdown: "un**believ**able",
				models.FormatMDX:      "un**believ**able",
				models.FormatHTML:     "un<strong>believ</strong>able",
				models.FormatJSX:      "un<strong>believ</strong>able",
			},
		},
		{
			name: "Underline",
			runs: []models.RichTextRun{{Text: "u", Annotations: models.Annotations{Underline: true}}},
			want: map[models.Format]string{
				models.FormatMarkdown: "<u>u</u>",
				models.FormatMDX:      "<u>u</u>",
				models.FormatHTML:     "<u>u</u>",
				models.FormatJSX:      "<u>u</u>",
			},
		},
	}

	for _, tt := range tests {
		for _, f := range models.Formats {
			t.Run(tt.name+" "+string(f), func(t *testing.T) {
				s, err := Select(string(f))
				require.NoError(t, err)
				assert.Equal(t, tt.want[f], s.Inline(tt.runs))
			})
		}
	}
}

// propertyRuns are run sequences whose unstyled text must survive rendering.
var propertyRuns = [][]models.RichTextRun{
	{models.Text("a*b_c`d[e]f<g>h~i|j&k\\l{m}n!o")},
	{models.Text("Hello "), models.Bold("world")},
	{models.Text("one "), models.Bold(" two "), models.Text("three")},
	{{Text: "slanted", Annotations: models.Annotations{Italic: true}}, models.Text(" and "), {Text: "both", Annotations: models.Annotations{Bold: true, Italic: true}}},
	{models.Text("see "), models.Bold("(paren)"), models.Text(" after")},
	{models.Text("code "), {Text: "a`b", Annotations: models.Annotations{Code: true}}, models.Text(" and "), {Text: "`x`", Annotations: models.Annotations{Code: true}}},
	{{Text: "gone", Annotations: models.Annotations{Strikethrough: true}}, models.Text(" "), {Text: "under", Annotations: models.Annotations{Underline: true}}},
	{models.Text("visit "), {Text: "the site", Href: "https://example.com/a b(c)"}, models.Text(" now")},
	{models.Text("# not a heading")},
	{models.Text("1. not a list")},
	{models.Text("- not a bullet")},
	{models.Text("x "), {Text: "*starred*", Annotations: models.Annotations{Bold: true}}},
	{models.Text("a"), models.Bold("(b)"), models.Text("c")},
	{models.Text("price"), models.Bold("$5"), models.Text("today")},
	{models.Text("x"), {Text: "!y!", Annotations: models.Annotations{Strikethrough: true}}, models.Text("z")},
	{models.Text("note"), {Text: "(aside)", Annotations: models.Annotations{Italic: true}}, models.Text(".")},
	{models.Text("word"), {Text: "\"quoted\"", Annotations: models.Annotations{Bold: true, Italic: true, Strikethrough: true}}, models.Text("s")},
	{models.Text("pre"), {Text: "-fix", Annotations: models.Annotations{Bold: true}, Href: "https://example.com"}, models.Text("ed")},
}

// textContent returns the concatenated text nodes of an HTML document.
func textContent(t *testing.T, doc string) string {
	t.Helper()
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.TrimSpace(sb.String())
}

func TestInlineReconstructsPlainText(t *testing.T) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	for _, f := range models.Formats {
		s, err := Select(string(f))
		require.NoError(t, err)

		for i, runs := range propertyRuns {
			want := models.PlainText(runs)

			var doc string
			switch f {
			case models.FormatMarkdown, models.FormatMDX:
				// Block text, so line-start guards apply as in a paragraph.
				src := s.Blocks.(markdown).text(runs)
				var buf bytes.Buffer
				require.NoError(t, md.Convert([]byte(src), &buf))
				doc = buf.String()
			default:
				doc = "<p>" + s.Inline(runs) + "</p>"
			}

			assert.Equal(t, want, textContent(t, doc), "format %s, case %d", f, i)
		}
	}
}

func TestMarkdownTableKeepsColumns(t *testing.T) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := page(table(models.Table{Width: 2, HasColumnHeader: true}, cells("h1", "h2"), pipeRow()))

	for _, f := range []models.Format{models.FormatMarkdown, models.FormatMDX} {
		out, _ := render(t, f, root)

		var buf bytes.Buffer
		require.NoError(t, md.Convert([]byte(out), &buf))
		doc := buf.String()
		assert.Equal(t, 2, strings.Count(doc, "<td>"), "format %s: %s", f, doc)
		assert.Contains(t, doc, "<code>a|b</code>")
		assert.Contains(t, doc, "<td>c</td>")
	}
}
