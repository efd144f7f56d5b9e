// Package render turns a fetched block tree into Markdown, MDX, HTML or JSX.
package render

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/takak2166/notion2text/internal/models"
)

// BlockRenderer renders block siblings, recursing into their children.
type BlockRenderer interface {
	RenderBlocks(rc *Context, blocks []*models.Block) string
}

// Strategy is the renderer set of one output format.
type Strategy struct {
	Format models.Format
	// Inline renders rich text runs.
	Inline func(runs []models.RichTextRun) string
	Blocks BlockRenderer
	// Post wraps a page body, e.g. with MDX frontmatter.
	Post func(rc *Context, pageID, title, body string) string
}

var strategies = map[models.Format]*Strategy{
	models.FormatMarkdown: newStrategy(models.FormatMarkdown, markdown{}, identity),
	models.FormatMDX:      newStrategy(models.FormatMDX, markdown{mdx: true}, withFrontmatter),
	models.FormatHTML:     newStrategy(models.FormatHTML, markup{}, identity),
	models.FormatJSX:      newStrategy(models.FormatJSX, markup{jsx: true}, withFragment),
}

type writer interface {
	BlockRenderer
	inline(runs []models.RichTextRun) string
}

func newStrategy(f models.Format, w writer, post func(*Context, string, string, string) string) *Strategy {
	return &Strategy{Format: f, Inline: w.inline, Blocks: w, Post: post}
}

// Select returns the strategy for a format name. An unknown name is a
// *models.ConfigurationError.
func Select(format string) (*Strategy, error) {
	f, err := models.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return strategies[f], nil
}

// RenderPage renders root into the sink under rc.PageID. A page block
// contributes its children; any other block is rendered as the only one.
func (s *Strategy) RenderPage(rc *Context, root *models.Block) {
	if rc.Title == "" && root.Type == models.BlockChildPage {
		rc.Title = pageTitle(root)
	}

	blocks := []*models.Block{root}
	if root.Type == models.BlockChildPage {
		blocks = root.Children
	}
	body := s.Blocks.RenderBlocks(rc, blocks)
	rc.Sink.Write(rc.PageID, s.Post(rc, rc.PageID, rc.Title, body))
}

func identity(_ *Context, _, _, body string) string {
	return body
}

type frontmatter struct {
	Title      string    `yaml:"title"`
	PageID     string    `yaml:"pageId"`
	ExportedAt time.Time `yaml:"exportedAt"`
}

// withFrontmatter prepends the YAML frontmatter once per page.
func withFrontmatter(rc *Context, pageID, title, body string) string {
	if rc.frontmatter[pageID] {
		return body
	}
	rc.frontmatter[pageID] = true

	if title == "" {
		title = "Untitled"
	}
	data, err := yaml.Marshal(frontmatter{
		Title:      title,
		PageID:     pageID,
		ExportedAt: rc.Now.UTC().Truncate(time.Second),
	})
	if err != nil {
		// Only reachable with a broken encoder; keep the body.
		return body
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(data)
	sb.WriteString("---")
	if body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}
	return sb.String()
}

func withFragment(_ *Context, _, _, body string) string {
	if body == "" {
		return ""
	}
	return "<>\n" + body + "\n</>"
}
