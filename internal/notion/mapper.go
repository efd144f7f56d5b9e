package notion

import (
	"encoding/json"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

// toBlock maps an upstream block onto the renderer's closed block model.
// A payload that cannot be decoded leaves Content nil; the renderer turns
// that into a placeholder instead of failing the page.
func toBlock(b notionapi.Block) *models.Block {
	out := &models.Block{
		ID:          string(b.GetID()),
		Type:        models.BlockType(b.GetType()),
		HasChildren: b.GetHasChildren(),
	}

	content, err := toContent(b)
	if err != nil {
		logger.Debug("Failed to decode block payload", map[string]interface{}{
			"block_id":   out.ID,
			"block_type": out.Type,
			"error":      err.Error(),
		})
		return out
	}
	out.Content = content
	return out
}

func toContent(b notionapi.Block) (models.Content, error) {
	switch v := b.(type) {
	case *notionapi.ParagraphBlock:
		return models.Paragraph{RichText: toRuns(v.Paragraph.RichText)}, nil
	case *notionapi.Heading1Block:
		return heading(b, 1, v.Heading1.RichText), nil
	case *notionapi.Heading2Block:
		return heading(b, 2, v.Heading2.RichText), nil
	case *notionapi.Heading3Block:
		return heading(b, 3, v.Heading3.RichText), nil
	case *notionapi.BulletedListItemBlock:
		return models.ListItem{RichText: toRuns(v.BulletedListItem.RichText)}, nil
	case *notionapi.NumberedListItemBlock:
		return models.ListItem{RichText: toRuns(v.NumberedListItem.RichText)}, nil
	case *notionapi.ToDoBlock:
		return models.ToDo{RichText: toRuns(v.ToDo.RichText), Checked: v.ToDo.Checked}, nil
	case *notionapi.ToggleBlock:
		return models.Toggle{RichText: toRuns(v.Toggle.RichText)}, nil
	case *notionapi.QuoteBlock:
		return models.Quote{RichText: toRuns(v.Quote.RichText)}, nil
	case *notionapi.CalloutBlock:
		return models.Callout{RichText: toRuns(v.Callout.RichText), Icon: iconEmoji(v.Callout.Icon)}, nil
	case *notionapi.CodeBlock:
		return models.Code{Language: string(v.Code.Language), Text: plainText(v.Code.RichText)}, nil
	case *notionapi.EquationBlock:
		return models.Equation{Expression: v.Equation.Expression}, nil
	case *notionapi.ImageBlock:
		url := ""
		if v.Image.File != nil {
			url = v.Image.File.URL
		} else if v.Image.External != nil {
			url = v.Image.External.URL
		}
		return models.Image{URL: url, Caption: toRuns(v.Image.Caption)}, nil
	case *notionapi.BookmarkBlock:
		return models.Link{URL: v.Bookmark.URL, Caption: toRuns(v.Bookmark.Caption)}, nil
	case *notionapi.DividerBlock:
		return models.Divider{}, nil
	case *notionapi.TableBlock:
		return models.Table{
			Width:           v.Table.TableWidth,
			HasColumnHeader: v.Table.HasColumnHeader,
			HasRowHeader:    v.Table.HasRowHeader,
		}, nil
	case *notionapi.TableRowBlock:
		cells := make([][]models.RichTextRun, len(v.TableRow.Cells))
		for i, cell := range v.TableRow.Cells {
			cells[i] = toRuns(cell)
		}
		return models.TableRow{Cells: cells}, nil
	case *notionapi.ChildPageBlock:
		return models.PageRef{PageID: string(v.ID), Title: v.ChildPage.Title}, nil
	case *notionapi.ChildDatabaseBlock:
		return models.PageRef{PageID: string(v.ID), Title: v.ChildDatabase.Title}, nil
	}

	switch models.BlockType(b.GetType()) {
	case models.BlockColumnList, models.BlockColumn, models.BlockSynced, models.BlockTemplate:
		return models.Container{}, nil
	case models.BlockVideo, models.BlockFile, models.BlockPDF, models.BlockEmbed, models.BlockLinkPreview:
		p, err := decodePayload(b)
		if err != nil {
			return nil, err
		}
		return models.Link{URL: p.url(), Caption: toRuns(p.Caption)}, nil
	case models.BlockLinkToPage:
		p, err := decodePayload(b)
		if err != nil {
			return nil, err
		}
		id := p.PageID
		if id == "" {
			id = p.DatabaseID
		}
		return models.PageRef{PageID: id}, nil
	}
	return models.Unsupported{Kind: string(b.GetType())}, nil
}

func heading(b notionapi.Block, level int, rt []notionapi.RichText) models.Heading {
	h := models.Heading{Level: level, RichText: toRuns(rt)}
	if p, err := decodePayload(b); err == nil {
		h.Toggleable = p.IsToggleable
	}
	return h
}

type fileRef struct {
	URL string `json:"url"`
}

// genericPayload is the union of the JSON fields used by the block kinds
// that are decoded from their wire form.
type genericPayload struct {
	URL          string               `json:"url"`
	File         *fileRef             `json:"file"`
	External     *fileRef             `json:"external"`
	Caption      []notionapi.RichText `json:"caption"`
	PageID       string               `json:"page_id"`
	DatabaseID   string               `json:"database_id"`
	IsToggleable bool                 `json:"is_toggleable"`
}

func (p *genericPayload) url() string {
	switch {
	case p.URL != "":
		return p.URL
	case p.File != nil:
		return p.File.URL
	case p.External != nil:
		return p.External.URL
	}
	return ""
}

// decodePayload reads the type-keyed payload object from the block's JSON form.
func decodePayload(b notionapi.Block) (*genericPayload, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode block: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode block: %w", err)
	}
	body, ok := fields[string(b.GetType())]
	if !ok || string(body) == "null" {
		return nil, fmt.Errorf("block has no %s payload", b.GetType())
	}
	var p genericPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", b.GetType(), err)
	}
	return &p, nil
}

func iconEmoji(icon interface{}) string {
	raw, err := json.Marshal(icon)
	if err != nil {
		return ""
	}
	var v struct {
		Emoji string `json:"emoji"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v.Emoji
}

func toRuns(rt []notionapi.RichText) []models.RichTextRun {
	runs := make([]models.RichTextRun, 0, len(rt))
	for _, t := range rt {
		r := models.RichTextRun{Text: t.PlainText, Href: t.Href}
		if r.Text == "" && t.Text != nil {
			r.Text = t.Text.Content
		}
		if t.Annotations != nil {
			r.Annotations = models.Annotations{
				Bold:          t.Annotations.Bold,
				Italic:        t.Annotations.Italic,
				Strikethrough: t.Annotations.Strikethrough,
				Underline:     t.Annotations.Underline,
				Code:          t.Annotations.Code,
				Color:         string(t.Annotations.Color),
			}
		}
		// Inline equations have no inline math syntax shared by every format.
		if t.Type == "equation" {
			r.Annotations.Code = true
		}
		runs = append(runs, r)
	}
	return runs
}

func plainText(rt []notionapi.RichText) string {
	s := ""
	for _, t := range rt {
		if t.PlainText == "" && t.Text != nil {
			s += t.Text.Content
			continue
		}
		s += t.PlainText
	}
	return s
}
