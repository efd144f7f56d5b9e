// Package converter drives one page conversion: fetch the block tree, render
// it with the selected format strategy and return the flushed output.
package converter

import (
	"context"
	"time"

	"github.com/takak2166/notion2text/internal/export"
	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
	"github.com/takak2166/notion2text/internal/notion"
	"github.com/takak2166/notion2text/internal/render"
)

// Source reads block trees and pages for one credential
type Source interface {
	Fetch(ctx context.Context, blockID string) (*models.Block, error)
	SearchPages(ctx context.Context, query string) ([]models.PageSummary, error)
	Verify(ctx context.Context) (*models.Workspace, error)
}

// SourceFactory opens a Source authenticated by credential
type SourceFactory func(credential string) (Source, error)

// NotionSources opens Notion API clients with the given fetch options
func NotionSources(opts notion.Options) SourceFactory {
	return func(credential string) (Source, error) {
		client, err := notion.New(credential, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// State is a step of a conversion
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateRendering State = "rendering"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Option configures a Converter
type Option func(*Converter)

// WithClock sets the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithStateObserver registers a callback invoked on every state transition
func WithStateObserver(fn func(pageID string, s State)) Option {
	return func(c *Converter) { c.observe = fn }
}

// WithMaxDepth sets the render depth guard
func WithMaxDepth(depth int) Option {
	return func(c *Converter) { c.maxDepth = depth }
}

// WithInlineChildPages renders fetched child pages in place
func WithInlineChildPages(inline bool) Option {
	return func(c *Converter) { c.inlineChildPages = inline }
}

// Converter converts pages. It holds no per-conversion state and may be
// used concurrently.
type Converter struct {
	sources          SourceFactory
	now              func() time.Time
	observe          func(string, State)
	maxDepth         int
	inlineChildPages bool
}

// New creates a Converter reading pages through sources
func New(sources SourceFactory, opts ...Option) *Converter {
	c := &Converter{
		sources:  sources,
		now:      time.Now,
		maxDepth: render.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertPage converts a page and returns only the rendered text
func (c *Converter) ConvertPage(ctx context.Context, credential, pageID, format string) (string, error) {
	res, err := c.Convert(ctx, models.ConversionRequest{
		Credential: credential,
		PageID:     pageID,
		Format:     models.Format(format),
	})
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Convert fetches and renders one page. The format and page id are checked
// before any upstream call.
func (c *Converter) Convert(ctx context.Context, req models.ConversionRequest) (*models.ConversionResult, error) {
	strategy, err := render.Select(string(req.Format))
	if err != nil {
		return nil, err
	}
	pageID := models.NormalizeID(req.PageID)
	if pageID == "" {
		return nil, &models.ConfigurationError{Field: "pageId", Value: req.PageID, Reason: "page id is required"}
	}
	return c.run(ctx, req.Credential, pageID, strategy, export.NewBuffer())
}

func (c *Converter) run(ctx context.Context, credential, pageID string, strategy *render.Strategy, sink *export.Buffer) (*models.ConversionResult, error) {
	c.transition(pageID, strategy.Format, StateFetching)
	src, err := c.sources(credential)
	if err != nil {
		c.transition(pageID, strategy.Format, StateFailed)
		return nil, err
	}
	root, err := src.Fetch(ctx, pageID)
	if err != nil {
		c.transition(pageID, strategy.Format, StateFailed)
		return nil, err
	}

	c.transition(pageID, strategy.Format, StateRendering)
	rc := strategy.NewContext(pageID, sink)
	rc.Now = c.now()
	rc.MaxDepth = c.maxDepth
	rc.InlineChildPages = c.inlineChildPages
	strategy.RenderPage(rc, root)

	res := &models.ConversionResult{
		PageID:      pageID,
		Title:       rc.Title,
		Format:      strategy.Format,
		Content:     sink.Flush(pageID),
		ConvertedAt: rc.Now,
		Warnings:    rc.Warnings(),
	}
	if sink.Len() > 0 {
		res.Pages = sink.FlushAll()
	}
	c.transition(pageID, strategy.Format, StateDone)

	logger.Info("Converted page", map[string]interface{}{
		"page_id":  pageID,
		"format":   strategy.Format,
		"warnings": len(res.Warnings),
		"pages":    len(res.Pages),
	})
	return res, nil
}

func (c *Converter) transition(pageID string, format models.Format, s State) {
	logger.Debug("Conversion state changed", map[string]interface{}{
		"page_id": pageID,
		"format":  format,
		"state":   s,
	})
	if c.observe != nil {
		c.observe(pageID, s)
	}
}

// Search lists pages visible to credential whose title matches query
func (c *Converter) Search(ctx context.Context, credential, query string) ([]models.PageSummary, error) {
	src, err := c.sources(credential)
	if err != nil {
		return nil, err
	}
	return src.SearchPages(ctx, query)
}

// Verify checks credential against the API and names its workspace
func (c *Converter) Verify(ctx context.Context, credential string) (*models.Workspace, error) {
	src, err := c.sources(credential)
	if err != nil {
		return nil, err
	}
	return src.Verify(ctx)
}
