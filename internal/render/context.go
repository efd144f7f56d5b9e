package render

import (
	"fmt"
	"time"

	"github.com/takak2166/notion2text/internal/export"
	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

// DefaultMaxDepth is the deepest block nesting rendered before the depth
// guard replaces the subtree with a placeholder.
const DefaultMaxDepth = 32

// Context is the mutable state of one rendering pass. It is owned by a
// single conversion and never shared.
type Context struct {
	// PageID keys the sink buffer of the page being rendered.
	PageID string
	// Title is used for MDX frontmatter.
	Title            string
	Sink             *export.Buffer
	MaxDepth         int
	InlineChildPages bool
	// Now stamps MDX frontmatter.
	Now time.Time

	strategy    *Strategy
	depth       int
	frontmatter map[string]bool
	warnings    []models.Warning
}

// NewContext prepares a rendering pass of pageID through s into sink
func (s *Strategy) NewContext(pageID string, sink *export.Buffer) *Context {
	if sink == nil {
		sink = export.NewBuffer()
	}
	return &Context{
		PageID:      pageID,
		Sink:        sink,
		MaxDepth:    DefaultMaxDepth,
		Now:         time.Now(),
		strategy:    s,
		frontmatter: make(map[string]bool),
	}
}

// Warnings lists the blocks that were replaced by placeholders
func (rc *Context) Warnings() []models.Warning {
	return rc.warnings
}

// fail absorbs a block render error: it is logged and recorded, and the
// caller renders a placeholder in its place.
func (rc *Context) fail(b *models.Block, reason string) {
	err := &models.BlockRenderError{BlockID: b.ID, BlockType: b.Type, Reason: reason}
	logger.Warn("Block rendered as placeholder", map[string]interface{}{
		"page_id":    rc.PageID,
		"block_id":   err.BlockID,
		"block_type": err.BlockType,
		"reason":     err.Reason,
	})
	rc.warnings = append(rc.warnings, models.Warning{
		BlockID:   err.BlockID,
		BlockType: err.BlockType,
		Message:   err.Error(),
	})
}

// nested runs fn one level deeper. It reports false, without calling fn,
// when the depth guard trips.
func (rc *Context) nested(b *models.Block, fn func()) bool {
	if rc.depth >= rc.maxDepth() {
		rc.fail(b, fmt.Sprintf("nesting deeper than %d levels", rc.maxDepth()))
		return false
	}
	rc.depth++
	defer func() { rc.depth-- }()
	fn()
	return true
}

func (rc *Context) maxDepth() int {
	if rc.MaxDepth < 1 {
		return DefaultMaxDepth
	}
	return rc.MaxDepth
}

// guard renders one block, turning a malformed payload or a panic into a
// placeholder so that siblings still render.
func (rc *Context) guard(b *models.Block, placeholder func(string) string, fn func() string) (out string) {
	if b.Content == nil {
		rc.fail(b, "missing or malformed payload")
		return placeholder(fmt.Sprintf("failed to render %s block", b.Type))
	}
	depth := rc.depth
	defer func() {
		if r := recover(); r != nil {
			rc.depth = depth
			rc.fail(b, fmt.Sprint(r))
			out = placeholder(fmt.Sprintf("failed to render %s block", b.Type))
		}
	}()
	return fn()
}
