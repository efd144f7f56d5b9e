package notion

import (
	"context"
	"math"
	"sort"

	"github.com/jomei/notionapi"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

const (
	// pageSize is the largest page the API returns for children and search.
	pageSize = 100
	// searchLimit caps the number of pages returned by SearchPages.
	searchLimit = 100

	defaultWorkspace = "Notion Workspace"
	// DefaultMaxDepth is the deepest block level fetched below a page.
	DefaultMaxDepth = 32
)

// Options tunes how block trees are fetched
type Options struct {
	// Concurrency bounds in-flight API calls across sibling subtrees.
	Concurrency int
	// RequestsPerSecond paces outbound calls; 0 disables pacing.
	RequestsPerSecond float64
	// MaxDepth stops descending below this block level.
	MaxDepth int
	// InlineChildPages also fetches the content of child_page blocks.
	InlineChildPages bool
}

// DefaultOptions matches the Notion API's average rate limit of 3 requests per second
func DefaultOptions() Options {
	return Options{
		Concurrency:       4,
		RequestsPerSecond: 3,
		MaxDepth:          DefaultMaxDepth,
	}
}

// Client reads block trees and pages from Notion for one credential
type Client struct {
	client  NotionClient
	opts    Options
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// New creates a new Notion client for the given integration key or OAuth access token
func New(token string, opts Options) (*Client, error) {
	if token == "" {
		return nil, &models.FetchError{
			Kind:    models.KindAuthentication,
			Op:      "connect",
			Message: "Notion integration key is not set",
		}
	}

	// The library gives up once its attempt count equals the limit, so 1
	// surfaces the first 429 as a RateLimitedError instead of retrying.
	notionClient := notionapi.NewClient(notionapi.Token(token), notionapi.WithRetry(1))
	return NewWithClient(newNotionClientAdapter(notionClient), opts), nil
}

// NewWithClient wraps an existing NotionClient. Zero options fall back to safe values.
func NewWithClient(nc NotionClient, opts Options) *Client {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = DefaultMaxDepth
	}

	limit, burst := rate.Inf, 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = int(math.Ceil(opts.RequestsPerSecond))
	}

	return &Client{
		client:  nc,
		opts:    opts,
		sem:     semaphore.NewWeighted(int64(opts.Concurrency)),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// acquire blocks until an API call may be issued. The returned func releases the slot.
func (c *Client) acquire(ctx context.Context) (func(), error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		c.sem.Release(1)
		return nil, err
	}
	return func() { c.sem.Release(1) }, nil
}

// Fetch retrieves a block (usually a page) and its full subtree. Sibling
// subtrees are fetched concurrently; children keep upstream order.
func (c *Client) Fetch(ctx context.Context, blockID string) (*models.Block, error) {
	id := models.NormalizeID(blockID)
	logger.Debug("Fetching block tree", map[string]interface{}{
		"block_id": id,
	})

	release, err := c.acquire(ctx)
	if err != nil {
		return nil, classify("get block", err)
	}
	raw, err := c.client.Block().Get(ctx, notionapi.BlockID(id))
	release()
	if err != nil {
		return nil, classify("get block", err)
	}

	root := toBlock(raw)
	if root.ID == "" {
		root.ID = id
	}
	if root.HasChildren {
		children, err := c.fetchChildren(ctx, root.ID, 1)
		if err != nil {
			return nil, err
		}
		root.Children = children
	}
	return root, nil
}

func (c *Client) fetchChildren(ctx context.Context, parentID string, depth int) ([]*models.Block, error) {
	raw, err := c.listChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}

	blocks := make([]*models.Block, len(raw))
	for i, b := range raw {
		blocks[i] = toBlock(b)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range blocks {
		if !c.descend(b) {
			continue
		}
		if depth >= c.opts.MaxDepth {
			logger.Warn("Block nesting exceeds max depth, children not fetched", map[string]interface{}{
				"block_id":  b.ID,
				"max_depth": c.opts.MaxDepth,
			})
			continue
		}
		g.Go(func() error {
			children, err := c.fetchChildren(gctx, b.ID, depth+1)
			if err != nil {
				return err
			}
			b.Children = children
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (c *Client) descend(b *models.Block) bool {
	if !b.HasChildren {
		return false
	}
	switch b.Type {
	case models.BlockChildDatabase:
		return false
	case models.BlockChildPage:
		return c.opts.InlineChildPages
	}
	return true
}

// listChildren pages through all direct children of a block.
func (c *Client) listChildren(ctx context.Context, blockID string) ([]notionapi.Block, error) {
	var blocks []notionapi.Block
	var cursor notionapi.Cursor

	for {
		release, err := c.acquire(ctx)
		if err != nil {
			return nil, classify("list block children", err)
		}
		resp, err := c.client.Block().GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		release()
		if err != nil {
			return nil, classify("list block children", err)
		}

		blocks = append(blocks, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return blocks, nil
}

// SearchPages lists pages whose title matches query, most recently edited first
func (c *Client) SearchPages(ctx context.Context, query string) ([]models.PageSummary, error) {
	logger.Debug("Searching Notion pages", map[string]interface{}{
		"query": query,
	})

	var pages []models.PageSummary
	var cursor notionapi.Cursor

	for len(pages) < searchLimit {
		release, err := c.acquire(ctx)
		if err != nil {
			return nil, classify("search pages", err)
		}
		resp, err := c.client.Search().Do(ctx, &notionapi.SearchRequest{
			Query: query,
			Filter: notionapi.SearchFilter{
				Property: "object",
				Value:    "page",
			},
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		release()
		if err != nil {
			return nil, classify("search pages", err)
		}

		for _, result := range resp.Results {
			if page, ok := result.(*notionapi.Page); ok {
				pages = append(pages, models.PageSummary{
					ID:         string(page.ID),
					Title:      pageTitle(page.Properties),
					URL:        page.URL,
					LastEdited: page.LastEditedTime,
				})
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].LastEdited.After(pages[j].LastEdited)
	})
	if len(pages) > searchLimit {
		pages = pages[:searchLimit]
	}
	return pages, nil
}

// pageTitle reads the title property ("title" for pages, "Name" for database
// rows, else any title-typed property).
func pageTitle(props notionapi.Properties) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	keys = append([]string{"title", "Name"}, keys...)

	for _, key := range keys {
		var title []notionapi.RichText
		switch p := props[key].(type) {
		case *notionapi.TitleProperty:
			title = p.Title
		case notionapi.TitleProperty:
			title = p.Title
		default:
			continue
		}
		if t := plainText(title); t != "" {
			return t
		}
	}
	return "Untitled"
}

// Verify checks the credential with a single users listing and returns the
// workspace the integration's bot belongs to.
func (c *Client) Verify(ctx context.Context) (*models.Workspace, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, classify("verify key", err)
	}
	resp, err := c.client.User().List(ctx, &notionapi.Pagination{PageSize: 1})
	release()
	if err != nil {
		return nil, classify("verify key", err)
	}

	ws := &models.Workspace{Name: defaultWorkspace}
	for _, u := range resp.Results {
		if string(u.Type) == "bot" && u.Name != "" {
			ws.BotID = string(u.ID)
			ws.Name = u.Name
			break
		}
	}
	return ws, nil
}
