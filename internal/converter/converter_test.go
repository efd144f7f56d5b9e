package converter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takak2166/notion2text/internal/export"
	"github.com/takak2166/notion2text/internal/models"
	"github.com/takak2166/notion2text/internal/render"
)

const pageID = "0123abcd-0123-4567-89ab-0123456789ab"

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu      sync.Mutex
	root    *models.Block
	err     error
	fetched []string
	pages   []models.PageSummary
}

func (f *fakeSource) Fetch(_ context.Context, blockID string) (*models.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, blockID)
	if f.err != nil {
		return nil, f.err
	}
	return f.root, nil
}

func (f *fakeSource) Verify(_ context.Context) (*models.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Workspace{Name: "Acme Docs"}, nil
}

func (f *fakeSource) SearchPages(_ context.Context, _ string) ([]models.PageSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// factory returns a SourceFactory serving src and counting opened sources.
func factory(src *fakeSource, opened *int) SourceFactory {
	return func(credential string) (Source, error) {
		*opened++
		if credential == "" {
			return nil, &models.FetchError{Kind: models.KindAuthentication, Op: "connect", Message: "missing key"}
		}
		return src, nil
	}
}

func helloPage() *models.Block {
	return &models.Block{
		ID:          pageID,
		Type:        models.BlockChildPage,
		HasChildren: true,
		Content:     models.PageRef{PageID: pageID, Title: "Greeting"},
		Children: []*models.Block{{
			ID:      "p1",
			Type:    models.BlockParagraph,
			Content: models.Paragraph{RichText: []models.RichTextRun{models.Text("Hello "), models.Bold("world")}},
		}},
	}
}

func newConverter(src *fakeSource, opened *int, states *[]State, opts ...Option) *Converter {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithStateObserver(func(_ string, s State) { *states = append(*states, s) }),
	}, opts...)
	return New(factory(src, opened), opts...)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		format  models.Format
		want    string
		wantFmt models.Format
	}{
		{name: "Markdown", format: models.FormatMarkdown, want: "Hello **world**", wantFmt: models.FormatMarkdown},
		{name: "HTML", format: models.FormatHTML, want: "<p>Hello <strong>world</strong></p>", wantFmt: models.FormatHTML},
		{name: "JSX", format: models.FormatJSX, want: "<>\n<p>Hello <strong>world</strong></p>\n</>", wantFmt: models.FormatJSX},
		{name: "Default format", format: "", want: "Hello **world**", wantFmt: models.FormatMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{root: helloPage()}
			var opened int
			var states []State

			res, err := newConverter(src, &opened, &states).Convert(context.Background(), models.ConversionRequest{
				Credential: "secret",
				PageID:     pageID,
				Format:     tt.format,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Content)
			assert.Equal(t, tt.wantFmt, res.Format)
			assert.Equal(t, pageID, res.PageID)
			assert.Equal(t, "Greeting", res.Title)
			assert.Equal(t, fixedNow, res.ConvertedAt)
			assert.Empty(t, res.Pages)
			assert.Equal(t, []State{StateFetching, StateRendering, StateDone}, states)
		})
	}
}

func TestConvertMDXFrontmatter(t *testing.T) {
	src := &fakeSource{root: helloPage()}
	var opened int
	var states []State

	out, err := newConverter(src, &opened, &states).ConvertPage(context.Background(), "secret", pageID, "mdx")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "---\ntitle: Greeting\n"), out)
	assert.Contains(t, out, "exportedAt: 2024-05-01T12:00:00Z\n---\n\nHello **world**")
}

func TestConvertUnsupportedFormat(t *testing.T) {
	src := &fakeSource{root: helloPage()}
	var opened int
	var states []State

	res, err := newConverter(src, &opened, &states).Convert(context.Background(), models.ConversionRequest{
		Credential: "secret",
		PageID:     pageID,
		Format:     "yaml",
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Equal(t, models.KindConfiguration, models.Kind(err))
	assert.Zero(t, opened)
	assert.Empty(t, src.fetched)
	assert.Empty(t, states)
}

func TestConvertFetchFailures(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		fetchErr   error
		expected   error
	}{
		{
			name:       "Credential rejected",
			credential: "revoked",
			fetchErr:   &models.FetchError{Kind: models.KindAuthentication, Op: "get block", Status: 401, Code: "unauthorized"},
			expected:   models.ErrAuthentication,
		},
		{
			name:       "Missing credential",
			credential: "",
			expected:   models.ErrAuthentication,
		},
		{
			name:       "Page not found",
			credential: "secret",
			fetchErr:   &models.FetchError{Kind: models.KindNotFound, Op: "get block", Status: 404, Code: "object_not_found"},
			expected:   models.ErrNotFound,
		},
		{
			name:       "Rate limited",
			credential: "secret",
			fetchErr:   &models.FetchError{Kind: models.KindUpstreamTransient, Op: "get block", Status: 429, Code: "rate_limited"},
			expected:   models.ErrUpstreamTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{root: helloPage(), err: tt.fetchErr}
			var opened int
			var states []State
			c := newConverter(src, &opened, &states)

			strategy, err := render.Select("markdown")
			require.NoError(t, err)
			sink := export.NewBuffer()

			res, err := c.run(context.Background(), tt.credential, pageID, strategy, sink)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.expected)
			assert.Equal(t, 0, sink.Len(), "buffer must stay empty")
			assert.Equal(t, []State{StateFetching, StateFailed}, states)
		})
	}
}

func TestConvertNormalizesPageID(t *testing.T) {
	src := &fakeSource{root: helloPage()}
	var opened int
	var states []State

	_, err := newConverter(src, &opened, &states).ConvertPage(context.Background(), "secret",
		"https://www.notion.so/team/Greeting-0123abcd0123456789ab0123456789ab?pvs=4", "markdown")
	require.NoError(t, err)
	assert.Equal(t, []string{pageID}, src.fetched)
}

func TestConvertEmptyPageID(t *testing.T) {
	src := &fakeSource{}
	var opened int
	var states []State

	_, err := newConverter(src, &opened, &states).ConvertPage(context.Background(), "secret", "  ", "html")
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Zero(t, opened)
}

func TestConvertAbsorbsBlockErrors(t *testing.T) {
	root := helloPage()
	root.Children = append(root.Children,
		&models.Block{ID: "bad", Type: models.BlockCallout},
		&models.Block{ID: "p2", Type: models.BlockParagraph, Content: models.Paragraph{RichText: []models.RichTextRun{models.Text("still here")}}},
	)
	src := &fakeSource{root: root}
	var opened int
	var states []State

	res, err := newConverter(src, &opened, &states).Convert(context.Background(), models.ConversionRequest{
		Credential: "secret",
		PageID:     pageID,
		Format:     models.FormatMarkdown,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello **world**\n\n<!-- failed to render callout block -->\n\nstill here", res.Content)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "bad", res.Warnings[0].BlockID)
	assert.Equal(t, StateDone, states[len(states)-1])
}

func TestConvertInlinesChildPages(t *testing.T) {
	root := helloPage()
	root.Children = append(root.Children, &models.Block{
		ID:          "sub-page",
		Type:        models.BlockChildPage,
		HasChildren: true,
		Content:     models.PageRef{PageID: "sub-page", Title: "Details"},
		Children: []*models.Block{{
			ID:      "p3",
			Type:    models.BlockParagraph,
			Content: models.Paragraph{RichText: []models.RichTextRun{models.Text("nested body")}},
		}},
	})
	src := &fakeSource{root: root}
	var opened int
	var states []State

	res, err := newConverter(src, &opened, &states, WithInlineChildPages(true)).Convert(context.Background(), models.ConversionRequest{
		Credential: "secret",
		PageID:     pageID,
		Format:     models.FormatMarkdown,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello **world**\n\n## Details\n\nnested body", res.Content)
	assert.Equal(t, map[string]string{"sub-page": "nested body"}, res.Pages)
}

func TestSearch(t *testing.T) {
	pages := []models.PageSummary{{ID: "a", Title: "Roadmap", LastEdited: fixedNow}}

	t.Run("Delegates to source", func(t *testing.T) {
		var opened int
		c := New(factory(&fakeSource{pages: pages}, &opened))

		got, err := c.Search(context.Background(), "secret", "road")
		require.NoError(t, err)
		assert.Equal(t, pages, got)
		assert.Equal(t, 1, opened)
	})

	t.Run("Upstream error", func(t *testing.T) {
		var opened int
		upstream := &models.FetchError{Kind: models.KindUpstreamTransient, Op: "search pages", Err: errors.New("timeout")}
		c := New(factory(&fakeSource{err: upstream}, &opened))

		_, err := c.Search(context.Background(), "secret", "road")
		assert.ErrorIs(t, err, models.ErrUpstreamTransient)
	})

	t.Run("Missing credential", func(t *testing.T) {
		var opened int
		c := New(factory(&fakeSource{pages: pages}, &opened))

		_, err := c.Search(context.Background(), "", "road")
		assert.ErrorIs(t, err, models.ErrAuthentication)
	})
}

func TestVerify(t *testing.T) {
	t.Run("Workspace name", func(t *testing.T) {
		var opened int
		ws, err := New(factory(&fakeSource{}, &opened)).Verify(context.Background(), "secret")
		require.NoError(t, err)
		assert.Equal(t, "Acme Docs", ws.Name)
		assert.Equal(t, 1, opened)
	})

	t.Run("Rejected key", func(t *testing.T) {
		var opened int
		rejected := &models.FetchError{Kind: models.KindAuthentication, Op: "verify key", Status: 401}
		_, err := New(factory(&fakeSource{err: rejected}, &opened)).Verify(context.Background(), "revoked")
		assert.ErrorIs(t, err, models.ErrAuthentication)
	})

	t.Run("Missing credential", func(t *testing.T) {
		var opened int
		_, err := New(factory(&fakeSource{}, &opened)).Verify(context.Background(), "")
		assert.ErrorIs(t, err, models.ErrAuthentication)
	})
}
