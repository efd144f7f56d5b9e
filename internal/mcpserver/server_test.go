package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takak2166/notion2text/internal/models"
)

type fakeService struct {
	lastReq  models.ConversionRequest
	lastCred string
	err      error
	pages    []models.PageSummary
}

func (f *fakeService) Convert(_ context.Context, req models.ConversionRequest) (*models.ConversionResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ConversionResult{
		PageID:  req.PageID,
		Title:   "Greeting",
		Format:  models.FormatHTML,
		Content: "<p>Hello</p>",
	}, nil
}

func (f *fakeService) Search(_ context.Context, credential, _ string) ([]models.PageSummary, error) {
	f.lastCred = credential
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

func callRequest(name string, args interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Request: mcp.Request{
			Method: "tools/call",
		},
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", result.Content[0])
	return ""
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, NewServer(&fakeService{}, "key"))
}

func TestConvertPageHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &fakeService{}
		args := ConvertPageRequest{PageID: "abc", Format: "html"}

		result, err := convertPageHandler(svc, "default-key")(context.Background(), callRequest("convert_page", args), args)
		require.NoError(t, err)
		assert.False(t, result.IsError)

		var resp ConvertPageResponse
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
		assert.Equal(t, "<p>Hello</p>", resp.Content)
		assert.Equal(t, "Greeting", resp.Title)
		assert.Equal(t, "default-key", svc.lastReq.Credential)
		assert.Equal(t, models.FormatHTML, svc.lastReq.Format)
	})

	t.Run("Caller key", func(t *testing.T) {
		svc := &fakeService{}
		args := ConvertPageRequest{PageID: "abc", IntegrationKey: "caller-key"}

		_, err := convertPageHandler(svc, "default-key")(context.Background(), callRequest("convert_page", args), args)
		require.NoError(t, err)
		assert.Equal(t, "caller-key", svc.lastReq.Credential)
	})

	t.Run("Missing page id", func(t *testing.T) {
		svc := &fakeService{}
		args := ConvertPageRequest{Format: "html"}

		result, err := convertPageHandler(svc, "key")(context.Background(), callRequest("convert_page", args), args)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Empty(t, svc.lastReq.PageID)
	})

	t.Run("Upstream error", func(t *testing.T) {
		svc := &fakeService{err: &models.FetchError{Kind: models.KindNotFound, Op: "get block", Status: 404}}
		args := ConvertPageRequest{PageID: "abc"}

		result, err := convertPageHandler(svc, "key")(context.Background(), callRequest("convert_page", args), args)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "not_found")
	})
}

func TestSearchPagesHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &fakeService{pages: []models.PageSummary{{ID: "a", Title: "Roadmap"}}}
		args := SearchPagesRequest{Query: "road"}

		result, err := searchPagesHandler(svc, "default-key")(context.Background(), callRequest("search_pages", args), args)
		require.NoError(t, err)
		assert.False(t, result.IsError)

		var resp SearchPagesResponse
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
		require.Len(t, resp.Pages, 1)
		assert.Equal(t, "Roadmap", resp.Pages[0].Title)
		assert.Equal(t, "default-key", svc.lastCred)
	})

	t.Run("Empty result", func(t *testing.T) {
		args := SearchPagesRequest{Query: "none"}
		result, err := searchPagesHandler(&fakeService{}, "key")(context.Background(), callRequest("search_pages", args), args)
		require.NoError(t, err)
		assert.JSONEq(t, `{"pages":[]}`, resultText(t, result))
	})

	t.Run("Authentication error", func(t *testing.T) {
		svc := &fakeService{err: &models.FetchError{Kind: models.KindAuthentication, Op: "search pages", Status: 401}}
		args := SearchPagesRequest{Query: "x"}

		result, err := searchPagesHandler(svc, "key")(context.Background(), callRequest("search_pages", args), args)
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
