// Package mcpserver exposes page conversion and search as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

const Version = "0.1.0"

// Service is the conversion backend behind the tools
type Service interface {
	Convert(ctx context.Context, req models.ConversionRequest) (*models.ConversionResult, error)
	Search(ctx context.Context, credential, query string) ([]models.PageSummary, error)
}

type ConvertPageRequest struct {
	PageID         string `json:"page_id"`
	Format         string `json:"format"`
	IntegrationKey string `json:"integration_key"`
}

type ConvertPageResponse struct {
	PageID   string            `json:"pageId"`
	Title    string            `json:"title"`
	Format   models.Format     `json:"format"`
	Content  string            `json:"content"`
	Pages    map[string]string `json:"pages,omitempty"`
	Warnings []models.Warning  `json:"warnings,omitempty"`
}

type SearchPagesRequest struct {
	Query          string `json:"query"`
	IntegrationKey string `json:"integration_key"`
}

type SearchPagesResponse struct {
	Pages []models.PageSummary `json:"pages"`
}

// NewServer creates an MCP server with the convert_page and search_pages
// tools. defaultKey is used when a call carries no integration key.
func NewServer(svc Service, defaultKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"Notion Converter MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	convertTool := mcp.NewTool("convert_page",
		mcp.WithDescription("Convert a Notion page into markdown, mdx, html or jsx"),
		mcp.WithString("page_id",
			mcp.Required(),
			mcp.Description("Page id or notion.so URL"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: markdown (default), mdx, html or jsx"),
			mcp.Enum(string(models.FormatMarkdown), string(models.FormatMDX), string(models.FormatHTML), string(models.FormatJSX)),
		),
		mcp.WithString("integration_key",
			mcp.Description("Notion integration key; falls back to the server key"),
		),
	)
	s.AddTool(convertTool, mcp.NewTypedToolHandler(convertPageHandler(svc, defaultKey)))

	searchTool := mcp.NewTool("search_pages",
		mcp.WithDescription("Search Notion pages visible to the integration by title"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Title search text"),
		),
		mcp.WithString("integration_key",
			mcp.Description("Notion integration key; falls back to the server key"),
		),
	)
	s.AddTool(searchTool, mcp.NewTypedToolHandler(searchPagesHandler(svc, defaultKey)))

	return s
}

// ServeStdio serves the tools over stdin/stdout
func ServeStdio(s *server.MCPServer) error {
	logger.Info("Starting MCP server in stdio mode")
	return server.ServeStdio(s)
}

// ServeHTTP serves the tools over streamable HTTP on addr
func ServeHTTP(s *server.MCPServer, addr string) error {
	logger.Info("Starting MCP server", map[string]interface{}{
		"addr": addr,
	})
	return server.NewStreamableHTTPServer(s).Start(addr)
}

func keyOr(key, defaultKey string) string {
	if key != "" {
		return key
	}
	return defaultKey
}

func convertPageHandler(svc Service, defaultKey string) func(ctx context.Context, request mcp.CallToolRequest, args ConvertPageRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ConvertPageRequest) (*mcp.CallToolResult, error) {
		if args.PageID == "" {
			return mcp.NewToolResultError("page_id is required"), nil
		}

		res, err := svc.Convert(ctx, models.ConversionRequest{
			Credential: keyOr(args.IntegrationKey, defaultKey),
			PageID:     args.PageID,
			Format:     models.Format(args.Format),
		})
		if err != nil {
			logger.Warn("convert_page failed", map[string]interface{}{
				"page_id": args.PageID,
				"error":   err.Error(),
			})
			return toolError("failed to convert page", err), nil
		}

		return jsonResult(ConvertPageResponse{
			PageID:   res.PageID,
			Title:    res.Title,
			Format:   res.Format,
			Content:  res.Content,
			Pages:    res.Pages,
			Warnings: res.Warnings,
		}), nil
	}
}

func searchPagesHandler(svc Service, defaultKey string) func(ctx context.Context, request mcp.CallToolRequest, args SearchPagesRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SearchPagesRequest) (*mcp.CallToolResult, error) {
		pages, err := svc.Search(ctx, keyOr(args.IntegrationKey, defaultKey), args.Query)
		if err != nil {
			return toolError("failed to search pages", err), nil
		}
		if pages == nil {
			pages = []models.PageSummary{}
		}
		return jsonResult(SearchPagesResponse{Pages: pages}), nil
	}
}

func toolError(msg string, err error) *mcp.CallToolResult {
	if kind := models.Kind(err); kind != "" {
		return mcp.NewToolResultError(fmt.Sprintf("%s (%s): %v", msg, kind, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", msg, err))
}

func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
