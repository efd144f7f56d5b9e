package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

// ConvertRequest is the body of POST /api/notion/convert
type ConvertRequest struct {
	PageID         string `json:"pageId"`
	Format         string `json:"format"`
	IntegrationKey string `json:"integrationKey,omitempty"`
}

// ConvertResponse is a successful conversion
type ConvertResponse struct {
	Content  string           `json:"content"`
	Format   models.Format    `json:"format"`
	Metadata Metadata         `json:"metadata"`
	Warnings []models.Warning `json:"warnings,omitempty"`
}

// Metadata describes the converted page
type Metadata struct {
	Title       string    `json:"title"`
	PageID      string    `json:"pageId"`
	ConvertedAt time.Time `json:"convertedAt"`
}

// SearchRequest is the body of POST /api/notion/pages/search
type SearchRequest struct {
	Query          string `json:"query"`
	IntegrationKey string `json:"integrationKey,omitempty"`
}

// SearchResponse lists matching pages
type SearchResponse struct {
	Pages []models.PageSummary `json:"pages"`
}

// VerifyRequest is the body of POST /api/notion/verify
type VerifyRequest struct {
	IntegrationKey string `json:"integrationKey"`
}

// VerifyResponse reports a working key and its workspace
type VerifyResponse struct {
	Success   bool             `json:"success"`
	Workspace models.Workspace `json:"workspace"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler holds HTTP request handlers
type Handler struct {
	svc        Service
	defaultKey string
}

// NewHandler creates a new handler instance
func NewHandler(svc Service, defaultKey string) *Handler {
	return &Handler{svc: svc, defaultKey: defaultKey}
}

func (h *Handler) credential(key string) string {
	if key != "" {
		return key
	}
	return h.defaultKey
}

// Convert handles page conversion requests
func (h *Handler) Convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(models.KindConfiguration),
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}
	if req.PageID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(models.KindConfiguration),
			Message: "pageId is required",
		})
		return
	}

	res, err := h.svc.Convert(c.Request.Context(), models.ConversionRequest{
		Credential: h.credential(req.IntegrationKey),
		PageID:     req.PageID,
		Format:     models.Format(req.Format),
	})
	if err != nil {
		h.fail(c, "Conversion failed", err, map[string]interface{}{
			"page_id": req.PageID,
			"format":  req.Format,
		})
		return
	}

	c.JSON(http.StatusOK, ConvertResponse{
		Content: res.Content,
		Format:  res.Format,
		Metadata: Metadata{
			Title:       res.Title,
			PageID:      res.PageID,
			ConvertedAt: res.ConvertedAt,
		},
		Warnings: res.Warnings,
	})
}

// Search handles page search requests (both GET and POST)
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if c.Request.Method == http.MethodGet {
		req.Query = c.Query("query")
		req.IntegrationKey = c.GetHeader("X-Notion-Integration-Key")
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(models.KindConfiguration),
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	pages, err := h.svc.Search(c.Request.Context(), h.credential(req.IntegrationKey), req.Query)
	if err != nil {
		h.fail(c, "Search failed", err, map[string]interface{}{
			"query": req.Query,
		})
		return
	}
	if pages == nil {
		pages = []models.PageSummary{}
	}
	c.JSON(http.StatusOK, SearchResponse{Pages: pages})
}

// Verify checks an integration key with one lightweight API call
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(models.KindConfiguration),
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}
	if req.IntegrationKey == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(models.KindConfiguration),
			Message: "integrationKey is required",
		})
		return
	}

	ws, err := h.svc.Verify(c.Request.Context(), req.IntegrationKey)
	if err != nil {
		h.fail(c, "Key verification failed", err, map[string]interface{}{})
		return
	}
	c.JSON(http.StatusOK, VerifyResponse{Success: true, Workspace: *ws})
}

func (h *Handler) fail(c *gin.Context, msg string, err error, fields map[string]interface{}) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, err, fields)
	} else {
		fields["error"] = err.Error()
		logger.Warn(msg, fields)
	}

	kind := models.Kind(err)
	if kind == "" {
		kind = "internal"
	}
	c.JSON(status, ErrorResponse{Error: string(kind), Message: err.Error()})
}

func statusFor(err error) int {
	switch models.Kind(err) {
	case models.KindConfiguration:
		return http.StatusBadRequest
	case models.KindAuthentication:
		return http.StatusUnauthorized
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindUpstreamTransient:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
