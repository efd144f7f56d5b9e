// Package server exposes conversion and page search over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/takak2166/notion2text/internal/logger"
	"github.com/takak2166/notion2text/internal/models"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 120 * time.Second
	idleTimeout  = 120 * time.Second
)

// Service is the conversion backend behind the API
type Service interface {
	Convert(ctx context.Context, req models.ConversionRequest) (*models.ConversionResult, error)
	Search(ctx context.Context, credential, query string) ([]models.PageSummary, error)
	Verify(ctx context.Context, credential string) (*models.Workspace, error)
}

// Server is the HTTP API server
type Server struct {
	router *gin.Engine
	server *http.Server
}

// New creates a server listening on addr. defaultKey is used when a
// request carries no integration key of its own.
func New(svc Service, addr, defaultKey string) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())

	h := NewHandler(svc, defaultKey)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/notion")
	api.POST("/convert", h.Convert)
	api.GET("/pages/search", h.Search)
	api.POST("/pages/search", h.Search)
	api.POST("/verify", h.Verify)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": s.server.Addr,
	})
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
