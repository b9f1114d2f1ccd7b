// Package api exposes reconciliation over HTTP so that an automation host can
// trigger a run without the CLI.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ledger-reconciliation-service/internal/parsers"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Config holds API server configuration
type Config struct {
	Address        string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Version        string
}

// DefaultConfig returns defaults for the API server
func DefaultConfig() Config {
	return Config{
		Address:      "127.0.0.1:8080",
		MaxBodyBytes: 32 << 20,
		Version:      "dev",
	}
}

// Server is the HTTP API server
type Server struct {
	config      Config
	router      *gin.Engine
	httpServer  *http.Server
	logger      logger.Logger
	service     *reconciler.ReconciliationService
	parseConfig *parsers.ParseConfig
}

// NewServer creates a new API server. service supplies the default filters
// and column aliases; parseConfig is used for uploaded CSV files.
func NewServer(cfg Config, service *reconciler.ReconciliationService, parseConfig *parsers.ParseConfig) *Server {
	if parseConfig == nil {
		parseConfig = parsers.DefaultParseConfig()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		config:      cfg,
		router:      gin.New(),
		logger:      logger.WithComponent("api"),
		service:     service,
		parseConfig: parseConfig,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger, "/healthz"))

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:  s.config.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}
	if s.config.MaxBodyBytes > 0 {
		s.router.Use(limitBody(s.config.MaxBodyBytes))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)

	v1 := s.router.Group("/v1")
	{
		v1.POST("/reconcile", s.reconcileJSON)
		v1.POST("/reconcile/upload", s.reconcileUpload)
	}
}

// Start starts the HTTP server and blocks until it stops. A server that was
// shut down before Start returns nil right away.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.config.Address).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing
func (s *Server) Router() http.Handler {
	return s.router
}
