package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ServerOptions configures the API server.
type ServerOptions struct {
	Host             string
	Port             int
	GinMode          string
	CORSEnabled      bool
	CORSAllowOrigins string
	// RateLimit is applied to the /v1 group when non-nil.
	RateLimit gin.HandlerFunc
	// Metrics records per-request measurements when non-nil.
	Metrics gin.HandlerFunc
}

// RouteRegistrar mounts a set of routes on the versioned API group.
type RouteRegistrar interface {
	RegisterRoutes(group *gin.RouterGroup)
}

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	engine *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates the API server and mounts the given route registrars on
// /v1. websocketHandler, when non-nil, is mounted at GET /v1/ws outside the
// rate-limit middleware; the realtime channel enforces its own limits.
func NewServer(
	opts ServerOptions,
	logger *slog.Logger,
	db *sql.DB,
	websocketHandler gin.HandlerFunc,
	registrars ...RouteRegistrar,
) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	engine.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(opts.CORSEnabled, opts.CORSAllowOrigins, logger); corsMiddleware != nil {
		engine.Use(corsMiddleware)
	}
	if opts.Metrics != nil {
		engine.Use(opts.Metrics)
	}

	s := &Server{
		engine: engine,
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	engine.GET("/health", s.healthHandler)
	engine.GET("/ready", s.readinessHandler)

	if websocketHandler != nil {
		engine.GET("/v1/ws", websocketHandler)
	}

	v1 := engine.Group("/v1")
	if opts.RateLimit != nil {
		v1.Use(opts.RateLimit)
	}
	for _, registrar := range registrars {
		registrar.RegisterRoutes(v1)
	}

	return s
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.engine
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports not_ready when the database is unreachable.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}
	status := "ready"
	code := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			components["database"] = "error"
			status = "not_ready"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{"status": status, "components": components})
}
