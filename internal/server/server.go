// file: internal/server/server.go
// version: 2.0.0
// guid: 4c5d6e7f-8a9b-0c1d-2e3f-4a5b6c7d8e9f

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/listings-engine/internal/collection"
	"github.com/jdfalk/listings-engine/internal/metrics"
	"github.com/jdfalk/listings-engine/internal/realtime"
	"github.com/jdfalk/listings-engine/internal/search"
	"github.com/jdfalk/listings-engine/internal/server/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	engine     *search.Engine
	repo       *collection.Repository
	limiter    *middleware.IPRateLimiter
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	RateLimitPerMinute int
	RateLimitBurst     int
}

// NewServer creates a new server instance serving engine and repo
func NewServer(engine *search.Engine, repo *collection.Repository, cfg ServerConfig) *Server {
	router := gin.New()

	// Set up middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(corsMiddleware())

	// Register metrics (idempotent)
	metrics.Register()

	server := &Server{
		router:  router,
		engine:  engine,
		repo:    repo,
		limiter: middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}

	server.setupRoutes()

	return server
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start(cfg ServerConfig) error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Println("[INFO] Shutting down server...")

	if realtime.GlobalHub != nil {
		realtime.GlobalHub.Broadcast(&realtime.Event{
			Type:      "system.shutdown",
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message": "Server is shutting down",
			},
		})
		// Give clients a moment to receive the event
		time.Sleep(500 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("[INFO] Server exited")
	return nil
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint (standard path)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint (both paths for compatibility)
	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/api/v1/health", s.healthCheck)

	// Real-time events (SSE)
	s.router.GET("/api/events", s.handleEvents)

	api := s.router.Group("/api/v1")
	api.Use(s.limiter.Middleware())
	{
		api.GET("/search", s.search)
		api.GET("/categories", s.listCategories)
		api.GET("/categories/search", s.searchCategories)
		api.GET("/listings", s.listListings)
		api.GET("/listings/:id", s.getListing)
		api.GET("/similarity", s.similarity)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// handleEvents handles Server-Sent Events (SSE) for real-time updates
func (s *Server) handleEvents(c *gin.Context) {
	if realtime.GlobalHub == nil {
		RespondWithError(c, http.StatusServiceUnavailable, "event hub not initialized", "UNAVAILABLE")
		return
	}
	realtime.GlobalHub.HandleSSE(c)
}
