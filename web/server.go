package web

import (
	"context"
	"net/http"
	"time"

	"fitmate/agent"
	"fitmate/config"
	"fitmate/metrics"
	"fitmate/web/handlers"
	"fitmate/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router      *gin.Engine
	agent       *agent.Agent
	logger      *zap.Logger
	config      *config.Config
	metrics     *metrics.Exporter
	rateLimiter *middleware.SessionRateLimiter
}

func NewServer(agent *agent.Agent, logger *zap.Logger, config *config.Config, exporter *metrics.Exporter) *Server {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		// Add logger to context
		c.Set("logger", logger)
		c.Next()
	})

	server := &Server{
		router:  router,
		agent:   agent,
		logger:  logger,
		config:  config,
		metrics: exporter,
		rateLimiter: middleware.NewSessionRateLimiter(middleware.RateLimiterConfig{
			MessagesPerMinute: config.RateLimitPerMin,
			BurstSize:         config.RateLimitBurstSize,
			CleanupInterval:   10 * time.Minute,
			IdleAfter:         time.Hour,
		}, logger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	chatHandler := handlers.NewChatHandler(s.agent, s.logger, s.config.TypewriterDelay)

	// Operational routes
	s.router.GET("/healthz", handlers.Healthz)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Web routes
	session := s.router.Group("/", middleware.SessionMiddleware())
	session.GET("/", chatHandler.Index)
	session.GET("/agents", chatHandler.Agents)
	session.POST("/chat", middleware.RateLimitMiddleware(s.rateLimiter), chatHandler.SendMessage)
	session.GET("/chat/stream", chatHandler.StreamResponse)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))
	defer s.rateLimiter.Stop()

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
			errCh <- err
		}
	}()

	// Wait for context cancellation
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases background resources when Start is never called.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}
