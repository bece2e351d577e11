package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"conference-plugins/config"
	"conference-plugins/internal/handler"
	"conference-plugins/internal/middleware"
	"conference-plugins/internal/transport/httpdto"
	"conference-plugins/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

const shutdownTimeout = 5 * time.Second

type Handlers struct {
	Attachments *handler.AttachmentHandler
	Conversion  *handler.ConversionHandler
	Rooms       *handler.RoomHandler
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

func New(cfg *config.Config, l *logger.Logger) *Server {
	switch cfg.AppMode {
	case ReleaseMode, logger.ProductionMode:
		gin.SetMode(gin.ReleaseMode)
	case TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: logger.OrNop(l),
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, limiter middleware.Limiter, checks map[string]HealthCheck) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))
	s.engine.Use(middleware.RequestState())

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for name, check := range checks {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(fmt.Sprintf("%s: %v", name, err), httpdto.CodeUnhealthy))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	if handlers.Attachments != nil {
		folders := s.engine.Group("/folders/:id/attachments")
		{
			folders.GET("", handlers.Attachments.List)
			folders.GET("/form", handlers.Attachments.UploadForm)
			folders.POST("", handlers.Attachments.Upload)
			folders.POST("/link", handlers.Attachments.AddLink)
		}
		s.engine.GET("/attachments/:id", handlers.Attachments.GetByID)
	}

	if handlers.Conversion != nil {
		conv := s.engine.Group("/conversion")
		{
			conv.GET("/check", handlers.Conversion.Check)
			conv.POST("/finished", middleware.RateLimitMiddleware(limiter, "callback"), handlers.Conversion.Finished)
		}
	}

	if handlers.Rooms != nil {
		rooms := s.engine.Group("/rooms")
		{
			rooms.GET("/status", handlers.Rooms.Status)
			rooms.POST("/connect", middleware.RateLimitMiddleware(limiter, "rooms"), handlers.Rooms.Connect)
			rooms.POST("/disconnect", middleware.RateLimitMiddleware(limiter, "rooms"), handlers.Rooms.Disconnect)
		}
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting http server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error(context.Background(), "graceful shutdown failed", zap.Error(err))
		return err
	}
	s.logger.Info(context.Background(), "http server stopped")
	return nil
}
