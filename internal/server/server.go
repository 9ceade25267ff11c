package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Shalenii/Unified-Digital-Marketer/internal/config"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/service"
	"github.com/Shalenii/Unified-Digital-Marketer/internal/service/publisher"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Posts     *service.PostService
	Scheduler *service.Scheduler
	Assets    *service.LocalAssetStore
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize the durable store
	var (
		db    *gorm.DB
		store service.PostStore
	)
	if cfg.Database.Type == "memory" {
		logger.Warn("Using in-memory post store; posts will not survive a restart")
		store = service.NewMemoryPostStore()
	} else {
		gormDB, err := service.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db = gormDB
		store = service.NewGormPostStore(gormDB)
	}

	assets, err := service.NewLocalAssetStore(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset storage: %w", err)
	}

	// Initialize services
	registry := publisher.NewRegistry(&cfg.Platforms, logger)
	dispatcher := service.NewDispatcher(registry, assets, logger)
	posts := service.NewPostService(logger, store, assets, dispatcher)
	scheduler := service.NewScheduler(&cfg.Scheduler, logger, store, dispatcher)

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:    cfg,
		DB:        db,
		Router:    router,
		Logger:    logger,
		Posts:     posts,
		Scheduler: scheduler,
		Assets:    assets,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// Platforms that ingest by URL fetch the image straight from here.
	s.Router.Static("/uploads", s.Config.Storage.UploadsDir)
	s.Router.Static("/source_content", s.Config.Storage.SourceContentDir)

	// API routes
	api := s.Router.Group("/api")
	{
		api.GET("/posts", s.handleListPosts)
		api.POST("/posts", s.handleCreatePost)
		api.DELETE("/posts/:id", s.handleDeletePost)
		api.PATCH("/posts/:id", s.handleUpdatePost)
		api.PATCH("/posts/:id/status", s.handleUpdatePostStatus)

		api.GET("/source-images", s.handleListSourceImages)

		// One synchronous scanner tick, for serverless-style cadence.
		api.GET("/cron", s.handleCronTick)
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Start scheduler (runs startup recovery first)
	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop scheduler first
	s.Scheduler.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
