package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/covergrid/search-service/internal/cache"
	"github.com/covergrid/search-service/internal/config"
	"github.com/covergrid/search-service/internal/domain"
	"github.com/covergrid/search-service/internal/handler"
	"github.com/covergrid/search-service/internal/repository"
	"github.com/covergrid/search-service/internal/service"
	pkglog "github.com/covergrid/search-service/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "search-service",
	})
	logger := pkglog.L()

	// Shared upstream HTTP client; the egress proxy is resolved once here
	// and applied to every upstream fetch, covers included.
	httpClient, err := repository.NewHTTPClient(cfg.Upstream.ProxyURL, cfg.Upstream.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build upstream http client")
	}
	if cfg.Upstream.ProxyURL != "" {
		logger.Info().Str("proxy", cfg.Upstream.ProxyURL).Msg("upstream proxy configured")
	}

	// Initialize repositories
	suggestRepo := repository.NewDoubanSuggestRepository(httpClient, cfg.Upstream.BaseURL)
	imageRepo := repository.NewDoubanImageRepository(httpClient)

	// Initialize in-process result cache
	searchCache := cache.NewTTLCache[string, []domain.SearchResult](cfg.Cache.TTL, cfg.Cache.Capacity)
	logger.Info().Dur("ttl", cfg.Cache.TTL).Int("capacity", cfg.Cache.Capacity).Msg("result cache initialised")

	// Initialize services
	streamService := service.NewStreamService(suggestRepo, searchCache)
	imageService, err := service.NewImageService(imageRepo, cfg.Image.AllowPattern)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image service")
	}

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(streamService, imageService)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Register routes
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // streams stay open per search
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("search-service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down search-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
}
