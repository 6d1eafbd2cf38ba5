package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/gblms/roadmap-service/internal/auth"
	"github.com/gblms/roadmap-service/internal/cache"
	"github.com/gblms/roadmap-service/internal/config"
	"github.com/gblms/roadmap-service/internal/events"
	"github.com/gblms/roadmap-service/internal/handlers"
	"github.com/gblms/roadmap-service/internal/repositories"
	"github.com/gblms/roadmap-service/internal/repositories/mcpproxy"
	"github.com/gblms/roadmap-service/internal/repositories/mock"
	"github.com/gblms/roadmap-service/internal/repositories/postgres"
	"github.com/gblms/roadmap-service/internal/repositories/supabase"
	"github.com/gblms/roadmap-service/internal/services"
	"github.com/gblms/roadmap-service/internal/utils"
	"github.com/gblms/roadmap-service/internal/validator"
	"github.com/gblms/roadmap-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Resolve the storage mode and build the persistence client
	resolution := repositories.Resolve(cfg)
	slogLogger.Info("storage mode selected",
		"mode", resolution.Mode,
		"reason", resolution.Reason)

	store, resolution := buildStore(cfg, resolution, slogLogger)

	// Initialize cache, events and token manager
	cacheClient := cache.NewClient(redisClient, "roadmap-service:")
	bus := events.NewBus(slogLogger)
	tokens := auth.NewTokenManager(cfg.JWTSecret)

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(store, cacheClient, bus, tokens, slogLogger)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger, tokens, store, resolution, redisClient != nil)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.FrontendURL)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "storage_mode", resolution.Mode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}

// buildStore constructs the persistence client for the resolved mode. Remote
// modes are wrapped with the per-call mock fallback; a backend that cannot
// even be constructed degrades the whole instance to mock mode.
func buildStore(cfg *config.Config, resolution repositories.Resolution, logger *slog.Logger) (repositories.Store, repositories.Resolution) {
	mockStore := mock.NewStore()

	switch resolution.Mode {
	case repositories.ModeProxy:
		remote := mcpproxy.NewStore(resolution.ProxyURL, cfg.SupabaseKey)
		return repositories.NewFallback(remote, mockStore, logger), resolution

	case repositories.ModeDirect:
		remote := supabase.NewStore(cfg.SupabaseURL, cfg.SupabaseKey)
		return repositories.NewFallback(remote, mockStore, logger), resolution

	case repositories.ModePostgres:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			logger.Warn("postgres unavailable, falling back to mock mode", "error", err)
			return mockStore, repositories.Resolution{
				Mode:   repositories.ModeMock,
				Reason: "postgres connection failed: " + err.Error(),
			}
		}
		pgStore := postgres.NewStore(db)
		if err := pgStore.Migrate(); err != nil {
			logger.Warn("postgres migration failed", "error", err)
		}
		return repositories.NewFallback(pgStore, mockStore, logger), resolution

	default:
		return mockStore, resolution
	}
}
