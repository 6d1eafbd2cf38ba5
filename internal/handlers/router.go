package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gblms/roadmap-service/internal/auth"
	"github.com/gblms/roadmap-service/internal/repositories"
	"github.com/gblms/roadmap-service/internal/services"
	"github.com/gblms/roadmap-service/internal/utils"
	"github.com/gblms/roadmap-service/internal/validator"
)

const serviceVersion = "1.0.0"

type HandlerManager struct {
	authHandler    *AuthHandler
	roadmapHandler *RoadmapHandler
	authMiddleware *TokenAuthMiddleware

	store        repositories.Store
	storage      repositories.Resolution
	redisEnabled bool
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	tokens *auth.TokenManager,
	store repositories.Store,
	storage repositories.Resolution,
	redisEnabled bool,
) *HandlerManager {
	return &HandlerManager{
		authHandler:    NewAuthHandler(serviceManager.Auth(), validator, logger),
		roadmapHandler: NewRoadmapHandler(serviceManager.Roadmap(), validator, logger),
		authMiddleware: NewTokenAuthMiddleware(tokens),
		store:          store,
		storage:        storage,
		redisEnabled:   redisEnabled,
	}
}

// SetupRoutes sets up all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/", hm.Status)
	router.GET("/health", hm.Health)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", hm.authHandler.Login)
			authRoutes.GET("/me", hm.authMiddleware.RequireAuth(), hm.authHandler.Me)
		}

		roadmaps := api.Group("/roadmaps")
		{
			// generation is usable anonymously; ownership follows the token
			roadmaps.POST("/generate", hm.authMiddleware.OptionalAuth(), hm.roadmapHandler.Generate)

			roadmaps.GET("/:id", hm.roadmapHandler.Get)
			roadmaps.GET("/:id/export", hm.roadmapHandler.Export)
			roadmaps.PUT("/:id", hm.authMiddleware.OptionalAuth(), hm.roadmapHandler.Update)
			roadmaps.GET("/user/:username", hm.roadmapHandler.ListByUser)
		}
	}
}

// Status reports the service descriptor and which backends are configured.
func (hm *HandlerManager) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "roadmap-service",
		"status":  "running",
		"version": serviceVersion,
		"storage": gin.H{
			"mode":   hm.storage.Mode,
			"reason": hm.storage.Reason,
		},
		"features": gin.H{
			"auth":  "simple",
			"cache": hm.redisEnabled,
		},
	})
}

// Health is the liveness endpoint for monitoring. Backends holding a real
// connection are pinged; the hosted row API and the mock store are not.
func (hm *HandlerManager) Health(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	store := hm.store
	if fb, ok := store.(*repositories.Fallback); ok {
		store = fb.Remote()
	}
	if pinger, ok := store.(repositories.Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body["storage"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["storage"] = "ok"
	}

	c.JSON(http.StatusOK, body)
}
