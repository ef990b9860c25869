package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gradlink/gradlink-backend/internal/handlers"
	"github.com/gradlink/gradlink-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins []string

	AuthMiddleware *middleware.AuthMiddleware
	ProfileHandler *handlers.ProfileHandler
	MatchHandler   *handlers.MatchHandler
	RequestHandler *handlers.RequestHandler
	AdminHandler   *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/health", cfg.AdminHandler.Health)

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Profile
	protected.GET("/me", cfg.ProfileHandler.GetMe)
	protected.GET("/tags", cfg.ProfileHandler.ListTags)
	protected.GET("/tags/:id/similar", cfg.ProfileHandler.SimilarTags)
	protected.GET("/affinities", cfg.ProfileHandler.MyAffinities)
	protected.PUT("/affinities", cfg.ProfileHandler.SetAffinities)
	protected.GET("/supervisors", cfg.ProfileHandler.ListSupervisors)
	protected.POST("/blocks", cfg.ProfileHandler.Block)
	protected.DELETE("/blocks/:id", cfg.ProfileHandler.Unblock)

	// Matching
	protected.GET("/matches", cfg.MatchHandler.GetMatches)

	// Requests
	protected.POST("/requests", cfg.RequestHandler.Create)
	protected.POST("/requests/direct", cfg.RequestHandler.DirectAccept)
	protected.GET("/requests", cfg.RequestHandler.List)
	protected.GET("/requests/:id", cfg.RequestHandler.Get)
	protected.POST("/requests/:id/transition", cfg.RequestHandler.Transition)
	protected.GET("/users/:userID/requests/count", cfg.RequestHandler.CountForUser)

	// Admin
	admin := protected.Group("/admin")
	admin.POST("/tags", cfg.AdminHandler.CreateTags)
	admin.PUT("/similarities", cfg.AdminHandler.UpsertSimilarity)
	admin.POST("/cache/similarity/invalidate", cfg.AdminHandler.InvalidateSimilarity)
	admin.DELETE("/cache/identity/:userID", cfg.AdminHandler.EvictIdentity)
	admin.GET("/listener/status", cfg.AdminHandler.ListenerStatus)

	return router
}
