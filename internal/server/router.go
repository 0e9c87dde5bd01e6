package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/cognisync-backend/internal/handlers"
	"github.com/yungbote/cognisync-backend/internal/middleware"
	"github.com/yungbote/cognisync-backend/internal/platform/envutil"
)

type RouterConfig struct {
	ServiceName    string
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	ChatHandler    *handlers.ChatHandler
	ProfileHandler *handlers.ProfileHandler
	GraphHandler   *handlers.GraphHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if envutil.Bool("OTEL_ENABLED", false) {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	if envutil.Bool("AUTH_REQUIRED", false) {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	// Chat
	protected.POST("/chat", cfg.ChatHandler.Chat)
	protected.GET("/chat/:learnerId/history", cfg.ChatHandler.History)
	// Profile
	protected.GET("/profile/:learnerId", cfg.ProfileHandler.Get)
	protected.POST("/profile/:learnerId/override", cfg.ProfileHandler.Override)
	protected.GET("/profile/:learnerId/changes", cfg.ProfileHandler.Changes)
	// Graph
	protected.GET("/graph/:learnerId", cfg.GraphHandler.Get)
	protected.POST("/graph/:learnerId/node", cfg.GraphHandler.CreateNode)
	protected.PUT("/graph/:learnerId/node/:nodeId", cfg.GraphHandler.UpdateNode)
	protected.DELETE("/graph/:learnerId/node/:nodeId", cfg.GraphHandler.DeleteNode)
	protected.POST("/graph/:learnerId/edge", cfg.GraphHandler.CreateEdge)
	protected.DELETE("/graph/:learnerId/edge", cfg.GraphHandler.DeleteEdge)

	return router
}
