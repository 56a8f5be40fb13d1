package api

import (
	"github.com/gin-gonic/gin"
	"github.com/marketops/leadbridge/internal/api/handler"
	"github.com/marketops/leadbridge/internal/api/middleware"
	"github.com/marketops/leadbridge/internal/config"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(processor handler.DeliveryProcessor, cfg *config.Config) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler()
	webhookHandler := handler.NewWebhookHandler(processor, cfg.Meta.AppSecret, cfg.Meta.VerifyToken)

	r.GET("/health", healthHandler.Health)

	webhooks := r.Group("/webhooks")
	{
		webhooks.GET("/meta", webhookHandler.Verify)
		webhooks.POST("/meta", webhookHandler.Receive)
	}

	return r
}
