package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/traceline/traceline/pkg/sdk"
	"github.com/traceline/traceline/pkg/utils"

	health_module "github.com/traceline/traceline/internal/api/modules/health"
	session_module "github.com/traceline/traceline/internal/api/modules/session"
)

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(noRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	session_module.RegisterRoutes(baseGroup)
	if err := session_module.Init(cfg); err != nil {
		log.Fatal("[API-MAIN]: Failed to initialize session module: ", err)
	}

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}

// noRouteHandler responds to unknown paths with the standard error envelope
func noRouteHandler(c *gin.Context) {
	c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Route not found", nil).AsGinResponse())
}
