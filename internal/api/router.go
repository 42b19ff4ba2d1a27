package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ezhost/panel/internal/middleware"
	"github.com/ezhost/panel/pkg/config"
)

func SetupRouter(
	handler *Handler,
	consoleHandler *ConsoleHandler,
	systemHandler *SystemHandler,
	cfg *config.Config,
) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (in order)
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimiter))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	// Diagnostics (no rate-limit exemption needed at desktop scale)
	router.GET("/health", systemHandler.Health)
	router.HEAD("/health", systemHandler.Health)
	router.GET("/live", systemHandler.Liveness)
	router.GET("/ready", systemHandler.Readiness)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/ws", systemHandler.HandleWebSocket)
	router.GET("/events", systemHandler.Events)
	router.GET("/ip-address", systemHandler.IPAddress)

	servers := router.Group("/servers")
	{
		servers.GET("", handler.ListServers)
		servers.POST("", handler.CreateServer)
		servers.POST("/check-status", handler.CheckStatus)

		servers.GET("/:id", handler.GetServer)
		servers.PUT("/:id", handler.UpdateServer)
		servers.DELETE("/:id", handler.DeleteServer)

		servers.POST("/:id/initServer", handler.InitServer)
		servers.POST("/:id/start", handler.StartServer)
		servers.POST("/:id/save", handler.SaveServer)
		servers.POST("/:id/stop", handler.StopServer)
		servers.POST("/:id/restart", handler.RestartServer)

		servers.GET("/:id/properties", handler.GetProperties)
		servers.PUT("/:id/properties", handler.UpdateProperties)
		servers.GET("/:id/ram", handler.GetRAM)
		servers.PUT("/:id/ram", handler.SetRAM)

		servers.POST("/:id/rcon", consoleHandler.ExecuteCommand)
		servers.GET("/:id/players", consoleHandler.GetPlayers)
		servers.POST("/:id/player/:name/op", consoleHandler.SetOperator)
	}

	return router
}
