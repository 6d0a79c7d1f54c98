package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires every route onto a fresh gin engine
func NewRouter(logger *zap.Logger, h *Handler, hub *Hub, origins *OriginPolicy) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(CORSMiddleware(logger, origins))

	// Health check
	router.GET("/health", h.Health)

	// API routes
	api := router.Group("/api")
	{
		api.GET("/state", h.GetState)
		api.PUT("/page", h.SetPage)
		api.POST("/sidebar/toggle", h.ToggleSidebar)
		api.PUT("/sidebar", h.SetSidebar)
		api.PUT("/theme", h.SetTheme)

		// Device routes
		devices := api.Group("/devices")
		{
			devices.GET("", h.GetDevices)
			devices.POST("/refresh", h.RefreshDevices)
			devices.PUT("/selected", h.SelectDevice)
			devices.POST("/connect", h.ConnectDevice)
			devices.POST("/:id/disconnect", h.DisconnectDevice)
		}

		// Config routes
		config := api.Group("/config")
		{
			config.GET("", h.GetConfig)
			config.PATCH("", h.PatchConfig)
			config.POST("/reset", h.ResetConfig)
		}

		// Profile routes
		profiles := api.Group("/profiles")
		{
			profiles.GET("", h.GetProfiles)
			profiles.POST("", h.CreateProfile)
			profiles.PATCH("/:id", h.UpdateProfile)
			profiles.DELETE("/:id", h.DeleteProfile)
			profiles.POST("/:id/apply", h.ApplyProfile)
		}

		// Session routes
		mirroring := api.Group("/mirroring")
		{
			mirroring.POST("/start", h.StartMirroring)
			mirroring.POST("/stop", h.StopMirroring)
			mirroring.POST("/record", h.StartRecording)
		}
		api.POST("/screenshot", h.TakeScreenshot)

		// Notification routes
		api.DELETE("/notifications/:id", h.DismissNotification)
		api.DELETE("/notifications", h.ClearNotifications)

		api.GET("/locale", h.GetLocale)
		api.PUT("/locale", h.SetLocale)
		api.GET("/display", h.GetDisplay)
	}

	// WebSocket route
	router.GET("/ws", hub.HandleWebSocket)

	return router
}

// RequestLogger logs every request through zap
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if status >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Debug("HTTP request", fields...)
	}
}
