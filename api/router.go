package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vimeograb-go/api/handlers"
	"github.com/yourusername/vimeograb-go/api/middleware"
	"github.com/yourusername/vimeograb-go/internal/app"
	"github.com/yourusername/vimeograb-go/internal/infrastructure"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	sessionMgr *app.SessionManager,
	toolchain *infrastructure.Toolchain,
	log *zap.Logger,
	logsDir string,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(sessionMgr, toolchain)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Video information endpoint
		infoHandler := handlers.NewInfoHandler(sessionMgr, log)
		v1.POST("/info", infoHandler.FetchInfo)

		// Download endpoints
		downloadHandler := handlers.NewDownloadHandler(sessionMgr, log)
		progressHandler := handlers.NewProgressWebSocketHandler(sessionMgr, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.StartDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.GET("/:id", downloadHandler.GetDownload)
			downloads.GET("/:id/progress", progressHandler.HandleWebSocket)
			downloads.POST("/:id/cancel", downloadHandler.CancelDownload)
			downloads.DELETE("/:id", downloadHandler.DeleteDownload)
		}

		// Log endpoints
		logHandler := handlers.NewLogHandler(logsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	return router
}
