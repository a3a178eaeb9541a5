package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumex/internal/api/middleware"
	"resumex/internal/auth"
	"resumex/internal/progress"
)

// RouteDeps 汇总路由注册需要的依赖。
type RouteDeps struct {
	DB               *gorm.DB
	AsynqClient      *asynq.Client
	AuthService      *auth.AuthService
	RedisClient      *redis.Client
	Logger           *slog.Logger
	Storage          ObjectStore
	ProgressStore    *progress.Store
	PDFRenderer      PDFRenderer
	ClamdAddr        string
	MaxUploadSize    int64
	WsAllowedOrigins []string
}

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, deps RouteDeps) {
	authHandler := NewAuthHandler(deps.DB, deps.AuthService, deps.RedisClient, deps.Logger)
	uploadHandler := NewUploadHandler(deps.DB, deps.AsynqClient, deps.Storage, deps.ProgressStore,
		deps.Logger, deps.ClamdAddr, deps.MaxUploadSize)
	progressHandler := NewProgressHandler(deps.ProgressStore)
	historyHandler := NewHistoryHandler(deps.DB, deps.Storage)
	exportHandler := NewExportHandler(deps.DB, deps.AsynqClient, deps.Storage, deps.PDFRenderer)
	wsHandler := NewWsHandler(deps.RedisClient, deps.AuthService, deps.Logger, deps.WsAllowedOrigins)
	authMiddleware := middleware.AuthMiddleware(deps.AuthService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
		}

		resumeGroup := v1.Group("/resume")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("/upload", uploadHandler.Upload)
			resumeGroup.POST("/upload-multiple", uploadHandler.UploadMultiple)
			resumeGroup.GET("/progress/:task_id", progressHandler.GetProgress)

			resumeGroup.POST("/export/docx", exportHandler.ExportDOCX)
			resumeGroup.POST("/export/pdf", exportHandler.ExportPDF)

			resumeGroup.GET("/history", historyHandler.List)
			resumeGroup.GET("/history/:id", historyHandler.Get)
			resumeGroup.DELETE("/history/:id", historyHandler.Delete)
			resumeGroup.GET("/history/:id/export/pdf", exportHandler.EnqueuePDF)
			resumeGroup.GET("/history/:id/download-link", exportHandler.GetDownloadLink)
		}
	}
}
