package api

import (
	"github.com/gin-gonic/gin"
	"github.com/solthius/episode-manager/internal/service"
)

// Handlers 聚合各 handler 共享的依赖，由 main 注入
type Handlers struct {
	Manager *service.Manager
	LLM     *service.LLMService
}

func InitRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		// Rename workflow
		apiGroup.POST("/preview", h.PreviewHandler)
		apiGroup.POST("/rename", h.RenameHandler)
		apiGroup.GET("/runs/:id", h.RunStatusHandler)
		apiGroup.POST("/runs/:id/cancel", h.CancelRunHandler)

		// Restore workflow
		apiGroup.GET("/backup", h.PeekBackupHandler)
		apiGroup.POST("/restore", h.RestoreHandler)
		apiGroup.DELETE("/backup", h.DeleteBackupHandler)

		// Recent directories
		apiGroup.GET("/recent", h.RecentHandler)

		// History
		apiGroup.GET("/history", h.HistoryHandler)
		apiGroup.GET("/history/:id/records", h.HistoryRecordsHandler)
		apiGroup.GET("/history/stats", h.HistoryStatsHandler)

		// LLM assist
		apiGroup.GET("/llm/status", h.LLMStatusHandler)
		apiGroup.POST("/llm/detect", h.LLMDetectHandler)
		apiGroup.POST("/llm/model", h.LLMSetModelHandler)

		// Patterns (for the pattern selector)
		apiGroup.GET("/patterns", h.PatternsHandler)

		// Progress stream
		apiGroup.GET("/events", SSEHandler)
	}
}
