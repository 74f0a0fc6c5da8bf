package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avallone/convertd/api/handlers"
	"github.com/avallone/convertd/api/middleware"
)

// SetupRoutes wires all endpoints onto the engine.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1.POST("/convert", h.Conversion.Convert)
	v1.POST("/probe", h.Conversion.Probe)
	v1.GET("/formats", h.Conversion.Formats)

	sessions := v1.Group("/sessions")
	{
		sessions.GET("/:sessionId/files/:filename", h.Conversion.DownloadFile)
		sessions.GET("/:sessionId/archive", h.Conversion.DownloadArchive)
		sessions.DELETE("/:sessionId", h.Conversion.ClearSession)
	}

	history := v1.Group("/history")
	{
		history.GET("", h.History.List)
		history.POST("/delete", h.History.DeleteBatch)
		history.DELETE("/sessions/:sessionId", h.History.DeleteSession)
		history.DELETE("/sessions/:sessionId/files/:filename", h.History.DeleteFile)
	}
}
