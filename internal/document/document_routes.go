package document

import (
	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"
	"github.com/ANDREW-SIGEI/kemri27/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, tokens token.Service, rdb *redis.Client) {
	docs := r.Group("/documents")
	docs.Use(middleware.AuthMiddleware(tokens), middleware.RateLimitByUser(10, 30))
	{
		docs.POST("", middleware.Idempotency(rdb), handler.Create)
		docs.GET("", handler.List)
		docs.GET("/stats", handler.Stats)
		docs.GET("/:id", handler.GetByID)
		docs.PATCH("/:id/status", handler.UpdateStatus)
		docs.DELETE("/:id", handler.Delete)
		docs.GET("/:id/attachments/:attachmentId", handler.DownloadAttachment)
	}
}
