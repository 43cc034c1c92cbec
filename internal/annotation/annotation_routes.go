package annotation

import (
	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"
	"github.com/ANDREW-SIGEI/kemri27/internal/token"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, tokens token.Service) {
	notes := r.Group("/documents/:id/annotations")
	notes.Use(middleware.AuthMiddleware(tokens))
	{
		notes.GET("", handler.List)
		notes.POST("", handler.Create)
		notes.DELETE("/:annotationId", handler.Delete)
	}
}
