package user

import (
	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"
	"github.com/ANDREW-SIGEI/kemri27/internal/token"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, tokens token.Service) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware(tokens), middleware.RateLimitByUser(10, 20))
	{
		users.GET("", middleware.RoleMiddleware(domain.RoleAdmin), handler.GetAll)
		users.GET("/:id", handler.GetByID)
		users.PUT("/:id", handler.Update)
		users.PATCH("/:id/password", handler.ChangePassword)
	}
}
