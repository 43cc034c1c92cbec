package middleware

import (
	"errors"
	"strings"

	autherrors "github.com/ANDREW-SIGEI/kemri27/internal/auth/errors"
	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/contextutil"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/response"
	"github.com/ANDREW-SIGEI/kemri27/internal/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware verifies the bearer token. A missing token is 401, a token
// that fails verification is 403.
func AuthMiddleware(tokens token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		tokenString = strings.TrimSpace(tokenString)
		if !found || tokenString == "" {
			abortWith(c, autherrors.ErrTokenMissing)
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			appErr := autherrors.ErrInvalidToken
			if errors.Is(err, token.ErrTokenExpired) {
				appErr = autherrors.ErrTokenExpired
			}
			abortWith(c, appErr)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, string(claims.Role))

		ctx := c.Request.Context()
		ctx = contextutil.WithUserID(ctx, claims.UserID)
		ctx = contextutil.WithLogger(ctx, contextutil.GetLogger(ctx, nil).With(zap.String("user_id", claims.UserID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RoleMiddleware lets the request through only for the listed roles. It
// must run after AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abortWith(c, autherrors.ErrTokenMissing)
			return
		}

		for _, role := range allowedRoles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		abortWith(c, apperror.ErrForbidden)
	}
}

// CurrentActor returns the authenticated caller set by AuthMiddleware.
func CurrentActor(c *gin.Context) (domain.Actor, bool) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		return domain.Actor{}, false
	}
	role, _ := domain.ParseRole(c.GetString(ContextRole))
	return domain.Actor{ID: userID, Role: role}, true
}

func abortWith(c *gin.Context, err *apperror.AppError) {
	response.Abort(c, err.HTTPStatus, err.Code, err.Message)
}
