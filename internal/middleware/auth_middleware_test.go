package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/contextutil"
	"github.com/ANDREW-SIGEI/kemri27/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newAuthRouter(tokens token.Service, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{middleware.AuthMiddleware(tokens)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{
			"id":      actor.ID,
			"role":    actor.Role,
			"ctxUser": contextutil.GetUserID(c.Request.Context()),
		})
	})
	r.GET("/private", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := token.NewService("secret", time.Hour)

	t.Run("missing token is 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		newAuthRouter(tokens).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		env := decode(t, w)
		assert.False(t, env.Ok)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})

	t.Run("non bearer scheme is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		newAuthRouter(tokens).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered token is 403", func(t *testing.T) {
		tok, err := token.NewService("other-secret", time.Hour).Issue("u-1", domain.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		newAuthRouter(tokens).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "INVALID_TOKEN", decode(t, w).Error.Code)
	})

	t.Run("expired token is 403", func(t *testing.T) {
		expired := token.NewService("secret", -time.Minute)
		tok, err := expired.Issue("u-1", domain.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		newAuthRouter(tokens).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "TOKEN_EXPIRED", decode(t, w).Error.Code)
	})

	t.Run("valid token sets the actor", func(t *testing.T) {
		tok, err := tokens.Issue("u-1", domain.RoleAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		newAuthRouter(tokens).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "u-1", body["id"])
		assert.Equal(t, "ADMIN", body["role"])
		assert.Equal(t, "u-1", body["ctxUser"])
	})
}

func TestRoleMiddleware(t *testing.T) {
	tokens := token.NewService("secret", time.Hour)
	router := newAuthRouter(tokens, middleware.RoleMiddleware(domain.RoleAdmin))

	call := func(role domain.Role) int {
		tok, err := tokens.Issue("u-1", role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(domain.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, call(domain.RoleUser))
	assert.Equal(t, http.StatusForbidden, call(domain.RoleManager))
}
