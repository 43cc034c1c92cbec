package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ANDREW-SIGEI/kemri27/internal/auth"
	autherrors "github.com/ANDREW-SIGEI/kemri27/internal/auth/errors"
	authMock "github.com/ANDREW-SIGEI/kemri27/internal/auth/mock"
	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"
	"github.com/ANDREW-SIGEI/kemri27/internal/user"
	usererrors "github.com/ANDREW-SIGEI/kemri27/internal/user/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func setupAuthRouter(h *auth.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/me", func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(middleware.ContextUserID, uid)
			c.Set(middleware.ContextRole, "USER")
		}
		c.Next()
	}, h.Me)
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	router := setupAuthRouter(auth.NewHandler(mockService))

	t.Run("success returns token and profile", func(t *testing.T) {
		reqBody := auth.LoginRequest{Email: "test@kemri.org", Password: "password123"}
		mockService.EXPECT().Login(gomock.Any(), reqBody).
			Return(auth.AuthResponse{Token: "tok", User: user.UserResponse{Email: "test@kemri.org"}}, nil)

		w := postJSON(router, "/login", reqBody)

		assert.Equal(t, http.StatusOK, w.Code)
		var res map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		data := res["data"].(map[string]any)
		assert.Equal(t, "tok", data["token"])
		assert.Equal(t, "test@kemri.org", data["user"].(map[string]any)["email"])
	})

	t.Run("invalid credentials is 400", func(t *testing.T) {
		mockService.EXPECT().Login(gomock.Any(), gomock.Any()).Return(auth.AuthResponse{}, autherrors.ErrInvalidCredentials)

		w := postJSON(router, "/login", auth.LoginRequest{Email: "wrong@kemri.org", Password: "123"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")
	})

	t.Run("missing password never reaches the service", func(t *testing.T) {
		w := postJSON(router, "/login", map[string]string{"email": "a@kemri.org"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})
}

func TestHandler_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	router := setupAuthRouter(auth.NewHandler(mockService))

	valid := auth.RegisterRequest{Name: "New User", Email: "new@kemri.org", Password: "newpassword"}

	t.Run("success is 201", func(t *testing.T) {
		mockService.EXPECT().Register(gomock.Any(), valid).
			Return(auth.AuthResponse{Token: "tok", User: user.UserResponse{Email: valid.Email}}, nil)

		w := postJSON(router, "/register", valid)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		w := postJSON(router, "/register", map[string]string{"email": "invalid-email", "name": ""})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("email already exists", func(t *testing.T) {
		mockService.EXPECT().Register(gomock.Any(), gomock.Any()).Return(auth.AuthResponse{}, usererrors.ErrEmailAlreadyRegistered)

		w := postJSON(router, "/register", valid)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "CONFLICT")
	})
}

func TestHandler_Me(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	router := setupAuthRouter(auth.NewHandler(mockService))

	t.Run("returns the caller", func(t *testing.T) {
		mockService.EXPECT().Me(gomock.Any(), "u-1").Return(user.UserResponse{ID: "u-1"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("X-Test-User", "u-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no actor is 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
