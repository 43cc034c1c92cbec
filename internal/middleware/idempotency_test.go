package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ANDREW-SIGEI/kemri27/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

const (
	idempCacheKey = "idemp:/documents:u-1:key-1"
	idempLockKey  = idempCacheKey + ":lock"
)

func newIdempotencyRouter(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, redismock.ClientMock) {
	gin.SetMode(gin.TestMode)
	rdb, mock := redismock.NewClientMock()

	r := gin.New()
	r.POST("/documents",
		func(c *gin.Context) { c.Set(middleware.ContextUserID, "u-1"); c.Next() },
		middleware.Idempotency(rdb),
		func(c *gin.Context) {
			defer middleware.ReleaseIdempotencyLock(c, rdb)
			handler(c)
			middleware.StoreIdempotentResult(c, rdb, gin.H{"id": "doc-1"})
		},
	)
	return r, mock
}

func TestIdempotency(t *testing.T) {
	t.Run("replays cached result", func(t *testing.T) {
		called := false
		r, mock := newIdempotencyRouter(t, func(c *gin.Context) { called = true })
		mock.ExpectGet(idempCacheKey).SetVal(`{"id":"doc-1"}`)

		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get(middleware.HeaderIdempotentHit))
		assert.Contains(t, w.Body.String(), `"doc-1"`)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent duplicate is 409", func(t *testing.T) {
		r, mock := newIdempotencyRouter(t, func(c *gin.Context) {})
		mock.ExpectGet(idempCacheKey).RedisNil()
		mock.ExpectSetNX(idempLockKey, "locked", middleware.IdempotencyLockTTL).SetVal(false)

		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first request runs handler and stores result", func(t *testing.T) {
		r, mock := newIdempotencyRouter(t, func(c *gin.Context) { c.Status(http.StatusCreated) })
		mock.ExpectGet(idempCacheKey).RedisNil()
		mock.ExpectSetNX(idempLockKey, "locked", middleware.IdempotencyLockTTL).SetVal(true)
		mock.ExpectSet(idempCacheKey, []byte(`{"id":"doc-1"}`), middleware.IdempotencyCacheTTL).SetVal("OK")
		mock.ExpectDel(idempLockKey).SetVal(1)

		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without key the middleware is transparent", func(t *testing.T) {
		called := false
		r, mock := newIdempotencyRouter(t, func(c *gin.Context) { called = true; c.Status(http.StatusCreated) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/documents", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock error falls through to handler", func(t *testing.T) {
		called := false
		r, mock := newIdempotencyRouter(t, func(c *gin.Context) { called = true })
		mock.ExpectGet(idempCacheKey).RedisNil()
		mock.ExpectSetNX(idempLockKey, "locked", middleware.IdempotencyLockTTL).SetErr(errors.New("redis down"))

		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.True(t, called)
	})
}
