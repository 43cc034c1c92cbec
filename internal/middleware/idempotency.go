package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/contextutil"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderIdempotentHit  = "Idempotent-Replay"

	idempotencyCacheKey = "idempotency_cache_key"
	idempotencyLockKey  = "idempotency_lock_key"

	IdempotencyLockTTL  = 30 * time.Second
	IdempotencyCacheTTL = 24 * time.Hour
)

// Idempotency replays the stored result of a POST carrying the same
// Idempotency-Key from the same user. A concurrent duplicate gets 409 while
// the first request holds the lock. The handler stores its result with
// StoreIdempotentResult and releases the lock with ReleaseIdempotencyLock.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader(HeaderIdempotencyKey)
		if rdb == nil || idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := contextutil.GetLogger(ctx, zap.L()).Named("middleware.idempotency")

		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), c.GetString(ContextUserID), idempKey)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached json.RawMessage
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
				log.Debug("idempotent replay", zap.String("key", idempKey))
				c.Header(HeaderIdempotentHit, "true")
				response.Success(c, http.StatusOK, cached, nil)
				c.Abort()
				return
			}
		} else if err != redis.Nil {
			log.Warn("idempotency cache read failed", zap.Error(err))
		}

		isNew, err := rdb.SetNX(ctx, lockKey, "locked", IdempotencyLockTTL).Result()
		if err != nil {
			log.Warn("idempotency lock failed, continuing without it", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Abort(c, http.StatusConflict, apperror.CodeConflict, "A request with this Idempotency-Key is still being processed")
			return
		}

		c.Set(idempotencyCacheKey, cacheKey)
		c.Set(idempotencyLockKey, lockKey)

		c.Next()
	}
}

// StoreIdempotentResult caches payload under the request's idempotency key.
// It is a no-op when the request carried no key.
func StoreIdempotentResult(c *gin.Context, rdb *redis.Client, payload any) {
	cacheKey := c.GetString(idempotencyCacheKey)
	if rdb == nil || cacheKey == "" {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := rdb.Set(c.Request.Context(), cacheKey, data, IdempotencyCacheTTL).Err(); err != nil {
		contextutil.GetLogger(c.Request.Context(), zap.L()).Warn("idempotency cache write failed", zap.Error(err))
	}
}

func ReleaseIdempotencyLock(c *gin.Context, rdb *redis.Client) {
	lockKey := c.GetString(idempotencyLockKey)
	if rdb == nil || lockKey == "" {
		return
	}
	_ = rdb.Del(context.WithoutCancel(c.Request.Context()), lockKey).Err()
}
