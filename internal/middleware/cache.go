package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/logger"
)

// cachedResponse is the value stored per cache key.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// teeWriter keeps a copy of the body while it streams to the client.  Once
// the body grows past max the copy is dropped and overflow is set.
type teeWriter struct {
	http.ResponseWriter
	body     bytes.Buffer
	max      int
	overflow bool
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.max > 0 && w.body.Len()+len(b) > w.max {
			w.overflow = true
			w.body.Reset()
		} else {
			w.body.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func responseCacheKey(prefix string, r *http.Request) string {
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache caches 200 responses of the GET routes it wraps.  It is only
// mounted on catalog reads, which may be stale for one TTL; seat occupancy
// is never served from cache.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}
			ctx := req.Context()
			key := responseCacheKey(cfg.Prefix, req)

			if hit, ok := loadCached(ctx, rdb, key); ok {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(hit.Status, hit.ContentType, hit.Body)
			}

			tw := &teeWriter{ResponseWriter: c.Response().Writer, max: cfg.MaxBodyBytes}
			c.Response().Writer = tw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status != http.StatusOK || tw.overflow {
				return nil
			}
			bs, err := json.Marshal(cachedResponse{
				Status:      http.StatusOK,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        tw.body.Bytes(),
			})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, bs, cfg.TTL).Err(); err != nil {
				logger.WithContext(ctx).Warn("response cache write failed", "key", key, "error", err)
			}
			return nil
		}
	}
}

func loadCached(ctx context.Context, rdb *redis.Client, key string) (cachedResponse, bool) {
	var cr cachedResponse
	bs, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithContext(ctx).Warn("response cache read failed", "key", key, "error", err)
		}
		return cr, false
	}
	if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
		return cr, false
	}
	return cr, true
}
