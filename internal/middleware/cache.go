package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/config"
)

// captureWriter tees the response body into buf, up to limit bytes.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.truncated {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.truncated = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", r.URL.Path}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", r.URL.Path, "q", r.URL.RawQuery}
	default: // route_query
		parts = []string{"route", r.URL.Path, "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodeEntry packs [2 bytes content-type length][content-type][body].
func encodeEntry(contentType string, body []byte) []byte {
	out := make([]byte, 2+len(contentType)+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(contentType)))
	copy(out[2:], contentType)
	copy(out[2+len(contentType):], body)
	return out
}

func decodeEntry(bs []byte) (contentType string, body []byte, ok bool) {
	if len(bs) < 2 {
		return "", nil, false
	}
	n := int(binary.BigEndian.Uint16(bs))
	if 2+n > len(bs) {
		return "", nil, false
	}
	return string(bs[2 : 2+n]), bs[2+n:], true
}

// NewRedisCache caches successful responses in Redis for cfg.TTL.  The
// key is derived from the URL path (not the route pattern), so each
// session has its own entry.  Only 200 responses that fit in
// MaxBodyBytes are stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if ct, body, ok := decodeEntry(bs); ok {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(http.StatusOK, ct, body)
				}
			} else if err != redis.Nil {
				logrus.WithError(err).Warn("[cache] redis get failed")
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated {
				return nil
			}
			ct := c.Response().Header().Get(echo.HeaderContentType)
			if err := rdb.Set(context.WithoutCancel(ctx), key, encodeEntry(ct, cw.buf.Bytes()), cfg.TTL).Err(); err != nil {
				logrus.WithError(err).Warn("[cache] redis set failed")
			}
			return nil
		}
	}
}
