package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"
)

// CorrelationIDHeader is echoed back on every response.
const CorrelationIDHeader = "Correlation-ID"

// RequestLogger logs one line per request with a correlation ID taken from
// the request header or freshly generated.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			cid := req.Header.Get(CorrelationIDHeader)
			if cid == "" {
				cid = shortuuid.New()
			}
			c.Response().Header().Set(CorrelationIDHeader, cid)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry := logrus.WithFields(logrus.Fields{
				"correlation_id": cid,
				"method":         req.Method,
				"path":           c.Path(),
				"uri":            req.RequestURI,
				"status":         c.Response().Status,
				"latency_ms":     time.Since(start).Milliseconds(),
				"user":           userKey(c),
			})
			switch status := c.Response().Status; {
			case status >= 500:
				entry.WithError(err).Error("request failed")
			case status >= 400:
				entry.Info("request rejected")
			default:
				entry.Debug("request served")
			}
			return nil
		}
	}
}
