package middleware

// identity.go holds the accessors for the caller identity stored by
// JWTAuth.  They are shared by handlers, the rate limiter and the
// request logger.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user ID, or false on public routes.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated role, or "" on public routes.
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// userKey identifies the caller in rate-limit keys and logs.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
