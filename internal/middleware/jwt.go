package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id" // uint64
	CtxRole   = "role"    // string
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and role claims into the request context.
// Tokens are issued by an external identity provider sharing secret; the
// subject must be a numeric user ID.  Handlers read the values with
// UserID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			sub, err := claims.GetSubject()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			uid, err := strconv.ParseUint(sub, 10, 64)
			if err != nil || uid == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			role, _ := claims["role"].(string)

			c.Set(CtxUserID, uid)
			c.Set(CtxRole, role)
			return next(c)
		}
	}
}
