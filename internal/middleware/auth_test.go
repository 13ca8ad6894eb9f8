package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-ticketing/internal/config"
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

const secret = "test-secret"

func serve(t *testing.T, authHeader string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/whoami", func(c echo.Context) error {
		id, _ := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"user_id": id, "role": Role(c)})
	}, mw...)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, userID uint64, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, ttl)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuth(t *testing.T) {
	rec := serve(t, bearer(t, 42, utils.RoleBuyer, time.Hour), JWTAuth(secret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"BUYER"}`, rec.Body.String())
}

func TestJWTAuth_Rejects(t *testing.T) {
	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "42", "role": "ADMIN", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString([]byte(secret))
	require.NoError(t, err)

	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	wrongKey, err := utils.NewAccessToken("other", 42, utils.RoleAdmin, time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":    "",
		"not bearer": "Basic Zm9vOmJhcg==",
		"expired":    bearer(t, 42, utils.RoleBuyer, -time.Minute),
		"wrong key":  "Bearer " + wrongKey.Token,
		"alg none":   "Bearer " + noneToken,
		"no exp":     "Bearer " + noExp,
		"bad sub":    "Bearer " + badSub,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, header, JWTAuth(secret))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	rec := serve(t, bearer(t, 1, utils.RoleFinance, time.Hour), JWTAuth(secret), RequireRole(utils.RoleFinance, utils.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, bearer(t, 1, utils.RoleBuyer, time.Hour), JWTAuth(secret), RequireRole(utils.RoleFinance, utils.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())

	rec = serve(t, "", RequireRole(utils.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCacheEntryEncoding(t *testing.T) {
	bs := encodeEntry("application/json; charset=UTF-8", []byte(`{"a":1}`))
	ct, body, ok := decodeEntry(bs)
	require.True(t, ok)
	assert.Equal(t, "application/json; charset=UTF-8", ct)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, ok = decodeEntry([]byte{0x00})
	assert.False(t, ok)
	_, _, ok = decodeEntry([]byte{0x00, 0x09, 'a'})
	assert.False(t, ok)
}

func TestBucketKey(t *testing.T) {
	e := echo.New()
	newCtx := func(path string, params ...string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath(path)
		if len(params) > 0 {
			c.SetParamNames("id")
			c.SetParamValues(params...)
		}
		c.Set(CtxUserID, uint64(7))
		return c
	}
	cfg := config.RateLimitConfig{Prefix: "rl"}

	assert.Equal(t, "rl:user:7:session:3", bucketKey(cfg, newCtx("/v1/sessions/:id/locks", "3")))
	assert.Equal(t, "rl:user:7", bucketKey(cfg, newCtx("/v1/gate/admit")))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.9", bucketKey(cfg, newCtx("/v1/gate/admit")))
	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:7:route:POST /v1/gate/admit", bucketKey(cfg, newCtx("/v1/gate/admit")))
}
