package utils // package utils provides helpers for tokens, ticket codes and QR images

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the "role" claim.  Authorization is decided once at
// the HTTP boundary; the ticketing core never looks at roles.
const (
	RoleBuyer       = "BUYER"
	RoleFinance     = "FINANCE"
	RoleGateOfficer = "GATE_OFFICER"
	RoleAdmin       = "ADMIN"
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  Identity is
// managed by an external provider in production; this is used by the dev
// token tool and by tests.  The JWT carries sub, role, exp and iat.
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
