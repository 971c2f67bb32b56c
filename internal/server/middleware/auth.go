// Package middleware holds the HTTP middleware of the admin API.
package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"nextstep/internal/apperr"
)

// RoleAdmin is the role claim required by the admin routes.
const RoleAdmin = "admin"

// localsClaimsKey stores the verified claims on the fiber context.
const localsClaimsKey = "claims"

// Claims are the platform's access token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewAdminToken signs an HS256 admin token; used by the CLI and tests.
func NewAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireAdmin rejects requests without a valid admin bearer token. An empty
// secret disables the check.
func RequireAdmin(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, "missing bearer token")
		}
		claims, err := parseToken(secret, parts[1])
		if err != nil {
			return unauthorized(c, "invalid token")
		}
		if claims.Role != RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(apperr.Response{Success: false, Error: "admin role required"})
		}
		c.Locals(localsClaimsKey, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims verified by RequireAdmin, if any.
func ClaimsFrom(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(localsClaimsKey).(*Claims)
	return claims, ok
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(apperr.Response{Success: false, Error: msg})
}
