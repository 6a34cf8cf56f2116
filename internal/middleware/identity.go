// Package middleware provides shared request processing: identity
// resolution from access tokens, the level-based authorization gate, and
// the Redis-backed rate limiter and response cache.
package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/gtarallo/assistenza-tecnica/internal/policy"
)

// AuthIdentity is the resolved caller injected into the request context by
// ResolveIdentity.  Handlers and the gate consume it explicitly via
// CurrentIdentity instead of reaching into ambient session state.
type AuthIdentity struct {
	ID     uint64
	Handle string
	Level  policy.Level
}

const identityKey = "identity"

// ResolveIdentity parses a Bearer access token if one is present and stores
// the resulting AuthIdentity in the context.  It deliberately never rejects
// a request: a missing, expired or tampered token simply leaves the context
// without an identity, and the gate fails closed downstream.  This keeps
// the deny decision (and its auditing) in exactly one place.
func ResolveIdentity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return next(c)
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return next(c)
			}

			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return next(c)
			}
			handle, _ := claims["handle"].(string)
			lvl, _ := claims["lvl"].(float64)

			c.Set(identityKey, &AuthIdentity{
				ID:     uint64(sub),
				Handle: handle,
				Level:  policy.Normalize(int(lvl)),
			})
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity resolved for this request, or nil
// when the caller is unauthenticated.
func CurrentIdentity(c echo.Context) *AuthIdentity {
	if v, ok := c.Get(identityKey).(*AuthIdentity); ok {
		return v
	}
	return nil
}
