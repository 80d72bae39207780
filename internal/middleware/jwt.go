// Package middleware holds the Echo middleware shared by the routers:
// token authentication, role checks, the Redis token-bucket rate limiter
// and the Redis response cache for catalogue reads.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/service"
)

const sessionKey = "session"

var errBadClaims = errors.New("invalid claims")

// JWTAuth requires a valid Bearer access token and stores the caller's
// session in the context.  The secret must match the one used when
// issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			s, err := parseToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			setSession(c, s)
			return next(c)
		}
	}
}

// OptionalAuth attaches the caller's session when a valid Bearer token is
// present and a guest session otherwise.  Public booking routes use it so
// signed-in customers are recognised without requiring a login.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := service.GuestSession()
			if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				if parsed, err := parseToken(secret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
					s = parsed
				}
			}
			setSession(c, s)
			return next(c)
		}
	}
}

// SessionFromContext returns the session stored by JWTAuth or
// OptionalAuth, or a guest session.
func SessionFromContext(c echo.Context) service.Session {
	if s, ok := c.Get(sessionKey).(service.Session); ok {
		return s
	}
	return service.GuestSession()
}

func setSession(c echo.Context, s service.Session) {
	c.Set(sessionKey, s)
	c.Set("user_id", strconv.FormatUint(s.UserID, 10))
	c.Set("role", string(s.Role))
}

func parseToken(secret, raw string) (service.Session, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return service.Session{}, echo.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return service.Session{}, errBadClaims
	}
	var uid uint64
	switch v := claims["sub"].(type) {
	case float64:
		uid = uint64(v)
	case string:
		uid, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return service.Session{}, errBadClaims
		}
	default:
		return service.Session{}, errBadClaims
	}
	role, _ := claims["role"].(string)
	return service.Session{UserID: uid, Role: model.ParseRole(role)}, nil
}
