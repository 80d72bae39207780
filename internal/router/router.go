// Package router registers the HTTP routes of the API and attaches the
// middleware each group needs.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/handler"
	"github.com/iliyamo/nightclub-reservation/internal/middleware"
	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// Shared carries what several route groups need for their middleware.  A
// nil RDB turns caching into a no-op and a nil Limits disables rate
// limiting.
type Shared struct {
	JWTSecret string
	RDB       *redis.Client
	Cache     config.CacheConfig
	Limits    *middleware.RateLimiter
}

// RegisterRoutes registers routes that do not require authentication and
// are not rate limited.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers authentication routes.  Register, login and
// refresh need no session; logout accepts either a refresh token or an
// access token; /v1/me requires a signed-in user.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, s Shared) {
	g := e.Group("/v1/auth", middleware.OptionalAuth(s.JWTSecret), s.Limits.Browse())
	g.POST("/register", a.Register, s.Limits.Write("register", middleware.ClientKey))
	g.POST("/login", a.Login, s.Limits.Write("login", middleware.ClientKey))
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(s.JWTSecret),
		middleware.RequireRole(model.RoleRegular, model.RoleVIP, model.RoleStaff, model.RoleAdmin),
	)
	auth.GET("/me", a.Me)

	e.POST("/v1/logout", a.Logout, middleware.OptionalAuth(s.JWTSecret))
}

// RegisterPublic registers the catalogue read endpoints.  They run for
// guests and signed-in users alike; table, product and time-slot lists are
// served from the Redis cache, availability is always recomputed.  VIP
// validation draws from the strict write bucket shared with the wizard's
// vip-code step.
func RegisterPublic(e *echo.Echo, c *handler.CatalogHandler, s Shared) {
	g := e.Group("/v1",
		middleware.OptionalAuth(s.JWTSecret),
		s.Limits.Browse(),
	)
	cache := middleware.NewRedisCache(s.Cache, s.RDB)
	g.GET("/mesas", c.ListMesas, cache)
	g.GET("/products", c.ListProducts, cache)
	g.GET("/time-slots", c.TimeSlots, cache)
	g.GET("/availability", c.Availability)
	g.POST("/vip-codes/validate", c.ValidateVip, s.Limits.Write("vip", middleware.ClientKey))
}
