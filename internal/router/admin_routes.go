package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/handler"
	"github.com/iliyamo/nightclub-reservation/internal/middleware"
	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// RegisterAdmin registers catalogue management under /v1/admin.  All
// routes require a valid JWT and the admin role; successful writes drop
// the cached catalogue responses.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, s Shared) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(s.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
		middleware.InvalidateCache(s.Cache, s.RDB),
	)

	// ---- Mesas ----
	g.GET("/mesas", a.ListMesas)
	g.POST("/mesas", a.CreateMesa)
	g.PUT("/mesas/:id", a.UpdateMesa)
	g.PATCH("/mesas/:id", a.UpdateMesa)
	g.DELETE("/mesas/:id", a.DeleteMesa)

	// ---- Products ----
	g.GET("/products", a.ListProducts)
	g.POST("/products", a.CreateProduct)
	g.PUT("/products/:id", a.UpdateProduct)
	g.PATCH("/products/:id", a.UpdateProduct)
	g.DELETE("/products/:id", a.DeleteProduct)

	// ---- VIP codes ----
	g.GET("/vip-codes", a.ListVipCodes)
	g.POST("/vip-codes", a.CreateVipCode)
	g.PUT("/vip-codes/:id", a.UpdateVipCode)
	g.PATCH("/vip-codes/:id", a.UpdateVipCode)
	g.DELETE("/vip-codes/:id", a.DeleteVipCode)
}
