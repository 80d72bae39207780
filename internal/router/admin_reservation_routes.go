package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/handler"
	"github.com/iliyamo/nightclub-reservation/internal/middleware"
	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// RegisterAdminReservations registers booking moderation and the door
// view of the guest list.  Staff may read the list and check guests in;
// everything else is admin only.
func RegisterAdminReservations(e *echo.Echo, a *handler.AdminHandler, gl *handler.GuestListHandler, s Shared) {
	g := e.Group("/v1/admin", middleware.JWTAuth(s.JWTSecret))
	admin := middleware.RequireRole(model.RoleAdmin)
	door := middleware.RequireRole(model.RoleStaff, model.RoleAdmin)

	g.GET("/reservations", a.ListReservations, admin)
	g.PATCH("/reservations/:id/status", a.UpdateReservationStatus, admin)
	g.DELETE("/reservations/:id", a.DeleteReservation, admin)

	g.GET("/guest-list", gl.Summary, door)
	g.POST("/guest-list/:id/check-in", gl.CheckIn, door)
	g.DELETE("/guest-list/:id", gl.Delete, admin)
}
