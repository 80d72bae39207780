package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/handler"
	"github.com/iliyamo/nightclub-reservation/internal/middleware"
)

// RegisterBooking registers the reservation wizard, the confirmation and
// payment endpoints and guest-list registration.  No account is needed:
// drafts and reservations are addressed by id.  Submission is limited per
// draft; VIP codes and guest-list registration per client.
func RegisterBooking(e *echo.Echo, w *handler.WizardHandler, r *handler.ReservationHandler, gl *handler.GuestListHandler, s Shared) {
	g := e.Group("/v1",
		middleware.OptionalAuth(s.JWTSecret),
		s.Limits.Browse(),
	)

	// ---- Wizard ----
	g.POST("/drafts", w.Start)
	g.GET("/drafts/:id", w.Get)
	g.PUT("/drafts/:id/date", w.SelectDate)
	g.PUT("/drafts/:id/mesa", w.SelectMesa)
	g.PUT("/drafts/:id/vip-code", w.ApplyVip, s.Limits.Write("vip", middleware.ClientKey))
	g.PUT("/drafts/:id/products", w.SetProducts)
	g.PUT("/drafts/:id/details", w.SetDetails)
	g.POST("/drafts/:id/next", w.Next)
	g.POST("/drafts/:id/back", w.Back)
	g.POST("/drafts/:id/submit", w.Submit, s.Limits.Write("submit", middleware.DraftKey))
	g.DELETE("/drafts/:id", w.Abandon)

	// ---- Reservations ----
	g.GET("/reservations/:id", r.Get)
	g.POST("/reservations/:id/checkout", r.Checkout)
	g.GET("/checkout/verify", r.Verify)

	// ---- Guest list ----
	g.POST("/guest-list", gl.Register, s.Limits.Write("guest-list", middleware.ClientKey))
}
