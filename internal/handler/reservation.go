package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/service"
)

// ReservationHandler serves the confirmation view and the payment flow of
// a submitted reservation.
type ReservationHandler struct {
	Coordinator *service.CheckoutCoordinator
}

// Get returns a reservation with its items and payment status.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	res, err := h.Coordinator.Reservation(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Checkout opens a payment session.  Calling it again after a failed or
// expired attempt opens a fresh one.
func (h *ReservationHandler) Checkout(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	sess, err := h.Coordinator.CreateSession(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// Verify is the return URL of the payment page: ?session_id= is looked up
// and the reservation updated with the outcome.
func (h *ReservationHandler) Verify(c echo.Context) error {
	res, err := h.Coordinator.VerifySession(c.Request().Context(), c.QueryParam("session_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
