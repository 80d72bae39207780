package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/repository"
	"github.com/iliyamo/nightclub-reservation/internal/service"
)

// respondError maps service and repository errors to HTTP responses.
// Validation problems carry the offending field; storage and payment
// failures are flagged retryable so clients can resubmit the same draft or
// reservation.
func respondError(c echo.Context, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, service.ErrAvailabilityConflict),
		errors.Is(err, service.ErrGuestListFull),
		errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, service.ErrGuestListNotFound),
		errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSubmitInFlight):
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrVipCode):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error(), "field": "vip_code"})
	case errors.Is(err, service.ErrPersistence):
		c.Logger().Warnf("storage failure: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable, try again", "retryable": true})
	case errors.Is(err, service.ErrPaymentService):
		c.Logger().Warnf("payment failure: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment service unavailable, try again", "retryable": true})
	}
	c.Logger().Errorf("unhandled error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func unprocessable(c echo.Context, field, msg string) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": msg, "field": field})
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
