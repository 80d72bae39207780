package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/service"
)

// GuestListHandler serves free-entry registration and the door view.
type GuestListHandler struct {
	Registrar *service.Registrar
	Rules     *service.Rules
}

type guestRegisterReq struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Date       string   `json:"date"`
	Companions []string `json:"companions"`
}

// Register adds the caller and their companions to a night's list.
func (h *GuestListHandler) Register(c echo.Context) error {
	var req guestRegisterReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	e, err := h.Registrar.Register(c.Request().Context(), service.GuestRegistration{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Date:       req.Date,
		Companions: req.Companions,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// Summary lists ?date= (default today) against the daily limit.
func (h *GuestListHandler) Summary(c echo.Context) error {
	date := h.Rules.Today()
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return unprocessable(c, "date", err.Error())
		}
		date = d
	}
	s, err := h.Registrar.Summary(c.Request().Context(), date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// CheckIn marks an entry as arrived.
func (h *GuestListHandler) CheckIn(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	e, err := h.Registrar.CheckIn(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Delete removes an entry.
func (h *GuestListHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.Registrar.Remove(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
