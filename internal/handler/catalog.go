package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/service"
)

// CatalogHandler serves the public read side: tables, products, time
// slots, per-date availability and VIP code checks.
type CatalogHandler struct {
	Mesas    service.MesaReader
	Products service.ProductReader
	Resolver *service.AvailabilityResolver
	Vip      *service.VipValidator
	Rules    *service.Rules
}

// ListMesas returns every table ordered by tier, then name.
func (h *CatalogHandler) ListMesas(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	mesas, err := h.Mesas.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": mesas})
}

// ListProducts returns the catalogue, optionally filtered by ?category=
// (case-insensitive).
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	products, err := h.Products.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" {
		filtered := make([]model.Product, 0, len(products))
		for _, p := range products {
			if strings.EqualFold(p.Category, cat) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	return c.JSON(http.StatusOK, echo.Map{"items": products})
}

// TimeSlots lists the arrival times a reservation can pick.
func (h *CatalogHandler) TimeSlots(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": model.TimeSlots})
}

// Availability recomputes the bookable flag of every table for ?date=.
// An optional ?vip_code= unlocks gold tables when the code is usable.
func (h *CatalogHandler) Availability(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("date"))
	if raw == "" {
		return badRequest(c, "date is required")
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		return unprocessable(c, "date", err.Error())
	}
	if err := h.Rules.CheckReservationDate(date); err != nil {
		return respondError(c, err)
	}
	ctx := c.Request().Context()
	hasVip := false
	if code := c.QueryParam("vip_code"); strings.TrimSpace(code) != "" {
		hasVip = h.Vip.Validate(ctx, code)
	}
	all, err := h.Resolver.ResolveAll(ctx, date, hasVip)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": model.FormatDate(date), "vip": hasVip, "items": all})
}

type vipValidateReq struct {
	Code string `json:"code"`
}

// ValidateVip reports whether a code is currently usable without spending
// a use.
func (h *CatalogHandler) ValidateVip(c echo.Context) error {
	var req vipValidateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Code) == "" {
		return unprocessable(c, "code", "code is required")
	}
	res := h.Vip.Check(c.Request().Context(), req.Code)
	return c.JSON(http.StatusOK, res)
}
