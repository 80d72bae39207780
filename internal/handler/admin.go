package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// MesaStore is the admin view of the mesas table.
type MesaStore interface {
	List(ctx context.Context) ([]model.Mesa, error)
	GetByID(ctx context.Context, id uint64) (*model.Mesa, error)
	Create(ctx context.Context, m *model.Mesa) error
	Update(ctx context.Context, m *model.Mesa) error
	Delete(ctx context.Context, id uint64) error
}

// ProductStore is the admin view of the products table.
type ProductStore interface {
	List(ctx context.Context) ([]model.Product, error)
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uint64) error
}

// VipCodeAdminStore is the admin view of the vip_codes table.
type VipCodeAdminStore interface {
	List(ctx context.Context) ([]model.VipCode, error)
	GetByID(ctx context.Context, id uint64) (*model.VipCode, error)
	Create(ctx context.Context, v *model.VipCode) error
	Update(ctx context.Context, v *model.VipCode) error
	Delete(ctx context.Context, id uint64) error
}

// ReservationAdminStore lists and moderates reservations.
type ReservationAdminStore interface {
	ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error
	Delete(ctx context.Context, id uint64) error
}

// AdminHandler manages the catalogue and moderates reservations.  Every
// route is behind JWTAuth and RequireRole(admin).
type AdminHandler struct {
	Mesas        MesaStore
	Products     ProductStore
	VipCodes     VipCodeAdminStore
	Reservations ReservationAdminStore
}

// ----- mesas -----

type mesaBody struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Capacity      uint32   `json:"capacity"`
	Location      string   `json:"location"`
	MinSpendCents int64    `json:"min_spend_cents"`
	Available     *bool    `json:"available"`
	Description   string   `json:"description"`
	PosX          *float64 `json:"pos_x"`
	PosY          *float64 `json:"pos_y"`
}

// toMesa validates the body and returns the field at fault on failure.
func (b mesaBody) toMesa() (model.Mesa, string, string) {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return model.Mesa{}, "name", "name is required"
	}
	cat, ok := model.ParseCategory(b.Category)
	if !ok {
		return model.Mesa{}, "category", "category must be gold, silver, bronze, purple or red"
	}
	if b.Capacity == 0 {
		return model.Mesa{}, "capacity", "capacity must be positive"
	}
	if b.MinSpendCents < 0 {
		return model.Mesa{}, "min_spend_cents", "min_spend_cents cannot be negative"
	}
	available := true
	if b.Available != nil {
		available = *b.Available
	}
	return model.Mesa{
		Name:          name,
		Category:      cat,
		Capacity:      b.Capacity,
		Location:      strings.TrimSpace(b.Location),
		MinSpendCents: b.MinSpendCents,
		Available:     available,
		Description:   strings.TrimSpace(b.Description),
		PosX:          b.PosX,
		PosY:          b.PosY,
	}, "", ""
}

func (h *AdminHandler) ListMesas(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Mesas.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) CreateMesa(c echo.Context) error {
	var body mesaBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	m, field, msg := body.toMesa()
	if field != "" {
		return unprocessable(c, field, msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Mesas.Create(ctx, &m); err != nil {
		return respondError(c, err)
	}
	created, err := h.Mesas.GetByID(ctx, m.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *AdminHandler) UpdateMesa(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body mesaBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	m, field, msg := body.toMesa()
	if field != "" {
		return unprocessable(c, field, msg)
	}
	m.ID = id
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Mesas.Update(ctx, &m); err != nil {
		return respondError(c, err)
	}
	updated, err := h.Mesas.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteMesa removes a table.  Tables with reservations yield 409; disable
// them instead.
func (h *AdminHandler) DeleteMesa(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Mesas.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- products -----

type productBody struct {
	Name        string  `json:"name"`
	PriceCents  int64   `json:"price_cents"`
	Category    string  `json:"category"`
	ImageURL    *string `json:"image_url"`
	Description *string `json:"description"`
}

func (b productBody) toProduct() (model.Product, string, string) {
	name := strings.TrimSpace(b.Name)
	switch {
	case name == "":
		return model.Product{}, "name", "name is required"
	case b.PriceCents <= 0:
		return model.Product{}, "price_cents", "price_cents must be positive"
	case strings.TrimSpace(b.Category) == "":
		return model.Product{}, "category", "category is required"
	}
	return model.Product{
		Name:        name,
		PriceCents:  b.PriceCents,
		Category:    strings.TrimSpace(b.Category),
		ImageURL:    b.ImageURL,
		Description: b.Description,
	}, "", ""
}

func (h *AdminHandler) ListProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Products.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var body productBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	p, field, msg := body.toProduct()
	if field != "" {
		return unprocessable(c, field, msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Products.Create(ctx, &p); err != nil {
		return respondError(c, err)
	}
	created, err := h.Products.GetByID(ctx, p.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *AdminHandler) UpdateProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body productBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	p, field, msg := body.toProduct()
	if field != "" {
		return unprocessable(c, field, msg)
	}
	p.ID = id
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Products.Update(ctx, &p); err != nil {
		return respondError(c, err)
	}
	updated, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Products.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- vip codes -----

type vipCodeBody struct {
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Active      *bool      `json:"active"`
	ExpiresAt   *time.Time `json:"expires_at"`
	MaxUses     *uint32    `json:"max_uses"`
}

func (b vipCodeBody) toVipCode() (model.VipCode, string, string) {
	code := model.NormalizeVipCode(b.Code)
	if code == "" {
		return model.VipCode{}, "code", "code is required"
	}
	if b.MaxUses != nil && *b.MaxUses == 0 {
		return model.VipCode{}, "max_uses", "max_uses must be positive or omitted"
	}
	active := true
	if b.Active != nil {
		active = *b.Active
	}
	return model.VipCode{
		Code:        code,
		Description: strings.TrimSpace(b.Description),
		Active:      active,
		ExpiresAt:   b.ExpiresAt,
		MaxUses:     b.MaxUses,
	}, "", ""
}

func (h *AdminHandler) ListVipCodes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.VipCodes.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) CreateVipCode(c echo.Context) error {
	var body vipCodeBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	v, field, msg := body.toVipCode()
	if field != "" {
		return unprocessable(c, field, msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.VipCodes.Create(ctx, &v); err != nil {
		return respondError(c, err)
	}
	created, err := h.VipCodes.GetByID(ctx, v.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateVipCode edits a code.  The use counter is never reset here.
func (h *AdminHandler) UpdateVipCode(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body vipCodeBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	v, field, msg := body.toVipCode()
	if field != "" {
		return unprocessable(c, field, msg)
	}
	v.ID = id
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.VipCodes.Update(ctx, &v); err != nil {
		return respondError(c, err)
	}
	updated, err := h.VipCodes.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *AdminHandler) DeleteVipCode(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.VipCodes.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- reservations -----

// ListReservations returns the reservations of ?date=, or all of them
// when no date is given.
func (h *AdminHandler) ListReservations(c echo.Context) error {
	var date time.Time
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return unprocessable(c, "date", err.Error())
		}
		date = d
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Reservations.ListByDate(ctx, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type statusBody struct {
	Status string `json:"status"`
}

// UpdateReservationStatus confirms or cancels a booking.  Re-opening a
// cancelled booking whose table was taken since yields 409.
func (h *AdminHandler) UpdateReservationStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body statusBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	status := model.ReservationStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	if !status.Valid() {
		return unprocessable(c, "status", "status must be pending, confirmed or cancelled")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Reservations.UpdateStatus(ctx, id, status); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

func (h *AdminHandler) DeleteReservation(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Reservations.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
