package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/service"
)

// WizardHandler exposes the three-step booking wizard.  Drafts are
// addressed by the opaque id returned from Start.
type WizardHandler struct {
	Wizard *service.Wizard
}

type dateReq struct {
	Date string `json:"date"`
}
type mesaReq struct {
	MesaID uint64 `json:"mesa_id"`
}
type vipCodeReq struct {
	VipCode string `json:"vip_code"`
}
type productLine struct {
	ProductID uint64 `json:"product_id"`
	Quantity  uint32 `json:"quantity"`
}
type productsReq struct {
	Items []productLine `json:"items"`
}
type detailsReq struct {
	Name      string `json:"contact_name"`
	Phone     string `json:"contact_phone"`
	Email     string `json:"contact_email"`
	TimeSlot  string `json:"time_slot"`
	PartySize uint32 `json:"party_size"`
}

// Start opens a new draft.
func (h *WizardHandler) Start(c echo.Context) error {
	v, err := h.Wizard.Start(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// Get returns the draft with its derived totals.
func (h *WizardHandler) Get(c echo.Context) error {
	v, err := h.Wizard.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// SelectDate sets the night and returns availability for every table.
func (h *WizardHandler) SelectDate(c echo.Context) error {
	var req dateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	v, err := h.Wizard.SelectDate(c.Request().Context(), c.Param("id"), req.Date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// SelectMesa picks a table.
func (h *WizardHandler) SelectMesa(c echo.Context) error {
	var req mesaReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.MesaID == 0 {
		return unprocessable(c, "mesa_id", "mesa_id is required")
	}
	v, err := h.Wizard.SelectMesa(c.Request().Context(), c.Param("id"), req.MesaID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ApplyVip sets or clears the VIP code.  An invalid code is not an error;
// the response carries the verdict next to the draft.
func (h *WizardHandler) ApplyVip(c echo.Context) error {
	var req vipCodeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	v, res, err := h.Wizard.ApplyVipCode(c.Request().Context(), c.Param("id"), req.VipCode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"draft": v, "vip": res})
}

// SetProducts updates quantities; a zero quantity removes the product.
func (h *WizardHandler) SetProducts(c echo.Context) error {
	var req productsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	q := make(map[uint64]uint32, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == 0 {
			return unprocessable(c, "products", "product_id is required")
		}
		q[it.ProductID] = it.Quantity
	}
	v, err := h.Wizard.SetQuantities(c.Request().Context(), c.Param("id"), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// SetDetails stores contact details, time slot and party size.
func (h *WizardHandler) SetDetails(c echo.Context) error {
	var req detailsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	v, err := h.Wizard.SetDetails(c.Request().Context(), c.Param("id"), service.DetailsInput{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		TimeSlot:  req.TimeSlot,
		PartySize: req.PartySize,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Next advances the draft one step.
func (h *WizardHandler) Next(c echo.Context) error {
	v, err := h.Wizard.Next(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Back returns to the previous step.
func (h *WizardHandler) Back(c echo.Context) error {
	v, err := h.Wizard.Back(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Submit persists the reservation.  A VIP code that could not be spent
// after commit is logged; the booking stands.
func (h *WizardHandler) Submit(c echo.Context) error {
	res, err := h.Wizard.Submit(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if res.VipConsumeErr != nil {
		c.Logger().Warnf("reservation %d: vip code not consumed: %v", res.Reservation.ID, res.VipConsumeErr)
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservation": res.Reservation, "step": model.StepSubmitted})
}

// Abandon discards the draft.
func (h *WizardHandler) Abandon(c echo.Context) error {
	if err := h.Wizard.Abandon(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
