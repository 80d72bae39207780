package model

import "time"

// Step is the position of a reservation draft in the booking wizard.
type Step int

const (
	StepSelectingTable    Step = 1
	StepSelectingProducts Step = 2
	StepEnteringDetails   Step = 3
	StepSubmitted         Step = 4
)

// Draft is the in-progress reservation held for one wizard session.  It
// lives in the draft store (Redis) until it is submitted, abandoned or
// expires; nothing in it is persisted to MySQL.
type Draft struct {
	ID           string            `json:"id"`
	Step         Step              `json:"step"`
	Date         string            `json:"date,omitempty"`
	MesaID       *uint64           `json:"mesa_id,omitempty"`
	Quantities   map[uint64]uint32 `json:"quantities"`
	TimeSlot     string            `json:"time_slot,omitempty"`
	PartySize    uint32            `json:"party_size,omitempty"`
	ContactName  string            `json:"contact_name,omitempty"`
	ContactPhone string            `json:"contact_phone,omitempty"`
	ContactEmail string            `json:"contact_email,omitempty"`
	VipCode      string            `json:"vip_code,omitempty"`
	HasValidVip  bool              `json:"has_valid_vip"`
	Notice       string            `json:"notice,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewDraft returns an empty draft positioned at the first step.
func NewDraft(id string, now time.Time) *Draft {
	return &Draft{
		ID:         id,
		Step:       StepSelectingTable,
		Quantities: map[uint64]uint32{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetQuantity stores a product quantity; zero removes the entry.
func (d *Draft) SetQuantity(productID uint64, qty uint32) {
	if d.Quantities == nil {
		d.Quantities = map[uint64]uint32{}
	}
	if qty == 0 {
		delete(d.Quantities, productID)
		return
	}
	d.Quantities[productID] = qty
}

// ClearMesa deselects the table and records a notice for the customer.
func (d *Draft) ClearMesa(notice string) {
	d.MesaID = nil
	d.Notice = notice
}
