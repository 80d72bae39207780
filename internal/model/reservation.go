package model

import (
	"encoding/json"
	"time"
)

// ReservationStatus is the lifecycle state of a persisted reservation:
// pending -> confirmed | cancelled.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks the online checkout for a reservation.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

// TimeSlots is the fixed set of arrival times a customer can pick.
var TimeSlots = []string{"22:00", "23:00", "00:00", "01:00", "02:00"}

// ValidTimeSlot reports whether slot belongs to TimeSlots.
func ValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Reservation is a persisted table booking.  TotalCents is computed from
// the line items at booking time.
//
// Fields:
//
//	ID               – primary key identifier.
//	MesaID           – booked table.
//	MesaName         – table name (joined, read-only).
//	ContactName      – customer name.
//	ContactPhone     – customer phone.
//	ContactEmail     – customer email.
//	Date             – night of the booking (civil date, UTC midnight).
//	TimeSlot         – arrival time from TimeSlots.
//	PartySize        – number of people.
//	TotalCents       – sum of item subtotals.
//	VipCode          – VIP code redeemed with this booking, if any.
//	Status           – pending, confirmed or cancelled.
//	PaymentSessionID – external checkout session, if one was opened.
//	PaymentStatus    – unpaid, paid or cancelled.
//	PayerEmail       – email reported by the payment processor.
//	Items            – line items (loaded on demand).
type Reservation struct {
	ID               uint64            `json:"id"`                           // reservations.id
	MesaID           uint64            `json:"mesa_id"`                      // reservations.mesa_id
	MesaName         string            `json:"mesa_name,omitempty"`          // mesas.name
	ContactName      string            `json:"contact_name"`                 // reservations.contact_name
	ContactPhone     string            `json:"contact_phone"`                // reservations.contact_phone
	ContactEmail     string            `json:"contact_email"`                // reservations.contact_email
	Date             time.Time         `json:"-"`                            // reservations.reservation_date
	TimeSlot         string            `json:"time_slot"`                    // reservations.time_slot
	PartySize        uint32            `json:"party_size"`                   // reservations.party_size
	TotalCents       int64             `json:"total_cents"`                  // reservations.total_cents
	VipCode          *string           `json:"vip_code,omitempty"`           // reservations.vip_code (nullable)
	Status           ReservationStatus `json:"status"`                       // reservations.status
	PaymentSessionID *string           `json:"payment_session_id,omitempty"` // reservations.payment_session_id (nullable)
	PaymentStatus    PaymentStatus     `json:"payment_status"`               // reservations.payment_status
	PayerEmail       *string           `json:"payer_email,omitempty"`        // reservations.payer_email (nullable)
	CreatedAt        time.Time         `json:"created_at"`                   // reservations.created_at
	UpdatedAt        time.Time         `json:"updated_at"`                   // reservations.updated_at
	Items            []ReservationItem `json:"items"`
}

// DateString renders Date in the API date layout.
func (r Reservation) DateString() string { return FormatDate(r.Date) }

// MarshalJSON renders Date as YYYY-MM-DD.
func (r Reservation) MarshalJSON() ([]byte, error) {
	type alias Reservation
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(r), r.DateString()})
}

// ItemsTotal sums the line item subtotals.
func (r Reservation) ItemsTotal() int64 {
	var total int64
	for _, it := range r.Items {
		total += it.Subtotal()
	}
	return total
}

// ReservationItem is one product line of a reservation.  UnitPriceCents
// is a snapshot taken when the booking was made and is never re-read from
// the live product.
type ReservationItem struct {
	ID             uint64 `json:"id"`               // reservation_items.id
	ReservationID  uint64 `json:"reservation_id"`   // reservation_items.reservation_id
	ProductID      uint64 `json:"product_id"`       // reservation_items.product_id
	ProductName    string `json:"product_name"`     // reservation_items.product_name
	Quantity       uint32 `json:"quantity"`         // reservation_items.quantity
	UnitPriceCents int64  `json:"unit_price_cents"` // reservation_items.unit_price_cents
}

// Subtotal is quantity times the snapshot price.
func (it ReservationItem) Subtotal() int64 { return int64(it.Quantity) * it.UnitPriceCents }
