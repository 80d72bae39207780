// Package queue defines the events published to RabbitMQ after a booking
// or guest-list registration commits, the publisher, and the consumer that
// keeps the audit log.
package queue

// Queue names.  Events go through the default exchange with the queue name
// as routing key.
const (
	QueueReservationCreated  = "reservation.created"
	QueueReservationPaid     = "reservation.paid"
	QueueGuestListRegistered = "guestlist.registered"
)

// Queues lists every queue the consumer listens on.
var Queues = []string{QueueReservationCreated, QueueReservationPaid, QueueGuestListRegistered}

// EventItem is a reservation line as carried in events.
type EventItem struct {
	ProductID      uint64 `json:"product_id"`
	Name           string `json:"name"`
	Quantity       uint32 `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// ReservationCreatedEvent is published once the reservation and its items
// are committed.  It carries enough for downstream consumers to notify or
// log without querying the primary database.
type ReservationCreatedEvent struct {
	EventID       string      `json:"event_id"`
	ReservationID uint64      `json:"reservation_id"`
	MesaID        uint64      `json:"mesa_id"`
	MesaName      string      `json:"mesa_name"`
	Date          string      `json:"date"`
	TimeSlot      string      `json:"time_slot"`
	PartySize     uint32      `json:"party_size"`
	ContactName   string      `json:"contact_name"`
	ContactEmail  string      `json:"contact_email"`
	TotalCents    int64       `json:"total_cents"`
	VipCode       string      `json:"vip_code,omitempty"`
	Items         []EventItem `json:"items"`
	CreatedAt     string      `json:"created_at"`
}

// ReservationPaidEvent is published when a checkout session settles.
type ReservationPaidEvent struct {
	EventID       string `json:"event_id"`
	ReservationID uint64 `json:"reservation_id"`
	SessionID     string `json:"session_id"`
	PayerEmail    string `json:"payer_email,omitempty"`
	TotalCents    int64  `json:"total_cents"`
	PaidAt        string `json:"paid_at"`
}

// GuestListRegisteredEvent is published for every guest-list registration.
type GuestListRegisteredEvent struct {
	EventID          string `json:"event_id"`
	EntryID          uint64 `json:"entry_id"`
	Date             string `json:"date"`
	Name             string `json:"name"`
	InvitedCount     uint32 `json:"invited_count"`
	ConfirmationCode string `json:"confirmation_code"`
	RegisteredAt     string `json:"registered_at"`
}
