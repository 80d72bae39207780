package service

import (
	"context"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// EventPublisher announces committed changes.  Publishing happens after
// the write and its errors never undo it.
type EventPublisher interface {
	ReservationCreated(ctx context.Context, res model.Reservation) error
	ReservationPaid(ctx context.Context, res model.Reservation) error
	GuestListRegistered(ctx context.Context, e model.GuestListEntry) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) ReservationCreated(context.Context, model.Reservation) error     { return nil }
func (NopPublisher) ReservationPaid(context.Context, model.Reservation) error        { return nil }
func (NopPublisher) GuestListRegistered(context.Context, model.GuestListEntry) error { return nil }
