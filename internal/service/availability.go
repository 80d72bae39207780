package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
)

// Reasons a table is not bookable on a date.
const (
	ReasonBooked      = "already booked for this date"
	ReasonVipRequired = "VIP code required"
	ReasonDisabled    = "table disabled"
	ReasonClosed      = "club closed on this date"
	ReasonNotFound    = "table not found"
	ReasonUnverified  = "could not verify availability"
)

// MesaReader reads tables.  GetByID returns repository.ErrNotFound for an
// unknown id.
type MesaReader interface {
	List(ctx context.Context) ([]model.Mesa, error)
	GetByID(ctx context.Context, id uint64) (*model.Mesa, error)
}

// BookingReader answers which tables hold a live (pending or confirmed)
// reservation on a date.
type BookingReader interface {
	CountActiveForMesaOnDate(ctx context.Context, mesaID uint64, date time.Time) (int, error)
	ActiveMesaIDsOnDate(ctx context.Context, date time.Time) ([]uint64, error)
}

// Availability is the verdict for one table on one date.
type Availability struct {
	MesaID   uint64 `json:"mesa_id"`
	Bookable bool   `json:"bookable"`
	Reason   string `json:"reason,omitempty"`
}

// MesaAvailability pairs a table with its verdict.
type MesaAvailability struct {
	Mesa model.Mesa `json:"mesa"`
	Availability
}

// AvailabilityResolver decides whether tables can be booked on a date.  It
// never fails open: any read error yields a not-bookable verdict.
type AvailabilityResolver struct {
	mesas    MesaReader
	bookings BookingReader
	rules    *Rules
}

// NewAvailabilityResolver wires a resolver.
func NewAvailabilityResolver(mesas MesaReader, bookings BookingReader, rules *Rules) *AvailabilityResolver {
	return &AvailabilityResolver{mesas: mesas, bookings: bookings, rules: rules}
}

// Resolve looks up the table and evaluates it on date.
func (r *AvailabilityResolver) Resolve(ctx context.Context, mesaID uint64, date time.Time, hasVip bool) Availability {
	ctx, cancel := r.rules.bounded(ctx)
	defer cancel()
	m, err := r.mesas.GetByID(ctx, mesaID)
	if errors.Is(err, repository.ErrNotFound) {
		return Availability{MesaID: mesaID, Reason: ReasonNotFound}
	}
	if err != nil {
		return Availability{MesaID: mesaID, Reason: ReasonUnverified}
	}
	return r.ResolveMesa(ctx, *m, date, hasVip)
}

// ResolveMesa evaluates an already loaded table on date.
func (r *AvailabilityResolver) ResolveMesa(ctx context.Context, m model.Mesa, date time.Time, hasVip bool) Availability {
	if v, decided := r.static(m, date); decided {
		return v
	}
	ctx, cancel := r.rules.bounded(ctx)
	defer cancel()
	n, err := r.bookings.CountActiveForMesaOnDate(ctx, m.ID, date)
	if err != nil {
		return Availability{MesaID: m.ID, Reason: ReasonUnverified}
	}
	return verdict(m, n > 0, hasVip)
}

// ResolveAll recomputes availability for every table on date, ordered as
// the table list.  It returns an error only when the tables themselves
// cannot be listed; a failure reading bookings marks every table
// unverified.
func (r *AvailabilityResolver) ResolveAll(ctx context.Context, date time.Time, hasVip bool) ([]MesaAvailability, error) {
	ctx, cancel := r.rules.bounded(ctx)
	defer cancel()
	mesas, err := r.mesas.List(ctx)
	if err != nil {
		return nil, persistence("list tables", err)
	}
	booked := map[uint64]bool{}
	ids, bookErr := r.bookings.ActiveMesaIDsOnDate(ctx, date)
	for _, id := range ids {
		booked[id] = true
	}
	out := make([]MesaAvailability, 0, len(mesas))
	for _, m := range mesas {
		v, decided := r.static(m, date)
		switch {
		case decided:
		case bookErr != nil:
			v = Availability{MesaID: m.ID, Reason: ReasonUnverified}
		default:
			v = verdict(m, booked[m.ID], hasVip)
		}
		out = append(out, MesaAvailability{Mesa: m, Availability: v})
	}
	return out, nil
}

// static applies the checks that need no booking data: the admin switch
// and the club calendar.
func (r *AvailabilityResolver) static(m model.Mesa, date time.Time) (Availability, bool) {
	if !m.Available {
		return Availability{MesaID: m.ID, Reason: ReasonDisabled}, true
	}
	if !r.rules.IsOpen(date) {
		return Availability{MesaID: m.ID, Reason: ReasonClosed}, true
	}
	return Availability{}, false
}

func verdict(m model.Mesa, booked, hasVip bool) Availability {
	if booked {
		return Availability{MesaID: m.ID, Reason: ReasonBooked}
	}
	if m.Category.RequiresVip() && !hasVip {
		return Availability{MesaID: m.ID, Reason: ReasonVipRequired}
	}
	return Availability{MesaID: m.ID, Bookable: true}
}
