package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// Rules applies the club's calendar to booking and guest-list dates.  All
// dates are civil dates (midnight UTC) interpreted in the club timezone.
type Rules struct {
	cfg config.ClubConfig
	now func() time.Time
}

// NewRules builds Rules over cfg using the wall clock.
func NewRules(cfg config.ClubConfig) *Rules {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CollaboratorTimeout <= 0 {
		cfg.CollaboratorTimeout = 5 * time.Second
	}
	return &Rules{cfg: cfg, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (r *Rules) WithClock(now func() time.Time) *Rules {
	r.now = now
	return r
}

// Config returns the club configuration.
func (r *Rules) Config() config.ClubConfig { return r.cfg }

// Now returns the current instant.
func (r *Rules) Now() time.Time { return r.now() }

// Today returns the current civil date in the club timezone.
func (r *Rules) Today() time.Time { return model.CivilDate(r.now(), r.cfg.Location) }

// IsOpen reports whether the club opens on date.
func (r *Rules) IsOpen(date time.Time) bool { return r.cfg.OpenDays[date.Weekday()] }

// bounded derives a context that expires after the collaborator timeout.
func (r *Rules) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.CollaboratorTimeout)
}

// CheckReservationDate accepts open nights from today up to the
// reservation window.
func (r *Rules) CheckReservationDate(date time.Time) error {
	today := r.Today()
	if date.Before(today) {
		return invalid("date", "date is in the past")
	}
	if last := today.AddDate(0, 0, r.cfg.ReservationWindowDays); date.After(last) {
		return invalid("date", fmt.Sprintf("reservations open at most %d days ahead", r.cfg.ReservationWindowDays))
	}
	if !r.IsOpen(date) {
		return invalid("date", "club closed on this date")
	}
	return nil
}

// CheckGuestListDate accepts open nights from today up to the guest-list
// window.  Same-day registrations close at the configured cutoff.
func (r *Rules) CheckGuestListDate(date time.Time) error {
	closed := func(msg string) error {
		return &ValidationError{Field: "date", Message: msg, Err: ErrGuestListClosed}
	}
	now := r.now()
	today := model.CivilDate(now, r.cfg.Location)
	if date.Before(today) {
		return closed("date is in the past")
	}
	if last := today.AddDate(0, 0, r.cfg.GuestListWindowDays); date.After(last) {
		return closed(fmt.Sprintf("guest list opens at most %d days ahead", r.cfg.GuestListWindowDays))
	}
	if !r.IsOpen(date) {
		return closed("club closed on this date")
	}
	if date.Equal(today) {
		local := now.In(r.cfg.Location)
		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.cfg.Location)
		if !local.Before(midnight.Add(r.cfg.GuestListCutoff)) {
			return closed("guest list for tonight is closed")
		}
	}
	return nil
}
