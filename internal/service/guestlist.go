package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
	"github.com/iliyamo/nightclub-reservation/internal/utils"
)

const (
	confirmationCodeLen = 8
	codeAttempts        = 5
)

// GuestListStore persists guest-list entries.  Create returns
// repository.ErrConflict when the confirmation code is already taken.
type GuestListStore interface {
	Create(ctx context.Context, e *model.GuestListEntry) error
	CodeExists(ctx context.Context, code string) (bool, error)
	SumInvitedOnDate(ctx context.Context, date time.Time) (int, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.GuestListEntry, error)
	GetByID(ctx context.Context, id uint64) (*model.GuestListEntry, error)
	CheckIn(ctx context.Context, id uint64, at time.Time) error
	Delete(ctx context.Context, id uint64) error
}

// GuestRegistration is a free-entry request for one night.
type GuestRegistration struct {
	Name       string
	Email      string
	Phone      string
	Date       string
	Companions []string
}

// Registrar registers guests for free entry.
type Registrar struct {
	store   GuestListStore
	rules   *Rules
	events  EventPublisher
	newCode func() (string, error)
}

// NewRegistrar wires a registrar.
func NewRegistrar(store GuestListStore, rules *Rules, events EventPublisher) *Registrar {
	if events == nil {
		events = NopPublisher{}
	}
	return &Registrar{
		store:   store,
		rules:   rules,
		events:  events,
		newCode: func() (string, error) { return utils.NewConfirmationCode(confirmationCodeLen) },
	}
}

// Register validates the request and stores one entry counting the
// registrant plus companions.  The daily limit is checked only when
// enforcement is configured; otherwise it is reported by Summary.
func (r *Registrar) Register(ctx context.Context, in GuestRegistration) (*model.GuestListEntry, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)
	switch {
	case name == "":
		return nil, invalid("name", "name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, invalid("email", "a valid email is required")
	case phone == "":
		return nil, invalid("phone", "phone is required")
	}
	companions := make([]string, 0, len(in.Companions))
	for _, c := range in.Companions {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, invalid("companions", "companion names cannot be empty")
		}
		companions = append(companions, c)
	}
	cfg := r.rules.Config()
	if len(companions) > cfg.GuestListMaxGuests {
		return nil, invalid("companions", fmt.Sprintf("at most %d companions per registration", cfg.GuestListMaxGuests))
	}
	date, err := model.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return nil, invalid("date", err.Error())
	}
	if err := r.rules.CheckGuestListDate(date); err != nil {
		return nil, err
	}

	ctx, cancel := r.rules.bounded(ctx)
	defer cancel()
	invited := 1 + len(companions)
	if cfg.GuestListEnforceLimit {
		taken, err := r.store.SumInvitedOnDate(ctx, date)
		if err != nil {
			return nil, persistence("count guest list", err)
		}
		if taken+invited > cfg.GuestListDailyLimit {
			return nil, fmt.Errorf("%w: %d of %d places left", ErrGuestListFull, max(cfg.GuestListDailyLimit-taken, 0), cfg.GuestListDailyLimit)
		}
	}

	e := &model.GuestListEntry{
		Name:         name,
		Email:        email,
		Phone:        phone,
		Date:         date,
		InvitedCount: uint32(invited),
		Companions:   companions,
	}
	for attempt := 0; ; attempt++ {
		if attempt == codeAttempts {
			return nil, persistence("generate confirmation code", errors.New("too many collisions"))
		}
		code, err := r.newCode()
		if err != nil {
			return nil, persistence("generate confirmation code", err)
		}
		taken, err := r.store.CodeExists(ctx, code)
		if err != nil {
			return nil, persistence("check confirmation code", err)
		}
		if taken {
			continue
		}
		e.ConfirmationCode = code
		err = r.store.Create(ctx, e)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, persistence("save guest list entry", err)
		}
		break
	}
	_ = r.events.GuestListRegistered(ctx, *e)
	return e, nil
}

// Summary lists a night's entries against the daily limit.
func (r *Registrar) Summary(ctx context.Context, date time.Time) (*model.GuestListSummary, error) {
	ctx, cancel := r.rules.bounded(ctx)
	defer cancel()
	entries, err := r.store.ListByDate(ctx, date)
	if err != nil {
		return nil, persistence("list guest list", err)
	}
	limit := r.rules.Config().GuestListDailyLimit
	s := &model.GuestListSummary{Date: model.FormatDate(date), Entries: entries, Limit: limit}
	for _, e := range entries {
		s.TotalInvited += int(e.InvitedCount)
		if e.CheckedIn {
			s.CheckedIn += int(e.InvitedCount)
		}
	}
	s.Remaining = max(limit-s.TotalInvited, 0)
	s.OverLimit = s.TotalInvited > limit
	return s, nil
}

// CheckIn marks an entry as arrived and returns it.
func (r *Registrar) CheckIn(ctx context.Context, id uint64) (*model.GuestListEntry, error) {
	ctx, cancel := r.rules.bounded(ctx)
	defer cancel()
	err := r.store.CheckIn(ctx, id, r.rules.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGuestListNotFound
	}
	if err != nil {
		return nil, persistence("check in", err)
	}
	e, err := r.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGuestListNotFound
	}
	if err != nil {
		return nil, persistence("load guest list entry", err)
	}
	return e, nil
}

// Remove deletes an entry.
func (r *Registrar) Remove(ctx context.Context, id uint64) error {
	ctx, cancel := r.rules.bounded(ctx)
	defer cancel()
	err := r.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGuestListNotFound
	}
	if err != nil {
		return persistence("delete guest list entry", err)
	}
	return nil
}
