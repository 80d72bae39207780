package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
)

var errStore = errors.New("store down")

// testNow is Tuesday 2025-07-01 12:00 UTC.
var testNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func testRules() *Rules {
	days, _ := config.ParseWeekdays("thu,fri,sat")
	return NewRules(config.ClubConfig{
		Location:              time.UTC,
		OpenDays:              days,
		ReservationWindowDays: 60,
		GuestListWindowDays:   14,
		GuestListCutoff:       22 * time.Hour,
		GuestListDailyLimit:   10,
		GuestListMaxGuests:    9,
		DraftTTL:              time.Hour,
		CollaboratorTimeout:   time.Second,
	}).WithClock(func() time.Time { return testNow })
}

func mustDate(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeMesas struct {
	mesas []model.Mesa
	err   error
}

func (f *fakeMesas) List(context.Context) ([]model.Mesa, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Mesa(nil), f.mesas...), nil
}

func (f *fakeMesas) GetByID(_ context.Context, id uint64) (*model.Mesa, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.mesas {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeReservations stores reservations in memory and enforces one live
// booking per table and date, like the unique index in MySQL.
type fakeReservations struct {
	mu      sync.Mutex
	rows    []model.Reservation
	nextID  uint64
	err     error
	readErr error
}

func (f *fakeReservations) live(mesaID uint64, date time.Time) int {
	n := 0
	for _, r := range f.rows {
		if r.MesaID == mesaID && r.Date.Equal(date) && r.Status != model.StatusCancelled {
			n++
		}
	}
	return n
}

func (f *fakeReservations) CountActiveForMesaOnDate(_ context.Context, mesaID uint64, date time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.live(mesaID, date), nil
}

func (f *fakeReservations) ActiveMesaIDsOnDate(_ context.Context, date time.Time) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var ids []uint64
	for _, r := range f.rows {
		if r.Date.Equal(date) && r.Status != model.StatusCancelled {
			ids = append(ids, r.MesaID)
		}
	}
	return ids, nil
}

func (f *fakeReservations) CreateWithItems(_ context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.live(res.MesaID, res.Date) > 0 {
		return repository.ErrConflict
	}
	f.nextID++
	res.ID = f.nextID
	res.CreatedAt = testNow
	for i := range res.Items {
		res.Items[i].ID = uint64(i + 1)
		res.Items[i].ReservationID = res.ID
	}
	cp := *res
	cp.Items = append([]model.ReservationItem(nil), res.Items...)
	f.rows = append(f.rows, cp)
	return nil
}

func (f *fakeReservations) add(r model.Reservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	f.rows = append(f.rows, r)
}

func (f *fakeReservations) find(pred func(model.Reservation) bool) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, r := range f.rows {
		if pred(r) {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	return f.find(func(r model.Reservation) bool { return r.ID == id })
}

func (f *fakeReservations) GetByPaymentSession(_ context.Context, sid string) (*model.Reservation, error) {
	return f.find(func(r model.Reservation) bool { return r.PaymentSessionID != nil && *r.PaymentSessionID == sid })
}

func (f *fakeReservations) update(id uint64, fn func(*model.Reservation)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			fn(&f.rows[i])
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeReservations) SetPaymentSession(_ context.Context, id uint64, sid string) error {
	return f.update(id, func(r *model.Reservation) { r.PaymentSessionID = &sid })
}

func (f *fakeReservations) UpdatePayment(_ context.Context, id uint64, p model.PaymentStatus, s model.ReservationStatus, payer *string) error {
	return f.update(id, func(r *model.Reservation) {
		r.PaymentStatus, r.Status = p, s
		if payer != nil {
			r.PayerEmail = payer
		}
	})
}

type fakeProducts struct {
	products []model.Product
	err      error
}

func (f *fakeProducts) List(context.Context) ([]model.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Product(nil), f.products...), nil
}

// fakeVipCodes applies the same conditional increment as the SQL UPDATE.
type fakeVipCodes struct {
	mu    sync.Mutex
	codes map[string]*model.VipCode
	err   error
}

func newFakeVipCodes(codes ...model.VipCode) *fakeVipCodes {
	f := &fakeVipCodes{codes: map[string]*model.VipCode{}}
	for _, c := range codes {
		c := c
		f.codes[c.Code] = &c
	}
	return f
}

func (f *fakeVipCodes) GetByCode(_ context.Context, code string) (*model.VipCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeVipCodes) ConsumeOne(_ context.Context, code string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	c, ok := f.codes[code]
	if !ok || !c.Usable(now) {
		return false, nil
	}
	c.UsesCurrent++
	return true, nil
}

func (f *fakeVipCodes) uses(code string) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[code].UsesCurrent
}

type fakeEvents struct {
	mu      sync.Mutex
	created []model.Reservation
	paid    []model.Reservation
	guests  []model.GuestListEntry
}

func (f *fakeEvents) ReservationCreated(_ context.Context, r model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, r)
	return nil
}

func (f *fakeEvents) ReservationPaid(_ context.Context, r model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid = append(f.paid, r)
	return nil
}

func (f *fakeEvents) GuestListRegistered(_ context.Context, e model.GuestListEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guests = append(f.guests, e)
	return nil
}

type fakeGuestList struct {
	mu      sync.Mutex
	entries []model.GuestListEntry
	taken   map[string]bool
	err     error
}

func (f *fakeGuestList) Create(_ context.Context, e *model.GuestListEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.taken[e.ConfirmationCode] {
		return repository.ErrConflict
	}
	for _, x := range f.entries {
		if x.ConfirmationCode == e.ConfirmationCode {
			return repository.ErrConflict
		}
	}
	e.ID = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeGuestList) CodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.entries {
		if x.ConfirmationCode == code {
			return true, nil
		}
	}
	return false, f.err
}

func (f *fakeGuestList) SumInvitedOnDate(_ context.Context, date time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, x := range f.entries {
		if x.Date.Equal(date) {
			n += int(x.InvitedCount)
		}
	}
	return n, f.err
}

func (f *fakeGuestList) ListByDate(_ context.Context, date time.Time) ([]model.GuestListEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.GuestListEntry{}
	for _, x := range f.entries {
		if x.Date.Equal(date) {
			out = append(out, x)
		}
	}
	return out, f.err
}

func (f *fakeGuestList) GetByID(_ context.Context, id uint64) (*model.GuestListEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.entries {
		if x.ID == id {
			x := x
			return &x, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGuestList) CheckIn(_ context.Context, id uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			if !f.entries[i].CheckedIn {
				f.entries[i].CheckedIn = true
				f.entries[i].CheckedInAt = &at
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeGuestList) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}
