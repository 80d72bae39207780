package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
	"github.com/iliyamo/nightclub-reservation/internal/service"
)

// testNow is Tuesday 2025-07-01 12:00 UTC; 2025-07-03 is the next open night.
var testNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func testRules() *service.Rules {
	days, _ := config.ParseWeekdays("thu,fri,sat")
	return service.NewRules(config.ClubConfig{
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

type memMesas struct {
	mu     sync.Mutex
	rows   []model.Mesa
	delErr error
}

func (f *memMesas) List(context.Context) ([]model.Mesa, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Mesa(nil), f.rows...), nil
}

func (f *memMesas) GetByID(_ context.Context, id uint64) (*model.Mesa, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *memMesas) Create(_ context.Context, m *model.Mesa) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Name == m.Name {
			return repository.ErrConflict
		}
	}
	m.ID = uint64(len(f.rows) + 1)
	f.rows = append(f.rows, *m)
	return nil
}

func (f *memMesas) Update(_ context.Context, m *model.Mesa) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == m.ID {
			f.rows[i] = *m
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *memMesas) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memProducts struct {
	rows []model.Product
}

func (f *memProducts) List(context.Context) ([]model.Product, error) {
	return append([]model.Product(nil), f.rows...), nil
}

// memReservations keeps one live booking per table and night.
type memReservations struct {
	mu   sync.Mutex
	rows []model.Reservation
}

func (f *memReservations) live(mesaID uint64, date time.Time) int {
	n := 0
	for _, r := range f.rows {
		if r.MesaID == mesaID && r.Date.Equal(date) && r.Status != model.StatusCancelled {
			n++
		}
	}
	return n
}

func (f *memReservations) CountActiveForMesaOnDate(_ context.Context, mesaID uint64, date time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live(mesaID, date), nil
}

func (f *memReservations) ActiveMesaIDsOnDate(_ context.Context, date time.Time) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint64
	for _, r := range f.rows {
		if r.Date.Equal(date) && r.Status != model.StatusCancelled {
			ids = append(ids, r.MesaID)
		}
	}
	return ids, nil
}

func (f *memReservations) CreateWithItems(_ context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live(res.MesaID, res.Date) > 0 {
		return repository.ErrConflict
	}
	res.ID = uint64(len(f.rows) + 1)
	res.CreatedAt, res.UpdatedAt = testNow, testNow
	f.rows = append(f.rows, *res)
	return nil
}

func (f *memReservations) find(pred func(model.Reservation) bool) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if pred(r) {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *memReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	return f.find(func(r model.Reservation) bool { return r.ID == id })
}

func (f *memReservations) GetByPaymentSession(_ context.Context, sid string) (*model.Reservation, error) {
	return f.find(func(r model.Reservation) bool { return r.PaymentSessionID != nil && *r.PaymentSessionID == sid })
}

func (f *memReservations) update(id uint64, fn func(*model.Reservation)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			fn(&f.rows[i])
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *memReservations) SetPaymentSession(_ context.Context, id uint64, sid string) error {
	return f.update(id, func(r *model.Reservation) { r.PaymentSessionID = &sid })
}

func (f *memReservations) UpdatePayment(_ context.Context, id uint64, p model.PaymentStatus, s model.ReservationStatus, payer *string) error {
	return f.update(id, func(r *model.Reservation) {
		r.PaymentStatus, r.Status = p, s
		if payer != nil {
			r.PayerEmail = payer
		}
	})
}

func (f *memReservations) ListByDate(_ context.Context, date time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range f.rows {
		if date.IsZero() || r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *memReservations) UpdateStatus(_ context.Context, id uint64, s model.ReservationStatus) error {
	return f.update(id, func(r *model.Reservation) { r.Status = s })
}

func (f *memReservations) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memVipCodes struct {
	mu    sync.Mutex
	codes map[string]*model.VipCode
}

func (f *memVipCodes) GetByCode(_ context.Context, code string) (*model.VipCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.codes[model.NormalizeVipCode(code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *memVipCodes) ConsumeOne(_ context.Context, code string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.codes[model.NormalizeVipCode(code)]
	if !ok || !v.Usable(now) {
		return false, nil
	}
	v.UsesCurrent++
	return true, nil
}

func testCatalog() (*memMesas, *memProducts) {
	mesas := &memMesas{rows: []model.Mesa{
		{ID: 1, Name: "Gold VIP 1", Category: model.CategoryGold, Capacity: 10, MinSpendCents: 500000, Available: true},
		{ID: 2, Name: "Silver 1", Category: model.CategorySilver, Capacity: 6, MinSpendCents: 200000, Available: true},
		{ID: 3, Name: "Bronze 1", Category: model.CategoryBronze, Capacity: 4, MinSpendCents: 100000, Available: false},
	}}
	products := &memProducts{rows: []model.Product{
		{ID: 1, Name: "Vodka", PriceCents: 180000, Category: model.ProductCategoryBottles},
		{ID: 2, Name: "Champagne", PriceCents: 250000, Category: model.ProductCategoryBottles},
		{ID: 10, Name: "Paquete Silver", PriceCents: 250000, Category: model.ProductCategoryPackages},
	}}
	return mesas, products
}

// do runs one request through e and returns the recorder.
func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}
