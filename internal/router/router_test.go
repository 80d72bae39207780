package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/handler"
	"github.com/iliyamo/nightclub-reservation/internal/middleware"
	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/utils"
)

const testSecret = "router-secret"

func newTestServer() *echo.Echo {
	s := Shared{JWTSecret: testSecret}
	e := echo.New()
	admin := &handler.AdminHandler{}
	guests := &handler.GuestListHandler{}
	RegisterPublic(e, &handler.CatalogHandler{}, s)
	RegisterAdmin(e, admin, s)
	RegisterAdminReservations(e, admin, guests, s)
	return e
}

func TestRouteProtection(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		role   model.Role
		status int
	}{
		{"publicTimeSlots", http.MethodGet, "/v1/time-slots", "", http.StatusOK},
		{"adminWithoutToken", http.MethodGet, "/v1/admin/mesas", "", http.StatusUnauthorized},
		{"adminAsRegular", http.MethodPost, "/v1/admin/products", model.RoleRegular, http.StatusForbidden},
		{"adminAsStaff", http.MethodDelete, "/v1/admin/vip-codes/1", model.RoleStaff, http.StatusForbidden},
		{"reservationsAsStaff", http.MethodGet, "/v1/admin/reservations", model.RoleStaff, http.StatusForbidden},
		{"guestDeleteAsStaff", http.MethodDelete, "/v1/admin/guest-list/1", model.RoleStaff, http.StatusForbidden},
		{"checkInAsVip", http.MethodPost, "/v1/admin/guest-list/1/check-in", model.RoleVIP, http.StatusForbidden},
		{"checkInBadIDAsStaff", http.MethodPost, "/v1/admin/guest-list/x/check-in", model.RoleStaff, http.StatusBadRequest},
		{"mesaBadIDAsAdmin", http.MethodDelete, "/v1/admin/mesas/x", model.RoleAdmin, http.StatusBadRequest},
	}
	e := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				tok, err := utils.NewAccessToken(testSecret, 7, string(tt.role), 5)
				if err != nil {
					t.Fatal(err)
				}
				req.Header.Set("Authorization", "Bearer "+tok.Token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

// writeDenier admits browse traffic and refuses every write bucket.
type writeDenier struct {
	mu   sync.Mutex
	keys []string
}

func (d *writeDenier) Take(_ context.Context, key string, b config.Bucket, _ time.Time) (middleware.Verdict, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, key)
	if strings.HasPrefix(key, "rl:browse:") {
		return middleware.Verdict{Allowed: true, Remaining: b.Burst - 1}, nil
	}
	return middleware.Verdict{RetryAfter: b.Every}, nil
}

func (d *writeDenier) take() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.keys
	d.keys = nil
	return out
}

func TestWriteLimitScope(t *testing.T) {
	store := &writeDenier{}
	s := Shared{
		JWTSecret: testSecret,
		Limits: middleware.NewRateLimiterWith(config.RateLimitConfig{
			Enabled: true,
			Prefix:  "rl",
			Browse:  config.Bucket{Burst: 60, Every: time.Second},
			Write:   config.Bucket{Burst: 5, Every: 20 * time.Second},
		}, store),
	}
	e := echo.New()
	RegisterAuth(e, &handler.AuthHandler{}, s)
	RegisterPublic(e, &handler.CatalogHandler{}, s)
	RegisterBooking(e, &handler.WizardHandler{}, &handler.ReservationHandler{}, &handler.GuestListHandler{}, s)

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		writeKey string
	}{
		{"browseTimeSlots", http.MethodGet, "/v1/time-slots", http.StatusOK, ""},
		{"submitPerDraft", http.MethodPost, "/v1/drafts/d-1/submit", http.StatusTooManyRequests, "rl:submit:draft:d-1"},
		{"applyVipPerClient", http.MethodPut, "/v1/drafts/d-1/vip-code", http.StatusTooManyRequests, "rl:vip:ip:10.1.1.1"},
		{"validateVipSharesBucket", http.MethodPost, "/v1/vip-codes/validate", http.StatusTooManyRequests, "rl:vip:ip:10.1.1.1"},
		{"guestList", http.MethodPost, "/v1/guest-list", http.StatusTooManyRequests, "rl:guest-list:ip:10.1.1.1"},
		{"login", http.MethodPost, "/v1/auth/login", http.StatusTooManyRequests, "rl:login:ip:10.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("X-Real-Ip", "10.1.1.1")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			keys := store.take()
			if len(keys) == 0 || keys[0] != "rl:browse:ip:10.1.1.1" {
				t.Fatalf("browse bucket not taken first: %v", keys)
			}
			write := keys[1:]
			switch {
			case tt.writeKey == "" && len(write) != 0:
				t.Errorf("read route drew from a write bucket: %v", write)
			case tt.writeKey != "" && (len(write) != 1 || write[0] != tt.writeKey):
				t.Errorf("write buckets = %v, want [%s]", write, tt.writeKey)
			}
		})
	}
}
