package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/payment"
)

func newCheckoutFixture() (*CheckoutCoordinator, *fakeReservations, *payment.StubGateway, *fakeEvents) {
	res := &fakeReservations{}
	res.add(model.Reservation{
		MesaID: 2, MesaName: "Silver 1", ContactEmail: "ana@example.com",
		Date: mustDate("2025-07-04"), TimeSlot: "23:00", TotalCents: 610000,
		Status: model.StatusPending, PaymentStatus: model.PaymentUnpaid,
		Items: []model.ReservationItem{{ProductID: 1, ProductName: "Vodka", Quantity: 2, UnitPriceCents: 180000}},
	})
	gw := payment.NewStubGateway()
	ev := &fakeEvents{}
	cfg := config.PaymentConfig{Currency: "mxn", SuccessURL: "https://club.test/ok?session_id={CHECKOUT_SESSION_ID}", CancelURL: "https://club.test/cancel"}
	return NewCheckoutCoordinator(res, gw, cfg, testRules(), ev), res, gw, ev
}

func TestCheckoutPaid(t *testing.T) {
	c, res, gw, ev := newCheckoutFixture()
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, 1)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if !strings.Contains(sess.RedirectURL, sess.SessionID) {
		t.Errorf("redirect %q should carry the session id", sess.RedirectURL)
	}
	req, _ := gw.Request(sess.SessionID)
	if req.AmountMinorUnits != 610000 || req.Currency != "mxn" || req.Metadata["reservation_id"] != "1" {
		t.Errorf("unexpected session request %+v", req)
	}
	stored, _ := res.GetByID(ctx, 1)
	if stored.PaymentSessionID == nil || *stored.PaymentSessionID != sess.SessionID {
		t.Fatalf("session id not recorded: %+v", stored)
	}

	got, err := c.VerifySession(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("VerifySession unpaid: %v", err)
	}
	if got.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("unpaid session changed status to %s", got.PaymentStatus)
	}

	gw.MarkPaid(sess.SessionID, "payer@example.com")
	got, err = c.VerifySession(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("VerifySession paid: %v", err)
	}
	if got.PaymentStatus != model.PaymentPaid || got.Status != model.StatusConfirmed {
		t.Errorf("got payment=%s status=%s", got.PaymentStatus, got.Status)
	}
	if len(ev.paid) != 1 {
		t.Errorf("expected one paid event, got %d", len(ev.paid))
	}
	if _, err := c.VerifySession(ctx, sess.SessionID); err != nil || len(ev.paid) != 1 {
		t.Errorf("verifying twice should be a no-op: err=%v events=%d", err, len(ev.paid))
	}

	var ve *ValidationError
	if _, err := c.CreateSession(ctx, 1); !errors.As(err, &ve) {
		t.Errorf("paid reservation must not open a new session, got %v", err)
	}
}

func TestCheckoutExpiredCanRetry(t *testing.T) {
	c, _, gw, _ := newCheckoutFixture()
	ctx := context.Background()
	sess, err := c.CreateSession(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	gw.MarkExpired(sess.SessionID)
	got, err := c.VerifySession(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != model.PaymentCancelled || got.Status != model.StatusPending {
		t.Errorf("expired: payment=%s status=%s", got.PaymentStatus, got.Status)
	}
	if _, err := c.CreateSession(ctx, 1); err != nil {
		t.Errorf("retry after expiry: %v", err)
	}
}

type failingGateway struct{}

func (failingGateway) CreateCheckoutSession(context.Context, payment.SessionRequest) (payment.Session, error) {
	return payment.Session{}, errors.New("processor timeout")
}

func (failingGateway) RetrieveSession(context.Context, string) (payment.SessionStatus, error) {
	return payment.SessionStatus{}, errors.New("processor timeout")
}

func TestCheckoutErrors(t *testing.T) {
	c, res, _, _ := newCheckoutFixture()
	ctx := context.Background()
	if _, err := c.CreateSession(ctx, 99); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("unknown reservation: %v", err)
	}
	if _, err := c.VerifySession(ctx, "cs_unknown"); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("unknown session: %v", err)
	}
	if _, err := c.VerifySession(ctx, " "); err == nil {
		t.Error("empty session id should be rejected")
	}

	failing := NewCheckoutCoordinator(res, failingGateway{}, config.PaymentConfig{}, testRules(), nil)
	if _, err := failing.CreateSession(ctx, 1); !errors.Is(err, ErrPaymentService) {
		t.Errorf("gateway failure: %v", err)
	}
	if _, err := failing.VerifySession(ctx, "cs_x"); !errors.Is(err, ErrPaymentService) {
		t.Errorf("gateway failure on verify: %v", err)
	}
	stored, _ := res.GetByID(ctx, 1)
	if stored.Status != model.StatusPending || stored.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("payment failure must leave the reservation payable: %+v", stored)
	}
}

func TestCheckoutDescriptionTruncated(t *testing.T) {
	res := model.Reservation{ID: 3, MesaName: "Gold VIP 1", Date: mustDate("2025-07-04"), TimeSlot: "23:00"}
	for i := 0; i < 40; i++ {
		res.Items = append(res.Items, model.ReservationItem{ProductName: "Champaña Rosé", Quantity: 1})
	}
	d := CheckoutDescription(res)
	if n := utf8.RuneCountInString(d); n != MaxDescriptionLen {
		t.Errorf("description has %d characters, want %d", n, MaxDescriptionLen)
	}
	if !utf8.ValidString(d) {
		t.Error("truncation split a character")
	}
	short := CheckoutDescription(model.Reservation{ID: 1, MesaName: "Silver 1", Date: mustDate("2025-07-04"), TimeSlot: "22:00"})
	if short != "Reservation #1, Silver 1, 2025-07-04 22:00" {
		t.Errorf("unexpected description %q", short)
	}
}
