package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/payment"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
)

// MaxDescriptionLen bounds the checkout description in characters.
const MaxDescriptionLen = 255

// ReservationStore is what checkout needs from the reservation table.
// Lookups return repository.ErrNotFound for unknown rows.
type ReservationStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	GetByPaymentSession(ctx context.Context, sessionID string) (*model.Reservation, error)
	SetPaymentSession(ctx context.Context, id uint64, sessionID string) error
	UpdatePayment(ctx context.Context, id uint64, payment model.PaymentStatus, status model.ReservationStatus, payerEmail *string) error
}

// CheckoutSession is handed to the customer to complete payment.
type CheckoutSession struct {
	ReservationID uint64 `json:"reservation_id"`
	SessionID     string `json:"session_id"`
	RedirectURL   string `json:"redirect_url"`
}

// CheckoutCoordinator hands a pending reservation to the payment service
// and records the outcome.  A reservation stays payable until it is paid,
// so a failed or expired checkout can be retried by reservation id.
type CheckoutCoordinator struct {
	reservations ReservationStore
	gateway      payment.Gateway
	cfg          config.PaymentConfig
	rules        *Rules
	events       EventPublisher
}

// NewCheckoutCoordinator wires a coordinator.
func NewCheckoutCoordinator(reservations ReservationStore, gateway payment.Gateway, cfg config.PaymentConfig, rules *Rules, events EventPublisher) *CheckoutCoordinator {
	if events == nil {
		events = NopPublisher{}
	}
	return &CheckoutCoordinator{reservations: reservations, gateway: gateway, cfg: cfg, rules: rules, events: events}
}

// Reservation loads a reservation with its items.
func (c *CheckoutCoordinator) Reservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	ctx, cancel := c.rules.bounded(ctx)
	defer cancel()
	res, err := c.reservations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, persistence("load reservation", err)
	}
	return res, nil
}

// CreateSession opens a checkout session for the reservation total and
// stores the session id on the reservation.
func (c *CheckoutCoordinator) CreateSession(ctx context.Context, reservationID uint64) (*CheckoutSession, error) {
	res, err := c.Reservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	switch {
	case res.PaymentStatus == model.PaymentPaid:
		return nil, invalid("reservation", "reservation is already paid")
	case res.Status == model.StatusCancelled:
		return nil, invalid("reservation", "reservation is cancelled")
	case res.TotalCents <= 0:
		return nil, invalid("reservation", "nothing to pay")
	}

	pctx, cancel := c.rules.bounded(ctx)
	sess, err := c.gateway.CreateCheckoutSession(pctx, payment.SessionRequest{
		Description:      CheckoutDescription(*res),
		AmountMinorUnits: res.TotalCents,
		Currency:         c.cfg.Currency,
		CustomerEmail:    res.ContactEmail,
		SuccessURL:       c.cfg.SuccessURL,
		CancelURL:        c.cfg.CancelURL,
		Metadata:         map[string]string{"reservation_id": strconv.FormatUint(res.ID, 10)},
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentService, err)
	}

	sctx, cancel := c.rules.bounded(ctx)
	defer cancel()
	if err := c.reservations.SetPaymentSession(sctx, res.ID, sess.ID); err != nil {
		return nil, persistence("record checkout session", err)
	}
	return &CheckoutSession{ReservationID: res.ID, SessionID: sess.ID, RedirectURL: sess.RedirectURL}, nil
}

// VerifySession asks the payment service about a session and moves the
// reservation accordingly: paid confirms it, expired cancels the payment
// attempt and leaves the reservation pending.
func (c *CheckoutCoordinator) VerifySession(ctx context.Context, sessionID string) (*model.Reservation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, invalid("session_id", "session_id is required")
	}
	pctx, cancel := c.rules.bounded(ctx)
	st, err := c.gateway.RetrieveSession(pctx, sessionID)
	cancel()
	if errors.Is(err, payment.ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: unknown checkout session", ErrReservationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentService, err)
	}

	rctx, cancel := c.rules.bounded(ctx)
	defer cancel()
	res, err := c.reservations.GetByPaymentSession(rctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, persistence("load reservation", err)
	}

	switch {
	case st.PaymentStatus == payment.StatusPaid && res.PaymentStatus != model.PaymentPaid:
		var payer *string
		if st.PayerEmail != "" {
			payer = &st.PayerEmail
		}
		if err := c.reservations.UpdatePayment(rctx, res.ID, model.PaymentPaid, model.StatusConfirmed, payer); err != nil {
			return nil, persistence("record payment", err)
		}
		res.PaymentStatus, res.Status, res.PayerEmail = model.PaymentPaid, model.StatusConfirmed, payer
		res.UpdatedAt = time.Now().UTC()
		_ = c.events.ReservationPaid(ctx, *res)
	case st.PaymentStatus == payment.StatusExpired && res.PaymentStatus == model.PaymentUnpaid:
		if err := c.reservations.UpdatePayment(rctx, res.ID, model.PaymentCancelled, res.Status, nil); err != nil {
			return nil, persistence("record payment", err)
		}
		res.PaymentStatus = model.PaymentCancelled
	}
	return res, nil
}

// CheckoutDescription summarises the booking for the payment page,
// truncated to MaxDescriptionLen characters.
func CheckoutDescription(res model.Reservation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reservation #%d, %s, %s %s", res.ID, res.MesaName, res.DateString(), res.TimeSlot)
	if len(res.Items) > 0 {
		parts := make([]string, 0, len(res.Items))
		for _, it := range res.Items {
			parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.ProductName))
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return truncateRunes(b.String(), MaxDescriptionLen)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
