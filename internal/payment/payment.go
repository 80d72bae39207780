// Package payment wraps the external checkout-session service.  The rest
// of the application only sees Gateway: create a hosted checkout session
// and later ask for its outcome.
package payment

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when the processor does not know the session.
var ErrSessionNotFound = errors.New("checkout session not found")

// SessionRequest describes one hosted checkout.  AmountMinorUnits is the
// total in integer cents.
type SessionRequest struct {
	Description      string
	AmountMinorUnits int64
	Currency         string
	CustomerEmail    string
	SuccessURL       string
	CancelURL        string
	Metadata         map[string]string
}

// Session is the processor's answer to a create call.
type Session struct {
	ID          string
	RedirectURL string
}

// Status values reported by RetrieveSession.
const (
	StatusPaid    = "paid"
	StatusUnpaid  = "unpaid"
	StatusExpired = "expired"
)

// SessionStatus is the processor's view of a session.
type SessionStatus struct {
	ID            string
	PaymentStatus string
	PayerEmail    string
	Metadata      map[string]string
}

// Gateway is the checkout collaborator.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (SessionStatus, error)
}
