package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StubGateway is an in-process Gateway for development and tests.  A
// session starts unpaid; MarkPaid or MarkExpired decide its outcome, the
// way a processor webhook would.
type StubGateway struct {
	mu       sync.Mutex
	sessions map[string]*SessionStatus
	requests map[string]SessionRequest
}

// NewStubGateway returns an empty stub.
func NewStubGateway() *StubGateway {
	return &StubGateway{
		sessions: map[string]*SessionStatus{},
		requests: map[string]SessionRequest{},
	}
}

func (g *StubGateway) CreateCheckoutSession(_ context.Context, req SessionRequest) (Session, error) {
	if req.AmountMinorUnits <= 0 {
		return Session{}, fmt.Errorf("stub gateway: amount must be positive, got %d", req.AmountMinorUnits)
	}
	id := "cs_stub_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id] = &SessionStatus{ID: id, PaymentStatus: StatusUnpaid, Metadata: req.Metadata}
	g.requests[id] = req
	redirect := strings.ReplaceAll(req.SuccessURL, "{CHECKOUT_SESSION_ID}", url.QueryEscape(id))
	return Session{ID: id, RedirectURL: redirect}, nil
}

func (g *StubGateway) RetrieveSession(_ context.Context, sessionID string) (SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return SessionStatus{}, ErrSessionNotFound
	}
	return *s, nil
}

// MarkPaid settles a session as paid by payerEmail.
func (g *StubGateway) MarkPaid(sessionID, payerEmail string) bool {
	return g.set(sessionID, StatusPaid, payerEmail)
}

// MarkExpired abandons a session.
func (g *StubGateway) MarkExpired(sessionID string) bool {
	return g.set(sessionID, StatusExpired, "")
}

// Request returns what was sent when the session was created.
func (g *StubGateway) Request(sessionID string) (SessionRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.requests[sessionID]
	return r, ok
}

func (g *StubGateway) set(sessionID, status, email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return false
	}
	s.PaymentStatus = status
	s.PayerEmail = email
	return true
}
