package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway implements Gateway with Stripe Checkout Sessions.  The
// whole reservation is charged as a single line so the amount always
// equals the stored total.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway returns a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.AmountMinorUnits),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Reservación"),
					Description: stripe.String(req.Description),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: s.ID, RedirectURL: s.URL}, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == 404 {
			return SessionStatus{}, ErrSessionNotFound
		}
		return SessionStatus{}, err
	}
	out := SessionStatus{ID: s.ID, PaymentStatus: StatusUnpaid, Metadata: s.Metadata}
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		out.PaymentStatus = StatusPaid
	case s.Status == stripe.CheckoutSessionStatusExpired:
		out.PaymentStatus = StatusExpired
	}
	if s.CustomerDetails != nil {
		out.PayerEmail = s.CustomerDetails.Email
	}
	return out, nil
}
