package config

import "strings"

// PaymentConfig configures the checkout collaborator.  When SecretKey is
// empty the server uses the local stub gateway, which is what dev and test
// environments run with.
type PaymentConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
}

// LoadPaymentConfig reads STRIPE_SECRET_KEY and the PAYMENT_* variables.
func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		SecretKey:  envStr("STRIPE_SECRET_KEY", ""),
		Currency:   strings.ToLower(envStr("PAYMENT_CURRENCY", "mxn")),
		SuccessURL: envStr("PAYMENT_SUCCESS_URL", "http://localhost:8080/v1/checkout/verify?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  envStr("PAYMENT_CANCEL_URL", "http://localhost:8080/"),
	}
}
