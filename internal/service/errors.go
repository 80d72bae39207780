// Package service holds the booking core: table availability, VIP codes,
// minimum consumption, the reservation wizard, checkout and the guest
// list.  Services depend on small interfaces so the MySQL and Redis
// repositories can be swapped for fakes in tests.
package service

import (
	"errors"
	"fmt"
)

// ValidationError is a user-correctable problem with the input or with
// the current wizard step.  Field names the offending input.  Err, when
// set, classifies the failure further (for example ErrGuestListClosed).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

var (
	// ErrAvailabilityConflict means the table stopped being bookable
	// between selection and submission.  The draft has been sent back to
	// the table step.
	ErrAvailabilityConflict = errors.New("table is no longer available")

	// ErrVipCode is the parent of every VIP code rejection.
	ErrVipCode = errors.New("invalid vip code")
	// ErrVipNotFound means the code vanished before it could be consumed.
	ErrVipNotFound = fmt.Errorf("%w: not found", ErrVipCode)
	// ErrVipExhausted means the code reached its usage cap.
	ErrVipExhausted = fmt.Errorf("%w: exhausted", ErrVipCode)

	// ErrPersistence wraps store failures that the caller may retry.
	ErrPersistence = errors.New("storage unavailable")
	// ErrPaymentService wraps checkout collaborator failures.
	ErrPaymentService = errors.New("payment service unavailable")

	ErrSubmitInFlight      = errors.New("submission already in progress")
	ErrDraftNotFound       = errors.New("draft not found or expired")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrGuestListNotFound   = errors.New("guest list entry not found")

	// ErrGuestListClosed classifies guest-list dates the club does not
	// accept: closed nights, past dates, beyond the window or after the
	// same-day cutoff.
	ErrGuestListClosed = errors.New("guest list closed for this date")
	// ErrGuestListFull is returned only when the daily limit is enforced.
	ErrGuestListFull = errors.New("guest list is full for this date")
)

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
