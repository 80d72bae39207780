package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
)

// VipReasonNotFound is reported for unknown or empty codes.
const VipReasonNotFound = "not_found"

// VipReasonUnverified is reported when the store could not be read.
const VipReasonUnverified = "unverified"

// VipCodeStore reads codes and atomically consumes one use.
type VipCodeStore interface {
	GetByCode(ctx context.Context, code string) (*model.VipCode, error)
	ConsumeOne(ctx context.Context, code string, now time.Time) (bool, error)
}

// VipResult is the outcome of validating a code.
type VipResult struct {
	Code   string `json:"code"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// VipValidator checks and consumes VIP codes.
type VipValidator struct {
	store VipCodeStore
	rules *Rules
}

// NewVipValidator wires a validator.
func NewVipValidator(store VipCodeStore, rules *Rules) *VipValidator {
	return &VipValidator{store: store, rules: rules}
}

// Check validates raw and says why it is rejected.  A store failure comes
// back invalid with VipReasonUnverified so callers can tell it from a bad
// code.
func (v *VipValidator) Check(ctx context.Context, raw string) VipResult {
	code := model.NormalizeVipCode(raw)
	if code == "" {
		return VipResult{Reason: VipReasonNotFound}
	}
	ctx, cancel := v.rules.bounded(ctx)
	defer cancel()
	vc, err := v.store.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return VipResult{Code: code, Reason: VipReasonNotFound}
	}
	if err != nil {
		return VipResult{Code: code, Reason: VipReasonUnverified}
	}
	if reason := vc.Check(v.rules.Now()); reason != "" {
		return VipResult{Code: code, Reason: reason}
	}
	return VipResult{Code: code, Valid: true}
}

// Validate reports whether raw is usable right now.
func (v *VipValidator) Validate(ctx context.Context, raw string) bool {
	return v.Check(ctx, raw).Valid
}

// Consume spends one use of the code.  The increment is conditional in the
// store, so concurrent callers never exceed the cap.  It fails with
// ErrVipNotFound, ErrVipExhausted, another ErrVipCode, or ErrPersistence.
func (v *VipValidator) Consume(ctx context.Context, raw string) error {
	code := model.NormalizeVipCode(raw)
	if code == "" {
		return ErrVipNotFound
	}
	ctx, cancel := v.rules.bounded(ctx)
	defer cancel()
	now := v.rules.Now()
	ok, err := v.store.ConsumeOne(ctx, code, now)
	if err != nil {
		return persistence("consume vip code", err)
	}
	if ok {
		return nil
	}
	vc, err := v.store.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrVipNotFound
	}
	if err != nil {
		return persistence("read vip code", err)
	}
	switch reason := vc.Check(now); reason {
	case model.VipReasonExhausted, "":
		// "" means the code was edited between the two reads
		return ErrVipExhausted
	default:
		return fmt.Errorf("%w: %s", ErrVipCode, reason)
	}
}
