package model

import (
	"strings"
	"time"
)

// Reasons a VIP code can be rejected.  The empty string means usable.
const (
	VipReasonInactive  = "inactive"
	VipReasonExpired   = "expired"
	VipReasonExhausted = "exhausted"
)

// VipCode grants access to gold tables.  Codes are case-insensitive and
// stored upper-cased.  UsesCurrent only ever grows.
type VipCode struct {
	ID          uint64     `json:"id"`                   // vip_codes.id
	Code        string     `json:"code"`                 // vip_codes.code
	Description string     `json:"description"`          // vip_codes.description
	Active      bool       `json:"active"`               // vip_codes.active
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // vip_codes.expires_at (nullable)
	MaxUses     *uint32    `json:"max_uses,omitempty"`   // vip_codes.max_uses (nullable)
	UsesCurrent uint32     `json:"uses_current"`         // vip_codes.uses_current
	CreatedAt   time.Time  `json:"created_at"`           // vip_codes.created_at
	UpdatedAt   time.Time  `json:"updated_at"`           // vip_codes.updated_at
}

// NormalizeVipCode trims and upper-cases a code as typed by a customer.
func NormalizeVipCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Check returns the reason the code cannot be used at now, or "" when it
// is usable.  A code expiring exactly at now is still usable.
func (v VipCode) Check(now time.Time) string {
	if !v.Active {
		return VipReasonInactive
	}
	if v.ExpiresAt != nil && now.After(*v.ExpiresAt) {
		return VipReasonExpired
	}
	if v.MaxUses != nil && v.UsesCurrent >= *v.MaxUses {
		return VipReasonExhausted
	}
	return ""
}

// Usable is shorthand for Check(now) == "".
func (v VipCode) Usable(now time.Time) bool { return v.Check(now) == "" }
