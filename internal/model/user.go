package model

import (
	"strings"
	"time"
)

// Role is the capability set attached to a session.  Roles are compared by
// equality only; there is no inheritance between them.
type Role string

const (
	RoleGuest   Role = "guest"   // anonymous visitor
	RoleRegular Role = "regular" // registered customer
	RoleVIP     Role = "vip"     // customer flagged as VIP by staff
	RoleStaff   Role = "staff"   // door staff, may check in guest-list entries
	RoleAdmin   Role = "admin"   // manages tables, products, codes and bookings
)

// ParseRole normalises a raw role claim.  Unknown values map to RoleGuest.
func ParseRole(raw string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleRegular, RoleVIP, RoleStaff, RoleAdmin:
		return r
	}
	return RoleGuest
}

// User represents an application user record as stored in the
// `users` table.  Customers do not need an account to book; users exist
// for staff and admins and for customers who want a login.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – one of guest, regular, vip, staff, admin.
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
