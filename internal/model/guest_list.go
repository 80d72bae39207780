package model

import (
	"encoding/json"
	"time"
)

// GuestListEntry is one free-entry registration.  InvitedCount includes
// the primary registrant, so a solo registration has InvitedCount 1.
type GuestListEntry struct {
	ID               uint64     `json:"id"`                      // guest_list_entries.id
	Name             string     `json:"name"`                    // guest_list_entries.name
	Email            string     `json:"email"`                   // guest_list_entries.email
	Phone            string     `json:"phone"`                   // guest_list_entries.phone
	Date             time.Time  `json:"-"`                       // guest_list_entries.entry_date
	InvitedCount     uint32     `json:"invited_count"`           // guest_list_entries.invited_count
	Companions       []string   `json:"companions"`              // guest_list_entries.companions (JSON)
	ConfirmationCode string     `json:"confirmation_code"`       // guest_list_entries.confirmation_code
	CheckedIn        bool       `json:"checked_in"`              // guest_list_entries.checked_in
	CheckedInAt      *time.Time `json:"checked_in_at,omitempty"` // guest_list_entries.checked_in_at (nullable)
	CreatedAt        time.Time  `json:"created_at"`              // guest_list_entries.created_at
	UpdatedAt        time.Time  `json:"updated_at"`              // guest_list_entries.updated_at
}

// MarshalJSON renders Date as YYYY-MM-DD.
func (e GuestListEntry) MarshalJSON() ([]byte, error) {
	type alias GuestListEntry
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(e), FormatDate(e.Date)})
}

// GuestListSummary aggregates the entries of one night against the daily
// limit.  The limit is reported, and only enforced when configured.
type GuestListSummary struct {
	Date         string           `json:"date"`
	Entries      []GuestListEntry `json:"entries"`
	TotalInvited int              `json:"total_invited"`
	CheckedIn    int              `json:"checked_in"`
	Limit        int              `json:"limit"`
	Remaining    int              `json:"remaining"`
	OverLimit    bool             `json:"over_limit"`
}
