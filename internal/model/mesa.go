package model

import (
	"strings"
	"time"
)

// Category is the price/prestige tier of a table.  Tiers are ordered;
// gold is the top tier and the only one gated behind a VIP code.
type Category string

const (
	CategoryGold   Category = "gold"
	CategorySilver Category = "silver"
	CategoryBronze Category = "bronze"
	CategoryPurple Category = "purple"
	CategoryRed    Category = "red"
)

var categoryRank = map[Category]int{
	CategoryGold:   0,
	CategorySilver: 1,
	CategoryBronze: 2,
	CategoryPurple: 3,
	CategoryRed:    4,
}

// ParseCategory lower-cases and validates a category name.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := categoryRank[c]
	return c, ok
}

// Rank returns the tier position, 0 being the most exclusive.  Unknown
// categories sort last.
func (c Category) Rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return len(categoryRank)
}

// RequiresVip reports whether booking a table of this tier needs a valid
// VIP code.
func (c Category) RequiresVip() bool { return c == CategoryGold }

// Mesa is a bookable physical table in the club.  Available is the
// admin-level switch; whether the table can be booked on a given date is
// computed by the availability resolver, never stored here.
type Mesa struct {
	ID            uint64    `json:"id"`              // mesas.id
	Name          string    `json:"name"`            // mesas.name
	Category      Category  `json:"category"`        // mesas.category
	Capacity      uint32    `json:"capacity"`        // mesas.capacity
	Location      string    `json:"location"`        // mesas.location
	MinSpendCents int64     `json:"min_spend_cents"` // mesas.min_spend_cents
	Available     bool      `json:"available"`       // mesas.available
	Description   string    `json:"description"`     // mesas.description
	PosX          *float64  `json:"pos_x,omitempty"` // mesas.pos_x (nullable, map only)
	PosY          *float64  `json:"pos_y,omitempty"` // mesas.pos_y (nullable, map only)
	CreatedAt     time.Time `json:"created_at"`      // mesas.created_at
	UpdatedAt     time.Time `json:"updated_at"`      // mesas.updated_at
}
