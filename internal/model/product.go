package model

import "time"

// Product categories used by the booking flow.  Category is otherwise a
// free-form tag chosen by the admin.
const (
	ProductCategoryBottles  = "Botellas"
	ProductCategoryPackages = "Paquetes"
)

// Product is an item that can be pre-ordered with a table reservation.
type Product struct {
	ID          uint64    `json:"id"`                    // products.id
	Name        string    `json:"name"`                  // products.name
	PriceCents  int64     `json:"price_cents"`           // products.price_cents
	Category    string    `json:"category"`              // products.category
	ImageURL    *string   `json:"image_url,omitempty"`   // products.image_url (nullable)
	Description *string   `json:"description,omitempty"` // products.description (nullable)
	CreatedAt   time.Time `json:"created_at"`            // products.created_at
	UpdatedAt   time.Time `json:"updated_at"`            // products.updated_at
}

// IsPackage reports whether the product is a bundled package.
func (p Product) IsPackage() bool { return p.Category == ProductCategoryPackages }
