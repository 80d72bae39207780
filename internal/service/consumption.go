package service

import (
	"sort"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// Total sums price times quantity over the products with a positive
// quantity.  Quantities for products not in the list are ignored.
func Total(products []model.Product, quantities map[uint64]uint32) int64 {
	var total int64
	for _, p := range products {
		if q := quantities[p.ID]; q > 0 {
			total += p.PriceCents * int64(q)
		}
	}
	return total
}

// Sufficient reports whether total clears the table minimum.
func Sufficient(total, minimum int64) bool { return total >= minimum }

// RecommendedPackage returns the cheapest package priced at or above
// minimum, ties broken by lowest id, or nil when none qualifies.
func RecommendedPackage(products []model.Product, minimum int64) *model.Product {
	var best *model.Product
	for i := range products {
		p := products[i]
		if !p.IsPackage() || p.PriceCents < minimum {
			continue
		}
		if best == nil || p.PriceCents < best.PriceCents ||
			(p.PriceCents == best.PriceCents && p.ID < best.ID) {
			best = &p
		}
	}
	return best
}

// LineItems snapshots the selected products into reservation items,
// ordered by product id.  Their subtotals add up to Total.
func LineItems(products []model.Product, quantities map[uint64]uint32) []model.ReservationItem {
	items := []model.ReservationItem{}
	for _, p := range products {
		q := quantities[p.ID]
		if q == 0 {
			continue
		}
		items = append(items, model.ReservationItem{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       q,
			UnitPriceCents: p.PriceCents,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items
}
