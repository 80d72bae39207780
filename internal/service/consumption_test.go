package service

import (
	"testing"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

var catalogue = []model.Product{
	{ID: 1, Name: "Vodka", PriceCents: 180000, Category: model.ProductCategoryBottles},
	{ID: 2, Name: "Champagne", PriceCents: 250000, Category: model.ProductCategoryBottles},
	{ID: 10, Name: "Paquete Gold", PriceCents: 600000, Category: model.ProductCategoryPackages},
	{ID: 11, Name: "Paquete Plata", PriceCents: 550000, Category: model.ProductCategoryPackages},
	{ID: 12, Name: "Paquete Mini", PriceCents: 150000, Category: model.ProductCategoryPackages},
	{ID: 13, Name: "Paquete Plata B", PriceCents: 550000, Category: model.ProductCategoryPackages},
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name string
		qty  map[uint64]uint32
		want int64
	}{
		{name: "empty", qty: nil, want: 0},
		{name: "zeroQuantityIgnored", qty: map[uint64]uint32{1: 0}, want: 0},
		{name: "mixed", qty: map[uint64]uint32{1: 2, 2: 1}, want: 610000},
		{name: "unknownProductIgnored", qty: map[uint64]uint32{99: 4, 12: 1}, want: 150000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Total(catalogue, tt.qty); got != tt.want {
				t.Errorf("Total = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSufficientGoldScenario(t *testing.T) {
	const minimum = 500000
	qty := map[uint64]uint32{1: 2}
	if total := Total(catalogue, qty); total != 360000 || Sufficient(total, minimum) {
		t.Fatalf("two bottles: total %d should be insufficient", total)
	}
	qty[1] = 3
	if total := Total(catalogue, qty); total != 540000 || !Sufficient(total, minimum) {
		t.Fatalf("three bottles: total %d should be sufficient", total)
	}
	if !Sufficient(minimum, minimum) {
		t.Error("total equal to the minimum should be sufficient")
	}
}

func TestSufficientMonotonic(t *testing.T) {
	const minimum = 400000
	qty := map[uint64]uint32{}
	was := false
	for round := 0; round < 6; round++ {
		for _, p := range catalogue {
			qty[p.ID]++
			now := Sufficient(Total(catalogue, qty), minimum)
			if was && !now {
				t.Fatalf("adding product %d turned a sufficient total insufficient", p.ID)
			}
			was = now
		}
	}
	if !was {
		t.Fatal("expected the total to become sufficient")
	}
}

func TestRecommendedPackage(t *testing.T) {
	tests := []struct {
		name    string
		minimum int64
		wantID  uint64
	}{
		{name: "cheapestQualifying", minimum: 500000, wantID: 11},
		{name: "tieBrokenByLowestID", minimum: 550000, wantID: 11},
		{name: "smallMinimum", minimum: 100000, wantID: 12},
		{name: "exactPrice", minimum: 600000, wantID: 10},
		{name: "noneQualifies", minimum: 700000, wantID: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecommendedPackage(catalogue, tt.minimum)
			if tt.wantID == 0 {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || got.ID != tt.wantID {
				t.Fatalf("got %+v, want product %d", got, tt.wantID)
			}
			if !got.IsPackage() {
				t.Error("recommendation must be a package")
			}
		})
	}
}

func TestLineItemsMatchTotal(t *testing.T) {
	qty := map[uint64]uint32{2: 1, 1: 2, 12: 0}
	items := LineItems(catalogue, qty)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ProductID != 1 || items[1].ProductID != 2 {
		t.Errorf("items not ordered by product id: %+v", items)
	}
	var sum int64
	for _, it := range items {
		sum += it.Subtotal()
	}
	if sum != Total(catalogue, qty) {
		t.Errorf("items sum %d != total %d", sum, Total(catalogue, qty))
	}
}

func TestFormatCents(t *testing.T) {
	for in, want := range map[int64]string{0: "0.00", 180000: "1800.00", 5: "0.05", -150: "-1.50"} {
		if got := FormatCents(in); got != want {
			t.Errorf("FormatCents(%d) = %q, want %q", in, got, want)
		}
	}
}
