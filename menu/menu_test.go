package menu

import (
	"errors"
	"testing"

	"github.com/fastfoodmaniya/storefront/core"
)

const sampleCatalog = `
items:
  - id: burger
    name: Classic Burger
    description: Flame-grilled patty with cheddar
    unit_price: 250
    category: mains
  - id: fries
    name: Fries
    unit_price: 120
    category: sides
  - id: cola
    name: Cola
    unit_price: 80
    category: drinks
`

func TestLoad(t *testing.T) {
	catalog, err := Load([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if catalog.Len() != 3 {
		t.Errorf("Len() = %d, want 3", catalog.Len())
	}

	item, ok := catalog.Lookup("fries")
	if !ok {
		t.Fatal("Lookup(fries) = false, want true")
	}
	if item.UnitPrice != 120 {
		t.Errorf("UnitPrice = %d, want 120", item.UnitPrice)
	}

	if _, ok := catalog.Lookup("sushi"); ok {
		t.Error("Lookup(sushi) = true, want false")
	}
}

func TestLoad_PreservesDocumentOrder(t *testing.T) {
	catalog, err := Load([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := []string{"burger", "fries", "cola"}
	items := catalog.Items()
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("Items()[%d].ID = %q, want %q", i, items[i].ID, id)
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", "items:\n  - name: Nameless\n    unit_price: 10\n"},
		{"duplicate id", "items:\n  - id: burger\n    unit_price: 10\n  - id: burger\n    unit_price: 20\n"},
		{"negative price", "items:\n  - id: burger\n    unit_price: -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			if !errors.Is(err, core.ErrInvalidConfiguration) {
				t.Errorf("Load() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestItemToLineItem(t *testing.T) {
	item := Item{ID: "burger", Name: "Classic Burger", UnitPrice: 250}
	line := item.LineItem()

	if line.ID != "burger" || line.UnitPrice != 250 || line.Quantity != 0 {
		t.Errorf("LineItem() = %+v, want id burger, price 250, quantity 0", line)
	}
}
