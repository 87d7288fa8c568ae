// Package menu loads the item catalog the cart is filled from. The catalog
// is a YAML document so deployments can swap menus without a rebuild.
package menu

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fastfoodmaniya/storefront/core"
)

// Item is one orderable catalog entry
type Item struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// UnitPrice is in minor currency units
	UnitPrice int    `yaml:"unit_price"`
	Category  string `yaml:"category"`
}

// LineItem converts a catalog entry into a cart line with zero quantity
func (i Item) LineItem() core.LineItem {
	return core.LineItem{
		ID:        i.ID,
		Name:      i.Name,
		UnitPrice: i.UnitPrice,
	}
}

// Catalog is an ordered, id-indexed menu
type Catalog struct {
	items []Item
	byID  map[string]Item
}

type catalogDoc struct {
	Items []Item `yaml:"items"`
}

// Load parses a YAML catalog document
func Load(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("menu: parse catalog: %w", err)
	}

	byID := make(map[string]Item, len(doc.Items))
	for i, item := range doc.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("menu: item %d has no id: %w", i, core.ErrInvalidConfiguration)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("menu: item %q has negative price: %w", item.ID, core.ErrInvalidConfiguration)
		}
		if _, dup := byID[item.ID]; dup {
			return nil, fmt.Errorf("menu: duplicate item id %q: %w", item.ID, core.ErrInvalidConfiguration)
		}
		byID[item.ID] = item
	}

	return &Catalog{items: doc.Items, byID: byID}, nil
}

// LoadFile reads and parses a YAML catalog from disk
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("menu: read catalog %s: %w", path, err)
	}
	return Load(data)
}

// Lookup returns the item with the given id
func (c *Catalog) Lookup(id string) (Item, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// Items returns the catalog in document order
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of catalog entries
func (c *Catalog) Len() int {
	return len(c.items)
}
