// Package catalog holds the venue's purchasable items. A Catalog is built once
// per venue load and never mutated afterwards.
package catalog

import "github.com/shopspring/decimal"

// Item is a single purchasable menu entry.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageRef string          `json:"imageRef,omitempty"`
}

// Catalog is an ordered, id-indexed set of items.
type Catalog struct {
	items []Item
	index map[string]int
}

// New builds a Catalog from items in server order. Items with an empty ID or a
// negative price are dropped; for duplicate IDs the first entry wins.
// The returned slice lists the dropped items.
func New(items []Item) (Catalog, []Item) {
	c := Catalog{
		items: make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	var dropped []Item
	for _, it := range items {
		if it.ID == "" || it.Price.IsNegative() {
			dropped = append(dropped, it)
			continue
		}
		if _, dup := c.index[it.ID]; dup {
			dropped = append(dropped, it)
			continue
		}
		c.index[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, dropped
}

// Lookup returns the item with the given id.
func (c Catalog) Lookup(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Items returns a copy of the items in server order.
func (c Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c Catalog) Len() int { return len(c.items) }
