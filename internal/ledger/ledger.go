// Package ledger holds the in-progress order: catalog item quantities plus the
// customer's special wishes. It is pure data; prices come from a catalog.
package ledger

import (
	"github.com/dropkickfish/barq-client/internal/catalog"
	"github.com/shopspring/decimal"
)

// LineItem is a catalog item paired with a positive quantity.
type LineItem struct {
	catalog.Item
	Quantity int `json:"quantity"`
}

// Subtotal returns price × quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Ledger maps catalog item ids to quantities. Entries set to zero are kept but
// never show up in LineItems.
type Ledger struct {
	quantities map[string]int
	order      []string
	notes      string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{quantities: make(map[string]int)}
}

// SetQuantity sets the quantity for id. Negative quantities are clamped to 0.
func (l *Ledger) SetQuantity(id string, qty int) {
	if qty < 0 {
		qty = 0
	}
	if _, seen := l.quantities[id]; !seen {
		l.order = append(l.order, id)
	}
	l.quantities[id] = qty
}

// Quantity returns the quantity recorded for id (0 when absent).
func (l *Ledger) Quantity(id string) int {
	return l.quantities[id]
}

// SetNotes replaces the special wishes text.
func (l *Ledger) SetNotes(text string) { l.notes = text }

// Notes returns the special wishes text.
func (l *Ledger) Notes() string { return l.notes }

// LineItems derives the line items in the order ids were first set. Ids that
// are not in c cannot be priced and are skipped.
func (l *Ledger) LineItems(c catalog.Catalog) []LineItem {
	var out []LineItem
	for _, id := range l.order {
		qty := l.quantities[id]
		if qty <= 0 {
			continue
		}
		item, ok := c.Lookup(id)
		if !ok {
			continue
		}
		out = append(out, LineItem{Item: item, Quantity: qty})
	}
	return out
}

// Total is the sum of line item subtotals rounded to 2 decimals.
func (l *Ledger) Total(c catalog.Catalog) decimal.Decimal {
	return Sum(l.LineItems(c))
}

// Sum totals line items, rounded to 2 decimals.
func Sum(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		if li.Quantity <= 0 {
			continue
		}
		total = total.Add(li.Subtotal())
	}
	return total.Round(2)
}

// Reset empties the ledger.
func (l *Ledger) Reset() {
	l.quantities = make(map[string]int)
	l.order = nil
	l.notes = ""
}

// Restore replaces the ledger contents with a persisted snapshot.
func (l *Ledger) Restore(items []LineItem, notes string) {
	l.Reset()
	for _, li := range items {
		l.SetQuantity(li.ID, li.Quantity)
	}
	l.notes = notes
}
