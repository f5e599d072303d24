package ledger_test

import (
	"fmt"
	"testing"

	"github.com/dropkickfish/barq-client/internal/catalog"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// buildCatalog makes one item per price, priced in cents.
func buildCatalog(cents []int64) catalog.Catalog {
	items := make([]catalog.Item, len(cents))
	for i, c := range cents {
		items[i] = catalog.Item{
			ID:    fmt.Sprintf("item-%d", i),
			Name:  fmt.Sprintf("Item %d", i),
			Price: decimal.New(c, -2),
		}
	}
	c, _ := catalog.New(items)
	return c
}

// TestTotalMatchesPositiveEntries verifies total() == Σ price×qty over qty>0.
func TestTotalMatchesPositiveEntries(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("total equals rounded sum over positive quantities", prop.ForAll(
		func(cents []int64, qtys []int) bool {
			c := buildCatalog(cents)
			l := ledger.New()
			want := decimal.Zero
			for i := 0; i < len(cents) && i < len(qtys); i++ {
				id := fmt.Sprintf("item-%d", i)
				l.SetQuantity(id, qtys[i])
				if qtys[i] > 0 {
					want = want.Add(decimal.New(cents[i], -2).Mul(decimal.NewFromInt(int64(qtys[i]))))
				}
			}
			return l.Total(c).Equal(want.Round(2))
		},
		gen.SliceOf(gen.Int64Range(0, 100000)),
		gen.SliceOf(gen.IntRange(-5, 20)),
	))

	properties.Property("line items never carry a non-positive quantity", prop.ForAll(
		func(cents []int64, qtys []int) bool {
			c := buildCatalog(cents)
			l := ledger.New()
			for i := range qtys {
				l.SetQuantity(fmt.Sprintf("item-%d", i), qtys[i])
			}
			for _, li := range l.LineItems(c) {
				if li.Quantity <= 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 5000)),
		gen.SliceOf(gen.IntRange(-5, 5)),
	))

	properties.Property("restore round-trips line items and notes", prop.ForAll(
		func(cents []int64, qtys []int, notes string) bool {
			c := buildCatalog(cents)
			l := ledger.New()
			for i := range qtys {
				l.SetQuantity(fmt.Sprintf("item-%d", i), qtys[i])
			}
			l.SetNotes(notes)

			r := ledger.New()
			r.Restore(l.LineItems(c), l.Notes())
			a, b := l.LineItems(c), r.LineItems(c)
			if len(a) != len(b) || r.Notes() != notes {
				return false
			}
			for i := range a {
				if a[i].ID != b[i].ID || a[i].Quantity != b[i].Quantity {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 5000)),
		gen.SliceOf(gen.IntRange(0, 5)),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
