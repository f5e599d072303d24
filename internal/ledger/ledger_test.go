package ledger_test

import (
	"testing"

	"github.com/dropkickfish/barq-client/internal/catalog"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	c, dropped := catalog.New([]catalog.Item{
		{ID: "ipa", Name: "IPA", Price: decimal.RequireFromString("5.50")},
		{ID: "cola", Name: "Cola", Price: decimal.RequireFromString("2.35")},
		{ID: "nachos", Name: "Nachos", Price: decimal.RequireFromString("7.00")},
	})
	require.Empty(t, dropped)
	return c
}

func TestLineItemsSkipZeroAndUnknown(t *testing.T) {
	c := testCatalog(t)
	l := ledger.New()
	l.SetQuantity("cola", 2)
	l.SetQuantity("ipa", 1)
	l.SetQuantity("nachos", 0)
	l.SetQuantity("ghost", 3)

	items := l.LineItems(c)
	require.Len(t, items, 2)
	assert.Equal(t, "cola", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "ipa", items[1].ID)
	assert.Equal(t, 0, l.Quantity("nachos"))
}

func TestTotal(t *testing.T) {
	c := testCatalog(t)
	l := ledger.New()
	l.SetQuantity("cola", 3)
	l.SetQuantity("ipa", 2)

	assert.True(t, decimal.RequireFromString("18.05").Equal(l.Total(c)), "got %s", l.Total(c))
}

func TestEmptyLedgerTotalIsZero(t *testing.T) {
	l := ledger.New()
	assert.True(t, l.Total(testCatalog(t)).IsZero())
	assert.Empty(t, l.LineItems(testCatalog(t)))
}

func TestNegativeQuantityClampsToZero(t *testing.T) {
	c := testCatalog(t)
	l := ledger.New()
	l.SetQuantity("ipa", 4)
	l.SetQuantity("ipa", -2)

	assert.Equal(t, 0, l.Quantity("ipa"))
	assert.Empty(t, l.LineItems(c))
}

func TestSettingZeroKeepsPositionWhenRaisedAgain(t *testing.T) {
	c := testCatalog(t)
	l := ledger.New()
	l.SetQuantity("ipa", 1)
	l.SetQuantity("cola", 1)
	l.SetQuantity("ipa", 0)
	l.SetQuantity("ipa", 2)

	items := l.LineItems(c)
	require.Len(t, items, 2)
	assert.Equal(t, "ipa", items[0].ID)
}

func TestRestoreReproducesLineItemsAndNotes(t *testing.T) {
	c := testCatalog(t)
	l := ledger.New()
	l.SetQuantity("nachos", 1)
	l.SetQuantity("cola", 2)
	l.SetNotes("no ice")

	restored := ledger.New()
	restored.SetQuantity("ipa", 9)
	restored.Restore(l.LineItems(c), l.Notes())

	assert.Equal(t, l.LineItems(c), restored.LineItems(c))
	assert.Equal(t, "no ice", restored.Notes())
	assert.Equal(t, 0, restored.Quantity("ipa"))
}

func TestReset(t *testing.T) {
	l := ledger.New()
	l.SetQuantity("ipa", 1)
	l.SetNotes("x")
	l.Reset()

	assert.Empty(t, l.LineItems(testCatalog(t)))
	assert.Empty(t, l.Notes())
}
