package navigator

import (
	"github.com/dropkickfish/barq-client/internal/catalog"
	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/dropkickfish/barq-client/internal/payment"
	"github.com/shopspring/decimal"
)

// Page is a view of the active screen. Exactly one variant is active at a time.
type Page interface {
	Kind() enum.Page
	Accept(r Renderer)
}

// Renderer has one method per page variant. Adding a variant adds a method,
// so every renderer must handle it before the code compiles.
type Renderer interface {
	Menu(MenuPage)
	Checkout(CheckoutPage)
	Pay(PayPage)
	Queue(QueuePage)
	Closed(ClosedPage)
}

// MenuPage lists the catalog with the quantities picked so far.
type MenuPage struct {
	VenueName  string
	Items      []catalog.Item
	Quantities map[string]int
	Total      decimal.Decimal
}

// CheckoutPage shows the bill before payment.
type CheckoutPage struct {
	Lines         []ledger.LineItem
	Total         decimal.Decimal
	SpecialWishes string
}

// PayPage shows the card form and the pay button state.
type PayPage struct {
	Total     decimal.Decimal
	State     payment.State
	CanGoBack bool
	LastError string
}

// QueuePage shows the confirmed order and its status.
type QueuePage struct {
	OrderID       string
	Status        string
	Lines         []ledger.LineItem
	Total         decimal.Decimal
	SpecialWishes string
}

// ClosedPage is shown while the venue does not accept orders.
type ClosedPage struct {
	VenueName string
}

func (MenuPage) Kind() enum.Page     { return enum.PageMenu }
func (CheckoutPage) Kind() enum.Page { return enum.PageCheckout }
func (PayPage) Kind() enum.Page      { return enum.PagePay }
func (QueuePage) Kind() enum.Page    { return enum.PageQueue }
func (ClosedPage) Kind() enum.Page   { return enum.PageClosed }

func (p MenuPage) Accept(r Renderer)     { r.Menu(p) }
func (p CheckoutPage) Accept(r Renderer) { r.Checkout(p) }
func (p PayPage) Accept(r Renderer)      { r.Pay(p) }
func (p QueuePage) Accept(r Renderer)    { r.Queue(p) }
func (p ClosedPage) Accept(r Renderer)   { r.Closed(p) }
