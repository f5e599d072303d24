package handler

import (
	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/dropkickfish/barq-client/internal/navigator"
)

// stateResponse is the JSON shape of the active page. Exactly one of the
// page fields is set, matching Page.
type stateResponse struct {
	Page     enum.Page     `json:"page"`
	Menu     *menuView     `json:"menu,omitempty"`
	Checkout *checkoutView `json:"checkout,omitempty"`
	Pay      *payView      `json:"pay,omitempty"`
	Queue    *queueView    `json:"queue,omitempty"`
	Closed   *closedView   `json:"closed,omitempty"`
}

type menuItemView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageRef string `json:"imageRef,omitempty"`
	Quantity int    `json:"quantity"`
}

type menuView struct {
	VenueName string         `json:"venueName"`
	Items     []menuItemView `json:"items"`
	Total     string         `json:"total"`
}

type lineView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type checkoutView struct {
	Lines         []lineView `json:"lines"`
	Total         string     `json:"total"`
	SpecialWishes string     `json:"specialWishes"`
}

type payView struct {
	Total       string `json:"total"`
	State       string `json:"state"`
	ButtonTitle string `json:"buttonTitle"`
	Clickable   bool   `json:"clickable"`
	CanGoBack   bool   `json:"canGoBack"`
	Error       string `json:"error,omitempty"`
}

type queueView struct {
	OrderID       string     `json:"orderId"`
	Status        string     `json:"status"`
	Lines         []lineView `json:"lines"`
	Total         string     `json:"total"`
	SpecialWishes string     `json:"specialWishes,omitempty"`
}

type closedView struct {
	VenueName string `json:"venueName"`
}

// jsonRenderer builds a stateResponse. It implements navigator.Renderer so
// a new page kind fails to compile until it is rendered here.
type jsonRenderer struct {
	out stateResponse
}

var _ navigator.Renderer = (*jsonRenderer)(nil)

// render converts a page into its JSON view.
func render(p navigator.Page) stateResponse {
	r := &jsonRenderer{}
	p.Accept(r)
	r.out.Page = p.Kind()
	return r.out
}

func (r *jsonRenderer) Menu(p navigator.MenuPage) {
	items := make([]menuItemView, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, menuItemView{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price.StringFixed(2),
			ImageRef: it.ImageRef,
			Quantity: p.Quantities[it.ID],
		})
	}
	r.out.Menu = &menuView{VenueName: p.VenueName, Items: items, Total: p.Total.StringFixed(2)}
}

func (r *jsonRenderer) Checkout(p navigator.CheckoutPage) {
	r.out.Checkout = &checkoutView{
		Lines:         lines(p.Lines),
		Total:         p.Total.StringFixed(2),
		SpecialWishes: p.SpecialWishes,
	}
}

func (r *jsonRenderer) Pay(p navigator.PayPage) {
	r.out.Pay = &payView{
		Total:       p.Total.StringFixed(2),
		State:       p.State.String(),
		ButtonTitle: p.State.Title(),
		Clickable:   p.State.Clickable(),
		CanGoBack:   p.CanGoBack,
		Error:       p.LastError,
	}
}

func (r *jsonRenderer) Queue(p navigator.QueuePage) {
	r.out.Queue = &queueView{
		OrderID:       p.OrderID,
		Status:        p.Status,
		Lines:         lines(p.Lines),
		Total:         p.Total.StringFixed(2),
		SpecialWishes: p.SpecialWishes,
	}
}

func (r *jsonRenderer) Closed(p navigator.ClosedPage) {
	r.out.Closed = &closedView{VenueName: p.VenueName}
}

func lines(items []ledger.LineItem) []lineView {
	out := make([]lineView, 0, len(items))
	for _, li := range items {
		out = append(out, lineView{
			ID:       li.ID,
			Name:     li.Name,
			Price:    li.Price.StringFixed(2),
			Quantity: li.Quantity,
			Subtotal: li.Subtotal().StringFixed(2),
		})
	}
	return out
}
