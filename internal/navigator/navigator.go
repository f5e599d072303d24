// Package navigator is the page state machine of the ordering client. It owns
// the active page, decides the first page after a reload, and gates every
// transition the customer or a payment outcome triggers.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/dropkickfish/barq-client/internal/payment"
	"github.com/dropkickfish/barq-client/internal/queue"
	"github.com/dropkickfish/barq-client/internal/store"
	"github.com/dropkickfish/barq-client/internal/venue"
	"go.uber.org/zap"
)

// Errors returned by the navigator.
var (
	ErrNotReady          = errors.New("navigator has not been bootstrapped")
	ErrInvalidTransition = errors.New("transition not allowed from current page")
	ErrEmptyOrder        = errors.New("order has no line items")
	ErrCartLocked        = errors.New("order can only be edited on the menu or checkout page")
	ErrUnknownItem       = errors.New("item is not on the menu")
	ErrBackNotAllowed    = errors.New("cannot go back while the payment is in flight or complete")
)

// VenueSession is the venue dependency.
type VenueSession interface {
	Load(ctx context.Context) (venue.State, error)
	CheckOpenNow(ctx context.Context) (bool, error)
}

// Deps are the collaborators the navigator drives.
type Deps struct {
	Ledger  *ledger.Ledger
	Bridge  *store.Bridge
	Venue   VenueSession
	Payment *payment.Orchestrator
	Queue   *queue.Tracker
	Logger  *zap.Logger
}

// Listener is called after every page change.
type Listener func(enum.Page)

// Option configures a Navigator.
type Option func(*Navigator)

// WithListener registers l for page changes.
func WithListener(l Listener) Option {
	return func(n *Navigator) { n.listeners = append(n.listeners, l) }
}

// Navigator owns the active page. All state changes go through its mutex;
// the payment submission itself runs outside it.
type Navigator struct {
	ledger  *ledger.Ledger
	bridge  *store.Bridge
	venue   VenueSession
	payment *payment.Orchestrator
	queue   *queue.Tracker
	logger  *zap.Logger

	mu          sync.Mutex
	page        enum.Page
	booted      bool
	restored    bool
	venueState  venue.State
	venueLoaded bool
	listeners   []Listener
}

// New creates a Navigator. Call Bootstrap before anything else.
func New(deps Deps, opts ...Option) *Navigator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Navigator{
		ledger:  deps.Ledger,
		bridge:  deps.Bridge,
		venue:   deps.Venue,
		payment: deps.Payment,
		queue:   deps.Queue,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Bootstrap reads the persisted order of record, loads the venue and picks
// the first page:
//
//	persisted paid order         → QUEUE
//	no catalog or venue closed   → CLOSED
//	persisted cart with items    → CHECKOUT
//	otherwise                    → MENU
//
// An unknown venue routes to CLOSED. If the venue is unreachable and no order
// is held the error is returned and Bootstrap may be called again. With a
// held order the venue is loaded later, when the order is cleared.
func (n *Navigator) Bootstrap(ctx context.Context) (enum.Page, error) {
	n.mu.Lock()
	if n.booted {
		p := n.page
		n.mu.Unlock()
		return p, nil
	}

	if !n.restored {
		n.restore(ctx)
		n.restored = true
	}

	err := n.loadVenue(ctx)
	switch {
	case err == nil:
	case n.queue.Held():
		n.logger.Warn("venue unreachable, showing held order", zap.Error(err))
	default:
		n.mu.Unlock()
		return "", err
	}

	st := n.venueState
	var page enum.Page
	switch {
	case n.queue.Held():
		page = enum.PageQueue
	case !st.AcceptingOrders():
		page = enum.PageClosed
	case len(n.ledger.LineItems(st.Catalog)) > 0:
		page = enum.PageCheckout
	default:
		page = enum.PageMenu
	}
	n.booted = true
	notify := n.setPage(page)
	n.mu.Unlock()

	n.logger.Info("bootstrapped", zap.String("page", string(page)))
	notify()
	return page, nil
}

// restore applies the persisted order of record. Must hold n.mu.
func (n *Navigator) restore(ctx context.Context) {
	rec, err := n.bridge.LoadOrder(ctx)
	if err != nil {
		// Leave whatever is stored alone; the next save replaces it.
		n.logger.Error("load persisted order", zap.Error(err))
		return
	}
	if rec == nil {
		return
	}
	if rec.Paid() {
		n.queue.Hold(*rec)
	} else {
		n.ledger.Restore(rec.Items, rec.SpecialWishes)
	}
	n.logger.Info("restored persisted order",
		zap.Int("items", len(rec.Items)),
		zap.String("order_id", rec.OrderID),
		zap.Bool("paid", rec.Paid()),
	)
}

// loadVenue fetches the venue state. An unknown venue counts as loaded and
// closed. Must hold n.mu.
func (n *Navigator) loadVenue(ctx context.Context) error {
	st, err := n.venue.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, venue.ErrVenueNotFound):
		n.logger.Warn("venue not found, showing closed page", zap.Error(err))
		st = venue.State{}
	default:
		return fmt.Errorf("load venue: %w", err)
	}
	n.venueState = st
	n.venueLoaded = true
	return nil
}

// Page returns the active page kind.
func (n *Navigator) Page() (enum.Page, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.booted {
		return "", ErrNotReady
	}
	return n.page, nil
}

// Current returns a view of the active page.
func (n *Navigator) Current() (Page, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.booted {
		return nil, ErrNotReady
	}
	cat := n.venueState.Catalog
	switch n.page {
	case enum.PageMenu:
		q := make(map[string]int)
		for _, li := range n.ledger.LineItems(cat) {
			q[li.ID] = li.Quantity
		}
		return MenuPage{
			VenueName:  n.venueState.Name,
			Items:      cat.Items(),
			Quantities: q,
			Total:      n.ledger.Total(cat),
		}, nil
	case enum.PageCheckout:
		return CheckoutPage{
			Lines:         n.ledger.LineItems(cat),
			Total:         n.ledger.Total(cat),
			SpecialWishes: n.ledger.Notes(),
		}, nil
	case enum.PagePay:
		p := PayPage{
			Total:     n.ledger.Total(cat),
			State:     n.payment.State(),
			CanGoBack: n.payment.CanGoBack(),
		}
		if err := n.payment.LastError(); err != nil {
			p.LastError = err.Error()
		}
		return p, nil
	case enum.PageQueue:
		rec := n.queue.Record()
		return QueuePage{
			OrderID:       rec.OrderID,
			Status:        rec.OrderStatus,
			Lines:         rec.Items,
			Total:         ledger.Sum(rec.Items),
			SpecialWishes: rec.SpecialWishes,
		}, nil
	default:
		return ClosedPage{VenueName: n.venueState.Name}, nil
	}
}

// SetQuantity changes the quantity of a catalog item.
func (n *Navigator) SetQuantity(id string, qty int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.editable(); err != nil {
		return err
	}
	if _, ok := n.venueState.Catalog.Lookup(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	n.ledger.SetQuantity(id, qty)
	return nil
}

// SetNotes changes the special wishes.
func (n *Navigator) SetNotes(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.editable(); err != nil {
		return err
	}
	n.ledger.SetNotes(text)
	return nil
}

func (n *Navigator) editable() error {
	if !n.booted {
		return ErrNotReady
	}
	if n.page != enum.PageMenu && n.page != enum.PageCheckout {
		return ErrCartLocked
	}
	return nil
}

// Proceed moves MENU → CHECKOUT and saves the cart.
func (n *Navigator) Proceed(ctx context.Context) error {
	n.mu.Lock()
	if err := n.expect(enum.PageMenu); err != nil {
		n.mu.Unlock()
		return err
	}
	n.saveCart(ctx)
	notify := n.setPage(enum.PageCheckout)
	n.mu.Unlock()
	notify()
	return nil
}

// GoToPay moves CHECKOUT → PAY. The cart is saved first, then the venue is
// asked whether it is still open; a closed venue routes to CLOSED with the
// cart kept. The open check finishes before PAY becomes active.
func (n *Navigator) GoToPay(ctx context.Context) (enum.Page, error) {
	n.mu.Lock()
	if err := n.expect(enum.PageCheckout); err != nil {
		n.mu.Unlock()
		return "", err
	}
	if len(n.ledger.LineItems(n.venueState.Catalog)) == 0 {
		n.mu.Unlock()
		return enum.PageCheckout, ErrEmptyOrder
	}
	n.saveCart(ctx)

	open, err := n.venue.CheckOpenNow(ctx)
	if err != nil {
		n.mu.Unlock()
		return enum.PageCheckout, fmt.Errorf("check venue open: %w", err)
	}

	var next enum.Page
	if open {
		n.payment.Reset()
		next = enum.PagePay
	} else {
		n.logger.Info("venue closed before payment")
		n.venueState.IsOpen = false
		next = enum.PageClosed
	}
	notify := n.setPage(next)
	n.mu.Unlock()
	notify()
	return next, nil
}

// Back moves CHECKOUT → MENU, or PAY → CHECKOUT while the payment is neither
// in flight nor complete.
func (n *Navigator) Back() (enum.Page, error) {
	n.mu.Lock()
	if !n.booted {
		n.mu.Unlock()
		return "", ErrNotReady
	}
	var next enum.Page
	switch n.page {
	case enum.PageCheckout:
		next = enum.PageMenu
	case enum.PagePay:
		if !n.payment.CanGoBack() {
			n.mu.Unlock()
			return enum.PagePay, ErrBackNotAllowed
		}
		next = enum.PageCheckout
	default:
		p := n.page
		n.mu.Unlock()
		return p, fmt.Errorf("%w: back from %s", ErrInvalidTransition, p)
	}
	notify := n.setPage(next)
	n.mu.Unlock()
	notify()
	return next, nil
}

// FieldReady forwards a card widget ready event to the payment attempt.
func (n *Navigator) FieldReady(f payment.Field) (payment.State, error) {
	n.mu.Lock()
	if err := n.expect(enum.PagePay); err != nil {
		n.mu.Unlock()
		return 0, err
	}
	n.mu.Unlock()
	return n.payment.FieldReady(f)
}

// SubmitPayment runs a payment attempt for the current cart and moves
// PAY → QUEUE on success. Failures keep PAY active and the cart untouched.
func (n *Navigator) SubmitPayment(ctx context.Context, card payment.CardInput) (*payment.Receipt, error) {
	n.mu.Lock()
	if err := n.expect(enum.PagePay); err != nil {
		n.mu.Unlock()
		return nil, err
	}
	order := payment.Order{
		Items:         n.ledger.LineItems(n.venueState.Catalog),
		SpecialWishes: n.ledger.Notes(),
	}
	// Claim SUBMITTING before unlocking so Back cannot leave PAY mid-attempt.
	receipt, err := n.payment.Begin(order)
	if err != nil {
		n.mu.Unlock()
		return nil, err
	}
	if receipt == nil {
		n.mu.Unlock()
		receipt, err = n.payment.Finish(ctx, order, card)
		if err != nil {
			return nil, err
		}
		n.mu.Lock()
	}

	n.queue.Hold(receipt.Record)
	notify := n.setPage(enum.PageQueue)
	n.mu.Unlock()
	notify()
	return receipt, nil
}

// ClearOrder forgets a placed order and starts over. The next page is MENU,
// or CLOSED when the venue state does not accept orders. If the venue was
// never loaded it is loaded first; on failure the order stays on QUEUE.
func (n *Navigator) ClearOrder(ctx context.Context) (enum.Page, error) {
	n.mu.Lock()
	if err := n.expect(enum.PageQueue); err != nil {
		n.mu.Unlock()
		return "", err
	}
	if !n.venueLoaded {
		if err := n.loadVenue(ctx); err != nil {
			n.mu.Unlock()
			return enum.PageQueue, err
		}
	}
	if err := n.queue.ClearOrder(ctx); err != nil {
		n.mu.Unlock()
		return enum.PageQueue, err
	}
	n.ledger.Reset()
	n.payment.Reset()

	next := enum.PageMenu
	if !n.venueState.AcceptingOrders() {
		next = enum.PageClosed
	}
	notify := n.setPage(next)
	n.mu.Unlock()
	notify()
	return next, nil
}

func (n *Navigator) expect(p enum.Page) error {
	if !n.booted {
		return ErrNotReady
	}
	if n.page != p {
		return fmt.Errorf("%w: on %s, need %s", ErrInvalidTransition, n.page, p)
	}
	return nil
}

// saveCart persists the cart as the order of record. Must hold n.mu.
func (n *Navigator) saveCart(ctx context.Context) {
	rec := store.Record{
		Items:         n.ledger.LineItems(n.venueState.Catalog),
		SpecialWishes: n.ledger.Notes(),
	}
	if err := n.bridge.SaveOrder(ctx, rec); err != nil {
		n.logger.Error("save cart", zap.Error(err))
	}
}

// setPage switches the active page and returns a func that notifies
// listeners. Must hold n.mu; call the returned func after unlocking.
func (n *Navigator) setPage(p enum.Page) func() {
	prev := n.page
	n.page = p
	if prev == p {
		return func() {}
	}
	n.logger.Debug("page changed", zap.String("from", string(prev)), zap.String("to", string(p)))
	listeners := n.listeners
	return func() {
		for _, l := range listeners {
			l(p)
		}
	}
}
