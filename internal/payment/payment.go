// Package payment drives a single card payment attempt: field readiness,
// tokenization, submission to the venue backend and the resulting state.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/dropkickfish/barq-client/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors returned by the orchestrator.
var (
	ErrNotClickable     = errors.New("payment button is not clickable")
	ErrTokenization     = errors.New("card details rejected by payment provider")
	ErrBackendRejection = errors.New("payment rejected by venue")
	ErrEmptyOrder       = errors.New("order has no line items")
	ErrUnknownField     = errors.New("unknown payment field")
)

// CardInput is the raw card data typed by the customer.
type CardInput struct {
	Name       string `json:"name"`
	Number     string `json:"number"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"`
	CVC        string `json:"cvc"`
	PostalCode string `json:"postalCode"`
}

// Tokenizer turns card input into an opaque single-use token.
type Tokenizer interface {
	Tokenize(ctx context.Context, card CardInput) (string, error)
}

// Gateway submits a payment request to the venue backend.
type Gateway interface {
	Pay(ctx context.Context, req Request, idempotencyKey string) (*Response, error)
}

// Recorder persists the order of record after a confirmed payment.
type Recorder interface {
	SaveOrder(ctx context.Context, rec store.Record) error
}

// Order is what the customer is paying for.
type Order struct {
	Items         []ledger.LineItem
	SpecialWishes string
}

// Total is the order total rounded to 2 decimals.
func (o Order) Total() decimal.Decimal { return ledger.Sum(o.Items) }

// Request is the body of POST <venuePath>/pay.
type Request struct {
	Payment Charge       `json:"payment"`
	Order   OrderPayload `json:"order"`
}

// Charge is the card charge part of Request.
type Charge struct {
	Amount              int64  `json:"amount"`
	Currency            string `json:"currency"`
	Description         string `json:"description"`
	Source              string `json:"source"`
	StatementDescriptor string `json:"statementDescriptor"`
}

// OrderPayload is the order part of Request.
type OrderPayload struct {
	Items         []ledger.LineItem `json:"items"`
	SpecialWishes string            `json:"specialWishes,omitempty"`
}

// Response is the reply of POST <venuePath>/pay.
type Response struct {
	Status      string `json:"status"`
	OrderID     string `json:"orderId,omitempty"`
	OrderStatus string `json:"orderStatus,omitempty"`
}

// Receipt identifies a paid order.
type Receipt struct {
	OrderID     string
	OrderStatus string
	Record      store.Record
}

// MinorUnits converts an amount to integer cents.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Options configures the charge description sent with each payment.
type Options struct {
	Currency            string
	Description         string
	StatementDescriptor string
	Fields              []Field
}

// DefaultOptions matches the venue's drinks checkout.
func DefaultOptions() Options {
	return Options{
		Currency:            enum.CurrencyEUR,
		Description:         "Drinks order",
		StatementDescriptor: "Drinks order",
		Fields:              DefaultFields,
	}
}

// Orchestrator owns the payment attempt state machine. The clickable check
// and the move to SUBMITTING happen under one lock, so at most one
// submission is ever in flight.
type Orchestrator struct {
	tokenizer Tokenizer
	gateway   Gateway
	recorder  Recorder
	opts      Options
	logger    *zap.Logger

	mu      sync.Mutex
	state   State
	ready   readiness
	lastErr error
	receipt *Receipt
}

// NewOrchestrator creates an Orchestrator in LOADING.
func NewOrchestrator(tokenizer Tokenizer, gateway Gateway, recorder Recorder, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Fields) == 0 {
		opts.Fields = DefaultFields
	}
	if opts.Currency == "" {
		opts.Currency = enum.CurrencyEUR
	}
	return &Orchestrator{
		tokenizer: tokenizer,
		gateway:   gateway,
		recorder:  recorder,
		opts:      opts,
		logger:    logger,
		state:     StateLoading,
		ready:     newReadiness(opts.Fields),
	}
}

// Reset starts a fresh attempt cycle: LOADING with no fields ready.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateLoading
	o.ready.reset()
	o.lastErr = nil
	o.receipt = nil
}

// FieldReady records that a card widget finished mounting. The attempt moves
// to READY once every required field has reported, each counted once.
func (o *Orchestrator) FieldReady(f Field) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready.known(f) {
		return o.state, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	if o.ready.mark(f) && o.state == StateLoading {
		o.state = StateReady
		o.logger.Debug("payment fields ready")
	}
	return o.state, nil
}

// State returns the current attempt state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CanGoBack reports whether leaving the pay page is allowed.
func (o *Orchestrator) CanGoBack() bool {
	s := o.State()
	return s != StateSubmitting && s != StateSucceeded
}

// LastError returns the cause of the last FAILED attempt.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Submit runs one payment attempt. A press while not clickable returns
// ErrNotClickable without any I/O; a press after success returns the held
// receipt. Once SUBMITTING starts the attempt is not cancelled by ctx.
func (o *Orchestrator) Submit(ctx context.Context, order Order, card CardInput) (*Receipt, error) {
	held, err := o.Begin(order)
	if err != nil || held != nil {
		return held, err
	}
	return o.Finish(ctx, order, card)
}

// Begin claims the submit button: it moves a clickable attempt to SUBMITTING
// without doing any I/O. After success it returns the held receipt and the
// caller must not call Finish. Callers that guard other transitions with
// their own lock call Begin under it, so nothing can slip in between the
// press and the state change.
func (o *Orchestrator) Begin(order Order) (*Receipt, error) {
	if len(order.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case o.state == StateSucceeded:
		return o.receipt, nil
	case !o.state.Clickable():
		o.logger.Debug("ignoring submit", zap.Stringer("state", o.state))
		return nil, ErrNotClickable
	}
	o.state = StateSubmitting
	o.lastErr = nil
	return nil, nil
}

// Finish performs the attempt claimed by Begin and records its outcome.
func (o *Orchestrator) Finish(ctx context.Context, order Order, card CardInput) (*Receipt, error) {
	if o.State() != StateSubmitting {
		return nil, ErrNotClickable
	}

	ctx = context.WithoutCancel(ctx)
	receipt, err := o.attempt(ctx, order, card)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state = StateFailed
		o.lastErr = err
		o.logger.Warn("payment failed", zap.Error(err))
		return nil, err
	}
	o.state = StateSucceeded
	o.receipt = receipt
	return receipt, nil
}

func (o *Orchestrator) attempt(ctx context.Context, order Order, card CardInput) (*Receipt, error) {
	token, err := o.tokenizer.Tokenize(ctx, card)
	if err != nil {
		if errors.Is(err, ErrTokenization) {
			return nil, err
		}
		return nil, fmt.Errorf("tokenize card: %w", err)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenization)
	}

	req := Request{
		Payment: Charge{
			Amount:              MinorUnits(order.Total()),
			Currency:            o.opts.Currency,
			Description:         o.opts.Description,
			Source:              token,
			StatementDescriptor: o.opts.StatementDescriptor,
		},
		Order: OrderPayload{Items: order.Items, SpecialWishes: order.SpecialWishes},
	}

	key := uuid.NewString()
	o.logger.Info("submitting payment",
		zap.Int64("amount", req.Payment.Amount),
		zap.String("currency", req.Payment.Currency),
		zap.Int("items", len(order.Items)),
		zap.String("idempotency_key", key),
	)

	resp, err := o.gateway.Pay(ctx, req, key)
	if err != nil {
		return nil, err
	}
	if resp.Status != enum.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: status %q", ErrBackendRejection, resp.Status)
	}
	if resp.OrderID == "" {
		o.logger.Warn("paid response without order id")
	}

	rec := store.Record{
		Items:         order.Items,
		SpecialWishes: order.SpecialWishes,
		Status:        resp.Status,
		OrderID:       resp.OrderID,
		OrderStatus:   resp.OrderStatus,
	}
	if rec.OrderStatus == "" {
		rec.OrderStatus = enum.OrderStatusPaid
	}
	// The charge went through; a storage failure must not turn it into FAILED.
	if err := o.recorder.SaveOrder(ctx, rec); err != nil {
		o.logger.Error("persist paid order", zap.String("order_id", rec.OrderID), zap.Error(err))
	}
	o.logger.Info("payment succeeded", zap.String("order_id", rec.OrderID))
	return &Receipt{OrderID: rec.OrderID, OrderStatus: rec.OrderStatus, Record: rec}, nil
}

// idempotencyHeader builds the header carrying the per-attempt key.
func idempotencyHeader(key string) http.Header {
	h := http.Header{}
	h.Set("Idempotency-Key", key)
	return h
}
