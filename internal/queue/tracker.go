// Package queue holds the server-confirmed order after payment and keeps its
// status current.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/store"
	"go.uber.org/zap"
)

// ErrNoOrder is returned when a status update arrives with no order held.
var ErrNoOrder = errors.New("no order is being tracked")

// Identity is the server identity of a placed order. The zero value means
// no order has been placed.
type Identity struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Placed reports whether the identity refers to an order.
func (i Identity) Placed() bool { return i.OrderID != "" }

// Persister is the subset of the persistence bridge the tracker uses.
type Persister interface {
	SaveOrder(ctx context.Context, rec store.Record) error
	Clear(ctx context.Context) error
}

// Listener is told about every status change.
type Listener func(Identity)

// Tracker holds the confirmed order of record.
type Tracker struct {
	persist Persister
	logger  *zap.Logger

	mu        sync.RWMutex
	record    store.Record
	listeners []Listener
}

// NewTracker creates an empty Tracker.
func NewTracker(persist Persister, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{persist: persist, logger: logger}
}

// OnChange registers l for status changes.
func (t *Tracker) OnChange(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Hold starts tracking rec. Records that are not paid are ignored. A paid
// record without an order id is held but cannot be followed.
func (t *Tracker) Hold(rec store.Record) {
	if !rec.Paid() {
		return
	}
	t.mu.Lock()
	t.record = rec
	id := identityOf(rec)
	listeners := t.listeners
	t.mu.Unlock()

	t.logger.Info("tracking order", zap.String("order_id", id.OrderID), zap.String("status", id.Status))
	notify(listeners, id)
}

// Identity returns the tracked identity, zero when none.
func (t *Tracker) Identity() Identity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return identityOf(t.record)
}

// Held reports whether a paid order is being held, with or without an id.
func (t *Tracker) Held() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.record.Paid()
}

// Record returns the tracked order of record.
func (t *Tracker) Record() store.Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.record
}

// UpdateStatus applies a pushed or polled status and persists it. Repeating
// the current status is a no-op.
func (t *Tracker) UpdateStatus(ctx context.Context, status string) error {
	t.mu.Lock()
	if !t.record.Paid() {
		t.mu.Unlock()
		return ErrNoOrder
	}
	if t.record.OrderStatus == status {
		t.mu.Unlock()
		return nil
	}
	t.record.OrderStatus = status
	rec := t.record
	listeners := t.listeners
	t.mu.Unlock()

	t.logger.Info("order status changed", zap.String("order_id", rec.OrderID), zap.String("status", status))
	notify(listeners, identityOf(rec))

	if err := t.persist.SaveOrder(ctx, rec); err != nil {
		return fmt.Errorf("persist order status: %w", err)
	}
	return nil
}

// ClearOrder forgets the order and clears the durable order of record.
func (t *Tracker) ClearOrder(ctx context.Context) error {
	t.mu.Lock()
	prev := t.record.OrderID
	t.record = store.Record{}
	listeners := t.listeners
	t.mu.Unlock()

	if err := t.persist.Clear(ctx); err != nil {
		return fmt.Errorf("clear order: %w", err)
	}
	t.logger.Info("order cleared", zap.String("order_id", prev))
	notify(listeners, Identity{})
	return nil
}

func identityOf(rec store.Record) Identity {
	if !rec.Paid() {
		return Identity{Status: enum.OrderStatusNone}
	}
	return Identity{OrderID: rec.OrderID, Status: rec.OrderStatus}
}

func notify(listeners []Listener, id Identity) {
	for _, l := range listeners {
		l(id)
	}
}
