// Package store is the persistence bridge: the only code that reads or writes
// the durable order of record. The storage medium is a pluggable Backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"go.uber.org/zap"
)

// Errors returned by the persistence bridge and its backends.
var (
	ErrNotFound      = errors.New("record not found")
	ErrCorruptRecord = errors.New("stored order record is corrupt")
)

// Backend is a durable key/value medium. Get returns ErrNotFound for a
// missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Record is the order of record: either a cart in progress (no OrderID) or a
// confirmed paid order.
type Record struct {
	Items         []ledger.LineItem `json:"items"`
	SpecialWishes string            `json:"specialWishes,omitempty"`
	Status        string            `json:"status,omitempty"`
	OrderID       string            `json:"orderId,omitempty"`
	OrderStatus   string            `json:"orderStatus,omitempty"`
}

// HasOrder reports whether the record carries a server order id.
func (r Record) HasOrder() bool { return r.OrderID != "" }

// Paid reports whether the record is a confirmed payment, with or without an
// order id. A paid record is never a resumable cart.
func (r Record) Paid() bool { return r.HasOrder() || r.Status == enum.PaymentStatusPaid }

// Bridge saves, loads and clears the order of record under a single key.
type Bridge struct {
	backend Backend
	key     string
	logger  *zap.Logger
}

// NewBridge creates a Bridge storing under "<sessionKey>:order".
func NewBridge(backend Backend, sessionKey string, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionKey == "" {
		sessionKey = "default"
	}
	return &Bridge{backend: backend, key: sessionKey + ":order", logger: logger}
}

// Key returns the storage key used for the order of record.
func (b *Bridge) Key() string { return b.key }

// SaveOrder replaces the order of record.
func (b *Bridge) SaveOrder(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal order record: %w", err)
	}
	if err := b.backend.Put(ctx, b.key, data); err != nil {
		return fmt.Errorf("save order record: %w", err)
	}
	b.logger.Debug("order record saved",
		zap.String("key", b.key),
		zap.Int("items", len(rec.Items)),
		zap.String("order_id", rec.OrderID),
	)
	return nil
}

// LoadOrder returns the order of record, or nil when nothing is stored.
func (b *Bridge) LoadOrder(ctx context.Context) (*Record, error) {
	data, err := b.backend.Get(ctx, b.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load order record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return &rec, nil
}

// Clear removes the order of record. Clearing an empty store is not an error.
func (b *Bridge) Clear(ctx context.Context) error {
	if err := b.backend.Delete(ctx, b.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clear order record: %w", err)
	}
	b.logger.Debug("order record cleared", zap.String("key", b.key))
	return nil
}
