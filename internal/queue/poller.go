package queue

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Getter is the HTTP dependency of Poller.
type Getter interface {
	GetJSON(ctx context.Context, path string, out any) error
}

// Poller fetches GET <venuePath>/orders/{id} on an interval, for venues that
// do not push status over a socket.
type Poller struct {
	client   Getter
	tracker  StatusUpdater
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller creates a Poller.
func NewPoller(client Getter, tracker StatusUpdater, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{client: client, tracker: tracker, interval: interval, logger: logger}
}

// Run polls until ctx is done. Fetch errors are logged and retried on the
// next tick.
func (p *Poller) Run(ctx context.Context) error {
	id := p.tracker.Identity()
	if !id.Placed() {
		return ErrNoOrder
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx, id.OrderID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll(ctx, id.OrderID)
		}
	}
}

// Poll performs a single fetch for orderID.
func (p *Poller) Poll(ctx context.Context, orderID string) {
	var resp statusPayload
	if err := p.client.GetJSON(ctx, "/orders/"+url.PathEscape(orderID), &resp); err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("poll order status", zap.String("order_id", orderID), zap.Error(err))
		}
		return
	}
	if resp.OrderStatus == "" {
		return
	}
	if err := p.tracker.UpdateStatus(ctx, resp.OrderStatus); err != nil {
		p.logger.Warn("apply polled status", zap.String("order_id", orderID), zap.Error(err))
	}
}
