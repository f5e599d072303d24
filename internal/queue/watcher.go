package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to read the next message or ping from the venue.
	pongWait = 60 * time.Second

	// Maximum message size accepted from the venue.
	maxMessageSize = 4096
)

// Event is a message pushed by the venue over the status socket.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type statusPayload struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
}

// StatusUpdater receives status changes.
type StatusUpdater interface {
	Identity() Identity
	UpdateStatus(ctx context.Context, status string) error
}

// Watcher subscribes to <wsBase>/orders/{id} and feeds status events into a
// tracker. It reconnects until its context ends.
type Watcher struct {
	base    string
	tracker StatusUpdater
	dialer  *websocket.Dialer
	backoff *rate.Limiter
	header  http.Header
	logger  *zap.Logger
}

// NewWatcher creates a Watcher. wsBase is e.g. "wss://orders.example.com/bars/tap".
func NewWatcher(wsBase string, tracker StatusUpdater, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		base:    strings.TrimRight(wsBase, "/"),
		tracker: tracker,
		dialer:  websocket.DefaultDialer,
		backoff: rate.NewLimiter(rate.Every(2*time.Second), 1),
		header:  http.Header{},
		logger:  logger,
	}
}

// Run watches the currently tracked order until ctx is done. It returns nil
// on cancellation and ErrNoOrder when nothing is being tracked.
func (w *Watcher) Run(ctx context.Context) error {
	id := w.tracker.Identity()
	if !id.Placed() {
		return ErrNoOrder
	}
	endpoint := w.base + "/orders/" + url.PathEscape(id.OrderID)

	for {
		if err := w.backoff.Wait(ctx); err != nil {
			return nil
		}
		err := w.session(ctx, endpoint, id.OrderID)
		if ctx.Err() != nil {
			return nil
		}
		w.logger.Warn("status socket closed, reconnecting", zap.String("order_id", id.OrderID), zap.Error(err))
	}
}

func (w *Watcher) session(ctx context.Context, endpoint, orderID string) error {
	conn, _, err := w.dialer.DialContext(ctx, endpoint, w.header)
	if err != nil {
		return fmt.Errorf("dial status socket: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	w.logger.Debug("status socket connected", zap.String("order_id", orderID))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		if err := w.handle(ctx, orderID, msg); err != nil {
			w.logger.Warn("dropping status event", zap.Error(err))
		}
	}
}

// handle applies one message. Messages may hold several newline-separated
// events, matching how the venue batches queued writes.
func (w *Watcher) handle(ctx context.Context, orderID string, msg []byte) error {
	var errs []error
	for _, line := range strings.Split(string(msg), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			errs = append(errs, fmt.Errorf("decode event: %w", err))
			continue
		}
		if ev.Type != enum.EventOrderStatus {
			continue
		}
		var p statusPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			errs = append(errs, fmt.Errorf("decode status payload: %w", err))
			continue
		}
		if p.OrderID != "" && p.OrderID != orderID {
			continue
		}
		if p.OrderStatus == "" {
			continue
		}
		if err := w.tracker.UpdateStatus(ctx, p.OrderStatus); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
