package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Runner follows the tracked order until its context ends. Watcher and
// Poller both satisfy it.
type Runner interface {
	Run(ctx context.Context) error
}

// Follower keeps exactly one Runner going while an order is held and stops
// it once the order is cleared.
type Follower struct {
	tracker *Tracker
	runner  Runner
	logger  *zap.Logger
	wake    chan struct{}
}

// NewFollower creates a Follower and subscribes it to tracker changes.
func NewFollower(tracker *Tracker, runner Runner, logger *zap.Logger) *Follower {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Follower{
		tracker: tracker,
		runner:  runner,
		logger:  logger,
		wake:    make(chan struct{}, 1),
	}
	tracker.OnChange(func(Identity) {
		select {
		case f.wake <- struct{}{}:
		default:
		}
	})
	return f
}

// Run blocks until ctx is done.
func (f *Follower) Run(ctx context.Context) {
	var (
		current string
		cancel  context.CancelFunc
		wg      sync.WaitGroup
	)
	stop := func() {
		if cancel != nil {
			cancel()
			cancel = nil
		}
		wg.Wait()
		current = ""
	}
	defer stop()

	for {
		id := f.tracker.Identity()
		switch {
		case id.Placed() && id.OrderID != current:
			stop()
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(ctx)
			current = id.OrderID
			f.logger.Info("following order", zap.String("order_id", current))
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := f.runner.Run(runCtx); err != nil {
					f.logger.Warn("order follower stopped", zap.Error(err))
				}
			}()
		case !id.Placed() && current != "":
			f.logger.Info("stopped following order", zap.String("order_id", current))
			stop()
		}

		select {
		case <-ctx.Done():
			return
		case <-f.wake:
		}
	}
}
