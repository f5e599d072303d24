package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dropkickfish/barq-client/internal/config"
	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/handler"
	"github.com/dropkickfish/barq-client/internal/httpclient"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/dropkickfish/barq-client/internal/navigator"
	"github.com/dropkickfish/barq-client/internal/payment"
	"github.com/dropkickfish/barq-client/internal/queue"
	"github.com/dropkickfish/barq-client/internal/router"
	"github.com/dropkickfish/barq-client/internal/store"
	"github.com/dropkickfish/barq-client/internal/venue"
	"github.com/dropkickfish/barq-client/internal/ws"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const bootstrapRetry = 3 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("kiosk stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	bridge := store.NewBridge(backend, cfg.SessionKey, logger.Named("store"))

	client, err := httpclient.New(cfg.VenueURL,
		httpclient.WithRateLimit(rate.Limit(cfg.RequestsPerSecond), 1),
		httpclient.WithLogger(logger.Named("http")),
	)
	if err != nil {
		return fmt.Errorf("venue client: %w", err)
	}

	tokenizer := payment.NewCardTokenizer(cfg.PaymentTokenURL, cfg.PaymentPublishableKey, &http.Client{Timeout: 15 * time.Second})
	orchestrator := payment.NewOrchestrator(tokenizer, payment.NewHTTPGateway(client), bridge, payment.DefaultOptions(), logger.Named("payment"))
	tracker := queue.NewTracker(bridge, logger.Named("queue"))

	hub := ws.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	tracker.OnChange(func(id queue.Identity) {
		ev, err := ws.NewEvent(enum.EventOrderStatus, id)
		if err != nil {
			logger.Error("order status event", zap.Error(err))
			return
		}
		hub.Broadcast(ev)
	})

	nav := navigator.New(navigator.Deps{
		Ledger:  ledger.New(),
		Bridge:  bridge,
		Venue:   venue.NewSession(client, logger.Named("venue")),
		Payment: orchestrator,
		Queue:   tracker,
		Logger:  logger.Named("navigator"),
	}, navigator.WithListener(func(p enum.Page) {
		ev, err := ws.NewEvent(enum.EventPageChanged, map[string]enum.Page{"page": p})
		if err != nil {
			logger.Error("page event", zap.Error(err))
			return
		}
		// Operator tablets only follow order status.
		hub.BroadcastToRole(enum.DeviceRoleScreen, ev)
	}))

	var runner queue.Runner
	if cfg.UsePolling() {
		runner = queue.NewPoller(client, tracker, cfg.StatusPollInterval, logger.Named("poller"))
	} else {
		runner = queue.NewWatcher(cfg.VenueWSURL, tracker, logger.Named("watcher"))
	}
	go queue.NewFollower(tracker, runner, logger.Named("follower")).Run(ctx)

	go bootstrap(ctx, nav, logger)

	kiosk := handler.NewKioskHandler(nav, tracker, logger.Named("handler"))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, kiosk, hub, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("kiosk listening", zap.String("addr", srv.Addr), zap.String("venue", cfg.VenueURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// bootstrap retries until the first page is known. Screens see 503 until then.
func bootstrap(ctx context.Context, nav *navigator.Navigator, logger *zap.Logger) {
	for {
		page, err := nav.Bootstrap(ctx)
		if err == nil {
			logger.Info("first page", zap.String("page", string(page)))
			return
		}
		logger.Warn("bootstrap failed, retrying", zap.Duration("in", bootstrapRetry), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(bootstrapRetry):
		}
	}
}
