package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropkickfish/barq-client/internal/auth"
	"github.com/dropkickfish/barq-client/internal/config"
	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/handler"
	"github.com/dropkickfish/barq-client/internal/ledger"
	"github.com/dropkickfish/barq-client/internal/navigator"
	"github.com/dropkickfish/barq-client/internal/payment"
	"github.com/dropkickfish/barq-client/internal/queue"
	"github.com/dropkickfish/barq-client/internal/router"
	"github.com/dropkickfish/barq-client/internal/store"
	"github.com/dropkickfish/barq-client/internal/ws"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		DeviceSecret:   "secret",
		SessionKey:     "bar-1",
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	bridge := store.NewBridge(store.NewMemoryBackend(), cfg.SessionKey, nil)
	tracker := queue.NewTracker(bridge, nil)
	nav := navigator.New(navigator.Deps{
		Ledger:  ledger.New(),
		Bridge:  bridge,
		Payment: payment.NewOrchestrator(nil, nil, bridge, payment.DefaultOptions(), nil),
		Queue:   tracker,
	})
	kiosk := handler.NewKioskHandler(nav, tracker, nil)
	return router.New(cfg, kiosk, ws.NewHub(nil), zap.NewNop()), cfg
}

func tokenFor(t *testing.T, cfg *config.Config, session, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(cfg.DeviceSecret, uuid.New(), session, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestHealthIsPublic(t *testing.T) {
	r, _ := newRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestStateBeforeBootstrap(t *testing.T) {
	r, cfg := newRouter(t)
	req := httptest.NewRequest("GET", "/state", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, "bar-1", enum.DeviceRoleScreen))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestOtherSessionForbidden(t *testing.T) {
	r, cfg := newRouter(t)
	req := httptest.NewRequest("GET", "/state", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, "bar-2", enum.DeviceRoleScreen))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestOperatorRouteNeedsOperator(t *testing.T) {
	r, cfg := newRouter(t)
	req := httptest.NewRequest("POST", "/queue/status", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, "bar-1", enum.DeviceRoleScreen))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newRouter(t)
	req := httptest.NewRequest("OPTIONS", "/state", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}
