package router

import (
	"net/http"

	"github.com/dropkickfish/barq-client/internal/config"
	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/handler"
	mw "github.com/dropkickfish/barq-client/internal/middleware"
	"github.com/dropkickfish/barq-client/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// New creates a Chi router with the kiosk routes wired up.
// Every route except /health needs a device token for this session.
func New(cfg *config.Config, kiosk *handler.KioskHandler, hub *ws.Hub, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.DeviceSecret))
		r.Use(mw.RequireSession(cfg.SessionKey))

		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(hub, w, r)
		})

		kiosk.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.DeviceRoleOperator))
			kiosk.RegisterOperatorRoutes(r)
		})
	})

	return r
}
