package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/dropkickfish/barq-client/internal/navigator"
	"github.com/dropkickfish/barq-client/internal/payment"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Navigator defines the page state machine methods the kiosk needs.
// Satisfied by *navigator.Navigator; narrow interface for testability.
type Navigator interface {
	Current() (navigator.Page, error)
	SetQuantity(id string, qty int) error
	SetNotes(text string) error
	Proceed(ctx context.Context) error
	GoToPay(ctx context.Context) (enum.Page, error)
	Back() (enum.Page, error)
	FieldReady(f payment.Field) (payment.State, error)
	SubmitPayment(ctx context.Context, card payment.CardInput) (*payment.Receipt, error)
	ClearOrder(ctx context.Context) (enum.Page, error)
}

// StatusSetter records an order status reported by bar staff.
// Satisfied by *queue.Tracker.
type StatusSetter interface {
	UpdateStatus(ctx context.Context, status string) error
}

// KioskHandler exposes the ordering flow to the customer screen.
type KioskHandler struct {
	nav    Navigator
	status StatusSetter
	logger *zap.Logger
}

// NewKioskHandler creates a new KioskHandler.
func NewKioskHandler(nav Navigator, status StatusSetter, logger *zap.Logger) *KioskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KioskHandler{nav: nav, status: status, logger: logger}
}

// RegisterRoutes registers the customer screen endpoints.
func (h *KioskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/state", h.State)
	r.Put("/order/items/{id}", h.SetQuantity)
	r.Put("/order/notes", h.SetNotes)
	r.Delete("/order", h.ClearOrder)
	r.Post("/nav/proceed", h.Proceed)
	r.Post("/nav/pay", h.GoToPay)
	r.Post("/nav/back", h.Back)
	r.Post("/pay/fields/{field}/ready", h.FieldReady)
	r.Post("/pay/submit", h.Submit)
}

// RegisterOperatorRoutes registers endpoints reserved for bar staff devices.
func (h *KioskHandler) RegisterOperatorRoutes(r chi.Router) {
	r.Post("/queue/status", h.UpdateStatus)
}

// --- Request types ---

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type setNotesRequest struct {
	SpecialWishes string `json:"specialWishes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type submitResponse struct {
	OrderID     string        `json:"orderId"`
	OrderStatus string        `json:"orderStatus"`
	State       stateResponse `json:"state"`
}

// --- Handlers ---

// State handles GET /state.
func (h *KioskHandler) State(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, http.StatusOK)
}

// SetQuantity handles PUT /order/items/{id}.
func (h *KioskHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity is required"})
		return
	}
	if err := h.nav.SetQuantity(chi.URLParam(r, "id"), *req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// SetNotes handles PUT /order/notes.
func (h *KioskHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	var req setNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.nav.SetNotes(req.SpecialWishes); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// Proceed handles POST /nav/proceed.
func (h *KioskHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	if err := h.nav.Proceed(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// GoToPay handles POST /nav/pay.
func (h *KioskHandler) GoToPay(w http.ResponseWriter, r *http.Request) {
	if _, err := h.nav.GoToPay(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// Back handles POST /nav/back.
func (h *KioskHandler) Back(w http.ResponseWriter, r *http.Request) {
	if _, err := h.nav.Back(); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// FieldReady handles POST /pay/fields/{field}/ready.
func (h *KioskHandler) FieldReady(w http.ResponseWriter, r *http.Request) {
	field := payment.Field(chi.URLParam(r, "field"))
	if _, err := h.nav.FieldReady(field); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// Submit handles POST /pay/submit.
func (h *KioskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var card payment.CardInput
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	receipt, err := h.nav.SubmitPayment(r.Context(), card)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	st, err := h.state()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		OrderID:     receipt.OrderID,
		OrderStatus: receipt.OrderStatus,
		State:       st,
	})
}

// ClearOrder handles DELETE /order.
func (h *KioskHandler) ClearOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := h.nav.ClearOrder(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// UpdateStatus handles POST /queue/status.
func (h *KioskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if err := h.status.UpdateStatus(r.Context(), req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

func (h *KioskHandler) state() (stateResponse, error) {
	page, err := h.nav.Current()
	if err != nil {
		return stateResponse{}, err
	}
	return render(page), nil
}

func (h *KioskHandler) writeState(w http.ResponseWriter, status int) {
	st, err := h.state()
	if err != nil {
		code, msg := errorStatus(err)
		writeJSON(w, code, map[string]string{"error": msg})
		return
	}
	writeJSON(w, status, st)
}
