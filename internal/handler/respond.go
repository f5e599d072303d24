package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropkickfish/barq-client/internal/httpclient"
	"github.com/dropkickfish/barq-client/internal/navigator"
	"github.com/dropkickfish/barq-client/internal/payment"
	"github.com/dropkickfish/barq-client/internal/queue"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorStatus maps domain errors onto HTTP statuses.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, navigator.ErrNotReady):
		return http.StatusServiceUnavailable, "venue is not loaded yet"
	case errors.Is(err, navigator.ErrUnknownItem),
		errors.Is(err, payment.ErrUnknownField):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, payment.ErrTokenization):
		return http.StatusUnprocessableEntity, "card details were rejected"
	case errors.Is(err, payment.ErrBackendRejection):
		return http.StatusPaymentRequired, "payment was not accepted"
	case errors.Is(err, navigator.ErrInvalidTransition),
		errors.Is(err, navigator.ErrCartLocked),
		errors.Is(err, navigator.ErrBackNotAllowed),
		errors.Is(err, navigator.ErrEmptyOrder),
		errors.Is(err, payment.ErrEmptyOrder),
		errors.Is(err, payment.ErrNotClickable),
		errors.Is(err, queue.ErrNoOrder):
		return http.StatusConflict, err.Error()
	case errors.Is(err, httpclient.ErrNetwork):
		return http.StatusBadGateway, "venue is unreachable"
	}
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		return http.StatusBadGateway, "venue returned an error"
	}
	return http.StatusInternalServerError, "internal server error"
}

func (h *KioskHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := errorStatus(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", code),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}
	writeJSON(w, code, map[string]string{"error": msg})
}
