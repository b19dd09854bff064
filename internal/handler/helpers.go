package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// LocationHeader carries the step the browser is currently showing.
const LocationHeader = "X-Portal-Location"

const msgAuthRequired = "Authentication required. Please login again."

type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
	Notice   string `json:"notice,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeRedirectError answers with an error that also tells the browser where
// to go. No redirect is sent when the browser already shows that step.
func writeRedirectError(w http.ResponseWriter, r *http.Request, status int, msg, to, notice string) {
	resp := errorResponse{Error: msg, Notice: notice}
	if r.Header.Get(LocationHeader) != to {
		resp.Redirect = to
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// indexParam reads a non-negative list position from the route.
func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		writeError(w, http.StatusBadRequest, "index must be a non-negative integer")
		return 0, false
	}
	return i, true
}

// handleServiceError maps domain errors to HTTP responses. A rejected backend
// token logs the session out and sends the browser to the login step.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, sessions *service.SessionService, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var blocked *domain.ErrStepBlocked
	var upstream *domain.ErrUpstream
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		if sessions != nil {
			sessions.ForceLogout(r.Context())
		}
		writeRedirectError(w, r, http.StatusUnauthorized, err.Error(), domain.RouteLogin, "")
	case errors.As(err, &blocked):
		logger.Debug("step blocked", zap.String("redirect", blocked.Path))
		msg := blocked.Notice
		if msg == "" {
			msg = "This step is not available"
		}
		writeRedirectError(w, r, http.StatusConflict, msg, blocked.Path, blocked.Notice)
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("field", validation.Field), zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &upstream):
		status := http.StatusBadGateway
		if upstream.Status >= 400 && upstream.Status < 500 {
			status = upstream.Status
		}
		logger.Warn("backend error", zap.Int("backend_status", upstream.Status), zap.String("error", err.Error()))
		writeError(w, status, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "The supplier service is temporarily unavailable. Please try again.")
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "The supplier service took too long to answer. Please try again.")
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "The supplier service is unreachable. Please try again.")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
