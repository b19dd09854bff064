package handler

import (
	"net/http"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Session & login
// ============================================================

type sessionResponse struct {
	domain.Session
	Home string `json:"home"`
}

type otpRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp,omitempty"`
}

func getSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/session")
		defer span.End()

		sess := sessions.Bootstrap(ctx)
		home := domain.RouteLogin
		if sess.IsAuthenticated {
			home = domain.HomeRoute(sess.HasSupplierData())
		}
		writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Home: home})
	}
}

func requestOTPHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/otp")
		defer span.End()

		var req otpRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		challenge, err := sessions.RequestOTP(ctx, req.Phone)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, challenge)
	}
}

func verifyOTPHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/otp/verify")
		defer span.End()

		var req otpRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := sessions.VerifyOTP(ctx, req.Phone, req.OTP)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func logoutHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		next, err := sessions.Logout(ctx)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"next": next})
	}
}

// ============================================================
// Navigation & catalog
// ============================================================

func navigationHandler(nav *service.NavigationService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/navigation")
		defer span.End()

		decision, err := nav.Resolve(ctx, r.URL.Query().Get("path"))
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, decision)
	}
}

func catalogHandler(drafts *service.DraftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, drafts.Catalog())
	}
}
