package handler

import (
	"net/http"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Submission
// ============================================================

type submissionResponse struct {
	Receipt *domain.SubmissionReceipt `json:"receipt"`
	Next    string                    `json:"next"`
}

func submitHandler(svc *service.SubmissionService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/submission")
		defer span.End()

		receipt, err := svc.Submit(ctx)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusCreated, submissionResponse{Receipt: receipt, Next: domain.RouteSuccess})
	}
}

func receiptHandler(svc *service.SubmissionService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/submission")
		defer span.End()

		receipt, err := svc.Receipt(ctx)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, receipt)
	}
}

func onboardingMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetOnboardingSnapshot())
	}
}
