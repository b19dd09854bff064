package handler

import (
	"net/http"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Supplier dashboard
// ============================================================

func dashboardHandler(svc *service.DashboardService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		view, err := svc.Load(ctx)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func saveProfileHandler(svc *service.DashboardService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/dashboard/profile")
		defer span.End()

		var form domain.ProfileForm
		if !decodeJSON(w, r, &form) {
			return
		}

		view, err := svc.SaveProfile(ctx, form)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func updateProductHandler(svc *service.DashboardService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/dashboard/products/{index}")
		defer span.End()

		index, ok := indexParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int("product.index", index))

		var in domain.ProductInput
		if !decodeJSON(w, r, &in) {
			return
		}

		view, err := svc.UpdateProduct(ctx, index, in)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func deleteProductHandler(svc *service.DashboardService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return indexed("DELETE /v1/dashboard/products/{index}", sessions, logger, svc.DeleteProduct)
}

func commitProductsHandler(svc *service.DashboardService, sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dashboard/products/commit")
		defer span.End()

		view, err := svc.AddProducts(ctx)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
