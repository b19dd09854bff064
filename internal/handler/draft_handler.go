package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/supplier-portal-bfa/internal/catalog"
	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Application draft
// ============================================================

// draftEdit adapts a draft operation without a request body.
func draftEdit(route string, sessions *service.SessionService, logger *zap.Logger, op func(ctx context.Context, r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		out, err := op(ctx, r)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// draftBody adapts a draft operation that takes a JSON body of type T.
func draftBody[T any](route string, sessions *service.SessionService, logger *zap.Logger, op func(ctx context.Context, r *http.Request, body T) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		var body T
		if !decodeJSON(w, r, &body) {
			return
		}
		out, err := op(ctx, r, body)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type nameRequest struct {
	Name string `json:"name"`
}

type productsRequest struct {
	Products []domain.ProductInput `json:"products"`
}

type optionRequest struct {
	Value string `json:"value"`
}

func draftRoutes(r chi.Router, drafts *service.DraftService, sessions *service.SessionService, logger *zap.Logger) {
	r.Get("/draft", draftEdit("GET /v1/draft", sessions, logger, func(ctx context.Context, _ *http.Request) (any, error) {
		return drafts.Snapshot(ctx)
	}))
	r.Patch("/draft", draftBody("PATCH /v1/draft", sessions, logger, func(ctx context.Context, _ *http.Request, patch domain.DraftPatch) (any, error) {
		return drafts.Update(ctx, patch)
	}))
	r.Patch("/draft/address", draftBody("PATCH /v1/draft/address", sessions, logger, func(ctx context.Context, _ *http.Request, patch domain.AddressPatch) (any, error) {
		return drafts.UpdateAddress(ctx, patch)
	}))
	r.Post("/draft/reset", draftEdit("POST /v1/draft/reset", sessions, logger, func(ctx context.Context, _ *http.Request) (any, error) {
		return drafts.Reset(ctx)
	}))

	// Products
	r.Post("/draft/products", draftBody("POST /v1/draft/products", sessions, logger, func(ctx context.Context, _ *http.Request, req productsRequest) (any, error) {
		return drafts.AddProducts(ctx, req.Products)
	}))
	r.Delete("/draft/products/{index}", indexed("DELETE /v1/draft/products/{index}", sessions, logger, drafts.RemoveProduct))
	r.Delete("/draft/products/id/{entryId}", byEntryID("DELETE /v1/draft/products/id/{entryId}", sessions, logger, drafts.RemoveProductByID))

	// Warehouses & documents
	r.Post("/draft/warehouses", draftBody("POST /v1/draft/warehouses", sessions, logger, func(ctx context.Context, _ *http.Request, in domain.WarehouseInput) (any, error) {
		return drafts.AddWarehouse(ctx, in)
	}))
	r.Delete("/draft/warehouses/{index}", indexed("DELETE /v1/draft/warehouses/{index}", sessions, logger, drafts.RemoveWarehouse))
	r.Delete("/draft/warehouses/id/{entryId}", byEntryID("DELETE /v1/draft/warehouses/id/{entryId}", sessions, logger, drafts.RemoveWarehouseByID))
	r.Post("/draft/documents", draftBody("POST /v1/draft/documents", sessions, logger, func(ctx context.Context, _ *http.Request, in domain.DocumentInput) (any, error) {
		return drafts.AddDocument(ctx, in)
	}))
	r.Delete("/draft/documents/{index}", indexed("DELETE /v1/draft/documents/{index}", sessions, logger, drafts.RemoveDocument))
	r.Delete("/draft/documents/id/{entryId}", byEntryID("DELETE /v1/draft/documents/id/{entryId}", sessions, logger, drafts.RemoveDocumentByID))

	// Business terms
	r.Post("/draft/options/{field}/toggle", draftBody("POST /v1/draft/options/{field}/toggle", sessions, logger, func(ctx context.Context, r *http.Request, req optionRequest) (any, error) {
		return drafts.ToggleOption(ctx, chi.URLParam(r, "field"), req.Value)
	}))

	// Product selection
	r.Get("/draft/selection", draftEdit("GET /v1/draft/selection", sessions, logger, func(ctx context.Context, _ *http.Request) (any, error) {
		return drafts.Selection(ctx)
	}))
	r.Put("/draft/selection/category", draftBody("PUT /v1/draft/selection/category", sessions, logger, func(ctx context.Context, _ *http.Request, req nameRequest) (any, error) {
		return drafts.ChooseCategory(ctx, req.Name)
	}))
	r.Put("/draft/selection/subcategory", draftBody("PUT /v1/draft/selection/subcategory", sessions, logger, func(ctx context.Context, _ *http.Request, req nameRequest) (any, error) {
		return drafts.ChooseSubcategory(ctx, req.Name)
	}))
	r.Post("/draft/selection/products/{productId}/toggle", draftEdit("POST /v1/draft/selection/products/{productId}/toggle", sessions, logger, func(ctx context.Context, r *http.Request) (any, error) {
		return drafts.ToggleProduct(ctx, chi.URLParam(r, "productId"))
	}))
	r.Patch("/draft/selection/products/{productId}", draftBody("PATCH /v1/draft/selection/products/{productId}", sessions, logger, func(ctx context.Context, r *http.Request, patch catalog.DetailsPatch) (any, error) {
		return drafts.SetProductDetails(ctx, chi.URLParam(r, "productId"), patch)
	}))
	r.Post("/draft/selection/commit", draftEdit("POST /v1/draft/selection/commit", sessions, logger, func(ctx context.Context, _ *http.Request) (any, error) {
		return drafts.CommitSelection(ctx)
	}))
}

func indexed[T any](route string, sessions *service.SessionService, logger *zap.Logger, op func(ctx context.Context, index int) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		index, ok := indexParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int("list.index", index))

		out, err := op(ctx, index)
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func byEntryID[T any](route string, sessions *service.SessionService, logger *zap.Logger, op func(ctx context.Context, entryID string) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		out, err := op(ctx, chi.URLParam(r, "entryId"))
		if err != nil {
			handleServiceError(w, r, err, sessions, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
