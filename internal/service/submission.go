package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/supplier-portal-bfa/internal/port"
	"github.com/boddenberg/supplier-portal-bfa/internal/validation"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var submissionTracer = otel.Tracer("service/submission")

// SubmissionConfig tunes the submission pipeline.
type SubmissionConfig struct {
	// SettleDelay is waited between creating the supplier and refreshing the user.
	SettleDelay   time.Duration
	PictureMaxDim int
}

// SubmissionService turns the draft into a supplier record in two phases:
// create the supplier from the profile, then patch its business data.
type SubmissionService struct {
	auth       port.AuthBackend
	suppliers  port.SupplierBackend
	workspaces *Workspaces
	dashboards port.Cache[*domain.DashboardView]
	validate   *validator.Validate
	cfg        SubmissionConfig
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewSubmissionService creates the submission service.
func NewSubmissionService(
	auth port.AuthBackend,
	suppliers port.SupplierBackend,
	workspaces *Workspaces,
	dashboards port.Cache[*domain.DashboardView],
	validate *validator.Validate,
	cfg SubmissionConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SubmissionService {
	if cfg.PictureMaxDim <= 0 {
		cfg.PictureMaxDim = DefaultPictureMaxDim
	}
	return &SubmissionService{
		auth:       auth,
		suppliers:  suppliers,
		workspaces: workspaces,
		dashboards: dashboards,
		validate:   validate,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit sends the session's draft to the backend. The draft is left intact
// whatever the outcome; a retry after a failed second phase creates the
// supplier again.
func (s *SubmissionService) Submit(ctx context.Context) (*domain.SubmissionReceipt, error) {
	ctx, span := submissionTracer.Start(ctx, "SubmissionService.Submit")
	defer span.End()

	ws, sid, err := s.workspaces.workspaceFor(ctx)
	if err != nil {
		return nil, err
	}

	draft, err := s.begin(ws)
	if err != nil {
		return nil, err
	}
	defer func() {
		ws.mu.Lock()
		ws.submitting = false
		ws.mu.Unlock()
	}()

	s.metrics.IncrSubmission("started")
	span.SetAttributes(attribute.Int("submission.products", len(draft.Products)))

	receipt, err := s.run(ctx, ws, draft)
	if err != nil {
		s.metrics.IncrSubmission("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		s.logger.Error("submission failed", zap.Error(err))
		return nil, userFacing(err, MsgSubmitFailed)
	}

	ws.mu.Lock()
	ws.receipt = receipt
	ws.mu.Unlock()
	s.dashboards.Delete(dashboardKey(sid))

	s.metrics.IncrSubmission("success")
	s.logger.Info("supplier application submitted",
		zap.String("application_id", receipt.ApplicationID),
		zap.String("supplier_id", receipt.SupplierID),
		zap.Int("products", receipt.ProductCount),
	)
	copied := *receipt
	return &copied, nil
}

// Receipt returns the outcome of the session's last successful submission.
func (s *SubmissionService) Receipt(ctx context.Context) (*domain.SubmissionReceipt, error) {
	var out *domain.SubmissionReceipt
	err := s.workspaces.with(ctx, func(ws *Workspace) error {
		if ws.receipt == nil {
			return &domain.ErrNotFound{Resource: "submission", ID: "latest"}
		}
		copied := *ws.receipt
		out = &copied
		return nil
	})
	return out, err
}

// begin checks the preconditions and marks the workspace as submitting.
func (s *SubmissionService) begin(ws *Workspace) (domain.ApplicationDraft, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.session.IsAuthenticated {
		return domain.ApplicationDraft{}, &domain.ErrUnauthorized{Message: "Authentication required. Please login again."}
	}
	if !ws.draft.HasProducts() {
		return domain.ApplicationDraft{}, &domain.ErrStepBlocked{Path: domain.RouteProductSelection, Notice: domain.NoticeSelectProducts}
	}
	if err := validation.Struct(s.validate, ws.draft.Profile()); err != nil {
		return domain.ApplicationDraft{}, err
	}
	if ws.submitting {
		return domain.ApplicationDraft{}, &domain.ErrConflict{Message: "A submission is already in progress"}
	}

	ws.submitting = true
	return ws.draft.Clone(), nil
}

func (s *SubmissionService) run(ctx context.Context, ws *Workspace, draft domain.ApplicationDraft) (*domain.SubmissionReceipt, error) {
	// Phase 1: the supplier record, from the company profile.
	created, err := s.suppliers.CreateSupplier(ctx, profileUpload(draft.Profile(), s.cfg.PictureMaxDim, s.logger))
	if err != nil {
		return nil, fmt.Errorf("creating supplier: %w", err)
	}
	if created == nil {
		return nil, &domain.ErrUpstream{Status: http.StatusBadGateway, Message: MsgSubmitFailed}
	}
	if created.Supplier.ID == "" {
		return nil, &domain.ErrUpstream{Status: http.StatusBadGateway, Message: firstNonEmpty(created.Message, MsgSubmitFailed)}
	}
	supplierID := created.Supplier.ID

	if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
		return nil, err
	}

	// The refreshed user carries hasSupplierData and the supplier id.
	verified, err := s.auth.VerifyToken(ctx)
	if err != nil {
		if isUnauthorized(err) {
			return nil, err
		}
		s.logger.Warn("token verification after supplier creation failed", zap.Error(err))
		return nil, &domain.ErrUpstream{Status: http.StatusBadGateway, Message: MsgVerifyFailed}
	}
	if !verified.Success || verified.User == nil {
		return nil, &domain.ErrUpstream{Status: http.StatusBadGateway, Message: MsgVerifyFailed}
	}
	ws.mu.Lock()
	ws.session = domain.Session{User: verified.User, IsAuthenticated: true}
	ws.mu.Unlock()

	// Phase 2: the business data. Any 2xx answer completes it.
	if _, err := s.suppliers.UpdateBusiness(ctx, supplierID, draft.Business()); err != nil {
		return nil, fmt.Errorf("updating business data: %w", err)
	}

	at := s.now()
	return &domain.SubmissionReceipt{
		ApplicationID: domain.ApplicationID(at),
		SupplierID:    supplierID,
		SubmittedAt:   at.UTC(),
		Status:        domain.ApplicationUnderReview,
		ProductCount:  len(draft.Products),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
