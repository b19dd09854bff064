package service

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/supplier-portal-bfa/internal/port"
	"github.com/boddenberg/supplier-portal-bfa/internal/validation"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

const dashboardCacheName = "dashboard"

func dashboardKey(sessionID string) string {
	return dashboardCacheName + ":" + sessionID
}

// DashboardService serves onboarded suppliers: their record, profile and catalog.
type DashboardService struct {
	auth          port.AuthBackend
	suppliers     port.SupplierBackend
	workspaces    *Workspaces
	cache         port.Cache[*domain.DashboardView]
	validate      *validator.Validate
	pictureMaxDim int
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(
	auth port.AuthBackend,
	suppliers port.SupplierBackend,
	workspaces *Workspaces,
	cache port.Cache[*domain.DashboardView],
	validate *validator.Validate,
	pictureMaxDim int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DashboardService {
	if pictureMaxDim <= 0 {
		pictureMaxDim = DefaultPictureMaxDim
	}
	return &DashboardService{
		auth:          auth,
		suppliers:     suppliers,
		workspaces:    workspaces,
		cache:         cache,
		validate:      validate,
		pictureMaxDim: pictureMaxDim,
		metrics:       metrics,
		logger:        logger,
	}
}

// Load returns the dashboard of the session's supplier. Token verification
// and the supplier fetch run in parallel; the supplier view is cached until a
// write. A cached view is only served after the token verifies again.
func (s *DashboardService) Load(ctx context.Context) (*domain.DashboardView, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Load")
	defer span.End()

	ws, sid, err := s.onboarded(ctx)
	if err != nil {
		return nil, err
	}

	key := dashboardKey(sid)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit(dashboardCacheName)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		if _, err := s.auth.VerifyToken(ctx); err != nil {
			if isUnauthorized(err) {
				s.cache.Delete(key)
				return nil, userFacing(err, MsgLoadFailed)
			}
			s.logger.Warn("token check failed, serving cached dashboard", zap.Error(err))
		}
		return cached, nil
	}
	s.metrics.IncrCacheMiss(dashboardCacheName)

	var (
		verified *domain.VerifyTokenResponse
		mine     *domain.MySupplierResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		verified, err = s.auth.VerifyToken(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		mine, err = s.suppliers.GetMySupplier(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load dashboard", zap.Error(err))
		return nil, userFacing(err, MsgLoadFailed)
	}
	if !verified.Success || verified.User == nil || !mine.Success || mine.Supplier == nil {
		return nil, &domain.ErrUpstream{Status: http.StatusBadGateway, Message: MsgLoadFailed}
	}

	ws.mu.Lock()
	ws.session = domain.Session{User: verified.User, IsAuthenticated: true}
	ws.mu.Unlock()

	view := buildDashboard(*mine.Supplier, mine.User, verified.User)
	s.cache.Set(key, view)
	return view, nil
}

// SaveProfile replaces the supplier's profile. Empty fields are sent too, so
// they clear the stored value.
func (s *DashboardService) SaveProfile(ctx context.Context, form domain.ProfileForm) (*domain.DashboardView, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.SaveProfile")
	defer span.End()

	_, sid, err := s.onboarded(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, form); err != nil {
		return nil, err
	}
	form.Address.Country = domain.DefaultCountry

	resp, err := s.suppliers.UpdateProfile(ctx, profileUpload(form, s.pictureMaxDim, s.logger))
	if err != nil {
		s.logger.Error("failed to update profile", zap.Error(err))
		return nil, userFacing(err, MsgProfileFailed)
	}
	if !resp.Success {
		return nil, &domain.ErrUpstream{Status: http.StatusBadGateway, Message: firstNonEmpty(resp.Message, MsgProfileFailed)}
	}

	s.cache.Delete(dashboardKey(sid))
	return s.Load(ctx)
}

// UpdateProduct edits the commercial terms of one catalog product.
func (s *DashboardService) UpdateProduct(ctx context.Context, index int, in domain.ProductInput) (*domain.DashboardView, error) {
	if !in.Complete() {
		return nil, incompleteProduct("")
	}
	return s.patchBusiness(ctx, "DashboardService.UpdateProduct", MsgProductFailed, func(b *domain.BusinessData) error {
		if index < 0 || index >= len(b.Products) {
			return &domain.ErrNotFound{Resource: "product", ID: strconv.Itoa(index)}
		}
		b.Products[index] = mergeProduct(b.Products[index], in)
		return nil
	})
}

// DeleteProduct removes one product from the supplier's catalog.
func (s *DashboardService) DeleteProduct(ctx context.Context, index int) (*domain.DashboardView, error) {
	return s.patchBusiness(ctx, "DashboardService.DeleteProduct", MsgDeleteFailed, func(b *domain.BusinessData) (err error) {
		b.Products, err = removeAt(b.Products, index, "product")
		return err
	})
}

// AddProducts commits the session's product selection onto the supplier's
// catalog. The picks are cleared once the backend accepted them.
func (s *DashboardService) AddProducts(ctx context.Context) (*domain.DashboardView, error) {
	ws, _, err := s.workspaces.workspaceFor(ctx)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	pending := ws.selection.Pending()
	ws.mu.Unlock()
	if len(pending) == 0 {
		return nil, &domain.ErrValidation{Field: "products", Message: domain.NoticeSelectProducts}
	}
	products, err := productsFromInputs(pending)
	if err != nil {
		return nil, err
	}

	view, err := s.patchBusiness(ctx, "DashboardService.AddProducts", MsgAddProductFailed, func(b *domain.BusinessData) error {
		b.Products = append(b.Products, products...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	ws.selection.ClearPicks()
	ws.mu.Unlock()
	return view, nil
}

// patchBusiness loads the supplier record, applies fn to a copy of its business
// data and sends the full set back.
func (s *DashboardService) patchBusiness(ctx context.Context, op, failMsg string, fn func(b *domain.BusinessData) error) (*domain.DashboardView, error) {
	ctx, span := dashboardTracer.Start(ctx, op)
	defer span.End()

	current, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	sid := domain.SessionIDFromContext(ctx)

	data := cloneBusiness(current.Supplier.BusinessData)
	if err := fn(&data); err != nil {
		return nil, err
	}

	resp, err := s.suppliers.UpdateBusiness(ctx, current.Supplier.ID, data)
	if err != nil {
		s.logger.Error("failed to update business data", zap.String("op", op), zap.Error(err))
		return nil, userFacing(fmt.Errorf("%s: %w", op, err), failMsg)
	}
	if !resp.Success {
		return nil, &domain.ErrUpstream{Status: http.StatusBadGateway, Message: firstNonEmpty(resp.Message, failMsg)}
	}

	s.cache.Delete(dashboardKey(sid))
	return s.Load(ctx)
}

// onboarded resolves the workspace and requires a supplier record to exist.
func (s *DashboardService) onboarded(ctx context.Context) (*Workspace, string, error) {
	ws, sid, err := s.workspaces.workspaceFor(ctx)
	if err != nil {
		return nil, "", err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if !ws.session.IsAuthenticated {
		return nil, "", &domain.ErrUnauthorized{Message: "Authentication required. Please login again."}
	}
	if !ws.session.HasSupplierData() {
		return nil, "", &domain.ErrStepBlocked{Path: domain.RouteProductSelection}
	}
	return ws, sid, nil
}

func buildDashboard(supplier domain.SupplierRecord, owner *domain.SupplierUser, user *domain.UserRecord) *domain.DashboardView {
	supplier.BusinessData = cloneBusiness(supplier.BusinessData).WithDefaults()
	view := &domain.DashboardView{
		Supplier:      supplier,
		Status:        supplier.DisplayStatus(),
		ProductCount:  len(supplier.Products),
		DocumentCount: len(supplier.Documents),
		User:          user,
		Profile:       domain.ProfileForm{Address: domain.Address{Country: domain.DefaultCountry}},
	}
	if owner != nil {
		view.Profile.CompanyName = owner.CompanyName
		view.Profile.ContactPerson = owner.ContactPerson
		view.Profile.Email = owner.Email
		view.Profile.Phone = owner.Phone
		view.Profile.Website = owner.Website
		view.Profile.TaxID = owner.TaxID
		if owner.Address != nil {
			view.Profile.Address = *owner.Address
		}
	}
	return view
}

// mergeProduct applies the editable terms of in; identity fields left empty keep their value.
func mergeProduct(p domain.Product, in domain.ProductInput) domain.Product {
	edited := in.Product()
	p.BrandName = edited.BrandName
	p.MinOrderQuantity = edited.MinOrderQuantity
	p.Price = edited.Price
	p.LeadTime = edited.LeadTime
	p.Description = edited.Description
	if edited.Unit != "" {
		p.Unit = edited.Unit
	}
	if edited.SelectedSize != "" {
		p.SelectedSize = edited.SelectedSize
	}
	return p
}

func cloneBusiness(b domain.BusinessData) domain.BusinessData {
	b.Products = slices.Clone(b.Products)
	b.BusinessType = slices.Clone(b.BusinessType)
	b.Warehouses = slices.Clone(b.Warehouses)
	b.ShippingMethods = slices.Clone(b.ShippingMethods)
	b.DeliveryAreas = slices.Clone(b.DeliveryAreas)
	b.PaymentTerms = slices.Clone(b.PaymentTerms)
	b.Documents = slices.Clone(b.Documents)
	return b
}
