package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/catalog"
	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/cache"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"
	"github.com/boddenberg/supplier-portal-bfa/internal/validation"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockAuth struct {
	generate    *domain.GenerateOTPResponse
	generateErr error
	verifyOTP   *domain.VerifyOTPResponse
	verifyErr   error
	token       *domain.VerifyTokenResponse
	tokenErr    error
	logoutErr   error

	generateCalls atomic.Int32
	tokenCalls    atomic.Int32
	logoutCalls   atomic.Int32
}

func (m *mockAuth) GenerateOTP(_ context.Context, _ domain.GenerateOTPRequest) (*domain.GenerateOTPResponse, error) {
	m.generateCalls.Add(1)
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	if m.generate == nil {
		return &domain.GenerateOTPResponse{Success: true}, nil
	}
	return m.generate, nil
}

func (m *mockAuth) VerifyOTP(_ context.Context, _ domain.VerifyOTPRequest) (*domain.VerifyOTPResponse, error) {
	return m.verifyOTP, m.verifyErr
}

func (m *mockAuth) VerifyToken(_ context.Context) (*domain.VerifyTokenResponse, error) {
	m.tokenCalls.Add(1)
	return m.token, m.tokenErr
}

func (m *mockAuth) Logout(_ context.Context) error {
	m.logoutCalls.Add(1)
	return m.logoutErr
}

type mockSuppliers struct {
	mu sync.Mutex

	created   *domain.CreateSupplierResponse
	createErr error
	updated   *domain.BusinessUpdateResponse
	updateErr error
	mine      *domain.MySupplierResponse
	mineErr   error
	profile   *domain.ProfileUpdateResponse

	uploads    []domain.ProfileUpload
	businesses []domain.BusinessData
	patchedIDs []string
	mineCalls  int
}

func (m *mockSuppliers) CreateSupplier(_ context.Context, upload domain.ProfileUpload) (*domain.CreateSupplierResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, upload)
	return m.created, m.createErr
}

func (m *mockSuppliers) UpdateBusiness(_ context.Context, id string, data domain.BusinessData) (*domain.BusinessUpdateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patchedIDs = append(m.patchedIDs, id)
	m.businesses = append(m.businesses, data)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if m.mine != nil && m.mine.Supplier != nil {
		m.mine.Supplier.BusinessData = data
	}
	return m.updated, nil
}

func (m *mockSuppliers) GetMySupplier(_ context.Context) (*domain.MySupplierResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mineCalls++
	if m.mineErr != nil {
		return nil, m.mineErr
	}
	copied := *m.mine
	if m.mine.Supplier != nil {
		s := *m.mine.Supplier
		copied.Supplier = &s
	}
	return &copied, nil
}

func (m *mockSuppliers) UpdateProfile(_ context.Context, upload domain.ProfileUpload) (*domain.ProfileUpdateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, upload)
	return m.profile, nil
}

type mapTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMapTokens() *mapTokens { return &mapTokens{tokens: map[string]string{}} }

func (m *mapTokens) Get(_ context.Context, sid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[sid], nil
}

func (m *mapTokens) Set(_ context.Context, sid, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sid] = token
	return nil
}

func (m *mapTokens) Delete(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sid)
	return nil
}

// --- Fixture ---

type fixture struct {
	auth       *mockAuth
	suppliers  *mockSuppliers
	tokens     *mapTokens
	workspaces *service.Workspaces
	dashboards *cache.InMemory[*domain.DashboardView]

	sessions   *service.SessionService
	drafts     *service.DraftService
	navigation *service.NavigationService
	submission *service.SubmissionService
	dashboard  *service.DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat, err := catalog.Load("")
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	validate := validation.New()

	f := &fixture{
		auth:       &mockAuth{},
		suppliers:  &mockSuppliers{},
		tokens:     newMapTokens(),
		workspaces: service.NewWorkspaces(time.Hour, metrics),
		dashboards: cache.New[*domain.DashboardView](time.Minute),
	}
	t.Cleanup(f.workspaces.Close)
	t.Cleanup(f.dashboards.Close)

	f.sessions = service.NewSessionService(f.auth, f.tokens, f.workspaces, validate, metrics, logger)
	f.drafts = service.NewDraftService(f.workspaces, cat, validate, logger)
	f.navigation = service.NewNavigationService(f.sessions, f.workspaces, metrics, logger)
	f.submission = service.NewSubmissionService(f.auth, f.suppliers, f.workspaces, f.dashboards, validate,
		service.SubmissionConfig{}, metrics, logger)
	f.dashboard = service.NewDashboardService(f.auth, f.suppliers, f.workspaces, f.dashboards, validate, 0, metrics, logger)
	return f
}

func sessionCtx(sid string) context.Context {
	return domain.WithSessionID(context.Background(), sid)
}

// login puts the session straight into the authenticated state.
func (f *fixture) login(t *testing.T, ctx context.Context, user domain.UserRecord) {
	t.Helper()
	require.NoError(t, f.tokens.Set(ctx, domain.SessionIDFromContext(ctx), "backend-token"))
	require.NoError(t, f.sessions.Login(ctx, user))
}

func completeInput(name string) domain.ProductInput {
	return domain.ProductInput{
		Category:         "Construction Material",
		Subcategory:      "Cement",
		Name:             name,
		BrandName:        "ACC",
		SelectedSize:     "50kg",
		MinOrderQuantity: "10",
		Price:            "85000",
		Unit:             "piece",
	}
}
