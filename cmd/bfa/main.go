package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/catalog"
	"github.com/boddenberg/supplier-portal-bfa/internal/config"
	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/handler"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/cache"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/client"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/resilience"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/secrets"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/tokenstore"
	"github.com/boddenberg/supplier-portal-bfa/internal/port"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"
	"github.com/boddenberg/supplier-portal-bfa/internal/validation"

	"go.uber.org/zap"
)

// settleDelay gives the backend time to link the new supplier to the user
// before the token is verified again.
const settleDelay = time.Second

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_api_url", cfg.BackendAPIURL),
		zap.String("token_store", cfg.TokenStore),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("workspace_ttl", cfg.WorkspaceTTL),
		zap.Duration("dashboard_cache_ttl", cfg.DashboardCacheTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "supplier-portal-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Keys ---
	sealKey, err := secrets.DeriveKey([]byte(cfg.SessionSecret), secrets.InfoTokenSeal)
	if err != nil {
		logger.Fatal("failed to derive token key", zap.Error(err))
	}
	cookieKey, err := secrets.DeriveKey([]byte(cfg.SessionSecret), secrets.InfoSessionCookie)
	if err != nil {
		logger.Fatal("failed to derive cookie key", zap.Error(err))
	}
	sealer, err := secrets.NewSealer(sealKey)
	if err != nil {
		logger.Fatal("failed to create sealer", zap.Error(err))
	}

	// --- Token store ---
	tokens, healthChecks, closeTokens := newTokenStore(cfg, sealer, logger)
	defer closeTokens.Close()

	// --- Procurement backend ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("procurement-backend", client.IsClientError)
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backend := client.NewBackend(httpClient, cfg.BackendAPIURL, cb, resilienceCfg, tokens, metrics, logger)

	// --- Catalog & validation ---
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}
	validate := validation.New()

	// --- Workspaces & cache ---
	workspaces := service.NewWorkspaces(cfg.WorkspaceTTL, metrics)
	defer workspaces.Close()
	dashboards := cache.New[*domain.DashboardView](cfg.DashboardCacheTTL)
	defer dashboards.Close()

	// --- Services ---
	sessions := service.NewSessionService(backend, tokens, workspaces, validate, metrics, logger)
	svc := handler.Services{
		Sessions:   sessions,
		Navigation: service.NewNavigationService(sessions, workspaces, metrics, logger),
		Drafts:     service.NewDraftService(workspaces, cat, validate, logger),
		Submission: service.NewSubmissionService(backend, backend, workspaces, dashboards, validate,
			service.SubmissionConfig{SettleDelay: settleDelay, PictureMaxDim: cfg.ProfilePictureMaxDim},
			metrics, logger),
		Dashboard: service.NewDashboardService(backend, backend, workspaces, dashboards, validate,
			cfg.ProfilePictureMaxDim, metrics, logger),
	}

	// --- Router ---
	cookies, err := handler.NewSessionCookies(handler.SessionCookieConfig{
		Name:   cfg.SessionCookieName,
		Secure: cfg.SessionCookieSecure,
		TTL:    cfg.SessionTTL,
		Key:    cookieKey,
	})
	if err != nil {
		logger.Fatal("failed to configure session cookies", zap.Error(err))
	}
	router := handler.NewRouter(svc, handler.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxUploadBytes,
		Cookies:        cookies,
		HealthChecks:   healthChecks,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// newTokenStore picks the backend-token store. Redis is used when configured;
// if it cannot be reached the BFA falls back to memory and keeps serving.
func newTokenStore(cfg *config.Config, sealer *secrets.Sealer, logger *zap.Logger) (port.TokenStore, []handler.HealthCheck, io.Closer) {
	if cfg.TokenStore == "redis" {
		rc, err := tokenstore.NewRedisClient(context.Background(), tokenstore.RedisConfig{
			URL:      cfg.RedisURL,
			Password: cfg.RedisPassword,
		})
		if err == nil {
			logger.Info("token store: redis")
			store := tokenstore.NewRedis(rc, sealer, cfg.SessionTTL)
			return store, []handler.HealthCheck{{Name: "redis", Check: store.Ping}}, store
		}
		logger.Warn("token store: redis unavailable, falling back to memory", zap.Error(err))
	}

	logger.Info("token store: memory")
	store := tokenstore.NewMemory(sealer, cfg.SessionTTL)
	return store, nil, store
}
