package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/supplier-portal-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services are the use cases the router exposes.
type Services struct {
	Sessions   *service.SessionService
	Navigation *service.NavigationService
	Drafts     *service.DraftService
	Submission *service.SubmissionService
	Dashboard  *service.DashboardService
}

// HealthCheck checks one dependency for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	Cookies        *SessionCookies
	HealthChecks   []HealthCheck
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, cfg RouterConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", LocationHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(cfg.HealthChecks))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/onboarding", onboardingMetricsHandler(metrics))
		r.Get("/catalog", catalogHandler(svc.Drafts))

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(cfg.Cookies, logger))
			r.Use(MaxBodyMiddleware(cfg.MaxBodyBytes))

			// =============================================
			// Session, login & step gate
			// =============================================
			r.Get("/session", getSessionHandler(svc.Sessions, logger))
			r.Post("/auth/otp", requestOTPHandler(svc.Sessions, logger))
			r.Post("/auth/otp/verify", verifyOTPHandler(svc.Sessions, logger))
			r.Post("/auth/logout", logoutHandler(svc.Sessions, logger))
			r.Get("/navigation", navigationHandler(svc.Navigation, svc.Sessions, logger))

			// =============================================
			// Authenticated steps
			// =============================================
			r.Group(func(r chi.Router) {
				r.Use(RequireAuthMiddleware(svc.Sessions, logger))

				draftRoutes(r, svc.Drafts, svc.Sessions, logger)

				r.Post("/submission", submitHandler(svc.Submission, svc.Sessions, logger))
				r.Get("/submission", receiptHandler(svc.Submission, svc.Sessions, logger))

				r.Get("/dashboard", dashboardHandler(svc.Dashboard, svc.Sessions, logger))
				r.Patch("/dashboard/profile", saveProfileHandler(svc.Dashboard, svc.Sessions, logger))
				r.Put("/dashboard/products/{index}", updateProductHandler(svc.Dashboard, svc.Sessions, logger))
				r.Delete("/dashboard/products/{index}", deleteProductHandler(svc.Dashboard, svc.Sessions, logger))
				r.Post("/dashboard/products/commit", commitProductsHandler(svc.Dashboard, svc.Sessions, logger))
			})
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LastChecked: now},
		}
		overall := "healthy"
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			start := time.Now()
			err := c.Check(ctx)
			cancel()

			h := domain.ServiceHealth{
				Name:        c.Name,
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				h.Status = "degraded"
				h.Detail = err.Error()
				overall = "degraded"
			}
			services = append(services, h)
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
