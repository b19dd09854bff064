package observability

import (
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	upstreamDuration *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	submissions      *prometheus.CounterVec
	authEvents       *prometheus.CounterVec
	gateRedirects    *prometheus.CounterVec
	workspaces       prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_upstream_duration_seconds",
				Help:    "Duration of procurement backend calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_upstream_errors_total",
				Help: "Total failed procurement backend calls.",
			},
			[]string{"operation", "kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_submissions_total",
				Help: "Supplier application submissions by outcome.",
			},
			[]string{"outcome"},
		),
		authEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_auth_events_total",
				Help: "Authentication events (otp_requested, login, logout, forced_logout).",
			},
			[]string{"event"},
		),
		gateRedirects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_gate_redirects_total",
				Help: "Step gate redirects by destination.",
			},
			[]string{"to"},
		),
		workspaces: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bfa_workspaces",
				Help: "Browser session workspaces currently held in memory.",
			},
		),
	}
}

// RecordUpstreamDuration records the duration of a backend call.
func (m *Metrics) RecordUpstreamDuration(operation string, d time.Duration) {
	m.upstreamDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrUpstreamError increments the backend error counter.
// kind is one of unauthorized, client, server, transport, circuit_open.
func (m *Metrics) IncrUpstreamError(operation, kind string) {
	m.upstreamErrors.WithLabelValues(operation, kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSubmission counts a submission attempt outcome: started, success, error.
func (m *Metrics) IncrSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// IncrAuthEvent counts an authentication event.
func (m *Metrics) IncrAuthEvent(event string) {
	m.authEvents.WithLabelValues(event).Inc()
}

// IncrGateRedirect counts a step gate redirect to the given route.
func (m *Metrics) IncrGateRedirect(to string) {
	m.gateRedirects.WithLabelValues(to).Inc()
}

// SetWorkspaces sets the number of live workspaces.
func (m *Metrics) SetWorkspaces(n int) {
	m.workspaces.Set(float64(n))
}

// GetOnboardingSnapshot returns a snapshot of onboarding metrics suitable for the
// GET /v1/metrics/onboarding endpoint.
func (m *Metrics) GetOnboardingSnapshot() *domain.OnboardingMetrics {
	started := getCounterValue(m.submissions, "started")
	succeeded := getCounterValue(m.submissions, "success")
	failed := getCounterValue(m.submissions, "error")
	hits := getCounterValue(m.cacheHits, "dashboard")
	misses := getCounterValue(m.cacheMisses, "dashboard")

	errorRate := float64(0)
	if succeeded+failed > 0 {
		errorRate = failed / (succeeded + failed)
	}
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.OnboardingMetrics{
		SubmissionsStarted:   int64(started),
		SubmissionsSucceeded: int64(succeeded),
		SubmissionsFailed:    int64(failed),
		SubmissionErrorRate:  errorRate,
		OTPRequested:         int64(getCounterValue(m.authEvents, "otp_requested")),
		LoginsSucceeded:      int64(getCounterValue(m.authEvents, "login")),
		ForcedLogouts:        int64(getCounterValue(m.authEvents, "forced_logout")),
		GateRedirects:        int64(sumCounterVec(m.gateRedirects)),
		UpstreamErrors:       int64(sumCounterVec(m.upstreamErrors)),
		DashboardCacheHit:    hitRate,
		Period:               "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every label combination of a CounterVec.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
