package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Detail      string `json:"detail,omitempty"`
}

// OnboardingMetrics is returned by GET /v1/metrics/onboarding.
type OnboardingMetrics struct {
	SubmissionsStarted   int64   `json:"submissionsStarted"`
	SubmissionsSucceeded int64   `json:"submissionsSucceeded"`
	SubmissionsFailed    int64   `json:"submissionsFailed"`
	SubmissionErrorRate  float64 `json:"submissionErrorRate"`
	OTPRequested         int64   `json:"otpRequested"`
	LoginsSucceeded      int64   `json:"loginsSucceeded"`
	ForcedLogouts        int64   `json:"forcedLogouts"`
	GateRedirects        int64   `json:"gateRedirects"`
	UpstreamErrors       int64   `json:"upstreamErrors"`
	DashboardCacheHit    float64 `json:"dashboardCacheHitRate"`
	Period               string  `json:"period"`
}
