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
}

// DashboardMetrics is returned by GET /v1/metrics/dashboard.
type DashboardMetrics struct {
	Aggregations     int64   `json:"aggregations"`
	MalformedRecords int64   `json:"malformedRecords"`
	UpstreamErrors   int64   `json:"upstreamErrors"`
	CacheHitRate     float64 `json:"cacheHitRate"`
	Period           string  `json:"period"`
}
