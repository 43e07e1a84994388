package observability

import (
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	aggregations     *prometheus.CounterVec
	malformedRecords prometheus.Counter
	streamClients    prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests call NewMetrics
// repeatedly without duplicate collector panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
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
		aggregations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_dashboard_aggregations_total",
				Help: "Dashboard aggregations computed, by filter mode.",
			},
			[]string{"mode"},
		),
		malformedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bfa_malformed_records_total",
				Help: "Transaction logs excluded because createdAt did not parse.",
			},
		),
		streamClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bfa_dashboard_stream_clients",
				Help: "Open dashboard websocket streams.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrAggregation counts one aggregation. An empty mode is reported as "TODAY".
func (m *Metrics) IncrAggregation(mode domain.FilterMode) {
	label := string(mode)
	if label == "" {
		label = "TODAY"
	}
	m.aggregations.WithLabelValues(label).Inc()
}

// AddMalformed adds n excluded records.
func (m *Metrics) AddMalformed(n int) {
	if n > 0 {
		m.malformedRecords.Add(float64(n))
	}
}

// StreamOpened and StreamClosed track live websocket streams.
func (m *Metrics) StreamOpened() { m.streamClients.Inc() }
func (m *Metrics) StreamClosed() { m.streamClients.Dec() }

// GetDashboardSnapshot returns the counters behind GET /v1/metrics/dashboard.
func (m *Metrics) GetDashboardSnapshot() *domain.DashboardMetrics {
	aggregations := sumCounterVec(m.aggregations)
	upstreamErrors := sumCounterVec(m.externalErrors)
	hits := getCounterValue(m.cacheHits, "profile")
	misses := getCounterValue(m.cacheMisses, "profile")

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.DashboardMetrics{
		Aggregations:     int64(aggregations),
		MalformedRecords: int64(readCounter(m.malformedRecords)),
		UpstreamErrors:   int64(upstreamErrors),
		CacheHitRate:     hitRate,
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every label combination of cv.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	total := float64(0)
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err == nil && m.Counter != nil {
			total += m.Counter.GetValue()
		}
	}
	return total
}
