package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/trading-dashboard-bfa/internal/port"
	"github.com/boddenberg/trading-dashboard-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins  []string
	DefaultPageSize int
	MaxPageSize     int
	StreamInterval  time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 10
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	if o.StreamInterval <= 0 {
		o.StreamInterval = 15 * time.Second
	}
	return o
}

// NewRouter creates the HTTP router with all routes and middleware.
// upstream may be nil, in which case /healthz reports only the BFA itself.
func NewRouter(svc *service.DashboardService, upstream port.HealthChecker, metrics *observability.Metrics, logger *zap.Logger, opts Options) http.Handler {
	opts = opts.withDefaults()
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(upstream, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/dashboard", dashboardMetricsHandler(metrics))

		r.Route("/traders/{traderId}", func(r chi.Router) {
			r.Use(BearerTokenMiddleware(logger))

			r.Get("/profile", getProfileHandler(svc, logger))
			r.Get("/dashboard", getDashboardHandler(svc, opts, logger))
			r.Get("/dashboard/stream", dashboardStreamHandler(svc, metrics, opts, logger))
			r.Get("/transactions", getTransactionsHandler(svc, opts, logger))
			r.Get("/chart", getChartHandler(svc, opts, logger))
			r.Get("/summary", getSummaryHandler(svc, opts, logger))
		})
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(upstream port.HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if upstream != nil {
			start := time.Now()
			err := upstream.Ping(r.Context())
			status := "healthy"
			if err != nil {
				logger.Warn("upstream health check failed", zap.Error(err))
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "graphql", Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func dashboardMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetDashboardSnapshot())
	}
}
