package handler

import (
	"net/http"

	"github.com/boddenberg/trading-dashboard-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Trader dashboard: /v1/traders/{traderId}/...
// ============================================================

func getProfileHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/traders/{traderId}/profile")
		defer span.End()

		traderID := chi.URLParam(r, "traderId")
		profile, err := svc.GetProfile(ctx, traderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func getDashboardHandler(svc *service.DashboardService, opts Options, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/traders/{traderId}/dashboard")
		defer span.End()

		traderID := chi.URLParam(r, "traderId")
		span.SetAttributes(attribute.String("trader.id", traderID))

		q, err := parseDashboardQuery(r.URL.Query(), opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		d, err := svc.GetDashboard(ctx, traderID, q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newDashboardView(d, svc.Location()))
	}
}

func getTransactionsHandler(svc *service.DashboardService, opts Options, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/traders/{traderId}/transactions")
		defer span.End()

		q, err := parseDashboardQuery(r.URL.Query(), opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		page, err := svc.GetTransactions(ctx, chi.URLParam(r, "traderId"), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newPageView(*page, svc.Location()))
	}
}

func getChartHandler(svc *service.DashboardService, opts Options, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/traders/{traderId}/chart")
		defer span.End()

		q, err := parseDashboardQuery(r.URL.Query(), opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		points, err := svc.GetChart(ctx, chi.URLParam(r, "traderId"), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"chart": points})
	}
}

func getSummaryHandler(svc *service.DashboardService, opts Options, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/traders/{traderId}/summary")
		defer span.End()

		q, err := parseDashboardQuery(r.URL.Query(), opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.GetSummary(ctx, chi.URLParam(r, "traderId"), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
