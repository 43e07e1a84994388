package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/boddenberg/trading-dashboard-bfa/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseDashboardQuery reads mode, day, month, year, page and page_size.
// An absent mode defaults to DAY; absent calendar fields stay unset.
func parseDashboardQuery(q url.Values, opts Options) (service.DashboardQuery, error) {
	out := service.DashboardQuery{
		Filter:   domain.TimeFilter{Mode: domain.FilterDay},
		Page:     1,
		PageSize: opts.DefaultPageSize,
	}

	if v := strings.TrimSpace(q.Get("mode")); v != "" {
		mode := domain.FilterMode(strings.ToUpper(v))
		if !mode.Valid() {
			return out, &domain.ErrValidation{Field: "mode", Message: fmt.Sprintf("must be DAY, MONTH or YEAR, got %q", v)}
		}
		out.Filter.Mode = mode
	}

	var err error
	if out.Filter.Day, err = optionalInt(q, "day", 1, 31); err != nil {
		return out, err
	}
	if out.Filter.Month, err = optionalInt(q, "month", 1, 12); err != nil {
		return out, err
	}
	if out.Filter.Year, err = optionalInt(q, "year", 1, 9999); err != nil {
		return out, err
	}

	if p, err := optionalInt(q, "page", 1, int(^uint(0)>>1)); err != nil {
		return out, err
	} else if p != nil {
		out.Page = *p
	}
	if ps, err := optionalInt(q, "page_size", 1, opts.MaxPageSize); err != nil {
		return out, err
	} else if ps != nil {
		out.PageSize = *ps
	}

	return out, nil
}

func optionalInt(q url.Values, field string, lo, hi int) (*int, error) {
	raw := strings.TrimSpace(q.Get(field))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &domain.ErrValidation{Field: field, Message: "must be an integer"}
	}
	if n < lo || n > hi {
		return nil, &domain.ErrValidation{Field: field, Message: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return &n, nil
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("upstream rejected credentials", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, unauthorized.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, circuitOpen.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, timeout.Error())
	case errors.As(err, &external):
		logger.Error("upstream failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "trading backend unavailable")
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
