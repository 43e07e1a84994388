package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/boddenberg/trading-dashboard-bfa/internal/handler"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/cache"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/graphql"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/resilience"
	"github.com/boddenberg/trading-dashboard-bfa/internal/service"

	"go.uber.org/zap"
)

var wib = time.FixedZone("WIB", 7*3600)

func clock() time.Time { return time.Date(2024, 6, 15, 22, 0, 0, 0, wib) }

func ms(t time.Time) string { return fmt.Sprintf("%d", t.UnixMilli()) }

// newBackend serves the GraphQL operations the BFA issues.
func newBackend(t *testing.T, userCalls *atomic.Int32, userMissing bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.Contains(req.Query, "transactionLogs"):
			logs := []map[string]any{
				{"id": "1", "ticket": "1001", "symbol": "XAUUSD", "type": "BUY", "lots": 0.1, "profit": 45.2, "createdAt": ms(time.Date(2024, 6, 15, 9, 15, 0, 0, wib))},
				{"id": "2", "ticket": "1002", "symbol": "XAUUSD", "type": "SELL", "lots": 0.2, "profit": -12.7, "createdAt": ms(time.Date(2024, 6, 15, 13, 40, 0, 0, wib))},
				{"id": "3", "ticket": "1003", "symbol": "EURUSD", "type": "BUY", "lots": 1, "profit": 80, "createdAt": ms(time.Date(2024, 6, 2, 11, 0, 0, 0, wib))},
				{"id": "4", "ticket": "1004", "symbol": "EURUSD", "type": "SELL", "lots": 1, "profit": 5, "createdAt": "corrupted"},
			}
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"transactionLogs": logs}})
		case strings.Contains(req.Query, "user("):
			userCalls.Add(1)
			if userMissing {
				json.NewEncoder(w).Encode(map[string]any{
					"data":   map[string]any{"user": nil},
					"errors": []map[string]any{{"message": "user not found", "extensions": map[string]any{"code": "NOT_FOUND"}}},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"user": map[string]any{
				"id": req.Variables["id"], "name": "Integration Trader", "phone": "0812000111",
				"magicNumber": "88888", "role": "USER", "initialBalance": "500",
			}}})
		default:
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"__typename": "Query"}})
		}
	}))
}

func newRouter(backendURL string) http.Handler {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	client := graphql.NewClient(&http.Client{Timeout: 5 * time.Second}, graphql.Config{
		Endpoint:   backendURL,
		Resilience: resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10},
	}, logger)

	svc := service.NewDashboardService(
		client,
		client,
		cache.New[*domain.TraderProfile](5*time.Minute),
		metrics,
		logger,
		service.WithClock(clock),
		service.WithLocation(wib),
	)
	return handler.NewRouter(svc, client, metrics, logger, handler.Options{})
}

// TestIntegration_FullFlow runs the real router, service and GraphQL client
// against a mock trading backend.
func TestIntegration_FullFlow(t *testing.T) {
	var userCalls atomic.Int32
	backend := newBackend(t, &userCalls, false)
	defer backend.Close()

	router := newRouter(backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/traders/trader-1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer console-session")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		Transactions struct {
			TotalCount int `json:"totalCount"`
			Rows       []struct {
				Ticket        string `json:"ticket"`
				ProfitDisplay string `json:"profitDisplay"`
			} `json:"rows"`
		} `json:"transactions"`
		Chart []struct {
			Label   string `json:"label"`
			Balance string `json:"balance"`
		} `json:"chart"`
		Summary struct {
			AllTime    bool   `json:"allTime"`
			TradeCount int    `json:"tradeCount"`
			NetPnL     string `json:"netPnl"`
			PnLPercent string `json:"pnlPercent"`
		} `json:"summary"`
		CurrentBalance string `json:"currentBalance"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result.Profile.Name != "Integration Trader" {
		t.Errorf("expected name 'Integration Trader', got '%s'", result.Profile.Name)
	}
	if result.Transactions.TotalCount != 2 {
		t.Fatalf("expected 2 trades today, got %d", result.Transactions.TotalCount)
	}
	if result.Transactions.Rows[0].Ticket != "1002" {
		t.Errorf("expected newest trade first, got ticket %s", result.Transactions.Rows[0].Ticket)
	}
	if result.Transactions.Rows[1].ProfitDisplay != "+45.20" {
		t.Errorf("expected '+45.20', got '%s'", result.Transactions.Rows[1].ProfitDisplay)
	}
	if len(result.Chart) != 2 || result.Chart[0].Label != "09:15" || result.Chart[1].Balance != "532.5" {
		t.Errorf("unexpected chart: %+v", result.Chart)
	}
	if !result.Summary.AllTime || result.Summary.TradeCount != 4 {
		t.Errorf("expected all-time summary over 4 trades, got %+v", result.Summary)
	}
	if result.Summary.NetPnL != "117.5" {
		t.Errorf("expected net 117.5, got %s", result.Summary.NetPnL)
	}
	if result.Summary.PnLPercent != "23.5" {
		t.Errorf("expected 23.5%%, got %s", result.Summary.PnLPercent)
	}
	if result.CurrentBalance != "617.5" {
		t.Errorf("expected balance 617.5, got %s", result.CurrentBalance)
	}

	// Second call is served from the profile cache.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/traders/trader-1/summary?mode=MONTH&month=6&year=2024", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n := userCalls.Load(); n != 1 {
		t.Errorf("expected 1 upstream user query, got %d", n)
	}
}

// TestIntegration_ProfileNotFound tests 404 handling from the backend.
func TestIntegration_ProfileNotFound(t *testing.T) {
	var userCalls atomic.Int32
	backend := newBackend(t, &userCalls, true)
	defer backend.Close()

	rec := httptest.NewRecorder()
	newRouter(backend.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/traders/nonexistent/dashboard", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing trader, got %d", rec.Code)
	}
}

// TestIntegration_BackendDown tests the 502 path after retries.
func TestIntegration_BackendDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	router := newRouter(backend.URL)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/traders/trader-1/dashboard", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var health domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "degraded" {
		t.Errorf("expected degraded health, got %s", health.Status)
	}
}

// TestIntegration_ProfileCacheIsPerCaller checks that a profile cached for
// one caller is not served to a caller the backend rejects.
func TestIntegration_ProfileCacheIsPerCaller(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer alice" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"user": map[string]any{
			"id": req.Variables["id"], "name": "Alice", "phone": "0812000111",
			"magicNumber": "88888", "role": "USER", "initialBalance": "500",
		}}})
	}))
	defer backend.Close()

	router := newRouter(backend.URL)
	get := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/traders/trader-1/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := get("mallory"); code != http.StatusUnauthorized {
		t.Fatalf("mallory before alice: expected 401, got %d", code)
	}
	if code := get("alice"); code != http.StatusOK {
		t.Fatalf("alice: expected 200, got %d", code)
	}
	if code := get("mallory"); code != http.StatusUnauthorized {
		t.Fatalf("mallory after alice: expected 401, got %d", code)
	}
	if code := get("alice"); code != http.StatusOK {
		t.Fatalf("alice again: expected 200, got %d", code)
	}
}
