package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/boddenberg/trading-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/trading-dashboard-bfa/internal/ledger"
	"github.com/boddenberg/trading-dashboard-bfa/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/dashboard")

// DashboardQuery is a validated dashboard request.
type DashboardQuery struct {
	Filter   domain.TimeFilter
	Page     int
	PageSize int
}

// Option customises a DashboardService.
type Option func(*DashboardService)

// WithClock overrides the time source used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(s *DashboardService) { s.now = now }
}

// WithLocation sets the calendar zone for filtering and chart labels.
func WithLocation(loc *time.Location) Option {
	return func(s *DashboardService) { s.loc = loc }
}

// WithDefaultPageSize sets the page size used when a query leaves it at 0.
func WithDefaultPageSize(n int) Option {
	return func(s *DashboardService) { s.defaultPageSize = n }
}

// DashboardService fetches a trader's profile and history from the backend
// and derives every dashboard view from them.
type DashboardService struct {
	profiles        port.ProfileFetcher
	logs            port.TransactionLogFetcher
	cache           port.Cache[*domain.TraderProfile]
	metrics         *observability.Metrics
	logger          *zap.Logger
	now             func() time.Time
	loc             *time.Location
	defaultPageSize int
}

// NewDashboardService creates the dashboard service with all dependencies injected.
func NewDashboardService(
	profiles port.ProfileFetcher,
	logs port.TransactionLogFetcher,
	cache port.Cache[*domain.TraderProfile],
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *DashboardService {
	s := &DashboardService{
		profiles:        profiles,
		logs:            logs,
		cache:           cache,
		metrics:         metrics,
		logger:          logger,
		now:             time.Now,
		loc:             time.Local,
		defaultPageSize: ledger.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the calendar zone used for filtering and labels.
func (s *DashboardService) Location() *time.Location { return s.loc }

// GetProfile returns the trader profile, served from cache when possible.
func (s *DashboardService) GetProfile(ctx context.Context, traderID string) (*domain.TraderProfile, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.GetProfile")
	defer span.End()

	return s.profile(ctx, traderID)
}

// GetDashboard fetches profile and history concurrently and aggregates them.
func (s *DashboardService) GetDashboard(ctx context.Context, traderID string, q DashboardQuery) (*domain.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "DashboardService.GetDashboard")
	defer span.End()
	span.SetAttributes(
		attribute.String("trader.id", traderID),
		attribute.String("filter.mode", string(q.Filter.Mode)),
		attribute.Bool("filter.unset", q.Filter.IsUnset()),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	var (
		profile *domain.TraderProfile
		records []domain.TransactionLog
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.profile(gCtx, traderID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})

	g.Go(func() error {
		r, err := s.logs.GetTransactionLogs(gCtx, traderID)
		if err != nil {
			s.logger.Error("failed to fetch transaction logs",
				zap.String("trader_id", traderID),
				zap.Error(err),
			)
			s.metrics.IncrExternalError("transaction_logs")
			return fmt.Errorf("transaction logs fetch: %w", err)
		}
		records = r
		return nil
	})

	if err := g.Wait(); err != nil {
		// The trader is gone upstream; drop the profile this caller cached.
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			s.cache.Delete(ctx, profileCacheKey(ctx, traderID))
		}
		return nil, err
	}

	now := s.now()
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	page := q.Page
	if page == 0 {
		page = 1
	}

	if n := ledger.CountMalformed(records); n > 0 {
		s.logger.Debug("excluding transaction logs with malformed createdAt",
			zap.String("trader_id", traderID),
			zap.Int("count", n),
		)
		s.metrics.AddMalformed(n)
	}

	result := ledger.Aggregate(ledger.Input{
		Records:        records,
		Filter:         q.Filter,
		InitialBalance: profile.InitialBalance,
		PageNumber:     page,
		PageSize:       pageSize,
		Now:            now,
		Location:       s.loc,
	})
	s.metrics.IncrAggregation(aggregationMode(q.Filter))

	span.SetAttributes(
		attribute.Int("records.total", len(records)),
		attribute.Int("records.filtered", len(result.FilteredSorted)),
	)

	return &domain.Dashboard{
		TraderID:   traderID,
		Profile:    profile,
		Filter:     q.Filter,
		Result:     result,
		ComputedAt: now,
	}, nil
}

// GetTransactions returns only the ledger page of the dashboard.
func (s *DashboardService) GetTransactions(ctx context.Context, traderID string, q DashboardQuery) (*domain.Page, error) {
	d, err := s.GetDashboard(ctx, traderID, q)
	if err != nil {
		return nil, err
	}
	return &d.Result.Page, nil
}

// GetChart returns only the balance chart.
func (s *DashboardService) GetChart(ctx context.Context, traderID string, q DashboardQuery) ([]domain.ChartPoint, error) {
	d, err := s.GetDashboard(ctx, traderID, q)
	if err != nil {
		return nil, err
	}
	return d.Result.ChartSeries, nil
}

// GetSummary returns only the period statistics.
func (s *DashboardService) GetSummary(ctx context.Context, traderID string, q DashboardQuery) (*domain.Summary, error) {
	d, err := s.GetDashboard(ctx, traderID, q)
	if err != nil {
		return nil, err
	}
	return &d.Result.Summary, nil
}

func (s *DashboardService) profile(ctx context.Context, traderID string) (*domain.TraderProfile, error) {
	cacheKey := profileCacheKey(ctx, traderID)
	if p, ok := s.cache.Get(ctx, cacheKey); ok && p != nil {
		s.metrics.IncrCacheHit("profile")
		return p, nil
	}
	s.metrics.IncrCacheMiss("profile")

	p, err := s.profiles.GetTraderProfile(ctx, traderID)
	if err != nil {
		s.logger.Error("failed to fetch trader profile",
			zap.String("trader_id", traderID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("profile")
		return nil, fmt.Errorf("profile fetch: %w", err)
	}
	s.cache.Set(ctx, cacheKey, p)
	return p, nil
}

// profileCacheKey scopes cached profiles to the caller's token, so a profile
// the backend released to one caller is never served to another.
func profileCacheKey(ctx context.Context, traderID string) string {
	token, ok := domain.CallerToken(ctx)
	if !ok {
		return "profile:" + traderID
	}
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("profile:%s:%s", hex.EncodeToString(sum[:8]), traderID)
}

func aggregationMode(f domain.TimeFilter) domain.FilterMode {
	if f.IsUnset() {
		return ""
	}
	return f.Mode
}
