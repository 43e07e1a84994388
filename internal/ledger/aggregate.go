package ledger

import (
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/shopspring/decimal"
)

// Input groups everything one aggregation needs. Now and Location define
// "today" and the local calendar; a zero Now means time.Now and a nil
// Location means time.Local.
type Input struct {
	Records        []domain.TransactionLog
	Filter         domain.TimeFilter
	InitialBalance decimal.Decimal
	PageNumber     int
	PageSize       int
	Now            time.Time
	Location       *time.Location
}

// Aggregate derives the full dashboard view from in.
//
// The ledger page and the chart use the filtered set, where an unset filter
// means today. The summary uses the filtered set too, except when the filter
// is unset: then it covers the whole history. CurrentBalance always covers
// the whole history.
func Aggregate(in Input) domain.AggregationResult {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := location(in.Location)

	filtered := FilterLogs(in.Records, in.Filter, now, loc)
	sorted := SortNewestFirst(filtered)

	statsOver := filtered
	if in.Filter.IsUnset() {
		statsOver = in.Records
	}
	summary := Summarize(statsOver, in.InitialBalance)
	summary.AllTime = in.Filter.IsUnset()

	current := in.InitialBalance.Add(sumProfit(in.Records))

	return domain.AggregationResult{
		FilteredSorted: sorted,
		Page:           Paginate(sorted, in.PageNumber, in.PageSize),
		ChartSeries:    ChartSeries(filtered, in.InitialBalance, loc),
		Summary:        summary,
		CurrentBalance: current,
		Negative:       current.IsNegative(),
	}
}
