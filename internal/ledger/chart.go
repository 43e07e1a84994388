package ledger

import (
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/shopspring/decimal"
)

// ChartPoints is the maximum number of points in the balance chart.
const ChartPoints = 7

// ChartSeries returns the running balance after each of the last
// ChartPoints trades in chronological order. The balance is seeded with
// initialBalance plus the profit of every earlier trade in the set, so the
// first point is continuous with the history before it.
func ChartSeries(filtered []domain.TransactionLog, initialBalance decimal.Decimal, loc *time.Location) []domain.ChartPoint {
	loc = location(loc)
	ascending := sortStamped(filtered, false)
	split := max(len(ascending)-ChartPoints, 0)

	balance := initialBalance
	for _, s := range ascending[:split] {
		balance = balance.Add(s.log.Profit)
	}

	points := make([]domain.ChartPoint, 0, len(ascending)-split)
	for _, s := range ascending[split:] {
		balance = balance.Add(s.log.Profit)
		points = append(points, domain.ChartPoint{
			Label:   s.at.In(loc).Format("15:04"),
			Balance: balance,
		})
	}
	return points
}
