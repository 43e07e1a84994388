package ledger

import (
	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summarize computes the period statistics over records.
// GrossLoss stays signed (<= 0). PnLPercent is relative to initialBalance
// and is 0 when the initial balance is 0.
func Summarize(records []domain.TransactionLog, initialBalance decimal.Decimal) domain.Summary {
	s := domain.Summary{TradeCount: len(records)}
	for _, r := range records {
		switch r.Profit.Sign() {
		case 1:
			s.GrossProfit = s.GrossProfit.Add(r.Profit)
			s.WinCount++
			if r.Profit.GreaterThan(s.LargestProfit) {
				s.LargestProfit = r.Profit
			}
		case -1:
			s.GrossLoss = s.GrossLoss.Add(r.Profit)
			s.LossCount++
			if r.Profit.LessThan(s.LargestLoss) {
				s.LargestLoss = r.Profit
			}
		}
	}
	s.NetPnL = s.GrossProfit.Add(s.GrossLoss)
	s.PnLPercent = percentOf(s.NetPnL, initialBalance)
	return s
}

func percentOf(v, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return v.Div(base).Mul(hundred)
}

func sumProfit(records []domain.TransactionLog) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Profit)
	}
	return total
}
