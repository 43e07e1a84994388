package ledger_test

import (
	"strconv"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/shopspring/decimal"
)

// wib is UTC+7, the desk's local zone. Using a fixed zone keeps calendar
// boundaries deterministic regardless of the machine running the tests.
var wib = time.FixedZone("WIB", 7*60*60)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, wib)
}

func logAt(id string, t time.Time, profit string) domain.TransactionLog {
	return domain.TransactionLog{
		ID:        id,
		Ticket:    "T-" + id,
		Symbol:    "XAUUSD",
		Type:      domain.TradeBuy,
		Lots:      decimal.RequireFromString("0.10"),
		Profit:    decimal.RequireFromString(profit),
		CreatedAt: strconv.FormatInt(t.UnixMilli(), 10),
	}
}

func ptr(v int) *int { return &v }

func ids(logs []domain.TransactionLog) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.ID
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
