package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Aggregation results
// ============================================================

// ChartPoint is one point of the running-balance chart.
type ChartPoint struct {
	Label   string          `json:"label"` // HH:MM, local time
	Balance decimal.Decimal `json:"balance"`
}

// Summary holds the period statistics shown on the summary cards.
type Summary struct {
	GrossProfit   decimal.Decimal `json:"grossProfit"`
	GrossLoss     decimal.Decimal `json:"grossLoss"` // signed, <= 0
	NetPnL        decimal.Decimal `json:"netPnl"`
	PnLPercent    decimal.Decimal `json:"pnlPercent"`
	LargestProfit decimal.Decimal `json:"largestProfit"`
	LargestLoss   decimal.Decimal `json:"largestLoss"`
	TradeCount    int             `json:"tradeCount"`
	WinCount      int             `json:"winCount"`
	LossCount     int             `json:"lossCount"`
	AllTime       bool            `json:"allTime"`
}

// Page is one slice of the newest-first ledger.
type Page struct {
	Number     int              `json:"page"`
	Size       int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
	TotalCount int              `json:"totalCount"`
	Offset     int              `json:"offset"`
	Rows       []TransactionLog `json:"rows"`
}

// AggregationResult is the derived dashboard view. It is recomputed from
// scratch on every call and never patched.
type AggregationResult struct {
	FilteredSorted []TransactionLog `json:"-"`
	Page           Page             `json:"page"`
	ChartSeries    []ChartPoint     `json:"chart"`
	Summary        Summary          `json:"summary"`
	CurrentBalance decimal.Decimal  `json:"currentBalance"`
	Negative       bool             `json:"negative"`
}

// Dashboard is the service-level result handed to the HTTP layer.
type Dashboard struct {
	TraderID   string            `json:"traderId"`
	Profile    *TraderProfile    `json:"profile"`
	Filter     TimeFilter        `json:"filter"`
	Result     AggregationResult `json:"result"`
	ComputedAt time.Time         `json:"computedAt"`
}
