package handler

import (
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/boddenberg/trading-dashboard-bfa/internal/ledger"

	"github.com/shopspring/decimal"
)

// Response shapes for the browser console. Money stays exact (decimal
// strings); the *Display fields carry the table formatting.

type transactionRowView struct {
	No             int              `json:"no"`
	ID             string           `json:"id"`
	Ticket         string           `json:"ticket"`
	Symbol         string           `json:"symbol"`
	Type           domain.TradeType `json:"type"`
	Lots           decimal.Decimal  `json:"lots"`
	LotsDisplay    string           `json:"lotsDisplay"`
	Profit         decimal.Decimal  `json:"profit"`
	ProfitDisplay  string           `json:"profitDisplay"`
	CreatedAt      string           `json:"createdAt"`
	CreatedAtLocal string           `json:"createdAtLocal"`
}

type pageView struct {
	Number     int                  `json:"page"`
	Size       int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
	TotalCount int                  `json:"totalCount"`
	Rows       []transactionRowView `json:"rows"`
}

type dashboardView struct {
	TraderID       string                `json:"traderId"`
	Profile        *domain.TraderProfile `json:"profile"`
	Filter         domain.TimeFilter     `json:"filter"`
	Transactions   pageView              `json:"transactions"`
	Chart          []domain.ChartPoint   `json:"chart"`
	Summary        domain.Summary        `json:"summary"`
	CurrentBalance decimal.Decimal       `json:"currentBalance"`
	Negative       bool                  `json:"negative"`
	ComputedAt     time.Time             `json:"computedAt"`
}

func newPageView(p domain.Page, loc *time.Location) pageView {
	rows := make([]transactionRowView, 0, len(p.Rows))
	for i, r := range p.Rows {
		rows = append(rows, transactionRowView{
			No:             p.Offset + i + 1,
			ID:             r.ID,
			Ticket:         r.Ticket,
			Symbol:         r.Symbol,
			Type:           r.Type,
			Lots:           r.Lots,
			LotsDisplay:    r.Lots.StringFixed(2),
			Profit:         r.Profit,
			ProfitDisplay:  signed(r.Profit),
			CreatedAt:      r.CreatedAt,
			CreatedAtLocal: localTime(r.CreatedAt, loc),
		})
	}
	return pageView{
		Number:     p.Number,
		Size:       p.Size,
		TotalPages: p.TotalPages,
		TotalCount: p.TotalCount,
		Rows:       rows,
	}
}

func newDashboardView(d *domain.Dashboard, loc *time.Location) dashboardView {
	return dashboardView{
		TraderID:       d.TraderID,
		Profile:        d.Profile,
		Filter:         d.Filter,
		Transactions:   newPageView(d.Result.Page, loc),
		Chart:          d.Result.ChartSeries,
		Summary:        d.Result.Summary,
		CurrentBalance: d.Result.CurrentBalance,
		Negative:       d.Result.Negative,
		ComputedAt:     d.ComputedAt,
	}
}

// signed renders profit with two decimals and an explicit sign.
func signed(v decimal.Decimal) string {
	s := v.StringFixed(2)
	if v.IsPositive() {
		return "+" + s
	}
	return s
}

func localTime(createdAt string, loc *time.Location) string {
	t, ok := ledger.ParseCreatedAt(createdAt)
	if !ok {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
