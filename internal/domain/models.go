// Package domain defines the core entities of the trading dashboard BFA.
// These models are independent of the upstream GraphQL backend and represent
// the canonical data structures used throughout the service.
package domain

import (
	"github.com/shopspring/decimal"
)

// ============================================================
// Trader / Profile
// ============================================================

// Role is the account role assigned by the trading backend.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleTrader Role = "USER"
)

// TraderProfile is the subset of the upstream user record the dashboard needs.
type TraderProfile struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	MagicNumber    string          `json:"magicNumber"`
	Role           Role            `json:"role"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

// ============================================================
// Transaction logs
// ============================================================

// TradeType is the side of a closed trade.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// TransactionLog is a closed trade as reported by the trading backend.
// Records are read-only snapshots; nothing in the BFA mutates them.
type TransactionLog struct {
	ID     string          `json:"id"`
	Ticket string          `json:"ticket"`
	Symbol string          `json:"symbol"`
	Type   TradeType       `json:"type"`
	Lots   decimal.Decimal `json:"lots"`
	Profit decimal.Decimal `json:"profit"`
	// CreatedAt is epoch milliseconds encoded as a string by the backend.
	CreatedAt string `json:"createdAt"`
}
