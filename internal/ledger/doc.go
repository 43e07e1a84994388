// Package ledger derives the trader dashboard from a list of transaction
// logs: calendar filtering, newest-first pagination, the running-balance
// chart and period P&L statistics.
//
// Every function is pure and never mutates its inputs. Degenerate inputs
// such as malformed timestamps or out-of-range pages have defined results
// instead of errors. Money is summed with shopspring/decimal; only the
// percentage division is rounded, to decimal.DivisionPrecision.
package ledger
