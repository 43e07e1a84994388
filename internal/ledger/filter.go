package ledger

import (
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
)

// Matches reports whether rec falls inside filter, evaluated in loc.
//
// An unset filter matches records dated today (relative to now) and takes
// precedence over the mode. Otherwise the mode decides which fields are
// consulted: DAY checks day, month and year; MONTH ignores day; YEAR ignores
// day and month. Each consulted field is optional and AND-combined.
// Records whose timestamp does not parse never match.
func Matches(rec domain.TransactionLog, filter domain.TimeFilter, now time.Time, loc *time.Location) bool {
	t, ok := ParseCreatedAt(rec.CreatedAt)
	if !ok {
		return false
	}
	loc = location(loc)
	year, month, day := t.In(loc).Date()

	if filter.IsUnset() {
		ty, tm, td := now.In(loc).Date()
		return year == ty && month == tm && day == td
	}

	switch filter.Mode {
	case domain.FilterDay:
		return fieldMatches(filter.Day, day) &&
			fieldMatches(filter.Month, int(month)) &&
			fieldMatches(filter.Year, year)
	case domain.FilterMonth:
		return fieldMatches(filter.Month, int(month)) && fieldMatches(filter.Year, year)
	case domain.FilterYear:
		return fieldMatches(filter.Year, year)
	default:
		return false
	}
}

// FilterLogs returns the records that match filter, in input order.
func FilterLogs(records []domain.TransactionLog, filter domain.TimeFilter, now time.Time, loc *time.Location) []domain.TransactionLog {
	out := make([]domain.TransactionLog, 0, len(records))
	for _, r := range records {
		if Matches(r, filter, now, loc) {
			out = append(out, r)
		}
	}
	return out
}

func fieldMatches(want *int, got int) bool {
	return want == nil || *want == got
}
