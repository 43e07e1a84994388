package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
)

// maxEpochMillis bounds the range of representable calendar dates
// (±100,000,000 days around the Unix epoch, the ECMAScript Date range the
// trading backend validates against).
const maxEpochMillis = 8_640_000_000_000_000

// ParseCreatedAt parses an epoch-millisecond string. Surrounding whitespace
// and an explicit sign ("+1718438400000", "-5") are accepted. The second
// result is false for anything else that is not a base-10 integer inside
// the valid date range: fractions, exponents, hex and ISO dates.
func ParseCreatedAt(s string) (time.Time, bool) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || ms > maxEpochMillis || ms < -maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// CountMalformed returns how many records carry an unparseable timestamp.
func CountMalformed(records []domain.TransactionLog) int {
	n := 0
	for _, r := range records {
		if _, ok := ParseCreatedAt(r.CreatedAt); !ok {
			n++
		}
	}
	return n
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
