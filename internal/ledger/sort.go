package ledger

import (
	"cmp"
	"slices"
	"time"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
)

// DefaultPageSize is the ledger page size used by the dashboard.
const DefaultPageSize = 10

type stampedLog struct {
	log domain.TransactionLog
	at  time.Time
	ms  int64
}

// stamp parses every timestamp once and drops records that fail to parse.
func stamp(records []domain.TransactionLog) []stampedLog {
	out := make([]stampedLog, 0, len(records))
	for _, r := range records {
		t, ok := ParseCreatedAt(r.CreatedAt)
		if !ok {
			continue
		}
		out = append(out, stampedLog{log: r, at: t, ms: t.UnixMilli()})
	}
	return out
}

func sortStamped(records []domain.TransactionLog, newestFirst bool) []stampedLog {
	stamped := stamp(records)
	slices.SortStableFunc(stamped, func(a, b stampedLog) int {
		if newestFirst {
			return cmp.Compare(b.ms, a.ms)
		}
		return cmp.Compare(a.ms, b.ms)
	})
	return stamped
}

// SortNewestFirst returns a copy of records ordered by createdAt descending.
// Ties keep their input order. Records with malformed timestamps are dropped.
func SortNewestFirst(records []domain.TransactionLog) []domain.TransactionLog {
	stamped := sortStamped(records, true)
	out := make([]domain.TransactionLog, len(stamped))
	for i, s := range stamped {
		out[i] = s.log
	}
	return out
}

// TotalPages returns ceil(count/pageSize). An empty list still has one
// (empty) page so navigation never goes below page 1.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// Paginate returns page pageNumber (1-based) of sorted. Out-of-range page
// numbers yield a page with no rows.
func Paginate(sorted []domain.TransactionLog, pageNumber, pageSize int) domain.Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := domain.Page{
		Number:     pageNumber,
		Size:       pageSize,
		TotalPages: TotalPages(len(sorted), pageSize),
		TotalCount: len(sorted),
		Rows:       []domain.TransactionLog{},
	}
	if pageNumber < 1 || pageNumber > page.TotalPages {
		return page
	}

	start := (pageNumber - 1) * pageSize
	end := min(start+pageSize, len(sorted))
	page.Offset = start
	if start < end {
		page.Rows = slices.Clone(sorted[start:end])
	}
	return page
}
