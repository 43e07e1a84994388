package domain

// FilterMode selects which TimeFilter fields are consulted.
type FilterMode string

const (
	FilterDay   FilterMode = "DAY"
	FilterMonth FilterMode = "MONTH"
	FilterYear  FilterMode = "YEAR"
)

// Valid reports whether m is one of the known modes.
func (m FilterMode) Valid() bool {
	switch m {
	case FilterDay, FilterMonth, FilterYear:
		return true
	}
	return false
}

// TimeFilter is the calendar filter selected in the dashboard.
// A nil field matches any value. Month is 1-indexed.
type TimeFilter struct {
	Mode  FilterMode `json:"mode"`
	Day   *int       `json:"day,omitempty"`
	Month *int       `json:"month,omitempty"`
	Year  *int       `json:"year,omitempty"`
}

// IsUnset reports whether no calendar field is set. An unset filter means
// "today" for the ledger and chart, and "all time" for the summary.
func (f TimeFilter) IsUnset() bool {
	return f.Day == nil && f.Month == nil && f.Year == nil
}
