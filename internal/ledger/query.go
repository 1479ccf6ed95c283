package ledger

import (
	"cmp"
	"slices"
	"strings"

	"fincal/internal/core"
)

// SortField orders query results. The zero value keeps insertion order.
type SortField string

const (
	SortNone     SortField = ""
	SortDate     SortField = "date"
	SortAmount   SortField = "amount"
	SortCategory SortField = "category"
)

// ParseSortField accepts the query-string spellings of SortField.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortNone, SortDate, SortAmount, SortCategory:
		return f, true
	}
	return SortNone, false
}

// Filter selects operations. Every set field must match.
type Filter struct {
	From *core.Date
	To   *core.Date
	Type core.Kind
	// Category must equal the operation category exactly.
	Category string
	// Query is matched case-insensitively against category and description.
	Query     string
	MinAmount *float64
	MaxAmount *float64

	SortBy SortField
	Desc   bool
	// Limit caps the result when positive.
	Limit int
}

// Match reports whether op passes every criterion of f. Operations whose
// stored date cannot be parsed are not excluded by a date bound.
func (f Filter) Match(op core.Operation) bool {
	if f.Type != "" && op.Type != f.Type {
		return false
	}
	if f.Category != "" && op.Category != f.Category {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(op.Category), q) &&
			!strings.Contains(strings.ToLower(op.Description), q) {
			return false
		}
	}
	if f.From != nil || f.To != nil {
		// an unreadable date is outside every range
		d, err := core.ParseDate(op.Date)
		if err != nil {
			return false
		}
		if f.From != nil && d.Before(*f.From) {
			return false
		}
		if f.To != nil && d.After(*f.To) {
			return false
		}
	}
	if f.MinAmount != nil && op.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && op.Amount > *f.MaxAmount {
		return false
	}
	return true
}

// Apply filters, sorts and truncates ops into a new slice.
func (f Filter) Apply(ops []core.Operation) []core.Operation {
	out := make([]core.Operation, 0, len(ops))
	for _, op := range ops {
		if f.Match(op) {
			out = append(out, op)
		}
	}
	if f.SortBy != SortNone {
		slices.SortStableFunc(out, func(a, b core.Operation) int {
			c := compareBy(f.SortBy, a, b)
			if f.Desc {
				return -c
			}
			return c
		})
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func compareBy(field SortField, a, b core.Operation) int {
	switch field {
	case SortAmount:
		return cmp.Compare(a.Amount, b.Amount)
	case SortCategory:
		return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
	case SortDate:
		da, errA := core.ParseDate(a.Date)
		db, errB := core.ParseDate(b.Date)
		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		return da.Compare(db.Time)
	}
	return 0
}
