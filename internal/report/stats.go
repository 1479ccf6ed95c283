package report

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fincal/internal/core"
	"fincal/internal/ledger"
)

// DefaultTopExpenses is the size of the top expenses list when unset.
const DefaultTopExpenses = 10

// TopExpenses returns the n largest expenses. Equal amounts keep insertion order.
func (s *Service) TopExpenses(n int) ([]TopExpense, error) {
	if n <= 0 {
		n = DefaultTopExpenses
	}
	return cached(s, fmt.Sprintf("top:%d", n), func() ([]TopExpense, error) {
		ops := s.src.Operations(ledger.Filter{
			Type:   core.Expense,
			SortBy: ledger.SortAmount,
			Desc:   true,
			Limit:  n,
		})
		out := make([]TopExpense, 0, len(ops))
		for _, op := range ops {
			out = append(out, TopExpense{
				Date:        op.Date,
				Category:    op.Category,
				Amount:      op.Amount,
				Description: op.Description,
			})
		}
		return out, nil
	})
}

// IncomeSources groups all income by category, largest total first.
func (s *Service) IncomeSources() ([]IncomeSource, error) {
	return cached(s, "sources", func() ([]IncomeSource, error) {
		type acc struct {
			total core.Amount
			count int
		}
		byCategory := map[string]*acc{}
		for _, op := range s.src.Operations(ledger.Filter{Type: core.Income}) {
			a, ok := byCategory[op.Category]
			if !ok {
				a = &acc{}
				byCategory[op.Category] = a
			}
			a.total = a.total.Add(op.Amount)
			a.count++
		}

		out := make([]IncomeSource, 0, len(byCategory))
		for name, a := range byCategory {
			out = append(out, IncomeSource{
				Category: name,
				Total:    a.total.Float(),
				Count:    a.count,
				Average:  a.total.DivInt(a.count).Float(),
			})
		}
		slices.SortFunc(out, func(a, b IncomeSource) int {
			if c := cmp.Compare(b.Total, a.Total); c != 0 {
				return c
			}
			return cmp.Compare(a.Category, b.Category)
		})
		return out, nil
	})
}

// Savings relates all-time income and expense.
func (s *Service) Savings() (SavingsReport, error) {
	return cached(s, "savings", func() (SavingsReport, error) {
		var income, expense core.Amount
		for _, op := range s.src.Operations(ledger.Filter{}) {
			if op.Type == core.Income {
				income = income.Add(op.Amount)
			} else {
				expense = expense.Add(op.Amount)
			}
		}
		savings := income.Minus(expense)
		rate := share(savings, income)

		r := SavingsReport{
			TotalIncome:  income.Float(),
			TotalExpense: expense.Float(),
			Savings:      savings.Float(),
			SavingsRate:  rate,
		}
		r.Band, r.Recommendation = recommend(rate)
		return r, nil
	})
}

func recommend(rate float64) (SavingsBand, string) {
	switch {
	case rate >= 20:
		return SavingsExcellent, "Excellent! You save more than 20% of your income. Consider investing the surplus."
	case rate >= 10:
		return SavingsGood, "Good result. Try to raise your savings rate to 20%."
	case rate > 0:
		return SavingsLow, "Your savings rate is low. Review your expenses and look for ways to cut them."
	default:
		return SavingsNegative, "Your expenses exceed your income. Reduce spending as soon as possible."
	}
}

// PeriodStats groups every operation by interval, most recent period first.
// Weeks start on Monday, months are labelled YYYY-MM.
func (s *Service) PeriodStats(interval Interval) ([]PeriodStats, error) {
	if _, err := ParseInterval(string(interval)); err != nil {
		return nil, err
	}
	return cached(s, "periods:"+string(interval), func() ([]PeriodStats, error) {
		groups := map[string]*PeriodStats{}
		type sums struct{ income, expense core.Amount }
		totals := map[string]*sums{}

		for _, d := range dated(s.src.Operations(ledger.Filter{})) {
			start, label := bucket(d.day, interval)
			g, ok := groups[label]
			if !ok {
				g = &PeriodStats{Period: label, start: start, Operations: []core.Operation{}}
				groups[label] = g
				totals[label] = &sums{}
			}
			g.Operations = append(g.Operations, d.op)
			if d.op.Type == core.Income {
				totals[label].income = totals[label].income.Add(d.op.Amount)
			} else {
				totals[label].expense = totals[label].expense.Add(d.op.Amount)
			}
		}

		out := make([]PeriodStats, 0, len(groups))
		for label, g := range groups {
			t := totals[label]
			g.Income = t.income.Float()
			g.Expense = t.expense.Float()
			g.Balance = t.income.Minus(t.expense).Float()
			out = append(out, *g)
		}
		slices.SortFunc(out, func(a, b PeriodStats) int {
			return b.start.Compare(a.start.Time)
		})
		return out, nil
	})
}

func bucket(day core.Date, interval Interval) (core.Date, string) {
	switch interval {
	case Day:
		return day, day.String()
	case Week:
		monday := day.AddDays(-((int(day.Weekday()) + 6) % 7))
		return monday, fmt.Sprintf("%s - %s", monday, monday.AddDays(6))
	case Year:
		return core.NewDate(day.Year(), 1, 1), strconv.Itoa(day.Year())
	default:
		return core.NewDate(day.Year(), day.Month(), 1), fmt.Sprintf("%04d-%02d", day.Year(), day.Month())
	}
}

// TimeRange bounds category statistics relative to today.
type TimeRange string

const (
	LastWeek  TimeRange = "week"
	LastMonth TimeRange = "month"
	LastYear  TimeRange = "year"
	AllTime   TimeRange = "all"
)

func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(strings.ToLower(strings.TrimSpace(s))); r {
	case LastWeek, LastMonth, LastYear, AllTime:
		return r, nil
	case "":
		return AllTime, nil
	}
	return "", invalidf(ErrInvalidInterval, "time range %q must be week, month, year or all", s)
}

func (s *Service) since(r TimeRange) *core.Date {
	now := s.now()
	var from core.Date
	switch r {
	case LastWeek:
		from = core.DateOf(now.AddDate(0, 0, -7))
	case LastMonth:
		from = core.DateOf(now.AddDate(0, -1, 0))
	case LastYear:
		from = core.DateOf(now.AddDate(-1, 0, 0))
	default:
		return nil
	}
	return &from
}

// CategoryStats returns per-category usage for both kinds over r, sorted by
// total descending.
func (s *Service) CategoryStats(r TimeRange) (map[core.Kind][]CategoryStat, error) {
	if _, err := ParseTimeRange(string(r)); err != nil {
		return nil, err
	}
	// Relative ranges move with the clock so they bypass the cache.
	if r != AllTime {
		return s.categoryStats(r), nil
	}
	return cached(s, "catstats:"+string(r), func() (map[core.Kind][]CategoryStat, error) {
		return s.categoryStats(r), nil
	})
}

func (s *Service) categoryStats(r TimeRange) map[core.Kind][]CategoryStat {
	type acc struct {
		total core.Amount
		count int
	}
	sums := map[core.Kind]map[string]*acc{core.Income: {}, core.Expense: {}}
	kindTotals := map[core.Kind]core.Amount{}

	ops := s.src.Operations(ledger.Filter{})
	if from := s.since(r); from != nil {
		ops = dropBefore(ops, *from)
	}
	for _, op := range ops {
		kind := op.Type
		if kind != core.Income {
			kind = core.Expense
		}
		a, ok := sums[kind][op.Category]
		if !ok {
			a = &acc{}
			sums[kind][op.Category] = a
		}
		a.total = a.total.Add(op.Amount)
		a.count++
		kindTotals[kind] = kindTotals[kind].Add(op.Amount)
	}

	out := map[core.Kind][]CategoryStat{}
	for _, kind := range core.Kinds() {
		stats := make([]CategoryStat, 0, len(sums[kind]))
		for name, a := range sums[kind] {
			stats = append(stats, CategoryStat{
				Category:   name,
				Type:       kind,
				Total:      a.total.Float(),
				Count:      a.count,
				Percentage: share(a.total, kindTotals[kind]),
			})
		}
		slices.SortFunc(stats, func(a, b CategoryStat) int {
			if c := cmp.Compare(b.Total, a.Total); c != 0 {
				return c
			}
			return cmp.Compare(a.Category, b.Category)
		})
		out[kind] = stats
	}
	return out
}

// dropBefore keeps operations dated on or after from. Unparsable dates are
// dropped because they cannot be placed in a relative range.
func dropBefore(ops []core.Operation, from core.Date) []core.Operation {
	out := ops[:0:0]
	for _, d := range dated(ops) {
		if !d.day.Before(from) {
			out = append(out, d.op)
		}
	}
	return out
}

// DefaultStatsLimit caps MostUsed and TopByAmount when limit is unset.
const DefaultStatsLimit = 5

// MostUsed returns the categories of kind with the most operations.
func (s *Service) MostUsed(kind core.Kind, r TimeRange, limit int) ([]CategoryStat, error) {
	stats, err := s.CategoryStats(r)
	if err != nil {
		return nil, err
	}
	list := slices.Clone(stats[kind])
	slices.SortStableFunc(list, func(a, b CategoryStat) int { return cmp.Compare(b.Count, a.Count) })
	return head(list, limit), nil
}

// TopByAmount returns the categories of kind with the largest totals.
func (s *Service) TopByAmount(kind core.Kind, r TimeRange, limit int) ([]CategoryStat, error) {
	stats, err := s.CategoryStats(r)
	if err != nil {
		return nil, err
	}
	return head(slices.Clone(stats[kind]), limit), nil
}

func head[T any](list []T, limit int) []T {
	if limit <= 0 {
		limit = DefaultStatsLimit
	}
	if len(list) > limit {
		return list[:limit]
	}
	return list
}
