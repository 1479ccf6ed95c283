package report

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"fincal/internal/core"
	"fincal/internal/ledger"
)

const topCategories = 3

// Monthly reports a zero-based month against the month before it.
func (s *Service) Monthly(year, month0 int) (MonthlyReport, error) {
	if month0 < 0 || month0 > 11 {
		return MonthlyReport{}, invalidf(core.ErrInvalidDate, "month %d must be between 0 and 11", month0)
	}
	return cached(s, fmt.Sprintf("monthly:%d:%d", year, month0), func() (MonthlyReport, error) {
		cur := s.src.MonthAggregate(year, month0)
		prev := s.src.MonthAggregate(core.PreviousMonth(year, month0))

		r := MonthlyReport{
			Year:            year,
			Month:           month0,
			MonthName:       core.MonthName(month0),
			Totals:          Totals{Income: cur.TotalIncome, Expense: cur.TotalExpense, Balance: cur.Balance},
			CategoryTotals:  cur.CategoryTotals,
			OperationsCount: cur.OperationsCount,
			Comparison: Comparison{
				Income:  change(prev.TotalIncome, cur.TotalIncome),
				Expense: change(prev.TotalExpense, cur.TotalExpense),
				Balance: change(prev.Balance, cur.Balance),
			},
		}
		top := ranked(cur.CategoryTotals[core.Expense])
		if len(top) > topCategories {
			top = top[:topCategories]
		}
		r.TopExpenseCategories = top
		return r, nil
	})
}

// Categories breaks down one kind of a month by category, largest first.
func (s *Service) Categories(kind core.Kind, year, month0 int) ([]CategoryAmount, error) {
	if !kind.Valid() {
		return nil, invalidf(core.ErrInvalidType, "type %q must be income or expense", kind)
	}
	return cached(s, fmt.Sprintf("categories:%s:%d:%d", kind, year, month0), func() ([]CategoryAmount, error) {
		agg := s.src.MonthAggregate(year, month0)
		return ranked(agg.CategoryTotals[kind]), nil
	})
}

func change(old, cur float64) Change {
	o, c := core.AmountOf(old), core.AmountOf(cur)
	return Change{
		Change:     c.Minus(o).Float(),
		Percentage: core.PercentChange(o, c),
	}
}

// ranked sorts totals by amount descending, then by name, and fills in
// each category's share of the sum.
func ranked(totals ledger.CategoryTotals) []CategoryAmount {
	var sum core.Amount
	out := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		sum = sum.Add(amount)
		out = append(out, CategoryAmount{Category: name, Amount: amount})
	}
	for i := range out {
		out[i].Percentage = share(core.AmountOf(out[i].Amount), sum)
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// share is part/whole in percent with two decimals.
func share(part, whole core.Amount) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Decimal().Div(whole.Decimal()).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
