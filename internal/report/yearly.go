package report

import (
	"fmt"

	"fincal/internal/core"
)

// Yearly reports a calendar year against the previous one.
func (s *Service) Yearly(year int) (YearlyReport, error) {
	return cached(s, fmt.Sprintf("yearly:%d", year), func() (YearlyReport, error) {
		cur := s.src.YearAggregate(year)
		prev := s.src.YearAggregate(year - 1)

		r := YearlyReport{
			Year:             year,
			Totals:           Totals{Income: cur.TotalIncome, Expense: cur.TotalExpense, Balance: cur.Balance},
			MonthlyBreakdown: make([]MonthRow, 0, 12),
			Comparison: YearComparison{
				Income:  core.PercentChange(core.AmountOf(prev.TotalIncome), core.AmountOf(cur.TotalIncome)),
				Expense: core.PercentChange(core.AmountOf(prev.TotalExpense), core.AmountOf(cur.TotalExpense)),
				Balance: core.PercentChange(core.AmountOf(prev.Balance), core.AmountOf(cur.Balance)),
			},
			AverageMonthly: Totals{
				Income:  core.AmountOf(cur.TotalIncome).DivInt(12).Float(),
				Expense: core.AmountOf(cur.TotalExpense).DivInt(12).Float(),
				Balance: core.AmountOf(cur.Balance).DivInt(12).Float(),
			},
		}
		for i, m := range cur.Months {
			r.MonthlyBreakdown = append(r.MonthlyBreakdown, MonthRow{
				Month:     i,
				MonthName: core.MonthShort(i),
				Income:    m.Income,
				Expense:   m.Expense,
				Balance:   m.Balance,
			})
		}
		return r, nil
	})
}
