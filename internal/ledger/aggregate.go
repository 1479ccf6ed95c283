package ledger

import (
	"fincal/internal/core"
)

// CategoryTotals maps category names to their summed amount for one kind.
type CategoryTotals map[string]float64

// MonthAggregate summarizes one month.
type MonthAggregate struct {
	Year            int                          `json:"year"`
	Month           int                          `json:"month"` // zero-based
	TotalIncome     float64                      `json:"totalIncome"`
	TotalExpense    float64                      `json:"totalExpense"`
	Balance         float64                      `json:"balance"`
	CategoryTotals  map[core.Kind]CategoryTotals `json:"categoryTotals"`
	OperationsCount int                          `json:"operationsCount"`
}

// MonthTotals is one entry of YearAggregate.Months.
type MonthTotals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// YearAggregate summarizes one calendar year.
type YearAggregate struct {
	Year         int             `json:"year"`
	TotalIncome  float64         `json:"totalIncome"`
	TotalExpense float64         `json:"totalExpense"`
	Balance      float64         `json:"balance"`
	Months       [12]MonthTotals `json:"monthTotals"`
}

// tally accumulates income and expense exactly.
type tally struct {
	income, expense core.Amount
}

func (t *tally) add(op core.Operation) {
	if op.Type == core.Income {
		t.income = t.income.Add(op.Amount)
	} else {
		t.expense = t.expense.Add(op.Amount)
	}
}

func (t tally) balance() core.Amount { return t.income.Minus(t.expense) }

// MonthAggregate totals the operations of a zero-based month. Operations
// with an unparsable date are skipped.
func (s *Store) MonthAggregate(year, month0 int) MonthAggregate {
	var (
		t     tally
		count int
		cats  = map[core.Kind]map[string]core.Amount{core.Income: {}, core.Expense: {}}
	)
	s.read(func(d *core.Document) {
		for _, op := range d.Operations {
			day, err := core.ParseDate(op.Date)
			if err != nil || !day.InMonth(year, month0) {
				continue
			}
			t.add(op)
			kind := op.Type
			if kind != core.Income {
				kind = core.Expense
			}
			cats[kind][op.Category] = cats[kind][op.Category].Add(op.Amount)
			count++
		}
	})

	agg := MonthAggregate{
		Year:            year,
		Month:           month0,
		TotalIncome:     t.income.Float(),
		TotalExpense:    t.expense.Float(),
		Balance:         t.balance().Float(),
		CategoryTotals:  map[core.Kind]CategoryTotals{},
		OperationsCount: count,
	}
	for kind, m := range cats {
		ct := CategoryTotals{}
		for name, a := range m {
			ct[name] = a.Float()
		}
		agg.CategoryTotals[kind] = ct
	}
	return agg
}

// YearAggregate totals a year with a fixed twelve month breakdown.
func (s *Store) YearAggregate(year int) YearAggregate {
	var (
		total  tally
		months [12]tally
	)
	s.read(func(d *core.Document) {
		for _, op := range d.Operations {
			day, err := core.ParseDate(op.Date)
			if err != nil || day.Year() != year {
				continue
			}
			total.add(op)
			months[day.Month()-1].add(op)
		}
	})

	agg := YearAggregate{
		Year:         year,
		TotalIncome:  total.income.Float(),
		TotalExpense: total.expense.Float(),
		Balance:      total.balance().Float(),
	}
	for i, m := range months {
		agg.Months[i] = MonthTotals{
			Income:  m.income.Float(),
			Expense: m.expense.Float(),
			Balance: m.balance().Float(),
		}
	}
	return agg
}

// Balance returns all-time income minus expense.
func (s *Store) Balance() float64 {
	var t tally
	s.read(func(d *core.Document) {
		for _, op := range d.Operations {
			t.add(op)
		}
	})
	return t.balance().Float()
}
