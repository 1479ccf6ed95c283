package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fincal/internal/core"
	"fincal/internal/ledger"
	"fincal/internal/storage"
)

var fixedNow = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, ops ...core.Operation) (*Service, *ledger.Store) {
	t.Helper()
	ctx := context.Background()
	store := ledger.New(storage.NewMemoryBackend())
	if _, err := store.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, op := range ops {
		if _, err := store.AddOperation(ctx, op); err != nil {
			t.Fatalf("add %+v: %v", op, err)
		}
	}
	svc := NewService(store, WithClock(func() time.Time { return fixedNow }))
	svc.Attach(store.Bus())
	return svc, store
}

func income(date, category string, amount float64) core.Operation {
	return core.Operation{Date: date, Type: core.Income, Category: category, Amount: amount}
}

func expense(date, category string, amount float64, description ...string) core.Operation {
	op := core.Operation{Date: date, Type: core.Expense, Category: category, Amount: amount}
	if len(description) > 0 {
		op.Description = description[0]
	}
	return op
}

func sample() []core.Operation {
	return []core.Operation{
		income("05.02.25", "Salary", 500),
		expense("06.02.25", "Food", 100),
		income("01.03.25", "Salary", 1000),
		expense("15.03.25", "Food", 300, "groceries"),
		expense("16.03.25", "Housing", 200, "rent"),
		expense("17.03.25", "Transport", 50),
		expense("18.03.25", "Health", 20),
	}
}

func TestMonthly(t *testing.T) {
	svc, _ := newTestService(t, sample()...)

	r, err := svc.Monthly(2025, 2)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if r.MonthName != "March" || r.OperationsCount != 5 {
		t.Fatalf("unexpected header %+v", r)
	}
	if r.Totals != (Totals{Income: 1000, Expense: 570, Balance: 430}) {
		t.Fatalf("unexpected totals %+v", r.Totals)
	}
	if r.Comparison.Income != (Change{Change: 500, Percentage: 100}) {
		t.Errorf("income comparison %+v", r.Comparison.Income)
	}
	if r.Comparison.Expense != (Change{Change: 470, Percentage: 470}) {
		t.Errorf("expense comparison %+v", r.Comparison.Expense)
	}
	if r.Comparison.Balance != (Change{Change: 30, Percentage: 7.5}) {
		t.Errorf("balance comparison %+v", r.Comparison.Balance)
	}

	var top []string
	for _, c := range r.TopExpenseCategories {
		top = append(top, c.Category)
	}
	if strings.Join(top, ",") != "Food,Housing,Transport" {
		t.Fatalf("unexpected top categories %v", top)
	}
	if r.TopExpenseCategories[0].Percentage != 52.63 {
		t.Fatalf("expected 52.63%% share, got %v", r.TopExpenseCategories[0].Percentage)
	}

	if _, err := svc.Monthly(2025, 12); !core.IsValidationError(err) {
		t.Fatalf("expected validation error for month 12, got %v", err)
	}
}

func TestMonthlyComparisonFromEmptyMonth(t *testing.T) {
	svc, _ := newTestService(t, income("01.01.25", "Salary", 100))

	r, err := svc.Monthly(2025, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Comparison.Income.Percentage != 100 || r.Comparison.Expense.Percentage != 0 {
		t.Fatalf("unexpected comparison %+v", r.Comparison)
	}
}

func TestCacheIsPurgedOnChange(t *testing.T) {
	svc, store := newTestService(t, sample()...)

	before, _ := svc.Monthly(2025, 2)
	if _, err := store.AddOperation(context.Background(), income("20.03.25", "Gift", 50)); err != nil {
		t.Fatal(err)
	}
	after, _ := svc.Monthly(2025, 2)
	if after.Totals.Income != before.Totals.Income+50 {
		t.Fatalf("expected refreshed report, got income %v", after.Totals.Income)
	}
}

func TestCategories(t *testing.T) {
	svc, _ := newTestService(t, sample()...)

	rows, err := svc.Categories(core.Expense, 2025, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0].Category != "Food" || rows[3].Category != "Health" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if _, err := svc.Categories("refund", 2025, 2); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestYearly(t *testing.T) {
	ops := append(sample(), income("10.06.24", "Salary", 1200))
	svc, _ := newTestService(t, ops...)

	r, err := svc.Yearly(2025)
	if err != nil {
		t.Fatal(err)
	}
	if r.Totals.Income != 1500 || r.Totals.Expense != 670 {
		t.Fatalf("unexpected totals %+v", r.Totals)
	}
	if len(r.MonthlyBreakdown) != 12 || r.MonthlyBreakdown[2].MonthName != "Mar" || r.MonthlyBreakdown[2].Income != 1000 {
		t.Fatalf("unexpected breakdown %+v", r.MonthlyBreakdown)
	}
	if r.Comparison.Income != 25 {
		t.Fatalf("expected +25%% income, got %v", r.Comparison.Income)
	}
	if r.AverageMonthly.Income != 125 {
		t.Fatalf("expected average 125, got %v", r.AverageMonthly.Income)
	}
}

func TestTrend(t *testing.T) {
	svc, _ := newTestService(t, sample()...)

	points, err := svc.Trend(core.MustParseDate("15.01.25"), core.MustParseDate("10.03.25"), Month)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		period, start, end string
		income             float64
	}{
		{"January 2025", "15.01.25", "31.01.25", 0},
		{"February 2025", "01.02.25", "28.02.25", 500},
		{"March 2025", "01.03.25", "10.03.25", 1000},
	}
	if len(points) != len(want) {
		t.Fatalf("expected %d points, got %+v", len(want), points)
	}
	for i, w := range want {
		p := points[i]
		if p.Period != w.period || p.Start != w.start || p.End != w.end || p.Income != w.income {
			t.Errorf("point %d: got %+v, want %+v", i, p, w)
		}
	}

	_, err = svc.Trend(core.MustParseDate("10.03.25"), core.MustParseDate("01.03.25"), Day)
	if !core.IsValidationError(err) {
		t.Fatalf("expected validation error for reversed range, got %v", err)
	}
}

func TestPeriodsWeekAndYear(t *testing.T) {
	ps, err := periods(core.MustParseDate("01.03.25"), core.MustParseDate("16.03.25"), Week)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 3 || ps[2].start.String() != "15.03.25" || ps[2].end.String() != "16.03.25" {
		t.Fatalf("unexpected week periods %+v", ps)
	}
	if got := ps[0].label(Week); got != "Week 01.03.25 - 07.03.25" {
		t.Fatalf("unexpected label %q", got)
	}

	ps, err = periods(core.MustParseDate("31.12.24"), core.MustParseDate("02.01.25"), Year)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 || ps[1].start.String() != "01.01.25" || ps[1].label(Year) != "2025" {
		t.Fatalf("unexpected year periods %+v", ps)
	}

	if _, err := periods(core.MustParseDate("01.01.00"), core.MustParseDate("31.12.99"), Day); err == nil {
		t.Fatal("expected too many periods to be rejected")
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    Interval
		wantErr bool
	}{
		{"day", Day, false},
		{" Week ", Week, false},
		{"", Month, false},
		{"year", Year, false},
		{"quarter", "", true},
	}
	for _, tt := range tests {
		got, err := ParseInterval(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseInterval(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestTopExpenses(t *testing.T) {
	svc, _ := newTestService(t, sample()...)

	top, err := svc.TopExpenses(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].Amount != 300 || top[0].Description != "groceries" || top[1].Category != "Housing" {
		t.Fatalf("unexpected top expenses %+v", top)
	}

	all, _ := svc.TopExpenses(0)
	if len(all) != 5 {
		t.Fatalf("expected all 5 expenses with the default limit, got %d", len(all))
	}
}

func TestIncomeSources(t *testing.T) {
	svc, _ := newTestService(t, append(sample(), income("20.03.25", "Gift", 70))...)

	sources, err := svc.IncomeSources()
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %+v", sources)
	}
	if sources[0] != (IncomeSource{Category: "Salary", Total: 1500, Count: 2, Average: 750}) {
		t.Fatalf("unexpected first source %+v", sources[0])
	}
}

func TestSavings(t *testing.T) {
	svc, _ := newTestService(t, sample()...)

	r, err := svc.Savings()
	if err != nil {
		t.Fatal(err)
	}
	// 1500 income, 670 expense.
	if r.Savings != 830 || r.SavingsRate != 55.33 || r.Band != SavingsExcellent {
		t.Fatalf("unexpected savings %+v", r)
	}

	tests := []struct {
		rate float64
		want SavingsBand
	}{
		{20, SavingsExcellent},
		{19.99, SavingsGood},
		{10, SavingsGood},
		{0.5, SavingsLow},
		{0, SavingsNegative},
		{-40, SavingsNegative},
	}
	for _, tt := range tests {
		if got, _ := recommend(tt.rate); got != tt.want {
			t.Errorf("recommend(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestPeriodStats(t *testing.T) {
	svc, _ := newTestService(t, sample()...)

	months, err := svc.PeriodStats(Month)
	if err != nil {
		t.Fatal(err)
	}
	if len(months) != 2 || months[0].Period != "2025-03" || months[1].Period != "2025-02" {
		t.Fatalf("unexpected month groups %+v", months)
	}
	if months[0].Balance != 430 || len(months[0].Operations) != 5 {
		t.Fatalf("unexpected march group %+v", months[0])
	}

	weeks, err := svc.PeriodStats(Week)
	if err != nil {
		t.Fatal(err)
	}
	// 16.03.25 is a Sunday and belongs to the week starting Monday 10.03.25.
	if weeks[0].Period != "17.03.25 - 23.03.25" || weeks[1].Period != "10.03.25 - 16.03.25" {
		t.Fatalf("unexpected week groups %v, %v", weeks[0].Period, weeks[1].Period)
	}

	if _, err := svc.PeriodStats("fortnight"); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestCategoryStats(t *testing.T) {
	ops := append(sample(),
		expense("19.03.25", "Transport", 10),
		expense("19.03.25", "Transport", 10),
		expense("01.01.24", "Food", 5000),
	)
	svc, _ := newTestService(t, ops...)

	used, err := svc.MostUsed(core.Expense, LastMonth, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(used) != 1 || used[0].Category != "Transport" || used[0].Count != 3 {
		t.Fatalf("unexpected most used %+v", used)
	}

	top, err := svc.TopByAmount(core.Expense, LastMonth, 0)
	if err != nil {
		t.Fatal(err)
	}
	if top[0].Category != "Food" || top[0].Total != 300 {
		t.Fatalf("expected last month food total 300, got %+v", top[0])
	}

	all, err := svc.TopByAmount(core.Expense, AllTime, 0)
	if err != nil {
		t.Fatal(err)
	}
	if all[0].Total != 5400 {
		t.Fatalf("expected all time food total 5400, got %+v", all[0])
	}

	if _, err := ParseTimeRange("decade"); err == nil {
		t.Fatal("expected unknown range to be rejected")
	}
}

func TestBuild(t *testing.T) {
	svc, _ := newTestService(t, sample()...)
	md := NewMarkdown("$")

	tests := []struct {
		query     Query
		wantTitle string
		wantMD    string
	}{
		{Query{Kind: "monthly", Year: 2025, Month0: 2}, "Report for March 2025", "# March 2025"},
		{Query{Kind: "yearly", Year: 2025}, "Report for 2025", "| Mar |"},
		{Query{Kind: "categories", Year: 2025, Month0: 2}, "expense categories, March 2025", "| Food |"},
		{Query{Kind: "top", N: 2}, "Top expenses", "Food"},
		{Query{Kind: "sources"}, "Income sources", "Salary"},
		{Query{Kind: "savings"}, "Savings", "Savings"},
		{Query{
			Kind: "trend",
			From: core.MustParseDate("01.02.25"),
			To:   core.MustParseDate("31.03.25"),
		}, "Trend 01.02.25 - 31.03.25", "|"},
	}
	for _, tt := range tests {
		t.Run(tt.query.Kind, func(t *testing.T) {
			b, err := svc.Build(tt.query)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if b.Title != tt.wantTitle {
				t.Fatalf("title = %q, want %q", b.Title, tt.wantTitle)
			}
			out, err := b.Markdown(md)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, tt.wantMD) {
				t.Fatalf("markdown missing %q:\n%s", tt.wantMD, out)
			}
		})
	}

	if _, err := svc.Build(Query{Kind: "weekly"}); !errors.Is(err, ErrUnknownReport) {
		t.Fatalf("unknown kind: %v", err)
	}
}

func TestDefaultTrendRange(t *testing.T) {
	from, to := DefaultTrendRange(core.MustParseDate("20.12.25"))
	if from.String() != "01.01.25" || to.String() != "20.12.25" {
		t.Fatalf("range = %s - %s", from, to)
	}
}
