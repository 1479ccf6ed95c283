package report

import (
	"fincal/internal/core"
	"fincal/internal/ledger"
)

// Totals is an income, expense and balance triple.
type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// Change compares a value with the one of the previous period.
type Change struct {
	Change     float64 `json:"change"`
	Percentage float64 `json:"percentage"`
}

type Comparison struct {
	Income  Change `json:"income"`
	Expense Change `json:"expense"`
	Balance Change `json:"balance"`
}

// CategoryAmount is a category total with its share of the kind total.
type CategoryAmount struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type MonthlyReport struct {
	Year                 int                                 `json:"year"`
	Month                int                                 `json:"month"`
	MonthName            string                              `json:"monthName"`
	Totals               Totals                              `json:"totals"`
	CategoryTotals       map[core.Kind]ledger.CategoryTotals `json:"categoryTotals"`
	OperationsCount      int                                 `json:"operationsCount"`
	Comparison           Comparison                          `json:"comparison"`
	TopExpenseCategories []CategoryAmount                    `json:"topExpenseCategories"`
}

type MonthRow struct {
	Month     int     `json:"month"`
	MonthName string  `json:"monthName"`
	Income    float64 `json:"income"`
	Expense   float64 `json:"expense"`
	Balance   float64 `json:"balance"`
}

// YearComparison holds percentage changes against the previous year.
type YearComparison struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

type YearlyReport struct {
	Year             int            `json:"year"`
	Totals           Totals         `json:"totals"`
	MonthlyBreakdown []MonthRow     `json:"monthlyBreakdown"`
	Comparison       YearComparison `json:"comparison"`
	AverageMonthly   Totals         `json:"averageMonthly"`
}

// TrendPoint totals one interval of a trend.
type TrendPoint struct {
	Period          string  `json:"period"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	Income          float64 `json:"income"`
	Expense         float64 `json:"expense"`
	Balance         float64 `json:"balance"`
	OperationsCount int     `json:"operationsCount"`
}

type TopExpense struct {
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type IncomeSource struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
	Average  float64 `json:"average"`
}

// SavingsBand grades a savings rate.
type SavingsBand string

const (
	SavingsExcellent SavingsBand = "excellent"
	SavingsGood      SavingsBand = "good"
	SavingsLow       SavingsBand = "low"
	SavingsNegative  SavingsBand = "overspending"
)

type SavingsReport struct {
	TotalIncome    float64     `json:"totalIncome"`
	TotalExpense   float64     `json:"totalExpense"`
	Savings        float64     `json:"savings"`
	SavingsRate    float64     `json:"savingsRate"`
	Band           SavingsBand `json:"band"`
	Recommendation string      `json:"recommendation"`
}

// PeriodStats groups operations by day, week, month or year.
type PeriodStats struct {
	Period     string           `json:"period"`
	Income     float64          `json:"income"`
	Expense    float64          `json:"expense"`
	Balance    float64          `json:"balance"`
	Operations []core.Operation `json:"operations"`

	start core.Date
}

// CategoryStat describes the usage of one category over a time range.
type CategoryStat struct {
	Category   string    `json:"category"`
	Type       core.Kind `json:"type"`
	Total      float64   `json:"total"`
	Count      int       `json:"count"`
	Percentage float64   `json:"percentage"`
}
