// Package core holds the ledger document model, validation and the money
// helpers shared by the store, the reports and the transports.
package core

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount accumulates operation amounts exactly. Stored amounts are float64,
// sums are carried in decimal and converted back once.
type Amount struct {
	v decimal.Decimal
}

// AmountOf converts a stored float amount.
func AmountOf(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}
	}
	return Amount{v: decimal.NewFromFloat(f)}
}

func (a Amount) Add(f float64) Amount     { return Amount{v: a.v.Add(AmountOf(f).v)} }
func (a Amount) Plus(b Amount) Amount     { return Amount{v: a.v.Add(b.v)} }
func (a Amount) Minus(b Amount) Amount    { return Amount{v: a.v.Sub(b.v)} }
func (a Amount) IsZero() bool             { return a.v.IsZero() }
func (a Amount) IsPositive() bool         { return a.v.IsPositive() }
func (a Amount) Cmp(b Amount) int         { return a.v.Cmp(b.v) }
func (a Amount) Float() float64           { return a.v.InexactFloat64() }
func (a Amount) Decimal() decimal.Decimal { return a.v }

// DivInt divides by n and rounds to cents. Division by zero yields zero.
func (a Amount) DivInt(n int) Amount {
	if n == 0 {
		return Amount{}
	}
	return Amount{v: a.v.Div(decimal.NewFromInt(int64(n))).Round(2)}
}

// ParseAmount reads a user supplied amount such as "1 234,50" or "12.3".
//
// Spaces are ignored and a decimal comma is accepted. The result must be a
// positive finite number, otherwise ErrInvalidAmount is returned inside a
// ValidationError.
func ParseAmount(s string) (float64, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || strings.HasPrefix(s, "+") {
		return 0, invalid(ErrInvalidAmount, "amount must be a positive number")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, invalid(ErrInvalidAmount, "amount must be a positive number")
	}
	return d.InexactFloat64(), nil
}

// Formatter renders amounts with a currency symbol the way the ledger shows
// them: space grouped thousands, comma decimals, symbol after the number.
type Formatter struct {
	f *money.Formatter
}

// NewFormatter returns a formatter for the given currency symbol.
func NewFormatter(symbol string) Formatter {
	if symbol == "" {
		symbol = DefaultCurrency
	}
	return Formatter{f: money.NewFormatter(2, ",", " ", symbol, "1 $")}
}

// Format renders a float amount rounded to cents.
func (f Formatter) Format(amount float64) string {
	return f.FormatAmount(AmountOf(amount))
}

// FormatAmount renders an exact amount rounded to cents.
func (f Formatter) FormatAmount(a Amount) string {
	cents := a.v.Shift(2).Round(0).IntPart()
	return f.f.Format(cents)
}

// Percent returns the rounded integer percentage of part in whole.
func Percent(part, whole Amount) int {
	if !whole.IsPositive() {
		return 0
	}
	return int(part.v.Div(whole.v).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// PercentChange returns the change from old to new in percent. A rise from
// zero counts as 100, zero to zero as 0.
func PercentChange(old, new Amount) float64 {
	if old.IsZero() {
		if new.IsPositive() {
			return 100
		}
		return 0
	}
	return new.v.Sub(old.v).Div(old.v.Abs()).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
