package report

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"fincal/internal/core"
)

//go:embed templates/*.md
var templateFS embed.FS

var templates = mustSub(templateFS, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Markdown renders reports as Markdown with amounts in one currency.
type Markdown struct {
	money core.Formatter
}

// NewMarkdown returns a renderer using the given currency symbol.
func NewMarkdown(currency string) Markdown {
	return Markdown{money: core.NewFormatter(currency)}
}

func (m Markdown) funcs() template.FuncMap {
	return template.FuncMap{
		"money":  m.money.Format,
		"pct":    func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
		"signed": func(v float64) string { return fmt.Sprintf("%+.2f%%", v) },
		"prev":   func(y int) int { return y - 1 },
		"inc":    func(i int) int { return i + 1 },
		"title": func(k core.Kind) string {
			s := string(k)
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		// cell keeps free text from breaking a table row.
		"cell": func(s string) string {
			s = strings.ReplaceAll(s, "|", `\|`)
			return strings.Join(strings.Fields(s), " ")
		},
	}
}

// partials are parsed alongside every main template.
var partials = map[string]string{
	"totals": "totals.md",
}

func (m Markdown) render(name string, data any) (string, error) {
	main, err := fs.ReadFile(templates, name+".md")
	if err != nil {
		return "", fmt.Errorf("read template %q: %w", name, err)
	}
	tmpl, err := template.New(name).Funcs(m.funcs()).Parse(string(main))
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", name, err)
	}
	for alias, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return "", fmt.Errorf("read partial %q: %w", file, err)
		}
		if _, err := tmpl.New(alias).Parse(string(content)); err != nil {
			return "", fmt.Errorf("parse partial %q: %w", file, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", name, err)
	}
	return b.String(), nil
}

func (m Markdown) Monthly(r MonthlyReport) (string, error) { return m.render("monthly", r) }

func (m Markdown) Yearly(r YearlyReport) (string, error) { return m.render("yearly", r) }

func (m Markdown) Trend(interval Interval, points []TrendPoint) (string, error) {
	return m.render("trend", struct {
		Interval Interval
		Points   []TrendPoint
	}{interval, points})
}

func (m Markdown) TopExpenses(list []TopExpense) (string, error) { return m.render("top", list) }

func (m Markdown) IncomeSources(list []IncomeSource) (string, error) {
	return m.render("sources", list)
}

func (m Markdown) Savings(r SavingsReport) (string, error) { return m.render("savings", r) }

// Categories renders the breakdown of one kind for a zero-based month.
func (m Markdown) Categories(kind core.Kind, year, month0 int, rows []CategoryAmount) (string, error) {
	return m.render("categories", struct {
		Kind      core.Kind
		Year      int
		MonthName string
		Rows      []CategoryAmount
	}{kind, year, core.MonthName(month0), rows})
}

// Operations renders a list of operations with their totals.
func (m Markdown) Operations(title string, ops []core.Operation) (string, error) {
	var income, expense core.Amount
	for _, op := range ops {
		if op.Type == core.Income {
			income = income.Add(op.Amount)
		} else {
			expense = expense.Add(op.Amount)
		}
	}
	return m.render("operations", struct {
		Title      string
		Operations []core.Operation
		Totals     Totals
	}{title, ops, Totals{
		Income:  income.Float(),
		Expense: expense.Float(),
		Balance: income.Minus(expense).Float(),
	}})
}
