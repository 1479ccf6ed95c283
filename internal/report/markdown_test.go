package report

import (
	"strings"
	"testing"
)

func TestMarkdownMonthly(t *testing.T) {
	svc, _ := newTestService(t, sample()...)
	r, _ := svc.Monthly(2025, 2)

	md, err := NewMarkdown("₽").Monthly(r)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# March 2025",
		"| Income | 1 000,00 ₽ |",
		"| Balance | 430,00 ₽ |",
		"| Income | 500,00 ₽ | +100.00% |",
		"| Food | 300,00 ₽ | 52.63% |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownRenderers(t *testing.T) {
	svc, _ := newTestService(t, append(sample(), expense("19.03.25", "Food", 5, "a|b"))...)
	md := NewMarkdown("$")

	yearly, _ := svc.Yearly(2025)
	top, _ := svc.TopExpenses(10)
	sources, _ := svc.IncomeSources()
	savings, _ := svc.Savings()
	rows, _ := svc.Categories("income", 2025, 2)

	tests := []struct {
		name   string
		render func() (string, error)
		want   string
	}{
		{"yearly", func() (string, error) { return md.Yearly(yearly) }, "| Mar | 1 000,00 $ |"},
		{"top", func() (string, error) { return md.TopExpenses(top) }, `a\|b`},
		{"sources", func() (string, error) { return md.IncomeSources(sources) }, "| Salary | 1 500,00 $ | 2 | 750,00 $ |"},
		{"savings", func() (string, error) { return md.Savings(savings) }, "(excellent)"},
		{"categories", func() (string, error) { return md.Categories("income", 2025, 2, rows) }, "# Income by category, March 2025"},
		{"empty trend", func() (string, error) { return md.Trend(Day, nil) }, "No periods in range."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.render()
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestHTML(t *testing.T) {
	page, err := HTML("Savings <2025>", "# Savings\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<title>Savings &lt;2025&gt;</title>", "<h1>Savings</h1>", "<table>", "<td>1</td>"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, dark := range []bool{true, false} {
		out, err := Terminal("# Savings\n\nrate **20%**\n", dark, 60)
		if err != nil {
			t.Fatalf("dark=%v: %v", dark, err)
		}
		if !strings.Contains(out, "Savings") {
			t.Fatalf("dark=%v: heading missing from %q", dark, out)
		}
	}
}

func TestMarkdownOperations(t *testing.T) {
	md := NewMarkdown("₽")
	out, err := md.Operations("15.03.25", sample()[3:5])
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# 15.03.25",
		"| 15.03.25 | Expense | Food | 300,00 ₽ | groceries |",
		"| Expense | 500,00 ₽ |",
		"| Balance | -500,00 ₽ |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}

	empty, err := md.Operations("Nothing", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(empty, "No operations.") {
		t.Fatalf("empty list:\n%s", empty)
	}
}
