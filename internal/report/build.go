package report

import (
	"errors"
	"fmt"

	"fincal/internal/core"
)

// ErrUnknownReport is returned by Build for a kind outside Kinds.
var ErrUnknownReport = errors.New("unknown report")

// Kinds lists the reports Build understands.
var Kinds = []string{"monthly", "yearly", "trend", "top", "sources", "savings", "categories"}

// Query selects a report and carries its parameters. Fields a kind does not
// use are ignored.
type Query struct {
	Kind string

	// monthly, yearly, categories
	Year   int
	Month0 int
	// categories
	Type core.Kind

	// trend
	From     core.Date
	To       core.Date
	Interval Interval

	// top
	N int
}

// Built is a report value with its title, ready to be encoded as JSON or
// rendered as Markdown.
type Built struct {
	Title string
	Data  any

	render func(Markdown) (string, error)
}

// Markdown renders the report with m.
func (b Built) Markdown(m Markdown) (string, error) { return b.render(m) }

// Build computes the report q asks for.
func (s *Service) Build(q Query) (Built, error) {
	switch q.Kind {
	case "monthly":
		rep, err := s.Monthly(q.Year, q.Month0)
		if err != nil {
			return Built{}, err
		}
		return Built{
			Title:  fmt.Sprintf("Report for %s %d", rep.MonthName, rep.Year),
			Data:   rep,
			render: func(m Markdown) (string, error) { return m.Monthly(rep) },
		}, nil

	case "yearly":
		rep, err := s.Yearly(q.Year)
		if err != nil {
			return Built{}, err
		}
		return Built{
			Title:  fmt.Sprintf("Report for %d", q.Year),
			Data:   rep,
			render: func(m Markdown) (string, error) { return m.Yearly(rep) },
		}, nil

	case "trend":
		interval := q.Interval
		if interval == "" {
			interval = Month
		}
		points, err := s.Trend(q.From, q.To, interval)
		if err != nil {
			return Built{}, err
		}
		if points == nil {
			points = []TrendPoint{}
		}
		return Built{
			Title:  fmt.Sprintf("Trend %s - %s", q.From, q.To),
			Data:   points,
			render: func(m Markdown) (string, error) { return m.Trend(interval, points) },
		}, nil

	case "top":
		list, err := s.TopExpenses(q.N)
		if err != nil {
			return Built{}, err
		}
		return Built{
			Title:  "Top expenses",
			Data:   list,
			render: func(m Markdown) (string, error) { return m.TopExpenses(list) },
		}, nil

	case "sources":
		list, err := s.IncomeSources()
		if err != nil {
			return Built{}, err
		}
		return Built{
			Title:  "Income sources",
			Data:   list,
			render: func(m Markdown) (string, error) { return m.IncomeSources(list) },
		}, nil

	case "savings":
		rep, err := s.Savings()
		if err != nil {
			return Built{}, err
		}
		return Built{
			Title:  "Savings",
			Data:   rep,
			render: func(m Markdown) (string, error) { return m.Savings(rep) },
		}, nil

	case "categories":
		kind := q.Type
		if kind == "" {
			kind = core.Expense
		}
		rows, err := s.Categories(kind, q.Year, q.Month0)
		if err != nil {
			return Built{}, err
		}
		return Built{
			Title:  fmt.Sprintf("%s categories, %s %d", kind, core.MonthName(q.Month0), q.Year),
			Data:   rows,
			render: func(m Markdown) (string, error) { return m.Categories(kind, q.Year, q.Month0, rows) },
		}, nil
	}
	return Built{}, fmt.Errorf("%w %q", ErrUnknownReport, q.Kind)
}

// DefaultTrendRange returns the twelve months ending on today.
func DefaultTrendRange(today core.Date) (from, to core.Date) {
	return core.NewDate(today.Year()-1, today.Month()+1, 1), today
}
