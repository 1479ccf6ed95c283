package report

import (
	"fmt"
	"strconv"
	"strings"

	"fincal/internal/core"
	"fincal/internal/ledger"
)

// Interval is the bucket size of trends and period statistics.
type Interval string

const (
	Day   Interval = "day"
	Week  Interval = "week"
	Month Interval = "month"
	Year  Interval = "year"
)

// maxPeriods bounds the number of buckets a single trend may produce.
const maxPeriods = 1000

func ParseInterval(s string) (Interval, error) {
	switch i := Interval(strings.ToLower(strings.TrimSpace(s))); i {
	case Day, Week, Month, Year:
		return i, nil
	case "":
		return Month, nil
	}
	return "", invalidf(ErrInvalidInterval, "interval %q must be day, week, month or year", s)
}

type period struct {
	start, end core.Date
}

// periods splits [start, end] into consecutive buckets. After the first,
// month buckets begin on the 1st and year buckets on January 1st, so no
// bucket drifts when the start falls on a late day of the month.
func periods(start, end core.Date, interval Interval) ([]period, error) {
	var out []period
	for cur := start; !cur.After(end); {
		var next core.Date
		switch interval {
		case Day:
			next = cur.AddDays(1)
		case Week:
			next = cur.AddDays(7)
		case Month:
			next = core.NewDate(cur.Year(), cur.Month()+1, 1)
		case Year:
			next = core.NewDate(cur.Year()+1, 1, 1)
		default:
			return nil, invalidf(ErrInvalidInterval, "interval %q must be day, week, month or year", interval)
		}
		last := next.AddDays(-1)
		if last.After(end) {
			last = end
		}
		out = append(out, period{start: cur, end: last})
		if len(out) > maxPeriods {
			return nil, invalidf(ErrInvalidInterval, "range produces more than %d %s periods", maxPeriods, interval)
		}
		cur = next
	}
	return out, nil
}

func (p period) label(interval Interval) string {
	switch interval {
	case Day:
		return p.start.String()
	case Week:
		return fmt.Sprintf("Week %s - %s", p.start, p.end)
	case Month:
		return core.MonthName(p.start.Month()-1) + " " + strconv.Itoa(p.start.Year())
	default:
		return strconv.Itoa(p.start.Year())
	}
}

// Trend totals the operations between start and end, both inclusive.
func (s *Service) Trend(start, end core.Date, interval Interval) ([]TrendPoint, error) {
	if end.Before(start) {
		return nil, invalidf(core.ErrInvalidDate, "start date %s is after end date %s", start, end)
	}
	key := fmt.Sprintf("trend:%s:%s:%s", start, end, interval)
	return cached(s, key, func() ([]TrendPoint, error) {
		ps, err := periods(start, end, interval)
		if err != nil {
			return nil, err
		}
		ops := dated(s.src.Operations(ledger.Filter{From: &start, To: &end}))

		points := make([]TrendPoint, 0, len(ps))
		for _, p := range ps {
			var (
				income, expense core.Amount
				count           int
			)
			for _, d := range ops {
				if d.day.Before(p.start) || d.day.After(p.end) {
					continue
				}
				if d.op.Type == core.Income {
					income = income.Add(d.op.Amount)
				} else {
					expense = expense.Add(d.op.Amount)
				}
				count++
			}
			points = append(points, TrendPoint{
				Period:          p.label(interval),
				Start:           p.start.String(),
				End:             p.end.String(),
				Income:          income.Float(),
				Expense:         expense.Float(),
				Balance:         income.Minus(expense).Float(),
				OperationsCount: count,
			})
		}
		return points, nil
	})
}

type datedOperation struct {
	op  core.Operation
	day core.Date
}

// dated pairs operations with their parsed day, dropping unparsable dates.
func dated(ops []core.Operation) []datedOperation {
	out := make([]datedOperation, 0, len(ops))
	for _, op := range ops {
		day, err := core.ParseDate(op.Date)
		if err != nil {
			continue
		}
		out = append(out, datedOperation{op: op, day: day})
	}
	return out
}
