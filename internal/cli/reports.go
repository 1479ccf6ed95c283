package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"fincal/internal/core"
	"fincal/internal/log"
	"fincal/internal/report"

	"github.com/google/subcommands"
)

type monthCmd struct {
	month monthFlags
}

func (*monthCmd) Name() string     { return "month" }
func (*monthCmd) Synopsis() string { return "summarize a month" }
func (*monthCmd) Usage() string {
	return `fincal month [-year <yyyy>] [-month <1-12>]

  Prints totals, category breakdown and the comparison with the previous
  month. Defaults to the current month.
`
}

func (c *monthCmd) SetFlags(f *flag.FlagSet) { c.month.set(f) }

func (c *monthCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	year, month0, err := c.month.resolve(env.today())
	if err != nil {
		return env.usage("%v", err)
	}
	return env.printReport(ctx, report.Query{Kind: "monthly", Year: year, Month0: month0}, "markdown", "")
}

type yearCmd struct {
	year int
}

func (*yearCmd) Name() string     { return "year" }
func (*yearCmd) Synopsis() string { return "summarize a year" }
func (*yearCmd) Usage() string {
	return `fincal year [-year <yyyy>]

  Prints totals, the monthly breakdown and the comparison with the previous
  year.
`
}

func (c *yearCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Year, defaults to the current year.")
}

func (c *yearCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	year := c.year
	if year == 0 {
		year = env.today().Year()
	}
	return env.printReport(ctx, report.Query{Kind: "yearly", Year: year}, "markdown", "")
}

type reportCmd struct {
	month    monthFlags
	kind     string
	from, to string
	interval string
	n        int
	format   string
	output   string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "build any report as markdown, html or json" }
func (*reportCmd) Usage() string {
	return `fincal report [flags] monthly|yearly|trend|top|sources|savings|categories

  Builds one report. Markdown goes to the terminal, html and json are
  written to -o or to stdout.

Usage Examples:
$ fincal report -interval week -from 1.1.25 trend
$ fincal report -format html -o march.html -month 3 monthly
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.month.set(f)
	f.StringVar(&c.kind, "t", "", "Operation type of the categories report.")
	f.StringVar(&c.from, "from", "", "Trend start, defaults to twelve months ago.")
	f.StringVar(&c.to, "to", "", "Trend end, defaults to today.")
	f.StringVar(&c.interval, "interval", "month", "Trend interval: day, week, month or year.")
	f.IntVar(&c.n, "n", report.DefaultTopExpenses, "Size of the top expenses list.")
	f.StringVar(&c.format, "format", "markdown", "Output format: markdown, html or json.")
	f.StringVar(&c.output, "o", "", "Write to this file instead of stdout.")
}

func (c *reportCmd) query(kind string, today core.Date) (report.Query, error) {
	q := report.Query{Kind: kind, N: c.n}
	year, month0, err := c.month.resolve(today)
	if err != nil {
		return q, err
	}
	q.Year, q.Month0 = year, month0
	if c.kind != "" {
		k, err := core.ParseKind(c.kind)
		if err != nil {
			return q, err
		}
		q.Type = k
	}
	if q.Interval, err = report.ParseInterval(c.interval); err != nil {
		return q, err
	}
	defFrom, defTo := report.DefaultTrendRange(today)
	if q.From, err = parseDateOr(c.from, defFrom); err != nil {
		return q, err
	}
	if q.To, err = parseDateOr(c.to, defTo); err != nil {
		return q, err
	}
	return q, nil
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	if f.NArg() != 1 {
		return env.usage("report takes one kind: %s", strings.Join(report.Kinds, ", "))
	}
	switch c.format {
	case "markdown", "html", "json":
	default:
		return env.usage("format must be markdown, html or json, got %q", c.format)
	}
	q, err := c.query(f.Arg(0), env.today())
	if err != nil {
		return env.fail(ctx, log.OpRender, err)
	}
	return env.printReport(ctx, q, c.format, c.output)
}

// printReport builds q and writes it in format to path, or to Out when
// path is empty.
func (e *Env) printReport(ctx context.Context, q report.Query, format, path string) subcommands.ExitStatus {
	reports, err := e.Reports(ctx)
	if err != nil {
		return e.fail(ctx, log.OpRender, err)
	}
	built, err := reports.Build(q)
	if err != nil {
		return e.fail(ctx, log.OpRender, err)
	}

	var out string
	switch format {
	case "json":
		raw, err := json.MarshalIndent(built.Data, "", "  ")
		if err != nil {
			return e.fail(ctx, log.OpRender, err)
		}
		out = string(raw) + "\n"
	default:
		md, err := e.Markdown(ctx)
		if err != nil {
			return e.fail(ctx, log.OpRender, err)
		}
		if out, err = built.Markdown(md); err != nil {
			return e.fail(ctx, log.OpRender, err)
		}
		if format == "html" {
			if out, err = report.HTML(built.Title, out); err != nil {
				return e.fail(ctx, log.OpRender, err)
			}
		}
	}

	switch {
	case path != "":
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return e.fail(ctx, log.OpRender, err)
		}
		fmt.Fprintf(e.Err, "wrote %s\n", path)
	case format == "markdown":
		if err := e.Print(out); err != nil {
			return e.fail(ctx, log.OpRender, err)
		}
	default:
		if _, err := fmt.Fprint(e.Out, out); err != nil {
			return e.fail(ctx, log.OpRender, err)
		}
	}
	return subcommands.ExitSuccess
}
