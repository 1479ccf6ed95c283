package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"fincal/internal/core"
	"fincal/internal/ledger"
	"fincal/internal/log"

	"github.com/google/subcommands"
)

type addCmd struct {
	kind        string
	date        string
	category    string
	amount      string
	description string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an income or expense" }
func (*addCmd) Usage() string {
	return `fincal add -c <category> -a <amount> [-t expense|income] [-d <dd.mm.yy>] [-m <description>]

  Records one operation. The date defaults to today and the type to expense.
  Amounts accept a decimal comma.

Usage Examples:
$ fincal add -c Food -a 12,50 -m lunch
$ fincal add -t income -c Salary -a 1000 -d 1.3.25
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "t", string(core.Expense), "Operation type: expense or income.")
	f.StringVar(&c.date, "d", "", "Date as dd.mm.yy, defaults to today.")
	f.StringVar(&c.category, "c", "", "Category name.")
	f.StringVar(&c.amount, "a", "", "Positive amount.")
	f.StringVar(&c.description, "m", "", "Optional description.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	if f.NArg() != 0 {
		return env.usage("add takes no arguments, got %q", f.Args())
	}
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpCreate, err)
	}
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return env.fail(ctx, log.OpCreate, err)
	}
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return env.fail(ctx, log.OpCreate, err)
	}
	date := c.date
	if date == "" {
		date = env.today().String()
	}

	op, err := store.AddOperation(ctx, core.Operation{
		Date:        date,
		Type:        kind,
		Category:    c.category,
		Amount:      amount,
		Description: c.description,
	})
	if err != nil {
		return env.fail(ctx, log.OpCreate, err)
	}
	return env.printOperations(ctx, "Added", []core.Operation{op})
}

type editCmd struct {
	kind        string
	date        string
	category    string
	amount      string
	description string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of an operation" }
func (*editCmd) Usage() string {
	return `fincal edit [-t <type>] [-d <date>] [-c <category>] [-a <amount>] [-m <description>] <id>

  Overwrites only the fields given on the command line. The id never changes.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "t", "", "New type: expense or income.")
	f.StringVar(&c.date, "d", "", "New date as dd.mm.yy.")
	f.StringVar(&c.category, "c", "", "New category.")
	f.StringVar(&c.amount, "a", "", "New positive amount.")
	f.StringVar(&c.description, "m", "", "New description, may be empty.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	if f.NArg() != 1 {
		return env.usage("edit takes exactly one operation id")
	}
	set := visited(f)
	if len(set) == 0 {
		return env.usage("nothing to change, pass at least one of -t -d -c -a -m")
	}

	var patch core.OperationPatch
	if set["t"] {
		kind, err := core.ParseKind(c.kind)
		if err != nil {
			return env.fail(ctx, log.OpUpdate, err)
		}
		patch.Type = &kind
	}
	if set["a"] {
		amount, err := core.ParseAmount(c.amount)
		if err != nil {
			return env.fail(ctx, log.OpUpdate, err)
		}
		patch.Amount = &amount
	}
	if set["d"] {
		patch.Date = &c.date
	}
	if set["c"] {
		patch.Category = &c.category
	}
	if set["m"] {
		patch.Description = &c.description
	}

	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpUpdate, err)
	}
	op, err := store.UpdateOperation(ctx, f.Arg(0), patch)
	if err != nil {
		return env.fail(ctx, log.OpUpdate, err)
	}
	return env.printOperations(ctx, "Updated", []core.Operation{op})
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete operations by id" }
func (*rmCmd) Usage() string {
	return `fincal rm <id>...

  Deletes each operation. Stops at the first id that does not exist.
`
}
func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	if f.NArg() == 0 {
		return env.usage("rm needs at least one operation id")
	}
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpDelete, err)
	}
	for _, id := range f.Args() {
		if err := store.DeleteOperation(ctx, id); err != nil {
			return env.fail(ctx, log.OpDelete, err)
		}
		fmt.Fprintf(env.Out, "deleted %s\n", id)
	}
	return subcommands.ExitSuccess
}

type lsCmd struct {
	from, to   string
	kind       string
	category   string
	query      string
	min, max   string
	sort       string
	desc       bool
	limit      int
	jsonOutput bool
}

func (*lsCmd) Name() string     { return "ls" }
func (*lsCmd) Synopsis() string { return "list operations matching a filter" }
func (*lsCmd) Usage() string {
	return `fincal ls [-from <date>] [-to <date>] [-t <type>] [-c <category>] [-q <text>]
          [-min <amount>] [-max <amount>] [-sort date|amount|category] [-desc] [-n <limit>] [-json]

  Lists operations in insertion order unless -sort is given.
`
}

func (c *lsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day, dd.mm.yy.")
	f.StringVar(&c.to, "to", "", "Last day, dd.mm.yy.")
	f.StringVar(&c.kind, "t", "", "Only this type.")
	f.StringVar(&c.category, "c", "", "Only this category.")
	f.StringVar(&c.query, "q", "", "Text searched in category and description.")
	f.StringVar(&c.min, "min", "", "Smallest amount.")
	f.StringVar(&c.max, "max", "", "Largest amount.")
	f.StringVar(&c.sort, "sort", "", "Sort by date, amount or category.")
	f.BoolVar(&c.desc, "desc", false, "Reverse the sort order.")
	f.IntVar(&c.limit, "n", 0, "Print at most n operations.")
	f.BoolVar(&c.jsonOutput, "json", false, "Print JSON instead of a table.")
}

func (c *lsCmd) filter() (ledger.Filter, error) {
	f := ledger.Filter{
		Category: strings.TrimSpace(c.category),
		Query:    c.query,
		Desc:     c.desc,
		Limit:    c.limit,
	}
	for _, d := range []struct {
		raw string
		dst **core.Date
	}{{c.from, &f.From}, {c.to, &f.To}} {
		if d.raw == "" {
			continue
		}
		day, err := core.ParseDate(d.raw)
		if err != nil {
			return f, err
		}
		*d.dst = &day
	}
	for _, a := range []struct {
		raw string
		dst **float64
	}{{c.min, &f.MinAmount}, {c.max, &f.MaxAmount}} {
		if a.raw == "" {
			continue
		}
		v, err := core.ParseAmount(a.raw)
		if err != nil {
			return f, err
		}
		*a.dst = &v
	}
	if c.kind != "" {
		kind, err := core.ParseKind(c.kind)
		if err != nil {
			return f, err
		}
		f.Type = kind
	}
	if c.sort != "" {
		by, ok := ledger.ParseSortField(c.sort)
		if !ok {
			return f, fmt.Errorf("sort %q must be date, amount or category", c.sort)
		}
		f.SortBy = by
	}
	if c.limit < 0 {
		return f, fmt.Errorf("limit %d must not be negative", c.limit)
	}
	return f, nil
}

func (c *lsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	filter, err := c.filter()
	if err != nil {
		return env.fail(ctx, log.OpList, err)
	}
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpList, err)
	}
	ops := store.Operations(filter)
	if c.jsonOutput {
		if ops == nil {
			ops = []core.Operation{}
		}
		enc := json.NewEncoder(env.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ops); err != nil {
			return env.fail(ctx, log.OpList, err)
		}
		return subcommands.ExitSuccess
	}
	return env.printOperations(ctx, "Operations", ops)
}

type dayCmd struct{}

func (*dayCmd) Name() string     { return "day" }
func (*dayCmd) Synopsis() string { return "show the operations of one day" }
func (*dayCmd) Usage() string {
	return `fincal day [<dd.mm.yy>]

  Lists the operations of the day, today by default, with the day totals.
`
}
func (*dayCmd) SetFlags(*flag.FlagSet) {}

func (*dayCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	if f.NArg() > 1 {
		return env.usage("day takes at most one date")
	}
	day, err := parseDateOr(f.Arg(0), env.today())
	if err != nil {
		return env.fail(ctx, log.OpRead, err)
	}
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpRead, err)
	}
	return env.printOperations(ctx, day.String(), store.OperationsOn(day))
}

type duplicatesCmd struct{}

func (*duplicatesCmd) Name() string     { return "duplicates" }
func (*duplicatesCmd) Synopsis() string { return "list likely double entries" }
func (*duplicatesCmd) Usage() string {
	return `fincal duplicates

  Lists operations sharing date, type, category and amount with an earlier one.
`
}
func (*duplicatesCmd) SetFlags(*flag.FlagSet) {}

func (*duplicatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpRead, err)
	}
	dups := store.Duplicates()
	if len(dups) == 0 {
		fmt.Fprintln(env.Out, "no duplicates")
		return subcommands.ExitSuccess
	}
	ops := make([]core.Operation, 0, len(dups))
	for _, d := range dups {
		ops = append(ops, d.Duplicate)
	}
	return env.printOperations(ctx, "Possible duplicates", ops)
}

func (e *Env) printOperations(ctx context.Context, title string, ops []core.Operation) subcommands.ExitStatus {
	md, err := e.Markdown(ctx)
	if err != nil {
		return e.fail(ctx, log.OpRender, err)
	}
	out, err := md.Operations(title, ops)
	if err != nil {
		return e.fail(ctx, log.OpRender, err)
	}
	if err := e.Print(out); err != nil {
		return e.fail(ctx, log.OpRender, err)
	}
	return subcommands.ExitSuccess
}
