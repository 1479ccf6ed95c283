package cli

import (
	"context"
	"flag"
	"fmt"

	"fincal/internal/core"
	"fincal/internal/ledger"
	"fincal/internal/log"

	"github.com/google/subcommands"
)

// Register adds every fincal subcommand to c. Commands expect the *Env as
// the first argument of Commander.Execute.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&addCmd{}, "operations")
	c.Register(&editCmd{}, "operations")
	c.Register(&rmCmd{}, "operations")
	c.Register(&lsCmd{}, "operations")
	c.Register(&dayCmd{}, "operations")
	c.Register(&duplicatesCmd{}, "operations")

	c.Register(&monthCmd{}, "reports")
	c.Register(&yearCmd{}, "reports")
	c.Register(&reportCmd{}, "reports")

	c.Register(&categoryCmd{}, "settings")
	c.Register(&settingsCmd{}, "settings")

	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&backupCmd{}, "data")
	c.Register(&restoreCmd{}, "data")
}

func envOf(args []any) *Env {
	if len(args) > 0 {
		if e, ok := args[0].(*Env); ok {
			return e
		}
	}
	panic("cli: commands must be executed with an *Env")
}

// fail prints err with its severity and returns the matching exit status.
func (e *Env) fail(ctx context.Context, op string, err error) subcommands.ExitStatus {
	level := ledger.LevelOf(err)
	fmt.Fprintf(e.Err, "%s: %v\n", level, err)
	e.Logger.DebugContext(ctx, "command failed", log.FieldOperation, op, log.FieldError, err)
	return subcommands.ExitFailure
}

// usage reports a misuse of a command.
func (e *Env) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, format+"\n", args...)
	return subcommands.ExitUsageError
}

// visited returns the names of the flags set on the command line.
func visited(f *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// parseDateOr parses s, or returns def when s is empty.
func parseDateOr(s string, def core.Date) (core.Date, error) {
	if s == "" {
		return def, nil
	}
	return core.ParseDate(s)
}

// monthFlags selects a calendar month with a 1-12 month number.
type monthFlags struct {
	year  int
	month int
}

func (m *monthFlags) set(f *flag.FlagSet) {
	f.IntVar(&m.year, "year", 0, "Year, defaults to the current year.")
	f.IntVar(&m.month, "month", 0, "Month 1-12, defaults to the current month.")
}

// resolve returns the year and zero-based month, defaulting to today.
func (m *monthFlags) resolve(today core.Date) (year, month0 int, err error) {
	year, month := m.year, m.month
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month %d must be between 1 and 12", month)
	}
	return year, month - 1, nil
}
