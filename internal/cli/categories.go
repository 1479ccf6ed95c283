package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"fincal/internal/core"
	"fincal/internal/log"

	"github.com/google/subcommands"
)

// Category actions.
var categoryActions = []string{"list", "add", "rm", "rename", "merge", "reset"}

type categoryCmd struct {
	kind string
}

func (*categoryCmd) Name() string     { return "category" }
func (*categoryCmd) Synopsis() string { return "list and edit income and expense categories" }
func (*categoryCmd) Usage() string {
	return `fincal category [-t expense|income] <action> [args]

  list                   print the categories of both types
  add <name>             add a category
  rm <name>              remove a category and its operations
  rename <old> <new>     rename a category and its operations
  merge <source> <target> move the operations of source to target
  reset                  restore the default categories
`
}

func (c *categoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "t", string(core.Expense), "Category type: expense or income.")
}

func (c *categoryCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	action := f.Arg(0)
	if action == "" {
		action = "list"
	}
	params := f.Args()
	if len(params) > 0 {
		params = params[1:]
	}
	want := map[string]int{"list": 0, "add": 1, "rm": 1, "rename": 2, "merge": 2, "reset": 0}
	n, ok := want[action]
	if !ok {
		return env.usage("unknown action %q, want one of %s", action, strings.Join(categoryActions, ", "))
	}
	if len(params) != n {
		return env.usage("%s takes %d argument(s), got %d", action, n, len(params))
	}
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return env.fail(ctx, log.OpValidate, err)
	}
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpRead, err)
	}

	switch action {
	case "add":
		if err := store.AddCategory(ctx, kind, params[0]); err != nil {
			return env.fail(ctx, log.OpCreate, err)
		}
		fmt.Fprintf(env.Out, "added %s category %q\n", kind, strings.TrimSpace(params[0]))
	case "rm":
		n, err := store.RemoveCategory(ctx, kind, params[0])
		if err != nil {
			return env.fail(ctx, log.OpDelete, err)
		}
		fmt.Fprintf(env.Out, "removed %s category %q and %d operation(s)\n", kind, params[0], n)
	case "rename":
		n, err := store.RenameCategory(ctx, kind, params[0], params[1])
		if err != nil {
			return env.fail(ctx, log.OpUpdate, err)
		}
		fmt.Fprintf(env.Out, "renamed %q to %q in %d operation(s)\n", params[0], params[1], n)
	case "merge":
		n, err := store.MergeCategories(ctx, kind, params[0], params[1])
		if err != nil {
			return env.fail(ctx, log.OpUpdate, err)
		}
		fmt.Fprintf(env.Out, "merged %q into %q, %d operation(s) moved\n", params[0], params[1], n)
	case "reset":
		if err := store.ResetCategories(ctx); err != nil {
			return env.fail(ctx, log.OpUpdate, err)
		}
		fmt.Fprintln(env.Out, "categories reset to defaults")
	default:
		if err := env.Print(categoriesMarkdown(store.Categories())); err != nil {
			return env.fail(ctx, log.OpRender, err)
		}
	}
	return subcommands.ExitSuccess
}

func categoriesMarkdown(set core.CategorySet) string {
	var b strings.Builder
	b.WriteString("# Categories\n")
	for _, k := range core.Kinds() {
		fmt.Fprintf(&b, "\n## %s\n\n", strings.ToUpper(k.String()[:1])+k.String()[1:])
		for _, name := range set.Of(k) {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	return b.String()
}

type settingsCmd struct {
	currency   string
	dateFormat string
	dark       bool
	toggleDark bool
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or change settings" }
func (*settingsCmd) Usage() string {
	return `fincal settings [-currency <symbol>] [-date-format <format>] [-dark=true|false] [-toggle-dark]

  Without flags prints the current settings.
`
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "Currency symbol used when rendering amounts.")
	f.StringVar(&c.dateFormat, "date-format", "", "Display date format.")
	f.BoolVar(&c.dark, "dark", false, "Dark terminal style.")
	f.BoolVar(&c.toggleDark, "toggle-dark", false, "Flip the dark mode setting.")
}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpRead, err)
	}
	set := visited(f)
	if set["dark"] && set["toggle-dark"] {
		return env.usage("-dark and -toggle-dark are exclusive")
	}

	var patch core.SettingsPatch
	if set["currency"] {
		patch.Currency = &c.currency
	}
	if set["date-format"] {
		patch.DateFormat = &c.dateFormat
	}
	if set["dark"] {
		patch.DarkMode = &c.dark
	}
	if patch != (core.SettingsPatch{}) {
		if _, err := store.UpdateSettings(ctx, patch); err != nil {
			return env.fail(ctx, log.OpUpdate, err)
		}
	}
	if c.toggleDark {
		if _, err := store.ToggleDarkMode(ctx); err != nil {
			return env.fail(ctx, log.OpUpdate, err)
		}
	}

	s := store.Settings()
	md := fmt.Sprintf("# Settings\n\n| | |\n|---|---|\n| Currency | %s |\n| Date format | %s |\n| Dark mode | %t |\n| Income categories | %d |\n| Expense categories | %d |\n",
		s.Currency, s.DateFormat, s.DarkMode, len(s.Categories.Income), len(s.Categories.Expense))
	if err := env.Print(md); err != nil {
		return env.fail(ctx, log.OpRender, err)
	}
	return subcommands.ExitSuccess
}
