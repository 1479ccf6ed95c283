package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"fincal/internal/config"
	"fincal/internal/core"
	"fincal/internal/storage"

	"github.com/google/subcommands"
)

var fixedNow = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	*Env
	out, err *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		StorageKey: "financial_calendar_data",
		BackupDir:  t.TempDir(),
		BackupKeep: 3,
	}
	env := NewEnv(cfg, nil)
	env.Backend = storage.NewMemoryBackend()
	env.Plain = true
	env.Now = func() time.Time { return fixedNow }
	te := &testEnv{Env: env, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	env.Out, env.Err = te.out, te.err
	return te
}

// run executes one command line and returns its status. Output buffers are
// reset first.
func (e *testEnv) run(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	e.out.Reset()
	e.err.Reset()
	fs := flag.NewFlagSet("fincal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := subcommands.NewCommander(fs, "fincal")
	c.Output, c.Error = io.Discard, io.Discard
	Register(c)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return c.Execute(context.Background(), e.Env)
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if st := e.run(t, args...); st != subcommands.ExitSuccess {
		t.Fatalf("%v: status %d, stderr %q", args, st, e.err.String())
	}
	return e.out.String()
}

func (e *testEnv) operations(t *testing.T) []core.Operation {
	t.Helper()
	var ops []core.Operation
	if err := json.Unmarshal([]byte(e.mustRun(t, "ls", "-json")), &ops); err != nil {
		t.Fatalf("decode ls output: %v", err)
	}
	return ops
}

func TestOperationCommands(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "add", "-c", "Food", "-a", "12,50", "-m", "lunch", "-d", "5.3.25")
	if !strings.Contains(out, "| 05.03.25 | Expense | Food | 12,50 ₽ | lunch |") {
		t.Fatalf("add output:\n%s", out)
	}
	env.mustRun(t, "add", "-t", "income", "-c", "Salary", "-a", "1000")

	ops := env.operations(t)
	if len(ops) != 2 {
		t.Fatalf("got %d operations", len(ops))
	}
	if ops[1].Date != "20.03.25" || ops[1].Type != core.Income {
		t.Fatalf("defaults not applied: %+v", ops[1])
	}

	out = env.mustRun(t, "day", "20.03.25")
	if !strings.Contains(out, "Salary") || strings.Contains(out, "lunch") {
		t.Fatalf("day output:\n%s", out)
	}

	env.mustRun(t, "edit", "-a", "15", "-m", "", ops[0].ID)
	got := env.operations(t)[0]
	if got.Amount != 15 || got.Description != "" || got.Category != "Food" {
		t.Fatalf("edit result: %+v", got)
	}

	out = env.mustRun(t, "ls", "-t", "expense", "-sort", "amount")
	if !strings.Contains(out, "Food") || strings.Contains(out, "Salary") {
		t.Fatalf("filtered ls:\n%s", out)
	}

	env.mustRun(t, "rm", ops[0].ID)
	if n := len(env.operations(t)); n != 1 {
		t.Fatalf("after rm: %d operations", n)
	}
}

func TestCommandErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		args    []string
		status  subcommands.ExitStatus
		wantErr string
	}{
		{[]string{"add", "-c", "Food", "-a", "-5"}, subcommands.ExitFailure, "error: amount must be a positive number"},
		{[]string{"add", "-c", "Food", "-a", "5", "-d", "2025-03-01"}, subcommands.ExitFailure, "error:"},
		{[]string{"rm", "missing"}, subcommands.ExitFailure, "info: operation not found"},
		{[]string{"edit", "x"}, subcommands.ExitUsageError, "nothing to change"},
		{[]string{"category", "add", "Food"}, subcommands.ExitFailure, "warning: category already exists"},
		{[]string{"category", "fly"}, subcommands.ExitUsageError, "unknown action"},
		{[]string{"report", "weekly"}, subcommands.ExitFailure, "unknown report"},
		{[]string{"month", "-month", "13"}, subcommands.ExitUsageError, "between 1 and 12"},
		{[]string{"export", "-format", "xml"}, subcommands.ExitUsageError, "json or csv"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if st := env.run(t, tt.args...); st != tt.status {
				t.Fatalf("status = %d, want %d (stderr %q)", st, tt.status, env.err.String())
			}
			if !strings.Contains(env.err.String(), tt.wantErr) {
				t.Fatalf("stderr = %q, want %q", env.err.String(), tt.wantErr)
			}
		})
	}
}

func TestCategoryAndSettingsCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "-c", "Food", "-a", "10")

	env.mustRun(t, "category", "add", "Pets")
	out := env.mustRun(t, "category", "rename", "Food", "Groceries")
	if !strings.Contains(out, "in 1 operation(s)") {
		t.Fatalf("rename output: %q", out)
	}
	out = env.mustRun(t, "category", "merge", "Groceries", "Pets")
	if !strings.Contains(out, "1 operation(s) moved") {
		t.Fatalf("merge output: %q", out)
	}
	if op := env.operations(t)[0]; op.Category != "Pets" {
		t.Fatalf("operation category = %q", op.Category)
	}

	out = env.mustRun(t, "category", "-t", "income")
	if !strings.Contains(out, "## Income") || !strings.Contains(out, "- Pets") {
		t.Fatalf("category list:\n%s", out)
	}

	out = env.mustRun(t, "settings", "-currency", "$", "-toggle-dark")
	if !strings.Contains(out, "| Currency | $ |") || !strings.Contains(out, "| Dark mode | true |") {
		t.Fatalf("settings output:\n%s", out)
	}
	if st := env.run(t, "settings", "-currency", " "); st != subcommands.ExitFailure {
		t.Fatalf("blank currency accepted, status %d", st)
	}
}

func TestReportCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "-t", "income", "-c", "Salary", "-a", "1000", "-d", "1.3.25")
	env.mustRun(t, "add", "-c", "Food", "-a", "300", "-d", "15.3.25")

	out := env.mustRun(t, "month")
	if !strings.Contains(out, "# March 2025") || !strings.Contains(out, "| Balance | 700,00 ₽ |") {
		t.Fatalf("month output:\n%s", out)
	}
	if out := env.mustRun(t, "year", "-year", "2025"); !strings.Contains(out, "# Year 2025") {
		t.Fatalf("year output:\n%s", out)
	}

	out = env.mustRun(t, "report", "-format", "json", "savings")
	var savings struct {
		Savings float64 `json:"savings"`
	}
	if err := json.Unmarshal([]byte(out), &savings); err != nil || savings.Savings != 700 {
		t.Fatalf("savings json %q: %v", out, err)
	}

	page := filepath.Join(t.TempDir(), "march.html")
	env.mustRun(t, "report", "-format", "html", "-o", page, "-month", "3", "monthly")
	raw, err := os.ReadFile(page)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "<!DOCTYPE html>") {
		t.Fatalf("html report starts with %q", string(raw[:min(len(raw), 40)]))
	}
}

func TestExchangeCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add", "-c", "Food", "-a", "10", "-d", "1.3.25", "-m", `say "hi"`)

	out := env.mustRun(t, "export", "-format", "csv")
	want := "Date,Type,Category,Amount,Description\n\"01.03.25\",\"Expense\",\"Food\",\"10\",\"say \"\"hi\"\"\""
	if out != want {
		t.Fatalf("csv export = %q, want %q", out, want)
	}

	dir := t.TempDir()
	env.mustRun(t, "export", "-o", dir)
	exported := filepath.Join(dir, "financial-calendar-20-03-25.json")
	if _, err := os.Stat(exported); err != nil {
		t.Fatalf("export file: %v", err)
	}

	other := newTestEnv(t)
	other.mustRun(t, "add", "-c", "Transport", "-a", "5")
	out = other.mustRun(t, "import", "-mode", "merge", exported)
	if !strings.Contains(out, "merge: 1 operation(s) imported, 1 added, 0 skipped") {
		t.Fatalf("import output: %q", out)
	}
	if n := len(other.operations(t)); n != 2 {
		t.Fatalf("after merge: %d operations", n)
	}

	out = env.mustRun(t, "backup")
	path := strings.TrimSpace(strings.TrimPrefix(out, "backup written to "))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("backup file %q: %v", path, err)
	}
	if out := env.mustRun(t, "backup", "-info"); strings.Contains(out, "last backup: never") {
		t.Fatalf("backup time not recorded:\n%s", out)
	}

	env.mustRun(t, "rm", env.operations(t)[0].ID)
	out = env.mustRun(t, "restore", path)
	if !strings.Contains(out, "replace: 1 operation(s) imported") {
		t.Fatalf("restore output: %q", out)
	}
	if ops := env.operations(t); len(ops) != 1 || ops[0].Description != `say "hi"` {
		t.Fatalf("restored operations: %+v", ops)
	}
}

func TestRestoreWrappedBackup(t *testing.T) {
	env := newTestEnv(t)
	doc := core.NewExport(core.Document{
		Settings: core.DefaultSettings(),
		Operations: []core.Operation{
			{ID: "a", Date: "01.03.25", Type: core.Expense, Category: "Food", Amount: 3, Description: "x"},
		},
	}, fixedNow)
	raw, err := json.Marshal(map[string]any{"data": doc, "timestamp": fixedNow, "size": 1})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	env.mustRun(t, "restore", path)
	if ops := env.operations(t); len(ops) != 1 || ops[0].ID != "a" {
		t.Fatalf("restored operations: %+v", ops)
	}
}

func TestCompletion(t *testing.T) {
	env := newTestEnv(t)
	tree := Completion(context.Background(), env.Env)

	for _, name := range []string{"add", "edit", "rm", "ls", "day", "month", "year", "report",
		"category", "settings", "export", "import", "backup", "restore", "duplicates"} {
		if _, ok := tree.Sub[name]; !ok {
			t.Errorf("no completion for %s", name)
		}
	}
	cats := tree.Sub["add"].Flags["c"].Predict("")
	if !slices.Contains(cats, "Food") || !slices.Contains(cats, "Salary") {
		t.Fatalf("category prediction = %v", cats)
	}
	if kinds := tree.Sub["report"].Args.Predict(""); !slices.Contains(kinds, "trend") {
		t.Fatalf("report kinds = %v", kinds)
	}
}
