package ledger

import (
	"context"
	"errors"
	"testing"

	"fincal/internal/core"
	"fincal/internal/events"
	"fincal/internal/storage"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestStore(t, storage.NewMemoryBackend())
	src.AddOperation(ctx, op("a", "01.03.25", core.Income, "Salary", 1000))
	src.AddOperation(ctx, core.Operation{ID: "b", Date: "02.03.25", Type: core.Expense, Category: "Food", Amount: 12.5, Description: "market"})
	cur := "$"
	src.UpdateSettings(ctx, core.SettingsPatch{Currency: &cur})

	exp := src.ExportDocument()
	if exp.Version != core.FormatVersion || !exp.ExportDate.Equal(fixedNow) {
		t.Fatalf("unexpected export metadata %s %s", exp.Version, exp.ExportDate)
	}

	dst, rec := newTestStore(t, storage.NewMemoryBackend())
	dst.AddOperation(ctx, op("old", "01.01.25", core.Expense, "Food", 1))
	res, err := dst.ImportDocument(ctx, exp.Document(), ImportReplace)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Added != 2 || res.Mode != ImportReplace {
		t.Fatalf("unexpected result %+v", res)
	}

	got, want := dst.Document(), src.Document()
	if len(got.Operations) != len(want.Operations) {
		t.Fatalf("expected %d operations, got %d", len(want.Operations), len(got.Operations))
	}
	for i := range want.Operations {
		if got.Operations[i] != want.Operations[i] {
			t.Fatalf("operation %d differs: %+v vs %+v", i, got.Operations[i], want.Operations[i])
		}
	}
	if got.Settings.Currency != "$" {
		t.Fatalf("settings not replaced: %+v", got.Settings)
	}
	if rec.events[len(rec.events)-1].Name != events.DataImported {
		t.Fatalf("expected data-imported, got %v", rec.names())
	}
}

func TestImportMergeDeduplicates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemoryBackend())
	s.AddOperation(ctx, op("a", "01.03.25", core.Income, "Salary", 1000))
	s.AddOperation(ctx, op("b", "02.03.25", core.Expense, "Food", 10))

	in := core.Document{
		Settings: core.Settings{
			Currency:   "€",
			Categories: core.CategorySet{Income: []string{"Bonus"}, Expense: []string{"Food", "Pets"}},
		},
		Operations: []core.Operation{
			op("b", "05.03.25", core.Expense, "Food", 999),
			op("c", "03.03.25", core.Expense, "Pets", 30),
		},
	}
	res, err := s.ImportDocument(ctx, in, ImportMerge)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Added != 1 || res.Skipped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	ops := s.Operations(Filter{})
	if len(ops) != 3 || ops[2].ID != "c" {
		t.Fatalf("unexpected operations %+v", ops)
	}
	if b, _ := s.Operation("b"); b.Amount != 10 {
		t.Fatalf("existing operation must win on id clash, got %+v", b)
	}
	set := s.Settings()
	if set.Currency != "€" || set.DateFormat != "dd.mm.yy" {
		t.Fatalf("unexpected merged scalars %+v", set)
	}
	if !set.Categories.Has(core.Income, "Bonus") || !set.Categories.Has(core.Expense, "Pets") {
		t.Fatalf("categories not unioned: %+v", set.Categories)
	}
	if set.Categories.Income[0] != "Salary" || len(set.Categories.Expense) != 8 {
		t.Fatalf("existing order must come first: %+v", set.Categories)
	}
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		ops  []core.Operation
		rule error
	}{
		{"bad amount", []core.Operation{op("a", "01.03.25", core.Income, "Salary", -1)}, core.ErrInvalidAmount},
		{"bad date past the fifth entry", []core.Operation{
			op("a", "01.03.25", core.Income, "Salary", 1),
			op("b", "01.03.25", core.Income, "Salary", 1),
			op("c", "01.03.25", core.Income, "Salary", 1),
			op("d", "01.03.25", core.Income, "Salary", 1),
			op("e", "01.03.25", core.Income, "Salary", 1),
			op("f", "32.03.25", core.Income, "Salary", 1),
		}, core.ErrInvalidDate},
		{"duplicate ids", []core.Operation{
			op("a", "01.03.25", core.Income, "Salary", 1),
			op("a", "02.03.25", core.Income, "Salary", 1),
		}, core.ErrDuplicateID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, rec := newTestStore(t, storage.NewMemoryBackend())
			s.AddOperation(ctx, op("keep", "01.01.25", core.Expense, "Food", 5))
			rec.events = nil

			_, err := s.ImportDocument(ctx, core.Document{Settings: core.DefaultSettings(), Operations: tc.ops}, ImportReplace)
			if !errors.Is(err, core.ErrInvalidImport) || !errors.Is(err, tc.rule) {
				t.Fatalf("expected ErrInvalidImport and %v, got %v", tc.rule, err)
			}
			if ops := s.Operations(Filter{}); len(ops) != 1 || ops[0].ID != "keep" {
				t.Fatalf("rejected import changed the ledger: %+v", ops)
			}
			if len(rec.events) != 0 {
				t.Fatalf("expected no events, got %v", rec.names())
			}
		})
	}
}

func TestImportBackfillsIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemoryBackend())
	res, err := s.ImportDocument(ctx, core.Document{Operations: []core.Operation{
		{Date: "01.03.25", Type: core.Income, Category: "Salary", Amount: 5},
	}}, ImportReplace)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Added != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	ops := s.Operations(Filter{})
	if ops[0].ID != "gen-1" {
		t.Fatalf("expected generated id, got %q", ops[0].ID)
	}
	if s.Settings().Currency != core.DefaultCurrency || len(s.Categories().Income) != 5 {
		t.Fatalf("expected default settings for a document without them, got %+v", s.Settings())
	}
}

func TestImportCleansCategoryLists(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []ImportMode{ImportReplace, ImportMerge} {
		t.Run(string(mode), func(t *testing.T) {
			s, _ := newTestStore(t, storage.NewMemoryBackend())
			in := core.Document{
				Settings: core.Settings{
					Currency:   "$",
					DateFormat: "dd.mm.yy",
					Categories: core.CategorySet{Income: []string{" Salary "}, Expense: []string{"Food", "Food", "  ", "Pets"}},
				},
				Operations: []core.Operation{},
			}
			if _, err := s.ImportDocument(ctx, in, mode); err != nil {
				t.Fatalf("import: %v", err)
			}
			expense := s.CategoriesOf(core.Expense)
			if n := countOf(expense, "Food"); n != 1 || countOf(expense, "  ") != 0 || countOf(expense, "") != 0 {
				t.Fatalf("expense categories not cleaned: %q", expense)
			}
			if countOf(s.CategoriesOf(core.Income), "Salary") != 1 {
				t.Fatalf("income categories not trimmed: %q", s.CategoriesOf(core.Income))
			}

			if _, err := s.RemoveCategory(ctx, core.Expense, "Food"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if s.Categories().Has(core.Expense, "Food") {
				t.Fatalf("Food still listed after removal: %q", s.CategoriesOf(core.Expense))
			}
		})
	}
}

func countOf(names []string, name string) int {
	n := 0
	for _, v := range names {
		if v == name {
			n++
		}
	}
	return n
}

func TestParseImportMode(t *testing.T) {
	for in, want := range map[string]ImportMode{"": ImportReplace, "merge": ImportMerge, "REPLACE": ImportReplace} {
		got, err := ParseImportMode(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %v, got %v (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseImportMode("append"); !errors.Is(err, core.ErrInvalidImport) {
		t.Fatalf("expected ErrInvalidImport, got %v", err)
	}
}

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	s, _ := newTestStore(t, b)
	s.AddOperation(ctx, op("a", "01.03.25", core.Income, "Salary", 1000))

	info, err := s.BackupInfo(ctx)
	if err != nil {
		t.Fatalf("backup info: %v", err)
	}
	if info.LastBackup != nil || info.OperationsCount != 1 || info.CategoriesCount["expense"] != 7 {
		t.Fatalf("unexpected info before backup %+v", info)
	}

	bk, err := s.CreateBackup(ctx)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if bk.Size == 0 || len(bk.Data.Operations) != 1 {
		t.Fatalf("unexpected backup %+v", bk)
	}

	info, _ = s.BackupInfo(ctx)
	if info.LastBackup == nil || !info.LastBackup.Equal(fixedNow) {
		t.Fatalf("expected last backup at %s, got %v", fixedNow, info.LastBackup)
	}
	if info.DataSize != bk.Size {
		t.Fatalf("expected data size %d, got %d", bk.Size, info.DataSize)
	}

	s.ClearOperations(ctx)
	if _, err := s.RestoreBackup(ctx, bk); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := s.Operation("a"); err != nil {
		t.Fatalf("expected restored operation: %v", err)
	}
}
