package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fincal/internal/core"
	"fincal/internal/events"
	"fincal/internal/log"
)

// ImportMode selects how ImportDocument combines documents.
type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportMerge   ImportMode = "merge"
)

// ParseImportMode accepts "replace" (the default for an empty string) and "merge".
func ParseImportMode(s string) (ImportMode, error) {
	switch m := ImportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ImportReplace, nil
	case ImportReplace, ImportMerge:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown import mode %q", core.ErrInvalidImport, s)
}

// ImportResult summarizes a successful import.
type ImportResult struct {
	Mode     ImportMode `json:"mode"`
	Imported int        `json:"imported"`
	Added    int        `json:"added"`
	Skipped  int        `json:"skipped"`
}

// ExportDocument returns the document stamped with the format version and
// the current time.
func (s *Store) ExportDocument() core.Export {
	var out core.Export
	s.read(func(d *core.Document) { out = core.NewExport(*d, s.now()) })
	return out
}

// ImportDocument validates every incoming operation before anything changes.
//
// Missing ids and descriptions are backfilled the same way Load does. In
// replace mode the incoming document becomes the ledger. In merge mode the
// category lists are unioned, non-empty incoming currency and date format
// win, and operations whose id is already present are skipped.
func (s *Store) ImportDocument(ctx context.Context, in core.Document, mode ImportMode) (ImportResult, error) {
	if mode == "" {
		mode = ImportReplace
	}
	if mode != ImportReplace && mode != ImportMerge {
		return ImportResult{}, fmt.Errorf("%w: unknown import mode %q", core.ErrInvalidImport, mode)
	}

	incoming, _ := backfill(toStored(in), s.newID)
	if mode == ImportMerge {
		// merge keeps the current dark mode flag
		incoming.Settings.Currency = in.Settings.Currency
		incoming.Settings.DateFormat = in.Settings.DateFormat
		incoming.Settings.Categories = trimmedSet(in.Settings.Categories)
	}
	for i := range incoming.Operations {
		incoming.Operations[i].Date = canonicalDate(incoming.Operations[i].Date)
	}
	if err := core.ValidateDocument(incoming); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", core.ErrInvalidImport, err)
	}

	res := ImportResult{Mode: mode, Imported: len(incoming.Operations)}
	err := s.mutate(ctx, log.OpImport, func(d *core.Document) ([]events.Event, error) {
		switch mode {
		case ImportReplace:
			*d = incoming
			res.Added = len(incoming.Operations)
		case ImportMerge:
			mergeInto(d, incoming, &res)
		}
		return []events.Event{{
			Name:    events.DataImported,
			Payload: events.ImportSummary{Mode: string(mode), Operations: res.Imported, Added: res.Added},
		}}, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.InfoContext(ctx, "document imported",
		log.FieldOperation, log.OpImport, "mode", string(mode),
		log.FieldCount, res.Added, "skipped", res.Skipped)
	return res, nil
}

func mergeInto(d *core.Document, in core.Document, res *ImportResult) {
	if in.Settings.Currency != "" {
		d.Settings.Currency = in.Settings.Currency
	}
	if in.Settings.DateFormat != "" {
		d.Settings.DateFormat = in.Settings.DateFormat
	}
	d.Settings.Categories = d.Settings.Categories.Union(in.Settings.Categories)

	seen := make(map[string]struct{}, len(d.Operations))
	for _, op := range d.Operations {
		seen[op.ID] = struct{}{}
	}
	for _, op := range in.Operations {
		if _, ok := seen[op.ID]; ok {
			res.Skipped++
			continue
		}
		seen[op.ID] = struct{}{}
		d.Operations = append(d.Operations, op)
		res.Added++
	}
}

// toStored turns a typed document back into the loose stored shape so that
// import and load share one backfill.
func toStored(d core.Document) storedDocument {
	sd := storedDocument{
		Settings: &storedSettings{
			Currency:   d.Settings.Currency,
			DateFormat: d.Settings.DateFormat,
			DarkMode:   d.Settings.DarkMode,
		},
		Operations: make([]storedOperation, 0, len(d.Operations)),
	}
	if c := d.Settings.Categories; c.Income != nil || c.Expense != nil {
		sd.Settings.Categories = &storedCategories{Income: c.Income, Expense: c.Expense}
	}
	for _, op := range d.Operations {
		desc := op.Description
		sd.Operations = append(sd.Operations, storedOperation{
			ID:          op.ID,
			Date:        op.Date,
			Type:        op.Type,
			Category:    op.Category,
			Amount:      op.Amount,
			Description: &desc,
		})
	}
	return sd
}

// lastBackupKey records when the last backup was taken.
const lastBackupKey = "last_backup"

// Backup is a restorable snapshot of the ledger.
type Backup struct {
	Data      core.Export `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Size      int         `json:"size"`
}

// CreateBackup snapshots the document and records the backup time.
func (s *Store) CreateBackup(ctx context.Context) (Backup, error) {
	exp := s.ExportDocument()
	raw, err := json.Marshal(exp)
	if err != nil {
		return Backup{}, fmt.Errorf("encode backup: %w", err)
	}
	b := Backup{Data: exp, Timestamp: exp.ExportDate, Size: len(raw)}
	if err := s.backend.Set(ctx, lastBackupKey, b.Timestamp.Format(time.RFC3339Nano)); err != nil {
		return Backup{}, fmt.Errorf("%w: record backup time: %w", core.ErrPersist, err)
	}
	s.logger.InfoContext(ctx, "backup created", log.FieldOperation, log.OpBackup, log.FieldBytes, b.Size)
	return b, nil
}

// RestoreBackup replaces the ledger with the backup contents.
func (s *Store) RestoreBackup(ctx context.Context, b Backup) (ImportResult, error) {
	return s.ImportDocument(ctx, b.Data.Document(), ImportReplace)
}

// BackupInfo describes the current data for backup screens.
type BackupInfo struct {
	LastBackup      *time.Time     `json:"lastBackup"`
	DataSize        int            `json:"dataSize"`
	OperationsCount int            `json:"operationsCount"`
	CategoriesCount map[string]int `json:"categoriesCount"`
}

// BackupInfo reports the last backup time, export size and counts.
func (s *Store) BackupInfo(ctx context.Context) (BackupInfo, error) {
	exp := s.ExportDocument()
	raw, err := json.Marshal(exp)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("encode export: %w", err)
	}
	info := BackupInfo{
		DataSize:        len(raw),
		OperationsCount: len(exp.Operations),
		CategoriesCount: map[string]int{
			core.Income.String():  len(exp.Settings.Categories.Income),
			core.Expense.String(): len(exp.Settings.Categories.Expense),
		},
	}
	v, ok, err := s.backend.Get(ctx, lastBackupKey)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("%w: read backup time: %w", core.ErrPersist, err)
	}
	if ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			info.LastBackup = &t
		}
	}
	return info, nil
}
