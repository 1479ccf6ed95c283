package ledger

import (
	"encoding/json"
	"fmt"
	"slices"

	"fincal/internal/core"
)

// stored* mirror the persisted JSON with pointers where absence matters.
type storedDocument struct {
	Settings   *storedSettings   `json:"settings"`
	Operations []storedOperation `json:"operations"`
}

type storedSettings struct {
	Currency   string            `json:"currency"`
	DateFormat string            `json:"dateFormat"`
	DarkMode   bool              `json:"darkMode"`
	Categories *storedCategories `json:"categories"`
}

type storedCategories struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

type storedOperation struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Type        core.Kind `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description *string   `json:"description"`
}

// decoded is a persisted document after backfilling.
type decoded struct {
	doc core.Document
	// changed reports whether anything was filled in, repaired or dropped.
	changed bool
	// empty is set when the stored value held neither settings nor operations.
	empty bool
	// dropped describes the parts that could not be read and were left out.
	dropped []error
}

// decodeStored parses a persisted document and backfills what older
// versions left out. Only malformed JSON or a non-object value is an error.
// A field or operation of the wrong shape is dropped on its own and the rest
// of the document is kept.
func decodeStored(raw []byte, newID func() string) (decoded, error) {
	var top struct {
		Settings   json.RawMessage `json:"settings"`
		Operations json.RawMessage `json:"operations"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return decoded{}, fmt.Errorf("decode document: %w", err)
	}

	var (
		sd      storedDocument
		dropped []error
	)
	if !isNull(top.Settings) {
		settings, errs := decodeSettings(top.Settings)
		sd.Settings = settings
		dropped = append(dropped, errs...)
	}
	if !isNull(top.Operations) {
		var items []json.RawMessage
		if err := json.Unmarshal(top.Operations, &items); err != nil {
			dropped = append(dropped, fmt.Errorf("operations: %w", err))
		} else {
			sd.Operations = make([]storedOperation, 0, len(items))
			for i, item := range items {
				var so storedOperation
				if err := json.Unmarshal(item, &so); err != nil {
					dropped = append(dropped, fmt.Errorf("operation %d: %w", i, err))
					continue
				}
				sd.Operations = append(sd.Operations, so)
			}
		}
	}

	doc, changed := backfill(sd, newID)
	return decoded{
		doc:     doc,
		changed: changed || len(dropped) > 0,
		empty:   sd.Settings == nil && sd.Operations == nil,
		dropped: dropped,
	}, nil
}

// decodeSettings reads each settings field on its own. It returns nil when
// the value is not an object.
func decodeSettings(raw json.RawMessage) (*storedSettings, []error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, []error{fmt.Errorf("settings: %w", err)}
	}
	var (
		ss   storedSettings
		errs []error
	)
	field := func(name string, dst any) {
		v, ok := fields[name]
		if !ok || isNull(v) {
			return
		}
		if err := json.Unmarshal(v, dst); err != nil {
			errs = append(errs, fmt.Errorf("settings.%s: %w", name, err))
		}
	}
	field("currency", &ss.Currency)
	field("dateFormat", &ss.DateFormat)
	field("darkMode", &ss.DarkMode)

	if v, ok := fields["categories"]; ok && !isNull(v) {
		var lists map[string]json.RawMessage
		if err := json.Unmarshal(v, &lists); err != nil {
			errs = append(errs, fmt.Errorf("settings.categories: %w", err))
		} else {
			var c storedCategories
			for name, dst := range map[string]*[]string{"income": &c.Income, "expense": &c.Expense} {
				l, ok := lists[name]
				if !ok || isNull(l) {
					continue
				}
				var names []string
				if err := json.Unmarshal(l, &names); err != nil {
					errs = append(errs, fmt.Errorf("settings.categories.%s: %w", name, err))
					continue
				}
				if names == nil {
					names = []string{}
				}
				*dst = names
			}
			ss.Categories = &c
		}
	}
	return &ss, errs
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func backfill(sd storedDocument, newID func() string) (core.Document, bool) {
	changed := false
	settings := core.DefaultSettings()

	if sd.Settings == nil {
		changed = true
	} else {
		settings.DarkMode = sd.Settings.DarkMode
		if sd.Settings.Currency != "" {
			settings.Currency = sd.Settings.Currency
		} else {
			changed = true
		}
		if sd.Settings.DateFormat != "" {
			settings.DateFormat = sd.Settings.DateFormat
		} else {
			changed = true
		}
		if c := sd.Settings.Categories; c != nil {
			if c.Income != nil {
				settings.Categories.Income = append([]string(nil), c.Income...)
			} else {
				changed = true
			}
			if c.Expense != nil {
				settings.Categories.Expense = append([]string(nil), c.Expense...)
			} else {
				changed = true
			}
		} else {
			changed = true
		}
		clean := trimmedSet(settings.Categories)
		if !slices.Equal(clean.Income, settings.Categories.Income) || !slices.Equal(clean.Expense, settings.Categories.Expense) {
			settings.Categories = clean
			changed = true
		}
	}

	if sd.Operations == nil {
		changed = true
	}
	ops := make([]core.Operation, 0, len(sd.Operations))
	seen := make(map[string]struct{}, len(sd.Operations))
	for _, so := range sd.Operations {
		op := core.Operation{
			ID:       so.ID,
			Date:     so.Date,
			Type:     so.Type,
			Category: so.Category,
			Amount:   so.Amount,
		}
		if so.Description != nil {
			op.Description = *so.Description
		} else {
			changed = true
		}
		if _, dup := seen[op.ID]; op.ID == "" || dup {
			op.ID = newID()
			changed = true
		}
		seen[op.ID] = struct{}{}
		ops = append(ops, op)
	}

	return core.Document{Settings: settings, Operations: ops}, changed
}
