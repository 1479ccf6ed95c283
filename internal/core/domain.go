package core

import (
	"slices"
	"strings"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// Defaults applied to fresh and migrated documents.
const (
	DefaultCurrency   = "₽"
	DefaultDateFormat = "dd.mm.yy"

	// FormatVersion is stamped on every export.
	FormatVersion = "1.0.0"
)

type (
	// Kind discriminates income from expense for operations and categories.
	Kind string

	Operation struct {
		ID          string  `json:"id"`
		Date        string  `json:"date"` // dd.mm.yy
		Type        Kind    `json:"type"`
		Category    string  `json:"category"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
	}

	// OperationPatch lists the fields overwritten by an update. Nil fields are kept.
	OperationPatch struct {
		Date        *string  `json:"date,omitempty"`
		Type        *Kind    `json:"type,omitempty"`
		Category    *string  `json:"category,omitempty"`
		Amount      *float64 `json:"amount,omitempty"`
		Description *string  `json:"description,omitempty"`
	}

	CategorySet struct {
		Income  []string `json:"income"`
		Expense []string `json:"expense"`
	}

	Settings struct {
		Currency   string      `json:"currency"`
		DateFormat string      `json:"dateFormat"`
		DarkMode   bool        `json:"darkMode"`
		Categories CategorySet `json:"categories"`
	}

	// SettingsPatch is shallow-merged into Settings. Nil fields are kept.
	SettingsPatch struct {
		Currency   *string      `json:"currency,omitempty"`
		DateFormat *string      `json:"dateFormat,omitempty"`
		DarkMode   *bool        `json:"darkMode,omitempty"`
		Categories *CategorySet `json:"categories,omitempty"`
	}

	// Document is the whole persisted state.
	Document struct {
		Settings   Settings    `json:"settings"`
		Operations []Operation `json:"operations"`
	}
)

// Kinds returns both kinds in display order.
func Kinds() []Kind { return []Kind{Income, Expense} }

// Valid reports whether k is income or expense.
func (k Kind) Valid() bool { return k == Income || k == Expense }

func (k Kind) String() string { return string(k) }

// ParseKind accepts the canonical lower-case names.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &ValidationError{Rule: ErrInvalidType, Reason: "type must be income or expense"}
	}
	return k, nil
}

// DefaultCategories returns a fresh copy of the built-in category lists.
func DefaultCategories() CategorySet {
	return CategorySet{
		Income:  []string{"Salary", "Freelance", "Investments", "Gift", "Debt repayment"},
		Expense: []string{"Food", "Transport", "Housing", "Entertainment", "Health", "Clothing", "Education"},
	}
}

// DefaultSettings returns the settings of a fresh document.
func DefaultSettings() Settings {
	return Settings{
		Currency:   DefaultCurrency,
		DateFormat: DefaultDateFormat,
		DarkMode:   false,
		Categories: DefaultCategories(),
	}
}

// DefaultDocument returns an empty document with default settings.
func DefaultDocument() Document {
	return Document{Settings: DefaultSettings(), Operations: []Operation{}}
}

// Of returns the names registered for k. The slice is shared.
func (c CategorySet) Of(k Kind) []string {
	switch k {
	case Income:
		return c.Income
	case Expense:
		return c.Expense
	}
	return nil
}

// With returns a copy of c where the list for k is replaced by names.
func (c CategorySet) With(k Kind, names []string) CategorySet {
	out := c.Clone()
	switch k {
	case Income:
		out.Income = names
	case Expense:
		out.Expense = names
	}
	return out
}

// Has reports whether name is registered for k.
func (c CategorySet) Has(k Kind, name string) bool {
	return slices.Contains(c.Of(k), name)
}

// Union appends every name of other missing from c, keeping c's order first.
func (c CategorySet) Union(other CategorySet) CategorySet {
	out := c.Clone()
	for _, k := range Kinds() {
		names := out.Of(k)
		for _, n := range other.Of(k) {
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
		out = out.With(k, names)
	}
	return out
}

func (c CategorySet) Clone() CategorySet {
	return CategorySet{
		Income:  cloneNames(c.Income),
		Expense: cloneNames(c.Expense),
	}
}

func cloneNames(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

func (s Settings) Clone() Settings {
	s.Categories = s.Categories.Clone()
	return s
}

// Apply shallow-merges p into s and returns the result.
func (s Settings) Apply(p SettingsPatch) Settings {
	out := s.Clone()
	if p.Currency != nil {
		out.Currency = *p.Currency
	}
	if p.DateFormat != nil {
		out.DateFormat = *p.DateFormat
	}
	if p.DarkMode != nil {
		out.DarkMode = *p.DarkMode
	}
	if p.Categories != nil {
		out.Categories = p.Categories.Clone()
	}
	return out
}

// Apply overwrites the fields set in p. The id never changes.
func (o Operation) Apply(p OperationPatch) Operation {
	if p.Date != nil {
		o.Date = *p.Date
	}
	if p.Type != nil {
		o.Type = *p.Type
	}
	if p.Category != nil {
		o.Category = *p.Category
	}
	if p.Amount != nil {
		o.Amount = *p.Amount
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	return o
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	ops := make([]Operation, len(d.Operations))
	copy(ops, d.Operations)
	return Document{Settings: d.Settings.Clone(), Operations: ops}
}

// Index returns the position of the operation with the given id, or -1.
func (d Document) Index(id string) int {
	return slices.IndexFunc(d.Operations, func(op Operation) bool { return op.ID == id })
}
