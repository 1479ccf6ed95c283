package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ValidateOperation checks an operation against the document invariants.
// The returned error is a *ValidationError whose Rule is one of
// ErrMissingFields, ErrInvalidType, ErrInvalidAmount or ErrInvalidDate.
func ValidateOperation(op Operation) error {
	var missing []string
	if op.ID == "" {
		missing = append(missing, "id")
	}
	if op.Date == "" {
		missing = append(missing, "date")
	}
	if op.Type == "" {
		missing = append(missing, "type")
	}
	if op.Category == "" {
		missing = append(missing, "category")
	}
	if op.Amount == 0 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return invalid(ErrMissingFields, "missing required fields: "+strings.Join(missing, ", "))
	}

	if !op.Type.Valid() {
		return invalid(ErrInvalidType, fmt.Sprintf("type %q must be income or expense", op.Type))
	}

	if math.IsNaN(op.Amount) || math.IsInf(op.Amount, 0) || op.Amount <= 0 {
		return invalid(ErrInvalidAmount, "amount must be a positive number")
	}

	if _, err := ParseDate(op.Date); err != nil {
		return invalid(ErrInvalidDate, fmt.Sprintf("date %q must be a calendar day in dd.mm.yy format", op.Date))
	}
	return nil
}

// ValidateCategoryName trims name and rejects empty results.
func ValidateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid(ErrEmptyCategory, "category name cannot be empty")
	}
	return name, nil
}

// ValidateDocument checks every operation and the uniqueness of ids.
func ValidateDocument(d Document) error {
	seen := make(map[string]struct{}, len(d.Operations))
	for i, op := range d.Operations {
		if err := ValidateOperation(op); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return &ValidationError{Rule: ve.Rule, Reason: fmt.Sprintf("operation %d: %s", i, ve.Reason)}
			}
			return err
		}
		if _, dup := seen[op.ID]; dup {
			return invalid(ErrDuplicateID, fmt.Sprintf("operation %d: id %q is used more than once", i, op.ID))
		}
		seen[op.ID] = struct{}{}
	}
	return nil
}
