package core

import (
	"errors"
	"math"
	"testing"
)

func validOp() Operation {
	return Operation{ID: "a1", Date: "15.03.25", Type: Income, Category: "Salary", Amount: 1000}
}

func TestValidateOperation(t *testing.T) {
	if err := ValidateOperation(validOp()); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Operation)
		rule   error
	}{
		{"missing id", func(o *Operation) { o.ID = "" }, ErrMissingFields},
		{"missing date", func(o *Operation) { o.Date = "" }, ErrMissingFields},
		{"missing category", func(o *Operation) { o.Category = "" }, ErrMissingFields},
		{"zero amount", func(o *Operation) { o.Amount = 0 }, ErrMissingFields},
		{"bad type", func(o *Operation) { o.Type = "transfer" }, ErrInvalidType},
		{"negative amount", func(o *Operation) { o.Amount = -5 }, ErrInvalidAmount},
		{"nan amount", func(o *Operation) { o.Amount = math.NaN() }, ErrInvalidAmount},
		{"inf amount", func(o *Operation) { o.Amount = math.Inf(1) }, ErrInvalidAmount},
		{"impossible date", func(o *Operation) { o.Date = "31.02.25" }, ErrInvalidDate},
		{"long year", func(o *Operation) { o.Date = "15.03.2025" }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			op := validOp()
			tc.mutate(&op)
			err := ValidateOperation(op)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, tc.rule) {
				t.Fatalf("expected %v, got %v", tc.rule, err)
			}
			if !IsValidationError(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateCategoryName(t *testing.T) {
	got, err := ValidateCategoryName("  Pets ")
	if err != nil || got != "Pets" {
		t.Fatalf("expected trimmed name, got %q (err=%v)", got, err)
	}
	if _, err := ValidateCategoryName("   "); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestValidateDocument(t *testing.T) {
	d := DefaultDocument()
	d.Operations = []Operation{validOp(), validOp()}
	if err := ValidateDocument(d); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	d.Operations[1].ID = "a2"
	d.Operations[1].Type = "gift"
	err := ValidateDocument(d)
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if err.Error() != `operation 1: type "gift" must be income or expense` {
		t.Fatalf("unexpected reason %q", err.Error())
	}
}
