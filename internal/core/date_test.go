package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"15.03.25", NewDate(2025, 3, 15), true},
		{"1.3.25", NewDate(2025, 3, 1), true},
		{"29.02.24", NewDate(2024, 2, 29), true},
		{"31.12.99", NewDate(2099, 12, 31), true},
		{"01.01.00", NewDate(2000, 1, 1), true},
		{" 05.06.07 ", NewDate(2007, 6, 5), true},
		{"29.02.25", Date{}, false},
		{"31.04.25", Date{}, false},
		{"00.01.25", Date{}, false},
		{"10.13.25", Date{}, false},
		{"10.03.2025", Date{}, false},
		{"10-03-25", Date{}, false},
		{"a.03.25", Date{}, false},
		{"", Date{}, false},
		{"10.03", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want.Time) {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestDateStringRoundTrip(t *testing.T) {
	for _, s := range []string{"01.01.00", "15.03.25", "31.12.99", "09.09.09"} {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if d.String() != s {
			t.Fatalf("expected %q, got %q", s, d.String())
		}
	}
	if got := NewDate(2025, 3, 1).String(); got != "01.03.25" {
		t.Fatalf("expected zero padded date, got %q", got)
	}
}

func TestDateHelpers(t *testing.T) {
	if n := DaysInMonth(2024, 1); n != 29 {
		t.Fatalf("leap february: expected 29, got %d", n)
	}
	if n := DaysInMonth(2025, 11); n != 31 {
		t.Fatalf("december: expected 31, got %d", n)
	}
	if y, m := PreviousMonth(2025, 0); y != 2024 || m != 11 {
		t.Fatalf("expected 2024/11, got %d/%d", y, m)
	}
	if !NewDate(2025, 3, 10).InMonth(2025, 2) {
		t.Fatalf("expected March to be month index 2")
	}
	if got := NewDate(2025, 2, 28).AddDays(1); got.String() != "01.03.25" {
		t.Fatalf("expected 01.03.25, got %s", got)
	}
	if MonthName(2) != "March" || MonthShort(11) != "Dec" || MonthName(12) != "" {
		t.Fatalf("unexpected month names")
	}
	if NewDate(1999, 1, 1).Representable() || !NewDate(2030, 1, 1).Representable() {
		t.Fatalf("unexpected representable result")
	}
}
