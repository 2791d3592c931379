package core

import (
	"strings"
	"testing"
)

func TestExpenseInputValidate(t *testing.T) {
	good := ExpenseInput{
		Description: "Coffee",
		Amount:      Money{Cents: 350},
		Category:    "Food",
		Note:        "morning run",
	}
	if problems := good.Validate(); problems != nil {
		t.Fatalf("expected ok, got %v", problems)
	}

	// optional fields may be empty
	minimal := ExpenseInput{Description: "Coffee", Amount: Money{Cents: 1}}
	if problems := minimal.Validate(); problems != nil {
		t.Fatalf("expected ok for minimal input, got %v", problems)
	}

	cases := []struct {
		name  string
		in    ExpenseInput
		field string
	}{
		{"empty description", ExpenseInput{Amount: Money{Cents: 100}}, "description"},
		{"blank description", ExpenseInput{Description: "   ", Amount: Money{Cents: 100}}, "description"},
		{"long description", ExpenseInput{Description: strings.Repeat("x", 256), Amount: Money{Cents: 100}}, "description"},
		{"zero amount", ExpenseInput{Description: "a"}, "amount"},
		{"negative amount", ExpenseInput{Description: "a", Amount: Money{Cents: -5}}, "amount"},
		{"long category", ExpenseInput{Description: "a", Amount: Money{Cents: 1}, Category: strings.Repeat("c", 51)}, "category"},
		{"long note", ExpenseInput{Description: "a", Amount: Money{Cents: 1}, Note: strings.Repeat("n", 501)}, "note"},
	}
	for _, tc := range cases {
		problems := tc.in.Validate()
		if problems == nil {
			t.Fatalf("%s: expected a problem on %q", tc.name, tc.field)
		}
		if _, ok := problems[tc.field]; !ok {
			t.Fatalf("%s: expected problem on %q, got %v", tc.name, tc.field, problems)
		}
	}

	// boundary: exactly 255 runes is still valid
	edge := ExpenseInput{Description: strings.Repeat("x", 255), Amount: Money{Cents: 1}}
	if problems := edge.Validate(); problems != nil {
		t.Fatalf("255-char description should pass, got %v", problems)
	}
}

func TestExpenseInputNormalize(t *testing.T) {
	in := ExpenseInput{Description: "  Coffee ", Category: " Food ", Note: " n "}
	out := in.Normalize()
	if out.Description != "Coffee" || out.Category != "Food" || out.Note != "n" {
		t.Fatalf("unexpected normalization: %+v", out)
	}
}
