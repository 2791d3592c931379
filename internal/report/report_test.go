package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"centavo/internal/core"
)

func mar(day int) time.Time {
	return time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC)
}

func TestCSV(t *testing.T) {
	expenses := []core.Expense{
		{CreatedAt: mar(4), Description: "Coffee", Category: "Food", Note: "", Amount: core.Money{Cents: 350}},
		{CreatedAt: mar(3), Description: `Book "Go"`, Category: "", Note: "gift, maybe", Amount: core.Money{Cents: 2499}},
	}

	got, err := CSV(expenses)
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}

	want := "Date,Description,Category,Note,Amount\n" +
		"2024-03-04,\"Coffee\",Food,,3.50\n" +
		"2024-03-03,\"Book \"\"Go\"\"\",,\"gift, maybe\",24.99\n"
	if got != want {
		t.Errorf("CSV mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestCSVEmpty(t *testing.T) {
	if _, err := CSV(nil); !errors.Is(err, core.ErrNoExpenses) {
		t.Errorf("got %v, want ErrNoExpenses", err)
	}
}

func TestCSVFilename(t *testing.T) {
	now := time.Date(2024, time.March, 4, 15, 30, 0, 0, time.UTC)
	if got := CSVFilename(now); got != "expenses-2024-03-04.csv" {
		t.Errorf("got %q", got)
	}
}

func TestPeriodLabel(t *testing.T) {
	from := mar(1)
	to := mar(31)
	tests := []struct {
		name string
		from *time.Time
		to   *time.Time
		want string
	}{
		{"all time", nil, nil, "All time"},
		{"bounded", &from, &to, "Mar 1, 2024 – Mar 31, 2024"},
		{"open end", &from, nil, "From Mar 1, 2024"},
		{"open start", nil, &to, "Through Mar 31, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodLabel(tt.from, tt.to); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintableHTML(t *testing.T) {
	expenses := []core.Expense{
		{CreatedAt: mar(4), Description: "Rent", Category: "Housing", Amount: core.Money{Cents: 90000}},
		{CreatedAt: mar(3), Description: "Coffee", Category: "Food", Amount: core.Money{Cents: 350}},
		{CreatedAt: mar(2), Description: "Mystery", Category: "", Amount: core.Money{Cents: 1000}},
	}

	html, err := PrintableHTML(expenses, "Ada Lovelace", "All time", mar(5))
	if err != nil {
		t.Fatalf("PrintableHTML: %v", err)
	}

	for _, want := range []string{
		"Ada Lovelace",
		"All time",
		"Generated March 5, 2024",
		"$913.50", // total
		"$304.50", // average
		"$900.00", // itemized row amount
		"Housing", // top category first
		"Uncategorized",
		"98.5%", // housing share of 913.50
		"Mystery",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Category table is ordered by subtotal descending.
	if strings.Index(html, "Housing") > strings.Index(html, "Uncategorized") {
		t.Error("categories not ordered by amount")
	}
}

func TestPrintableHTMLEscapes(t *testing.T) {
	expenses := []core.Expense{
		{CreatedAt: mar(1), Description: "<script>alert(1)</script>", Amount: core.Money{Cents: 100}},
	}
	html, err := PrintableHTML(expenses, "User", "All time", mar(2))
	if err != nil {
		t.Fatalf("PrintableHTML: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("description not escaped")
	}
}

func TestPrintableHTMLEmpty(t *testing.T) {
	if _, err := PrintableHTML(nil, "User", "All time", mar(1)); !errors.Is(err, core.ErrNoExpenses) {
		t.Errorf("got %v, want ErrNoExpenses", err)
	}
}
