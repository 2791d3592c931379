package core

import "sort"

// UncategorizedLabel is the bucket for expenses without a category.
const UncategorizedLabel = "Uncategorized"

// CategoryTotal is a per-category subtotal with its share of the total.
type CategoryTotal struct {
	Name    string
	Amount  Money
	Percent float64 // subtotal/total*100
}

// Summary aggregates a set of expenses for the dashboard and reports.
type Summary struct {
	Total      Money
	Count      int
	Average    Money // Total/Count, zero when Count == 0
	ByCategory []CategoryTotal
}

// Summarize computes totals, the average and the per-category breakdown
// for the given expenses. Categories are sorted by subtotal descending;
// ties keep a stable alphabetical order so output is deterministic.
func Summarize(expenses []Expense) Summary {
	var s Summary
	s.Count = len(expenses)
	if s.Count == 0 {
		return s
	}

	byName := make(map[string]int64)
	for _, e := range expenses {
		s.Total.Cents += e.Amount.Cents
		name := e.Category
		if name == "" {
			name = UncategorizedLabel
		}
		byName[name] += e.Amount.Cents
	}
	s.Average = Money{Cents: s.Total.Cents / int64(s.Count)}

	s.ByCategory = make([]CategoryTotal, 0, len(byName))
	for name, cents := range byName {
		ct := CategoryTotal{Name: name, Amount: Money{Cents: cents}}
		if s.Total.Cents > 0 {
			ct.Percent = float64(cents) / float64(s.Total.Cents) * 100
		}
		s.ByCategory = append(s.ByCategory, ct)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})

	return s
}
