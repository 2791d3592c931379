// Package report renders a set of expenses into exportable documents:
// a CSV file and a self-contained printable HTML page. Both renderers
// are pure functions over the expense slice.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"centavo/internal/core"
)

// CSVHeader is the first line of every export.
const CSVHeader = "Date,Description,Category,Note,Amount"

// CSVFilename names the download after the day it was generated,
// e.g. expenses-2024-03-04.csv.
func CSVFilename(now time.Time) string {
	return fmt.Sprintf("expenses-%s.csv", now.Format("2006-01-02"))
}

// CSV renders the expenses as CSV. The description cell is always
// quoted, the note cell only when non-empty, and the category cell
// never; amounts carry exactly two decimals. Returns core.ErrNoExpenses
// when there is nothing to export.
func CSV(expenses []core.Expense) (string, error) {
	if len(expenses) == 0 {
		return "", core.ErrNoExpenses
	}

	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteByte('\n')
	for _, e := range expenses {
		b.WriteString(e.CreatedAt.Format("2006-01-02"))
		b.WriteByte(',')
		b.WriteString(quoteCSV(e.Description))
		b.WriteByte(',')
		b.WriteString(e.Category)
		b.WriteByte(',')
		if e.Note != "" {
			b.WriteString(quoteCSV(e.Note))
		}
		b.WriteByte(',')
		b.WriteString(e.Amount.Format())
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// dollars renders a money value with a currency symbol for display,
// e.g. "$850.00". CSV cells stay bare, per the export format.
func dollars(m core.Money) string {
	return "$" + m.Format()
}

// printData is the model handed to the printable template.
type printData struct {
	GeneratedAt string
	Period      string
	UserName    string
	Total       string
	Count       int
	Average     string
	Categories  []printCategory
	Expenses    []printExpense
}

type printCategory struct {
	Name    string
	Amount  string
	Percent string
}

type printExpense struct {
	Date        string
	Description string
	Category    string
	Note        string
	Amount      string
}

// PeriodLabel describes the date range a report covers.
func PeriodLabel(from, to *time.Time) string {
	switch {
	case from == nil && to == nil:
		return "All time"
	case from != nil && to != nil:
		return from.Format("Jan 2, 2006") + " – " + to.Format("Jan 2, 2006")
	case from != nil:
		return "From " + from.Format("Jan 2, 2006")
	default:
		return "Through " + to.Format("Jan 2, 2006")
	}
}

// PrintableHTML renders a standalone print-friendly report: summary
// figures, category percentage breakdown and the itemized list.
// Returns core.ErrNoExpenses when there is nothing to report.
func PrintableHTML(expenses []core.Expense, userName, period string, now time.Time) (string, error) {
	if len(expenses) == 0 {
		return "", core.ErrNoExpenses
	}

	summary := core.Summarize(expenses)
	data := printData{
		GeneratedAt: now.Format("January 2, 2006"),
		Period:      period,
		UserName:    userName,
		Total:       dollars(summary.Total),
		Count:       summary.Count,
		Average:     dollars(summary.Average),
	}
	for _, c := range summary.ByCategory {
		data.Categories = append(data.Categories, printCategory{
			Name:    c.Name,
			Amount:  dollars(c.Amount),
			Percent: fmt.Sprintf("%.1f", c.Percent),
		})
	}
	for _, e := range expenses {
		category := e.Category
		if category == "" {
			category = core.UncategorizedLabel
		}
		data.Expenses = append(data.Expenses, printExpense{
			Date:        e.CreatedAt.Format("2006-01-02"),
			Description: e.Description,
			Category:    category,
			Note:        e.Note,
			Amount:      dollars(e.Amount),
		})
	}

	var buf bytes.Buffer
	if err := printTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render printable report: %w", err)
	}
	return buf.String(), nil
}

var printTmpl = template.Must(template.New("printable").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Expense Report</title>
<style>
  body { font-family: Georgia, serif; max-width: 48rem; margin: 2rem auto; color: #222; }
  h1 { border-bottom: 2px solid #222; padding-bottom: .5rem; }
  .meta { color: #666; margin-bottom: 2rem; }
  table { width: 100%; border-collapse: collapse; margin: 1rem 0 2rem; }
  th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #ddd; }
  td.amount, th.amount { text-align: right; }
  tr.total td { border-top: 2px solid #222; font-weight: bold; }
  .summary { display: flex; gap: 3rem; margin-bottom: 2rem; }
  .summary div span { display: block; color: #666; font-size: .85rem; }
  @media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>Expense Report</h1>
<p class="meta">{{.UserName}} &middot; {{.Period}} &middot; Generated {{.GeneratedAt}}</p>

<div class="summary">
  <div><span>Total</span><strong>{{.Total}}</strong></div>
  <div><span>Expenses</span><strong>{{.Count}}</strong></div>
  <div><span>Average</span><strong>{{.Average}}</strong></div>
</div>

<h2>By Category</h2>
<table>
  <thead><tr><th>Category</th><th class="amount">Amount</th><th class="amount">Share</th></tr></thead>
  <tbody>
  {{- range .Categories}}
    <tr><td>{{.Name}}</td><td class="amount">{{.Amount}}</td><td class="amount">{{.Percent}}%</td></tr>
  {{- end}}
  </tbody>
</table>

<h2>Expenses</h2>
<table>
  <thead><tr><th>Date</th><th>Description</th><th>Category</th><th>Note</th><th class="amount">Amount</th></tr></thead>
  <tbody>
  {{- range .Expenses}}
    <tr><td>{{.Date}}</td><td>{{.Description}}</td><td>{{.Category}}</td><td>{{.Note}}</td><td class="amount">{{.Amount}}</td></tr>
  {{- end}}
    <tr class="total"><td colspan="4">Total</td><td class="amount">{{.Total}}</td></tr>
  </tbody>
</table>
</body>
</html>
`))
