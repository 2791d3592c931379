package http

import (
	"log/slog"
	"net/http"

	"centavo/internal/core"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, user core.User) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		UserName string
		Query    string
		Form     expenseForm
	}{
		UserName: user.Name,
		Query:    rangeQuery(r),
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "template execution failed", "template", "index.html", "error", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
	}
}

type overviewRow struct {
	Name    string
	Amount  string
	Percent string
	Width   int
}

// handleOverview renders the summary partial: totals plus the
// per-category breakdown with bar widths scaled to the largest bucket.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, user core.User) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	from, to := dateRange(r)

	summary, err := s.cachedOverview(r.Context(), user.ID, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "overview failed", "error", err, "user_id", user.ID)
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Failed to load overview</div></section>`))
		return
	}

	var maxCents int64
	for _, c := range summary.ByCategory {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}

	data := struct {
		Total   string
		Count   int
		Average string
		Rows    []overviewRow
	}{
		Total:   formatDollars(summary.Total.Cents),
		Count:   summary.Count,
		Average: formatDollars(summary.Average.Cents),
	}
	for _, c := range summary.ByCategory {
		width := 0
		if maxCents > 0 && c.Amount.Cents > 0 {
			width = int((c.Amount.Cents*100 + maxCents/2) / maxCents)
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Rows = append(data.Rows, overviewRow{
			Name:    c.Name,
			Amount:  formatDollars(c.Amount.Cents),
			Percent: percentLabel(c.Percent),
			Width:   width,
		})
	}

	s.render(w, r, "overview.html", data)
}

type expenseRow struct {
	ID          int64
	Date        string
	Description string
	Category    string
	Note        string
	Amount      string
}

// handleExpenseList renders the expense table partial for the active
// date range.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request, user core.User) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	from, to := dateRange(r)

	expenses, err := s.cachedList(r.Context(), user.ID, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "expense list failed", "error", err, "user_id", user.ID)
		_, _ = w.Write([]byte(`<section id="expenses" class="expenses"><div class="placeholder">Failed to load expenses</div></section>`))
		return
	}

	data := struct {
		Rows  []expenseRow
		Query string
	}{Query: rangeQuery(r)}
	for _, e := range expenses {
		category := e.Category
		if category == "" {
			category = core.UncategorizedLabel
		}
		data.Rows = append(data.Rows, expenseRow{
			ID:          e.ID,
			Date:        e.CreatedAt.Format("Jan 2, 2006"),
			Description: e.Description,
			Category:    category,
			Note:        e.Note,
			Amount:      formatDollars(e.Amount.Cents),
		})
	}

	s.render(w, r, "expense_table.html", data)
}
