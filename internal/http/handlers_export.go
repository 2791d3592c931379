package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"centavo/internal/core"
	"centavo/internal/report"
)

// handleExportCSV streams the filtered expenses as a CSV download
// named after the current day.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, user core.User) {
	from, to := dateRange(r)

	expenses, err := s.expenses.List(r.Context(), user.ID, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "csv export failed", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to export expenses", http.StatusInternalServerError)
		return
	}

	csv, err := report.CSV(expenses)
	if err != nil {
		if errors.Is(err, core.ErrNoExpenses) {
			http.Error(w, "No expenses to export", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "csv render failed", "error", err)
		http.Error(w, "Failed to export expenses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.CSVFilename(time.Now().UTC())+`"`)
	_, _ = w.Write([]byte(csv))
}

// handleExportPrint renders the standalone printable report for the
// filtered expenses.
func (s *Server) handleExportPrint(w http.ResponseWriter, r *http.Request, user core.User) {
	from, to := dateRange(r)

	expenses, err := s.expenses.List(r.Context(), user.ID, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "printable report failed", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	html, err := report.PrintableHTML(expenses, user.Name, report.PeriodLabel(from, to), time.Now().UTC())
	if err != nil {
		if errors.Is(err, core.ErrNoExpenses) {
			http.Error(w, "No expenses to report", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "printable render failed", "error", err)
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
