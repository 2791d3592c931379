package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"centavo/internal/core"
)

// expenseForm carries a submitted expense form plus whatever problems
// validation found, so the partial can re-render in place.
type expenseForm struct {
	Description string
	Amount      string
	Category    string
	Note        string
	Errors      map[string]string
	Message     string
}

func parseExpenseForm(r *http.Request) (core.ExpenseInput, expenseForm, bool) {
	form := expenseForm{
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      sanitizeInput(r.Form.Get("amount")),
		Category:    sanitizeInput(r.Form.Get("category")),
		Note:        sanitizeInput(r.Form.Get("note")),
	}

	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		form.Errors = map[string]string{"amount": "Amount must be a positive number"}
		return core.ExpenseInput{}, form, false
	}

	in := core.ExpenseInput{
		Description: form.Description,
		Amount:      core.Money{Cents: cents},
		Category:    form.Category,
		Note:        form.Note,
	}.Normalize()
	if problems := in.Validate(); problems != nil {
		form.Errors = problems
		return core.ExpenseInput{}, form, false
	}
	return in, form, true
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request</div>`))
		return
	}

	in, form, ok := parseExpenseForm(r)
	if !ok {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "expense_form.html", form)
		return
	}

	expense, err := s.expenses.Create(r.Context(), user.ID, in)
	if err != nil {
		slog.ErrorContext(r.Context(), "create expense failed", "error", err, "user_id", user.ID)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to create expense</div>`))
		return
	}

	s.invalidateUserViews(user.ID)
	w.Header().Set("HX-Trigger", "expense:created")
	s.render(w, r, "expense_form.html", expenseForm{
		Message: "Added " + expense.Description + " (" + formatDollars(expense.Amount.Cents) + ")",
	})
}

func (s *Server) handleEditExpenseForm(w http.ResponseWriter, r *http.Request, user core.User) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	id, err := parseExpenseID(r)
	if err != nil {
		http.Error(w, "Invalid expense id", http.StatusBadRequest)
		return
	}

	expense, err := s.expenses.Get(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "Expense not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "get expense failed", "error", err, "id", id)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "expense_edit.html", struct {
		ID   int64
		Form expenseForm
	}{
		ID: expense.ID,
		Form: expenseForm{
			Description: expense.Description,
			Amount:      expense.Amount.Format(),
			Category:    expense.Category,
			Note:        expense.Note,
		},
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	id, err := parseExpenseID(r)
	if err != nil {
		http.Error(w, "Invalid expense id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request</div>`))
		return
	}

	in, form, ok := parseExpenseForm(r)
	if !ok {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "expense_edit.html", struct {
			ID   int64
			Form expenseForm
		}{ID: id, Form: form})
		return
	}

	if _, err := s.expenses.Update(r.Context(), user.ID, id, in); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "Expense not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "update expense failed", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to update expense</div>`))
		return
	}

	s.invalidateUserViews(user.ID)
	w.Header().Set("HX-Trigger", "expense:updated")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := parseExpenseID(r)
	if err != nil {
		http.Error(w, "Invalid expense id", http.StatusBadRequest)
		return
	}

	if err := s.expenses.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "Expense not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "delete expense failed", "error", err, "id", id)
		http.Error(w, "Failed to delete expense", http.StatusInternalServerError)
		return
	}

	s.invalidateUserViews(user.ID)
	w.Header().Set("HX-Trigger", "expense:deleted")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "template execution failed", "template", name, "error", err)
		_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString("Rendering failed") + `</div>`))
	}
}
