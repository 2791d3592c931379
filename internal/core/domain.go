package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxDescriptionLen = 255
	MaxCategoryLen    = 50
	MaxNoteLen        = 500
)

type (
	Money struct {
		Cents int64
	}

	// User is a registered account. Password material never leaves the
	// auth and storage layers.
	User struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Expense is a single spending record owned by exactly one user.
	Expense struct {
		ID          int64
		Description string
		Amount      Money
		Category    string // empty means uncategorized
		Note        string
		CreatedAt   time.Time
		UpdatedAt   time.Time
		UserID      string
	}

	// ExpenseInput carries validated form data into the store layer.
	// It is constructed once at the HTTP boundary and passed by value.
	ExpenseInput struct {
		Description string
		Amount      Money
		Category    string
		Note        string
	}
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNoExpenses         = errors.New("no expenses to export")
)

// Validate checks the input field by field. It returns a map of
// field name to message, or nil when everything is in range.
func (in ExpenseInput) Validate() map[string]string {
	problems := make(map[string]string)

	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		problems["description"] = "Description is required"
	} else if utf8.RuneCountInString(desc) > MaxDescriptionLen {
		problems["description"] = "Description must be less than 255 characters"
	}

	if in.Amount.Cents <= 0 {
		problems["amount"] = "Amount must be a positive number"
	}

	if utf8.RuneCountInString(in.Category) > MaxCategoryLen {
		problems["category"] = "Category must be less than 50 characters"
	}
	if utf8.RuneCountInString(in.Note) > MaxNoteLen {
		problems["note"] = "Note must be less than 500 characters"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Normalize trims whitespace on all text fields.
func (in ExpenseInput) Normalize() ExpenseInput {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Note = strings.TrimSpace(in.Note)
	return in
}
