// Package services orchestrates expense operations across storage and
// the sync queue.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"centavo/internal/core"
	"centavo/internal/storage"
)

// SyncPublisher queues backup requests. A nil publisher disables
// queueing without changing any expense semantics.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, id, version int64) error
}

// ExpenseService is the write and read path for a user's expenses.
// Writes go to SQLite first; the sync message is best effort and never
// fails the request.
type ExpenseService struct {
	storage   *storage.SQLiteRepository
	publisher SyncPublisher
}

func NewExpenseService(storage *storage.SQLiteRepository, publisher SyncPublisher) *ExpenseService {
	return &ExpenseService{storage: storage, publisher: publisher}
}

// Create validates and stores a new expense for the user.
func (s *ExpenseService) Create(ctx context.Context, userID string, in core.ExpenseInput) (core.Expense, error) {
	in = in.Normalize()
	if problems := in.Validate(); problems != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, problems)
	}

	expense, err := s.storage.CreateExpense(ctx, userID, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.publishSync(ctx, expense.ID, 1)
	return expense, nil
}

// Update replaces an existing expense the user owns.
func (s *ExpenseService) Update(ctx context.Context, userID string, id int64, in core.ExpenseInput) (core.Expense, error) {
	in = in.Normalize()
	if problems := in.Validate(); problems != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, problems)
	}

	expense, err := s.storage.UpdateExpense(ctx, userID, id, in)
	if err != nil {
		return core.Expense{}, err
	}

	// The repository bumped the version; re-read it via the sync row
	// is not worth a query, the worker fetches current data anyway.
	s.publishSync(ctx, expense.ID, 0)
	return expense, nil
}

// Delete removes an expense the user owns.
func (s *ExpenseService) Delete(ctx context.Context, userID string, id int64) error {
	return s.storage.DeleteExpense(ctx, userID, id)
}

// Get returns one expense the user owns.
func (s *ExpenseService) Get(ctx context.Context, userID string, id int64) (core.Expense, error) {
	return s.storage.GetExpense(ctx, userID, id)
}

// List returns the user's expenses in the date range, newest first.
func (s *ExpenseService) List(ctx context.Context, userID string, from, to *time.Time) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx, userID, from, to)
}

// Overview aggregates the user's expenses in the range: total, count
// and per-category breakdown.
func (s *ExpenseService) Overview(ctx context.Context, userID string, from, to *time.Time) (core.Summary, error) {
	expenses, err := s.storage.ListExpenses(ctx, userID, from, to)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(expenses), nil
}

// Sum returns the range total straight from the database.
func (s *ExpenseService) Sum(ctx context.Context, userID string, from, to *time.Time) (core.Money, error) {
	return s.storage.SumAmount(ctx, userID, from, to)
}

// Count returns how many expenses the user has in the range.
func (s *ExpenseService) Count(ctx context.Context, userID string, from, to *time.Time) (int64, error) {
	return s.storage.CountExpenses(ctx, userID, from, to)
}

func (s *ExpenseService) publishSync(ctx context.Context, id, version int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseSync(ctx, id, version); err != nil {
		// The worker also polls for pending rows, so losing the
		// message only delays the backup.
		slog.ErrorContext(ctx, "failed to publish sync message", "id", id, "error", err)
	}
}

// Ping reports whether the backing database is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// Close releases the underlying storage.
func (s *ExpenseService) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
