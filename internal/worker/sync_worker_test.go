package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"centavo/internal/amqp"
	"centavo/internal/core"
	"centavo/internal/sheets"
	"centavo/internal/sheets/memory"
	"centavo/internal/storage"
)

func newTestWorker(t *testing.T, appender sheets.ExpenseAppender) (*SyncWorker, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	if err := repo.CreateUser(context.Background(), core.User{
		ID: "u1", Name: "Test", Email: "owner@example.com", PasswordHash: "x",
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return NewSyncWorker(repo, appender, 10), repo
}

func createExpense(t *testing.T, repo *storage.SQLiteRepository, desc string) core.Expense {
	t.Helper()
	e, err := repo.CreateExpense(context.Background(), "u1", core.ExpenseInput{
		Description: desc, Amount: core.Money{Cents: 500},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	return e
}

func TestHandleSyncMessage(t *testing.T) {
	store := memory.New()
	w, repo := newTestWorker(t, store)
	ctx := context.Background()

	expense := createExpense(t, repo, "Backup me")

	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(expense.ID, 1)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	rows := store.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].ID != expense.ID || rows[0].OwnerEmail != "owner@example.com" || rows[0].AmountCents != 500 {
		t.Errorf("row = %+v", rows[0])
	}

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expense still pending after sync")
	}
}

func TestHandleSyncMessageDeletedExpense(t *testing.T) {
	w, _ := newTestWorker(t, memory.New())

	// A message for a row that no longer exists is acked, not retried.
	if err := w.HandleSyncMessage(context.Background(), amqp.NewSyncMessage(9999, 1)); err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

type failingAppender struct{}

func (failingAppender) Append(context.Context, sheets.BackupRow) error {
	return errors.New("sheets unavailable")
}

func TestHandleSyncMessageAppendFailure(t *testing.T) {
	w, repo := newTestWorker(t, failingAppender{})
	ctx := context.Background()

	expense := createExpense(t, repo, "Will fail")

	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(expense.ID, 1)); err == nil {
		t.Fatal("expected error from failing appender")
	}

	// The row is marked errored rather than left pending forever.
	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed row still pending")
	}
}

func TestProcessPending(t *testing.T) {
	store := memory.New()
	w, repo := newTestWorker(t, store)
	ctx := context.Background()

	createExpense(t, repo, "One")
	createExpense(t, repo, "Two")

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(store.Rows()) != 2 {
		t.Errorf("backed up %d rows, want 2", len(store.Rows()))
	}

	// A second pass finds nothing to do.
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("second ProcessPending: %v", err)
	}
	if len(store.Rows()) != 2 {
		t.Errorf("second pass re-synced rows")
	}
}

func TestStartupSyncCheck(t *testing.T) {
	store := memory.New()
	w, repo := newTestWorker(t, store)

	for i := 0; i < 15; i++ {
		createExpense(t, repo, "Backlog")
	}

	// Startup uses a 5x batch, enough to drain 15 rows in one pass.
	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if len(store.Rows()) != 15 {
		t.Errorf("backed up %d rows, want 15", len(store.Rows()))
	}
}
