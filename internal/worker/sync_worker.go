// Package worker mirrors expenses to the backup spreadsheet. It works
// from AMQP messages when the broker delivers them and from a database
// poll when it does not.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"centavo/internal/amqp"
	"centavo/internal/core"
	"centavo/internal/sheets"
	"centavo/internal/storage"
)

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.ExpenseAppender
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, appender sheets.ExpenseAppender, batchSize int) *SyncWorker {
	return &SyncWorker{storage: storage, appender: appender, batchSize: batchSize}
}

// HandleSyncMessage backs up the expense a queue message points at.
// The row is re-read from the database, so the message can never carry
// stale data. A deleted expense is treated as handled.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "processing sync message", "id", msg.ID, "version", msg.Version)

	row, err := w.storage.GetExpenseForSync(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "expense deleted before sync, dropping message", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get expense for sync: %w", err)
	}

	return w.backup(ctx, row)
}

// ProcessPending backs up expenses the queue missed. Called on a timer
// as a safety net for lost messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize)
}

// StartupSyncCheck drains the pending backlog accumulated while the
// worker was down, using a larger batch than the periodic poll.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	slog.InfoContext(ctx, "checking for pending expenses on startup")
	return w.processPendingBatch(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPendingBatch(ctx context.Context, batchSize int) error {
	pending, err := w.storage.GetPendingSyncExpenses(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "processing pending expenses", "count", len(pending))

	synced, failed := 0, 0
	for _, p := range pending {
		row, err := w.storage.GetExpenseForSync(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load pending expense", "id", p.ID, "error", err)
			if markErr := w.storage.MarkSyncError(ctx, p.ID); markErr != nil {
				slog.ErrorContext(ctx, "failed to mark sync error", "id", p.ID, "error", markErr)
			}
			failed++
			continue
		}
		if err := w.backup(ctx, row); err != nil {
			slog.ErrorContext(ctx, "failed to back up expense", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "pending sync pass completed", "total", len(pending), "synced", synced, "errors", failed)
	return nil
}

// Run polls for pending expenses until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "pending sync pass failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) backup(ctx context.Context, row storage.SyncExpense) error {
	e := row.Expense
	err := w.appender.Append(ctx, sheets.BackupRow{
		ID:          e.ID,
		Date:        e.CreatedAt,
		Description: e.Description,
		Category:    e.Category,
		Note:        e.Note,
		AmountCents: e.Amount.Cents,
		OwnerEmail:  row.OwnerEmail,
		Version:     row.Version,
	})
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, e.ID); markErr != nil {
			slog.ErrorContext(ctx, "failed to mark sync error", "id", e.ID, "error", markErr)
		}
		return fmt.Errorf("append to backup sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, e.ID); err != nil {
		// The append worked; a markup failure just means the row will
		// be retried and appended twice.
		slog.ErrorContext(ctx, "failed to mark as synced", "id", e.ID, "error", err)
	}

	slog.InfoContext(ctx, "expense backed up", "id", e.ID, "amount_cents", e.Amount.Cents)
	return nil
}
