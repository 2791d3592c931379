// Package storage persists users and expenses in SQLite. All expense
// queries are scoped by owner; a row belonging to another user behaves
// exactly like a row that does not exist.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"centavo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, user core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// --- expenses ---

const expenseColumns = `id, description, amount_cents, category, note, user_id, created_at, updated_at`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID string, in core.ExpenseInput) (core.Expense, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (description, amount_cents, category, note, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Description, in.Amount.Cents, in.Category, in.Note, userID, now, now,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "expense created", "id", id, "user_id", userID, "amount_cents", in.Amount.Cents)

	return core.Expense{
		ID:          id,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Note:        in.Note,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID string, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	return scanExpense(row)
}

// ListExpenses returns the user's expenses newest first. from and to
// bound the creation date: from is inclusive, to covers the whole
// named day (everything strictly before the following midnight).
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, from, to *time.Time) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ?`
	args := []any{userID}
	query, args = appendRangeClause(query, args, from, to)
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount.Cents, &e.Category, &e.Note, &e.UserID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense replaces an expense's fields. Ownership is checked in
// the same statement as the write, so a row can never be modified
// through someone else's session.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID string, id int64, in core.ExpenseInput) (core.Expense, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET description = ?, amount_cents = ?, category = ?, note = ?, updated_at = ?,
		     sync_status = 'pending', version = version + 1
		 WHERE id = ? AND user_id = ?`,
		in.Description, in.Amount.Cents, in.Category, in.Note, now, id, userID,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Expense{}, core.ErrNotFound
	}

	slog.InfoContext(ctx, "expense updated", "id", id, "user_id", userID)
	return r.GetExpense(ctx, userID, id)
}

// DeleteExpense removes an expense, with the same single-statement
// ownership check as UpdateExpense.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "expense deleted", "id", id, "user_id", userID)
	return nil
}

// SumAmount returns the total of the user's expenses in the range, in cents.
func (r *SQLiteRepository) SumAmount(ctx context.Context, userID string, from, to *time.Time) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = ?`
	args := []any{userID}
	query, args = appendRangeClause(query, args, from, to)

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// CountExpenses returns how many expenses the user has in the range.
func (r *SQLiteRepository) CountExpenses(ctx context.Context, userID string, from, to *time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM expenses WHERE user_id = ?`
	args := []any{userID}
	query, args = appendRangeClause(query, args, from, to)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return count, nil
}

func appendRangeClause(query string, args []any, from, to *time.Time) (string, []any) {
	if from != nil {
		query += ` AND created_at >= ?`
		args = append(args, from.UTC())
	}
	if to != nil {
		query += ` AND created_at < ?`
		args = append(args, to.UTC().Add(24*time.Hour))
	}
	return query, args
}

func scanExpense(row *sql.Row) (core.Expense, error) {
	var e core.Expense
	err := row.Scan(&e.ID, &e.Description, &e.Amount.Cents, &e.Category, &e.Note, &e.UserID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	return e, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- sync queue ---

// PendingSyncExpense is the minimal payload queued for the backup worker.
type PendingSyncExpense struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// SyncExpense is a full expense row joined with its owner's email, as
// appended to the backup spreadsheet.
type SyncExpense struct {
	Expense    core.Expense
	OwnerEmail string
	Version    int64
}

// GetPendingSyncExpenses returns expenses not yet mirrored to the backup
// sheet, oldest first.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]PendingSyncExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM expenses
		 WHERE sync_status = 'pending'
		 ORDER BY created_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncExpense
	for rows.Next() {
		var p PendingSyncExpense
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending expenses: %w", err)
	}
	return pending, nil
}

// GetExpenseForSync loads an expense with its owner's email regardless
// of which user owns it. Only the backup worker uses this.
func (r *SQLiteRepository) GetExpenseForSync(ctx context.Context, id int64) (SyncExpense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT e.id, e.description, e.amount_cents, e.category, e.note, e.user_id,
		        e.created_at, e.updated_at, e.version, u.email
		 FROM expenses e
		 JOIN users u ON u.id = e.user_id
		 WHERE e.id = ?`, id)

	var s SyncExpense
	err := row.Scan(&s.Expense.ID, &s.Expense.Description, &s.Expense.Amount.Cents,
		&s.Expense.Category, &s.Expense.Note, &s.Expense.UserID,
		&s.Expense.CreatedAt, &s.Expense.UpdatedAt, &s.Version, &s.OwnerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncExpense{}, core.ErrNotFound
	}
	if err != nil {
		return SyncExpense{}, fmt.Errorf("scan sync expense: %w", err)
	}
	return s, nil
}

// MarkSynced records a successful backup of the expense.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "expense marked as synced", "id", id)
	return nil
}

// MarkSyncError records a failed backup attempt; the row stays visible
// to operators but is not retried automatically.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "expense marked with sync error", "id", id)
	return nil
}
