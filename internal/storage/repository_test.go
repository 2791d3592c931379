package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"centavo/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreateUser(t *testing.T, repo *SQLiteRepository, id, email string) core.User {
	t.Helper()
	user := core.User{ID: id, Name: "Test User", Email: email, PasswordHash: "$2a$12$hash"}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func mustCreateExpense(t *testing.T, repo *SQLiteRepository, userID string, in core.ExpenseInput) core.Expense {
	t.Helper()
	expense, err := repo.CreateExpense(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	return expense
}

// setCreatedAt backdates an expense so range filters can be exercised.
func setCreatedAt(t *testing.T, repo *SQLiteRepository, id int64, at time.Time) {
	t.Helper()
	if _, err := repo.db.Exec(`UPDATE expenses SET created_at = ? WHERE id = ?`, at.UTC(), id); err != nil {
		t.Fatalf("set created_at: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateUser(t, repo, "u1", "dup@example.com")

	err := repo.CreateUser(context.Background(), core.User{
		ID: "u2", Name: "Other", Email: "dup@example.com", PasswordHash: "x",
	})
	if !errors.Is(err, core.ErrAlreadyExists) {
		t.Errorf("got %v, want ErrAlreadyExists", err)
	}
}

func TestGetUser(t *testing.T) {
	repo := newTestRepo(t)
	mustCreateUser(t, repo, "u1", "ada@example.com")

	byEmail, err := repo.GetUserByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("got id %q", byEmail.ID)
	}

	byID, err := repo.GetUserByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Email != "ada@example.com" {
		t.Errorf("got email %q", byID.Email)
	}

	if _, err := repo.GetUserByEmail(context.Background(), "missing@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestExpenseCRUD(t *testing.T) {
	repo := newTestRepo(t)
	user := mustCreateUser(t, repo, "u1", "u1@example.com")
	ctx := context.Background()

	created := mustCreateExpense(t, repo, user.ID, core.ExpenseInput{
		Description: "Coffee",
		Amount:      core.Money{Cents: 350},
		Category:    "Food",
		Note:        "morning",
	})
	if created.ID == 0 {
		t.Fatal("expense id not assigned")
	}

	got, err := repo.GetExpense(ctx, user.ID, created.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.Description != "Coffee" || got.Amount.Cents != 350 || got.Category != "Food" || got.Note != "morning" {
		t.Errorf("got %+v", got)
	}

	updated, err := repo.UpdateExpense(ctx, user.ID, created.ID, core.ExpenseInput{
		Description: "Espresso",
		Amount:      core.Money{Cents: 200},
	})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	if updated.Description != "Espresso" || updated.Amount.Cents != 200 || updated.Category != "" {
		t.Errorf("got %+v", updated)
	}

	if err := repo.DeleteExpense(ctx, user.ID, created.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := repo.GetExpense(ctx, user.ID, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound after delete", err)
	}
	if err := repo.DeleteExpense(ctx, user.ID, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestExpenseOwnerScoping(t *testing.T) {
	repo := newTestRepo(t)
	owner := mustCreateUser(t, repo, "owner", "owner@example.com")
	other := mustCreateUser(t, repo, "other", "other@example.com")
	ctx := context.Background()

	expense := mustCreateExpense(t, repo, owner.ID, core.ExpenseInput{
		Description: "Rent", Amount: core.Money{Cents: 90000},
	})

	if _, err := repo.GetExpense(ctx, other.ID, expense.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetExpense as non-owner: got %v, want ErrNotFound", err)
	}
	if _, err := repo.UpdateExpense(ctx, other.ID, expense.ID, core.ExpenseInput{
		Description: "Hijacked", Amount: core.Money{Cents: 1},
	}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateExpense as non-owner: got %v, want ErrNotFound", err)
	}
	if err := repo.DeleteExpense(ctx, other.ID, expense.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteExpense as non-owner: got %v, want ErrNotFound", err)
	}

	// The row is untouched after all three attempts.
	got, err := repo.GetExpense(ctx, owner.ID, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense as owner: %v", err)
	}
	if got.Description != "Rent" {
		t.Errorf("row was modified: %+v", got)
	}

	list, err := repo.ListExpenses(ctx, other.ID, nil, nil)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("non-owner sees %d expenses", len(list))
	}
}

func TestListExpensesOrderAndRange(t *testing.T) {
	repo := newTestRepo(t)
	user := mustCreateUser(t, repo, "u1", "u1@example.com")
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
	}
	ids := make(map[int]int64)
	for d := 1; d <= 5; d++ {
		e := mustCreateExpense(t, repo, user.ID, core.ExpenseInput{
			Description: "Day", Amount: core.Money{Cents: int64(d * 100)},
		})
		setCreatedAt(t, repo, e.ID, day(d))
		ids[d] = e.ID
	}

	all, err := repo.ListExpenses(ctx, user.ID, nil, nil)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d expenses", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("list not ordered newest first at index %d", i)
		}
	}

	from := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	ranged, err := repo.ListExpenses(ctx, user.ID, &from, &to)
	if err != nil {
		t.Fatalf("ListExpenses ranged: %v", err)
	}
	if len(ranged) != 3 {
		t.Fatalf("got %d expenses in range, want 3", len(ranged))
	}
}

func TestRangeCoversWholeEndDay(t *testing.T) {
	repo := newTestRepo(t)
	user := mustCreateUser(t, repo, "u1", "u1@example.com")
	ctx := context.Background()

	lastSecond := mustCreateExpense(t, repo, user.ID, core.ExpenseInput{
		Description: "Late", Amount: core.Money{Cents: 100},
	})
	setCreatedAt(t, repo, lastSecond.ID, time.Date(2024, time.March, 4, 23, 59, 59, 0, time.UTC))

	nextMorning := mustCreateExpense(t, repo, user.ID, core.ExpenseInput{
		Description: "Next day", Amount: core.Money{Cents: 200},
	})
	setCreatedAt(t, repo, nextMorning.ID, time.Date(2024, time.March, 5, 0, 0, 1, 0, time.UTC))

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	list, err := repo.ListExpenses(ctx, user.ID, &from, &to)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 1 || list[0].ID != lastSecond.ID {
		t.Errorf("range should include 23:59:59 on the end day and exclude the next day, got %d rows", len(list))
	}
}

func TestSumAndCountMatchList(t *testing.T) {
	repo := newTestRepo(t)
	user := mustCreateUser(t, repo, "u1", "u1@example.com")
	other := mustCreateUser(t, repo, "u2", "u2@example.com")
	ctx := context.Background()

	for _, cents := range []int64{350, 1200, 99} {
		mustCreateExpense(t, repo, user.ID, core.ExpenseInput{
			Description: "Item", Amount: core.Money{Cents: cents},
		})
	}
	mustCreateExpense(t, repo, other.ID, core.ExpenseInput{
		Description: "Not mine", Amount: core.Money{Cents: 100000},
	})

	list, err := repo.ListExpenses(ctx, user.ID, nil, nil)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	var want int64
	for _, e := range list {
		want += e.Amount.Cents
	}

	sum, err := repo.SumAmount(ctx, user.ID, nil, nil)
	if err != nil {
		t.Fatalf("SumAmount: %v", err)
	}
	if sum.Cents != want || sum.Cents != 1649 {
		t.Errorf("sum = %d, want %d", sum.Cents, want)
	}

	count, err := repo.CountExpenses(ctx, user.ID, nil, nil)
	if err != nil {
		t.Fatalf("CountExpenses: %v", err)
	}
	if count != int64(len(list)) {
		t.Errorf("count = %d, list has %d", count, len(list))
	}
}

func TestSumEmptyRangeIsZero(t *testing.T) {
	repo := newTestRepo(t)
	user := mustCreateUser(t, repo, "u1", "u1@example.com")

	sum, err := repo.SumAmount(context.Background(), user.ID, nil, nil)
	if err != nil {
		t.Fatalf("SumAmount: %v", err)
	}
	if sum.Cents != 0 {
		t.Errorf("sum = %d, want 0", sum.Cents)
	}
}

func TestSyncQueue(t *testing.T) {
	repo := newTestRepo(t)
	user := mustCreateUser(t, repo, "u1", "sync@example.com")
	ctx := context.Background()

	expense := mustCreateExpense(t, repo, user.ID, core.ExpenseInput{
		Description: "Backup me", Amount: core.Money{Cents: 500},
	})

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != expense.ID || pending[0].Version != 1 {
		t.Fatalf("got pending %+v", pending)
	}

	forSync, err := repo.GetExpenseForSync(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpenseForSync: %v", err)
	}
	if forSync.OwnerEmail != "sync@example.com" {
		t.Errorf("owner email = %q", forSync.OwnerEmail)
	}

	if err := repo.MarkSynced(ctx, expense.ID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("still %d pending after MarkSynced", len(pending))
	}

	// An update re-queues the row with a bumped version.
	if _, err := repo.UpdateExpense(ctx, user.ID, expense.ID, core.ExpenseInput{
		Description: "Backup me again", Amount: core.Money{Cents: 600},
	}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("got pending %+v after update", pending)
	}

	if err := repo.MarkSyncError(ctx, expense.ID); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("errored row still pending")
	}
}
