package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"moneta/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "moneta.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAccountCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateAccount(ctx, "Checking", core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected non-zero id")
	}

	got, err := repo.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Checking" || got.Balance.Cents != 10000 {
		t.Fatalf("unexpected account: %+v", got)
	}

	if err := repo.UpdateAccountName(ctx, created.ID, "Daily"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := repo.UpdateAccountBalance(ctx, created.ID, core.Money{Cents: 7500}); err != nil {
		t.Fatalf("update balance: %v", err)
	}
	got, err = repo.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Name != "Daily" || got.Balance.Cents != 7500 {
		t.Fatalf("unexpected account after update: %+v", got)
	}

	taken, err := repo.AccountNameExists(ctx, "Daily", 0)
	if err != nil || !taken {
		t.Fatalf("expected name taken, got %v %v", taken, err)
	}
	taken, err = repo.AccountNameExists(ctx, "Daily", created.ID)
	if err != nil || taken {
		t.Fatalf("excluding own id should be free, got %v %v", taken, err)
	}

	if err := repo.DeleteAccount(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetAccount(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSumBalances(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	total, err := repo.SumBalances(ctx)
	if err != nil || total.Cents != 0 {
		t.Fatalf("empty sum: expected 0, got %d (%v)", total.Cents, err)
	}

	if _, err := repo.CreateAccount(ctx, "A", core.Money{Cents: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateAccount(ctx, "B", core.Money{Cents: -40}); err != nil {
		t.Fatalf("create: %v", err)
	}
	total, err = repo.SumBalances(ctx)
	if err != nil || total.Cents != 60 {
		t.Fatalf("expected 60, got %d (%v)", total.Cents, err)
	}
}

func TestCategoryAndSubcategoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, "Groceries", core.Expense)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	// Same name with the other type is allowed; uniqueness is per type.
	if _, err := repo.CreateCategory(ctx, "Groceries", core.Income); err != nil {
		t.Fatalf("same name other type: %v", err)
	}
	taken, err := repo.CategoryNameExists(ctx, "Groceries", core.Expense, 0)
	if err != nil || !taken {
		t.Fatalf("expected taken for same type, got %v %v", taken, err)
	}

	sub, err := repo.CreateSubcategory(ctx, "Fruit", cat.ID)
	if err != nil {
		t.Fatalf("create subcategory: %v", err)
	}
	subs, err := repo.ListSubcategories(ctx, cat.ID)
	if err != nil || len(subs) != 1 || subs[0].ID != sub.ID {
		t.Fatalf("list subcategories: %v %v", subs, err)
	}

	// Deleting the category cascades to its subcategories.
	if err := repo.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if _, err := repo.GetSubcategory(ctx, sub.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected cascaded delete, got %v", err)
	}
}

func TestOperationRangeListing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "Main", core.Money{Cents: 0})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	other, err := repo.CreateAccount(ctx, "Other", core.Money{Cents: 0})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	cat, err := repo.CreateCategory(ctx, "Bills", core.Expense)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	mk := func(accountID int64, day int) core.Operation {
		op := core.Operation{
			CategoryID: cat.ID,
			AccountID:  accountID,
			Amount:     core.Money{Cents: 100},
			Date:       time.Date(2026, 4, day, 10, 0, 0, 0, time.UTC),
		}
		created, err := repo.CreateOperation(ctx, op)
		if err != nil {
			t.Fatalf("create operation: %v", err)
		}
		return created
	}
	mk(account.ID, 1)
	mk(account.ID, 15)
	mk(account.ID, 30)
	mk(other.ID, 15)

	from := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)

	ops, err := repo.ListOperations(ctx, account.ID, from, to)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ops) != 1 || ops[0].Date.Day() != 15 {
		t.Fatalf("expected single mid-month operation, got %+v", ops)
	}

	// Account id 0 selects every account.
	ops, err = repo.ListOperations(ctx, 0, from, to)
	if err != nil || len(ops) != 2 {
		t.Fatalf("expected 2 operations across accounts, got %d (%v)", len(ops), err)
	}

	byCat, err := repo.ListOperationsByCategory(ctx, cat.ID)
	if err != nil || len(byCat) != 4 {
		t.Fatalf("expected 4 operations in category, got %d (%v)", len(byCat), err)
	}
}

func TestTransferListing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateAccount(ctx, "A", core.Money{Cents: 0})
	b, _ := repo.CreateAccount(ctx, "B", core.Money{Cents: 0})
	c, _ := repo.CreateAccount(ctx, "C", core.Money{Cents: 0})

	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	if _, err := repo.CreateTransfer(ctx, core.Transfer{FromAccountID: a.ID, ToAccountID: b.ID, Amount: core.Money{Cents: 50}, Date: date}); err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if _, err := repo.CreateTransfer(ctx, core.Transfer{FromAccountID: b.ID, ToAccountID: c.ID, Amount: core.Money{Cents: 70}, Date: date}); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	from := date.AddDate(0, 0, -1)
	to := date.AddDate(0, 0, 1)

	// Per-account listing matches either side of the transfer.
	trs, err := repo.ListTransfers(ctx, b.ID, from, to)
	if err != nil || len(trs) != 2 {
		t.Fatalf("expected 2 transfers touching B, got %d (%v)", len(trs), err)
	}
	trs, err = repo.ListTransfers(ctx, a.ID, from, to)
	if err != nil || len(trs) != 1 {
		t.Fatalf("expected 1 transfer touching A, got %d (%v)", len(trs), err)
	}
	trs, err = repo.ListTransfers(ctx, 0, from, to)
	if err != nil || len(trs) != 2 {
		t.Fatalf("expected 2 transfers total, got %d (%v)", len(trs), err)
	}
}

func TestAccountDeleteCascadesEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateAccount(ctx, "A", core.Money{Cents: 0})
	b, _ := repo.CreateAccount(ctx, "B", core.Money{Cents: 0})
	cat, _ := repo.CreateCategory(ctx, "Misc", core.Expense)

	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	op, err := repo.CreateOperation(ctx, core.Operation{CategoryID: cat.ID, AccountID: a.ID, Amount: core.Money{Cents: 10}, Date: date})
	if err != nil {
		t.Fatalf("create operation: %v", err)
	}
	tr, err := repo.CreateTransfer(ctx, core.Transfer{FromAccountID: a.ID, ToAccountID: b.ID, Amount: core.Money{Cents: 20}, Date: date})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if err := repo.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := repo.GetOperation(ctx, op.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected operation cascade, got %v", err)
	}
	if _, err := repo.GetTransfer(ctx, tr.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected transfer cascade, got %v", err)
	}
}

func TestReminderDueListing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	mk := func(name string, next time.Time, active bool) core.Reminder {
		r, err := repo.CreateReminder(ctx, core.Reminder{
			Name: name, Periodicity: core.Daily, NextDate: next, Active: active,
		})
		if err != nil {
			t.Fatalf("create reminder: %v", err)
		}
		return r
	}
	due := mk("due", now.Add(-time.Hour), true)
	mk("future", now.Add(time.Hour), true)
	mk("inactive", now.Add(-time.Hour), false)

	got, err := repo.ListDueReminders(ctx, now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Fatalf("expected only the active past-due reminder, got %+v", got)
	}
}

func TestTxRollbackDiscardsWrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateAccount(ctx, "A", core.Money{Cents: 100})

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.UpdateAccountBalance(ctx, a.ID, core.Money{Cents: 999}); err != nil {
		t.Fatalf("update in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	got, err := repo.GetAccount(ctx, a.ID)
	if err != nil || got.Balance.Cents != 100 {
		t.Fatalf("expected rollback to keep 100, got %d (%v)", got.Balance.Cents, err)
	}
}

func TestTxCommitPublishesStagedChanges(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	changes, cancel := repo.Watch()
	defer cancel()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	created, err := tx.CreateAccount(ctx, "Staged", core.Money{Cents: 1})
	if err != nil {
		t.Fatalf("create in tx: %v", err)
	}

	select {
	case c := <-changes:
		t.Fatalf("change published before commit: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	select {
	case c := <-changes:
		if c.Entity != EntityAccount || c.Op != OpCreated || c.ID != created.ID {
			t.Fatalf("unexpected change: %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected change after commit")
	}
}

func TestRollbackAfterCommitIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.CreateAccount(ctx, "Kept", core.Money{Cents: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback after commit should be a no-op, got %v", err)
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("expected committed account to survive, got %d (%v)", len(accounts), err)
	}
}
