package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneta/internal/core"
	"moneta/internal/storage"
)

type fixture struct {
	repo       *storage.Repository
	accounts   *AccountService
	categories *CategoryService
	operations *OperationService
	transfers  *TransferService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "moneta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return fixture{
		repo:       repo,
		accounts:   NewAccountService(repo),
		categories: NewCategoryService(repo),
		operations: NewOperationService(repo),
		transfers:  NewTransferService(repo),
	}
}

func (f fixture) balance(t *testing.T, id int64) int64 {
	t.Helper()
	account, err := f.accounts.Get(context.Background(), id)
	require.NoError(t, err)
	return account.Balance.Cents
}

var testDate = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func TestExpenseOperationSubtractsFromBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	main, err := f.accounts.Create(ctx, "Main", core.Money{Cents: 0})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Groceries", core.Expense)
	require.NoError(t, err)

	_, err = f.operations.Create(ctx, core.Operation{
		CategoryID: cat.ID,
		AccountID:  main.ID,
		Amount:     core.Money{Cents: 500},
		Date:       testDate,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(-500), f.balance(t, main.ID))
}

func TestIncomeOperationAddsToBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	main, err := f.accounts.Create(ctx, "Main", core.Money{Cents: 100})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Salary", core.Income)
	require.NoError(t, err)

	_, err = f.operations.Create(ctx, core.Operation{
		CategoryID: cat.ID,
		AccountID:  main.ID,
		Amount:     core.Money{Cents: 2000},
		Date:       testDate,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2100), f.balance(t, main.ID))
}

func TestTransferCreateAndDeleteRestoresBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 1000})
	require.NoError(t, err)
	b, err := f.accounts.Create(ctx, "B", core.Money{Cents: 0})
	require.NoError(t, err)

	tr, err := f.transfers.Create(ctx, core.Transfer{
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		Amount:        core.Money{Cents: 300},
		Date:          testDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(700), f.balance(t, a.ID))
	assert.Equal(t, int64(300), f.balance(t, b.ID))

	require.NoError(t, f.transfers.Delete(ctx, tr.ID))
	assert.Equal(t, int64(1000), f.balance(t, a.ID))
	assert.Equal(t, int64(0), f.balance(t, b.ID))
}

func TestOperationUpdateNetsToNewEffect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 0})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Salary", core.Income)
	require.NoError(t, err)

	op, err := f.operations.Create(ctx, core.Operation{
		CategoryID: cat.ID,
		AccountID:  a.ID,
		Amount:     core.Money{Cents: 200},
		Date:       testDate,
	})
	require.NoError(t, err)
	require.Equal(t, int64(200), f.balance(t, a.ID))

	op.Amount = core.Money{Cents: 150}
	_, err = f.operations.Update(ctx, op)
	require.NoError(t, err)

	// Reverse +200 then apply +150: net +150, not +350.
	assert.Equal(t, int64(150), f.balance(t, a.ID))
}

// Updating an entry without changing anything must net to zero: the reversal
// and the re-application cancel exactly on every affected balance.
func TestUpdateToIdenticalValuesLeavesBalancesUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 1000})
	require.NoError(t, err)
	b, err := f.accounts.Create(ctx, "B", core.Money{Cents: 0})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Bills", core.Expense)
	require.NoError(t, err)

	op, err := f.operations.Create(ctx, core.Operation{
		CategoryID: cat.ID,
		AccountID:  a.ID,
		Amount:     core.Money{Cents: 300},
		Date:       testDate,
	})
	require.NoError(t, err)
	tr, err := f.transfers.Create(ctx, core.Transfer{
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		Amount:        core.Money{Cents: 200},
		Date:          testDate,
	})
	require.NoError(t, err)
	require.Equal(t, int64(500), f.balance(t, a.ID))
	require.Equal(t, int64(200), f.balance(t, b.ID))

	_, err = f.operations.Update(ctx, op)
	require.NoError(t, err)
	_, err = f.transfers.Update(ctx, tr)
	require.NoError(t, err)

	assert.Equal(t, int64(500), f.balance(t, a.ID))
	assert.Equal(t, int64(200), f.balance(t, b.ID))
}

func TestOperationUpdateMovesEffectAcrossAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 0})
	require.NoError(t, err)
	b, err := f.accounts.Create(ctx, "B", core.Money{Cents: 0})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Bills", core.Expense)
	require.NoError(t, err)

	op, err := f.operations.Create(ctx, core.Operation{
		CategoryID: cat.ID,
		AccountID:  a.ID,
		Amount:     core.Money{Cents: 400},
		Date:       testDate,
	})
	require.NoError(t, err)
	require.Equal(t, int64(-400), f.balance(t, a.ID))

	op.AccountID = b.ID
	_, err = f.operations.Update(ctx, op)
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.balance(t, a.ID))
	assert.Equal(t, int64(-400), f.balance(t, b.ID))
}

func TestOperationUpdateSwitchesCategoryType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 0})
	require.NoError(t, err)
	expense, err := f.categories.Create(ctx, "Bills", core.Expense)
	require.NoError(t, err)
	income, err := f.categories.Create(ctx, "Refunds", core.Income)
	require.NoError(t, err)

	op, err := f.operations.Create(ctx, core.Operation{
		CategoryID: expense.ID,
		AccountID:  a.ID,
		Amount:     core.Money{Cents: 100},
		Date:       testDate,
	})
	require.NoError(t, err)
	require.Equal(t, int64(-100), f.balance(t, a.ID))

	// Reversal uses the old EXPENSE sign, the new effect the INCOME sign.
	op.CategoryID = income.ID
	_, err = f.operations.Update(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.balance(t, a.ID))
}

func TestOperationDeleteReversesEffect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 250})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Bills", core.Expense)
	require.NoError(t, err)

	op, err := f.operations.Create(ctx, core.Operation{
		CategoryID: cat.ID,
		AccountID:  a.ID,
		Amount:     core.Money{Cents: 100},
		Date:       testDate,
	})
	require.NoError(t, err)
	require.Equal(t, int64(150), f.balance(t, a.ID))

	require.NoError(t, f.operations.Delete(ctx, op.ID))
	assert.Equal(t, int64(250), f.balance(t, a.ID))
}

func TestTransferUpdateBetweenOverlappingPairs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 1000})
	require.NoError(t, err)
	b, err := f.accounts.Create(ctx, "B", core.Money{Cents: 1000})
	require.NoError(t, err)
	c, err := f.accounts.Create(ctx, "C", core.Money{Cents: 1000})
	require.NoError(t, err)

	tr, err := f.transfers.Create(ctx, core.Transfer{
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		Amount:        core.Money{Cents: 200},
		Date:          testDate,
	})
	require.NoError(t, err)

	// Move the destination to C and change the amount; A stays the source,
	// so its balance reflects the reversal and the new apply in sequence.
	tr.ToAccountID = c.ID
	tr.Amount = core.Money{Cents: 500}
	_, err = f.transfers.Update(ctx, tr)
	require.NoError(t, err)

	assert.Equal(t, int64(500), f.balance(t, a.ID))
	assert.Equal(t, int64(1000), f.balance(t, b.ID))
	assert.Equal(t, int64(1500), f.balance(t, c.ID))
}

func TestVirtualTotalAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Create(ctx, "A", core.Money{Cents: 700})
	require.NoError(t, err)
	_, err = f.accounts.Create(ctx, "B", core.Money{Cents: 300})
	require.NoError(t, err)

	total, err := f.accounts.Get(ctx, core.TotalAccountID)
	require.NoError(t, err)
	assert.Equal(t, TotalAccountName, total.Name)
	assert.Equal(t, int64(1000), total.Balance.Cents)

	accounts, err := f.accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, core.TotalAccountID, accounts[0].ID)
	assert.Equal(t, int64(1000), accounts[0].Balance.Cents)

	// Transfers between real accounts never change the total.
	a, b := accounts[1], accounts[2]
	_, err = f.transfers.Create(ctx, core.Transfer{
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		Amount:        core.Money{Cents: 150},
		Date:          testDate,
	})
	require.NoError(t, err)
	total, err = f.accounts.Get(ctx, core.TotalAccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), total.Balance.Cents)

	// The virtual account cannot be deleted.
	err = f.accounts.Delete(ctx, core.TotalAccountID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNameCollisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Create(ctx, "Main", core.Money{Cents: 0})
	require.NoError(t, err)
	_, err = f.accounts.Create(ctx, "Main", core.Money{Cents: 0})
	assert.ErrorIs(t, err, core.ErrNameTaken)

	_, err = f.categories.Create(ctx, "Food", core.Expense)
	require.NoError(t, err)
	_, err = f.categories.Create(ctx, "Food", core.Expense)
	assert.ErrorIs(t, err, core.ErrNameTaken)
	// Same name under a different type is a different category.
	_, err = f.categories.Create(ctx, "Food", core.Income)
	assert.NoError(t, err)
}

func TestSubcategoryMustBelongToCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 0})
	require.NoError(t, err)
	food, err := f.categories.Create(ctx, "Food", core.Expense)
	require.NoError(t, err)
	bills, err := f.categories.Create(ctx, "Bills", core.Expense)
	require.NoError(t, err)
	sub, err := f.categories.CreateSubcategory(ctx, "Fruit", food.ID)
	require.NoError(t, err)

	_, err = f.operations.Create(ctx, core.Operation{
		CategoryID:    bills.ID,
		SubcategoryID: &sub.ID,
		AccountID:     a.ID,
		Amount:        core.Money{Cents: 100},
		Date:          testDate,
	})
	assert.ErrorIs(t, err, core.ErrSubcategoryMismatch)

	// And the balance is untouched by the rejected workflow.
	assert.Equal(t, int64(0), f.balance(t, a.ID))
}

func TestOperationCreateMissingReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 0})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Food", core.Expense)
	require.NoError(t, err)

	_, err = f.operations.Create(ctx, core.Operation{
		CategoryID: 9999, AccountID: a.ID,
		Amount: core.Money{Cents: 100}, Date: testDate,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.operations.Create(ctx, core.Operation{
		CategoryID: cat.ID, AccountID: 9999,
		Amount: core.Money{Cents: 100}, Date: testDate,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCategoryDeleteReversesReferencingOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 0})
	require.NoError(t, err)
	b, err := f.accounts.Create(ctx, "B", core.Money{Cents: 0})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Doomed", core.Expense)
	require.NoError(t, err)
	keep, err := f.categories.Create(ctx, "Kept", core.Expense)
	require.NoError(t, err)

	mk := func(categoryID, accountID, cents int64) {
		_, err := f.operations.Create(ctx, core.Operation{
			CategoryID: categoryID, AccountID: accountID,
			Amount: core.Money{Cents: cents}, Date: testDate,
		})
		require.NoError(t, err)
	}
	mk(cat.ID, a.ID, 100)
	mk(cat.ID, a.ID, 50)
	mk(cat.ID, b.ID, 30)
	mk(keep.ID, a.ID, 10)
	require.Equal(t, int64(-160), f.balance(t, a.ID))
	require.Equal(t, int64(-30), f.balance(t, b.ID))

	require.NoError(t, f.categories.Delete(ctx, cat.ID))

	// Deleted category's effects are reversed; the kept one's remain.
	assert.Equal(t, int64(-10), f.balance(t, a.ID))
	assert.Equal(t, int64(0), f.balance(t, b.ID))

	ops, err := f.repo.ListOperationsByCategory(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestAccountDeleteCascadesWithoutReversal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 1000})
	require.NoError(t, err)
	b, err := f.accounts.Create(ctx, "B", core.Money{Cents: 0})
	require.NoError(t, err)
	_, err = f.transfers.Create(ctx, core.Transfer{
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		Amount:        core.Money{Cents: 400},
		Date:          testDate,
	})
	require.NoError(t, err)
	require.Equal(t, int64(400), f.balance(t, b.ID))

	// Deleting A removes the transfer record but leaves B's balance as-is:
	// the money B received is history, not an open effect.
	require.NoError(t, f.accounts.Delete(ctx, a.ID))
	assert.Equal(t, int64(400), f.balance(t, b.ID))

	entries, err := f.repo.ListTransfers(ctx, b.ID, testDate.AddDate(0, 0, -1), testDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// The ledger invariant: every account's balance equals its initial balance
// plus the sum of signed effects of all entries referencing it. Exercised
// here over a mixed sequence of creates, updates and deletes.
func TestBalanceMatchesJournalAfterMixedEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 5000})
	require.NoError(t, err)
	b, err := f.accounts.Create(ctx, "B", core.Money{Cents: 0})
	require.NoError(t, err)
	expense, err := f.categories.Create(ctx, "Out", core.Expense)
	require.NoError(t, err)
	income, err := f.categories.Create(ctx, "In", core.Income)
	require.NoError(t, err)

	op1, err := f.operations.Create(ctx, core.Operation{
		CategoryID: expense.ID, AccountID: a.ID,
		Amount: core.Money{Cents: 700}, Date: testDate,
	})
	require.NoError(t, err)
	_, err = f.operations.Create(ctx, core.Operation{
		CategoryID: income.ID, AccountID: b.ID,
		Amount: core.Money{Cents: 900}, Date: testDate,
	})
	require.NoError(t, err)
	tr, err := f.transfers.Create(ctx, core.Transfer{
		FromAccountID: a.ID, ToAccountID: b.ID,
		Amount: core.Money{Cents: 1000}, Date: testDate,
	})
	require.NoError(t, err)

	op1.Amount = core.Money{Cents: 300}
	_, err = f.operations.Update(ctx, op1)
	require.NoError(t, err)

	tr.Amount = core.Money{Cents: 250}
	_, err = f.transfers.Update(ctx, tr)
	require.NoError(t, err)

	// A: 5000 - 300 (expense after update) - 250 (transfer after update)
	// B: 0 + 900 (income) + 250 (transfer)
	assert.Equal(t, int64(4450), f.balance(t, a.ID))
	assert.Equal(t, int64(1150), f.balance(t, b.ID))

	require.NoError(t, f.operations.Delete(ctx, op1.ID))
	require.NoError(t, f.transfers.Delete(ctx, tr.ID))
	assert.Equal(t, int64(5000), f.balance(t, a.ID))
	assert.Equal(t, int64(900), f.balance(t, b.ID))
}

func TestValidationRejectedBeforeMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.accounts.Create(ctx, "A", core.Money{Cents: 100})
	require.NoError(t, err)
	cat, err := f.categories.Create(ctx, "Food", core.Expense)
	require.NoError(t, err)

	cases := []core.Operation{
		{CategoryID: cat.ID, AccountID: a.ID, Amount: core.Money{Cents: 0}, Date: testDate},
		{CategoryID: cat.ID, AccountID: a.ID, Amount: core.Money{Cents: -5}, Date: testDate},
		{CategoryID: cat.ID, AccountID: a.ID, Amount: core.Money{Cents: 10}},
		{AccountID: a.ID, Amount: core.Money{Cents: 10}, Date: testDate},
	}
	for i, op := range cases {
		if _, err := f.operations.Create(ctx, op); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	assert.Equal(t, int64(100), f.balance(t, a.ID))

	_, err = f.transfers.Create(ctx, core.Transfer{
		FromAccountID: a.ID, ToAccountID: a.ID,
		Amount: core.Money{Cents: 10}, Date: testDate,
	})
	assert.ErrorIs(t, err, core.ErrSameAccount)
}
