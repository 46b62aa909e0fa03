// Package services implements the ledger edit workflows. Every mutation that
// touches a journal entry and an account balance runs inside one storage
// transaction: the reverse-then-apply sequencing the ledger depends on is
// never allowed to commit halfway.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/core"
	"moneta/internal/storage"
)

// TotalAccountName labels the virtual account that sums all real balances.
const TotalAccountName = "Total"

// AccountService manages accounts. Deleting an account cascades to its
// operations and transfers without invoking the balance mutator; the account
// is disappearing along with its history.
type AccountService struct {
	repo *storage.Repository
}

func NewAccountService(repo *storage.Repository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) Create(ctx context.Context, name string, initialBalance core.Money) (core.Account, error) {
	account := core.Account{Name: name, Balance: initialBalance}
	if err := account.Validate(); err != nil {
		return core.Account{}, fmt.Errorf("validate account: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Account{}, err
	}
	defer tx.Rollback()

	taken, err := tx.AccountNameExists(ctx, name, 0)
	if err != nil {
		return core.Account{}, err
	}
	if taken {
		return core.Account{}, fmt.Errorf("account %q: %w", name, core.ErrNameTaken)
	}

	created, err := tx.CreateAccount(ctx, name, initialBalance)
	if err != nil {
		return core.Account{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account created",
		"id", created.ID, "name", created.Name, "balance_cents", created.Balance.Cents)
	return created, nil
}

// Get returns the account, or the synthetic total account for id 0.
func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	if id == core.TotalAccountID {
		total, err := s.repo.SumBalances(ctx)
		if err != nil {
			return core.Account{}, err
		}
		return core.Account{ID: core.TotalAccountID, Name: TotalAccountName, Balance: total}, nil
	}
	return s.repo.GetAccount(ctx, id)
}

// List returns the virtual total account followed by every real account.
func (s *AccountService) List(ctx context.Context) ([]core.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	var sum int64
	for _, a := range accounts {
		sum += a.Balance.Cents
	}
	result := make([]core.Account, 0, len(accounts)+1)
	result = append(result, core.Account{
		ID:      core.TotalAccountID,
		Name:    TotalAccountName,
		Balance: core.Money{Cents: sum},
	})
	return append(result, accounts...), nil
}

func (s *AccountService) Rename(ctx context.Context, id int64, name string) error {
	account := core.Account{ID: id, Name: name}
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validate account: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	taken, err := tx.AccountNameExists(ctx, name, id)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("account %q: %w", name, core.ErrNameTaken)
	}

	if err := tx.UpdateAccountName(ctx, id, name); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the account and, through the storage cascade, every journal
// entry referencing it.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if id == core.TotalAccountID {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.DeleteAccount(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account deleted", "id", id)
	return nil
}
