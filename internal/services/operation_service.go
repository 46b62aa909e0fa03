package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moneta/internal/core"
	"moneta/internal/storage"
)

// OperationService runs the ledger edit protocol for categorized operations.
// The effect of an operation on its account is signed by the category type:
// expenses subtract, income adds. Amounts themselves stay positive.
type OperationService struct {
	repo *storage.Repository
}

func NewOperationService(repo *storage.Repository) *OperationService {
	return &OperationService{repo: repo}
}

// checkSubcategory verifies an optional subcategory tag belongs to the
// operation's category.
func checkSubcategory(ctx context.Context, tx *storage.Tx, op core.Operation) error {
	if op.SubcategoryID == nil {
		return nil
	}
	sub, err := tx.GetSubcategory(ctx, *op.SubcategoryID)
	if err != nil {
		return err
	}
	if sub.CategoryID != op.CategoryID {
		return fmt.Errorf("subcategory %d: %w", sub.ID, core.ErrSubcategoryMismatch)
	}
	return nil
}

// Create validates the operation, persists it and applies its effect to the
// account balance, all in one transaction.
func (s *OperationService) Create(ctx context.Context, op core.Operation) (core.Operation, error) {
	if err := op.Validate(); err != nil {
		return core.Operation{}, fmt.Errorf("validate operation: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Operation{}, err
	}
	defer tx.Rollback()

	category, err := tx.GetCategory(ctx, op.CategoryID)
	if err != nil {
		return core.Operation{}, err
	}
	if err := checkSubcategory(ctx, tx, op); err != nil {
		return core.Operation{}, err
	}
	account, err := tx.GetAccount(ctx, op.AccountID)
	if err != nil {
		return core.Operation{}, err
	}

	created, err := tx.CreateOperation(ctx, op)
	if err != nil {
		return core.Operation{}, err
	}

	newBalance := core.ApplyOperation(account.Balance, op.Amount, category.Type)
	if err := tx.UpdateAccountBalance(ctx, account.ID, newBalance); err != nil {
		return core.Operation{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Operation{}, err
	}

	slog.InfoContext(ctx, "Operation created",
		"id", created.ID,
		"account_id", account.ID,
		"category", category.Name,
		"type", string(category.Type),
		"amount_cents", op.Amount.Cents)
	return created, nil
}

func (s *OperationService) Get(ctx context.Context, id int64) (core.Operation, error) {
	return s.repo.GetOperation(ctx, id)
}

// Update reverses the old effect before applying the new one. The reversal
// uses the OLD category's type and targets the OLD account; both may differ
// from the new values, and both may also be the same account, which is why
// the two steps must run in sequence against committed intermediate state.
func (s *OperationService) Update(ctx context.Context, op core.Operation) (core.Operation, error) {
	if err := op.Validate(); err != nil {
		return core.Operation{}, fmt.Errorf("validate operation: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Operation{}, err
	}
	defer tx.Rollback()

	old, err := tx.GetOperation(ctx, op.ID)
	if err != nil {
		return core.Operation{}, err
	}
	oldCategory, err := tx.GetCategory(ctx, old.CategoryID)
	if err != nil {
		return core.Operation{}, err
	}
	oldAccount, err := tx.GetAccount(ctx, old.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Operation{}, fmt.Errorf("account %d: %w", old.AccountID, core.ErrStaleReference)
		}
		return core.Operation{}, err
	}

	reversed := core.ReverseOperation(oldAccount.Balance, old.Amount, oldCategory.Type)
	if err := tx.UpdateAccountBalance(ctx, oldAccount.ID, reversed); err != nil {
		return core.Operation{}, err
	}

	newCategory, err := tx.GetCategory(ctx, op.CategoryID)
	if err != nil {
		return core.Operation{}, err
	}
	if err := checkSubcategory(ctx, tx, op); err != nil {
		return core.Operation{}, err
	}
	if err := tx.UpdateOperation(ctx, op); err != nil {
		return core.Operation{}, err
	}

	// Reload: when the account is unchanged this picks up the reversal.
	newAccount, err := tx.GetAccount(ctx, op.AccountID)
	if err != nil {
		return core.Operation{}, err
	}
	applied := core.ApplyOperation(newAccount.Balance, op.Amount, newCategory.Type)
	if err := tx.UpdateAccountBalance(ctx, newAccount.ID, applied); err != nil {
		return core.Operation{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Operation{}, err
	}

	slog.InfoContext(ctx, "Operation updated",
		"id", op.ID,
		"old_account_id", old.AccountID,
		"new_account_id", op.AccountID,
		"amount_cents", op.Amount.Cents)
	return op, nil
}

// Delete reverses the operation's effect and removes the entry.
func (s *OperationService) Delete(ctx context.Context, id int64) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	op, err := tx.GetOperation(ctx, id)
	if err != nil {
		return err
	}
	category, err := tx.GetCategory(ctx, op.CategoryID)
	if err != nil {
		return err
	}
	account, err := tx.GetAccount(ctx, op.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("account %d: %w", op.AccountID, core.ErrStaleReference)
		}
		return err
	}

	reversed := core.ReverseOperation(account.Balance, op.Amount, category.Type)
	if err := tx.UpdateAccountBalance(ctx, account.ID, reversed); err != nil {
		return err
	}
	if err := tx.DeleteOperation(ctx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Operation deleted", "id", id, "account_id", account.ID)
	return nil
}
