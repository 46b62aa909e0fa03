package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moneta/internal/core"
	"moneta/internal/storage"
)

// TransferService runs the ledger edit protocol for inter-account transfers.
// A transfer's effect is always -amount on the source and +amount on the
// destination; reversal is the exact negation applied in the same order.
type TransferService struct {
	repo *storage.Repository
}

func NewTransferService(repo *storage.Repository) *TransferService {
	return &TransferService{repo: repo}
}

func (s *TransferService) Create(ctx context.Context, tr core.Transfer) (core.Transfer, error) {
	if err := tr.Validate(); err != nil {
		return core.Transfer{}, fmt.Errorf("validate transfer: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Transfer{}, err
	}
	defer tx.Rollback()

	from, err := tx.GetAccount(ctx, tr.FromAccountID)
	if err != nil {
		return core.Transfer{}, err
	}
	to, err := tx.GetAccount(ctx, tr.ToAccountID)
	if err != nil {
		return core.Transfer{}, err
	}

	created, err := tx.CreateTransfer(ctx, tr)
	if err != nil {
		return core.Transfer{}, err
	}

	fromBalance, toBalance := core.ApplyTransfer(from.Balance, to.Balance, tr.Amount)
	if err := tx.UpdateAccountBalance(ctx, from.ID, fromBalance); err != nil {
		return core.Transfer{}, err
	}
	if err := tx.UpdateAccountBalance(ctx, to.ID, toBalance); err != nil {
		return core.Transfer{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transfer{}, err
	}

	slog.InfoContext(ctx, "Transfer created",
		"id", created.ID,
		"from_account_id", tr.FromAccountID,
		"to_account_id", tr.ToAccountID,
		"amount_cents", tr.Amount.Cents)
	return created, nil
}

func (s *TransferService) Get(ctx context.Context, id int64) (core.Transfer, error) {
	return s.repo.GetTransfer(ctx, id)
}

// reverseTransfer undoes tr's effect on its (from, to) pair, loading fresh
// balances inside the transaction.
func reverseTransfer(ctx context.Context, tx *storage.Tx, tr core.Transfer) error {
	from, err := tx.GetAccount(ctx, tr.FromAccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("account %d: %w", tr.FromAccountID, core.ErrStaleReference)
		}
		return err
	}
	to, err := tx.GetAccount(ctx, tr.ToAccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("account %d: %w", tr.ToAccountID, core.ErrStaleReference)
		}
		return err
	}

	fromBalance, toBalance := core.ReverseTransfer(from.Balance, to.Balance, tr.Amount)
	if err := tx.UpdateAccountBalance(ctx, from.ID, fromBalance); err != nil {
		return err
	}
	return tx.UpdateAccountBalance(ctx, to.ID, toBalance)
}

// Update reverses the old transfer on its old (from, to) pair, persists the
// new fields, then applies the new effect on the new pair. The pairs are not
// assumed to overlap; when they do, the fresh reads between steps see the
// intermediate balances, so the net result is still exact.
func (s *TransferService) Update(ctx context.Context, tr core.Transfer) (core.Transfer, error) {
	if err := tr.Validate(); err != nil {
		return core.Transfer{}, fmt.Errorf("validate transfer: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Transfer{}, err
	}
	defer tx.Rollback()

	old, err := tx.GetTransfer(ctx, tr.ID)
	if err != nil {
		return core.Transfer{}, err
	}
	if err := reverseTransfer(ctx, tx, old); err != nil {
		return core.Transfer{}, err
	}

	if err := tx.UpdateTransfer(ctx, tr); err != nil {
		return core.Transfer{}, err
	}

	from, err := tx.GetAccount(ctx, tr.FromAccountID)
	if err != nil {
		return core.Transfer{}, err
	}
	to, err := tx.GetAccount(ctx, tr.ToAccountID)
	if err != nil {
		return core.Transfer{}, err
	}
	fromBalance, toBalance := core.ApplyTransfer(from.Balance, to.Balance, tr.Amount)
	if err := tx.UpdateAccountBalance(ctx, from.ID, fromBalance); err != nil {
		return core.Transfer{}, err
	}
	if err := tx.UpdateAccountBalance(ctx, to.ID, toBalance); err != nil {
		return core.Transfer{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transfer{}, err
	}

	slog.InfoContext(ctx, "Transfer updated",
		"id", tr.ID,
		"from_account_id", tr.FromAccountID,
		"to_account_id", tr.ToAccountID,
		"amount_cents", tr.Amount.Cents)
	return tr, nil
}

// Delete reverses the transfer's effect on both accounts and removes it.
func (s *TransferService) Delete(ctx context.Context, id int64) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tr, err := tx.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if err := reverseTransfer(ctx, tx, tr); err != nil {
		return err
	}
	if err := tx.DeleteTransfer(ctx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transfer deleted", "id", id,
		"from_account_id", tr.FromAccountID, "to_account_id", tr.ToAccountID)
	return nil
}
