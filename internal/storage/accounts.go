package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneta/internal/core"
)

// CreateAccount inserts a new account and returns it with its assigned id.
func (q *queries) CreateAccount(ctx context.Context, name string, balance core.Money) (core.Account, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (name, balance_cents) VALUES (?, ?)`,
		name, balance.Cents)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}

	q.record(Change{Entity: EntityAccount, Op: OpCreated, ID: id})
	return core.Account{ID: id, Name: name, Balance: balance}, nil
}

func (q *queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, balance_cents FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Balance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (q *queries) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, balance_cents FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SumBalances returns the sum of every real account balance, used to compute
// the virtual total account.
func (q *queries) SumBalances(ctx context.Context) (core.Money, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance_cents), 0) FROM accounts`).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum balances: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// UpdateAccountName renames an account.
func (q *queries) UpdateAccountName(ctx context.Context, id int64, name string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityAccount, Op: OpUpdated, ID: id})
	return nil
}

// UpdateAccountBalance writes a new balance computed by the balance mutator.
func (q *queries) UpdateAccountBalance(ctx context.Context, id int64, balance core.Money) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = ? WHERE id = ?`, balance.Cents, id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityAccount, Op: OpUpdated, ID: id})
	return nil
}

// DeleteAccount removes an account. Foreign keys cascade the delete to every
// operation and transfer referencing it.
func (q *queries) DeleteAccount(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityAccount, Op: OpDeleted, ID: id})
	return nil
}

// AccountNameExists reports whether another account already uses the name.
func (q *queries) AccountNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE name = ? AND id != ?`,
		name, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check account name: %w", err)
	}
	return count > 0, nil
}
