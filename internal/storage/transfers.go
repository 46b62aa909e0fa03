package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneta/internal/core"
)

func (q *queries) CreateTransfer(ctx context.Context, tr core.Transfer) (core.Transfer, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO transfers (from_account_id, to_account_id, amount_cents, date, comment)
		 VALUES (?, ?, ?, ?, ?)`,
		tr.FromAccountID, tr.ToAccountID, tr.Amount.Cents, toUnix(tr.Date), tr.Comment)
	if err != nil {
		return core.Transfer{}, fmt.Errorf("insert transfer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transfer{}, fmt.Errorf("transfer insert id: %w", err)
	}

	tr.ID = id
	q.record(Change{Entity: EntityTransfer, Op: OpCreated, ID: id})
	return tr, nil
}

func (q *queries) GetTransfer(ctx context.Context, id int64) (core.Transfer, error) {
	var tr core.Transfer
	var date int64
	err := q.db.QueryRowContext(ctx,
		`SELECT id, from_account_id, to_account_id, amount_cents, date, comment
		 FROM transfers WHERE id = ?`, id).
		Scan(&tr.ID, &tr.FromAccountID, &tr.ToAccountID, &tr.Amount.Cents, &date, &tr.Comment)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transfer{}, fmt.Errorf("transfer %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transfer{}, fmt.Errorf("get transfer: %w", err)
	}
	tr.Date = fromUnix(date)
	return tr, nil
}

// ListTransfers returns transfers in [from, to] inclusive, newest first.
// accountID 0 (the virtual total account) selects every transfer; otherwise
// transfers touching the account on either side are returned.
func (q *queries) ListTransfers(ctx context.Context, accountID int64, from, to time.Time) ([]core.Transfer, error) {
	query := `SELECT id, from_account_id, to_account_id, amount_cents, date, comment
		 FROM transfers WHERE date >= ? AND date <= ?`
	args := []any{toUnix(from), toUnix(to)}
	if accountID != core.TotalAccountID {
		query += ` AND (from_account_id = ? OR to_account_id = ?)`
		args = append(args, accountID, accountID)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []core.Transfer
	for rows.Next() {
		var tr core.Transfer
		var date int64
		if err := rows.Scan(&tr.ID, &tr.FromAccountID, &tr.ToAccountID,
			&tr.Amount.Cents, &date, &tr.Comment); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		tr.Date = fromUnix(date)
		transfers = append(transfers, tr)
	}
	return transfers, rows.Err()
}

func (q *queries) UpdateTransfer(ctx context.Context, tr core.Transfer) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transfers
		 SET from_account_id = ?, to_account_id = ?, amount_cents = ?, date = ?, comment = ?
		 WHERE id = ?`,
		tr.FromAccountID, tr.ToAccountID, tr.Amount.Cents, toUnix(tr.Date), tr.Comment, tr.ID)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transfer %d: %w", tr.ID, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityTransfer, Op: OpUpdated, ID: tr.ID})
	return nil
}

func (q *queries) DeleteTransfer(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transfer %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityTransfer, Op: OpDeleted, ID: id})
	return nil
}
