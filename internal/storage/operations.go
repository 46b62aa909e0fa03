package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneta/internal/core"
)

func (q *queries) CreateOperation(ctx context.Context, op core.Operation) (core.Operation, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO operations (category_id, subcategory_id, account_id, amount_cents, date, comment)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		op.CategoryID, op.SubcategoryID, op.AccountID, op.Amount.Cents, toUnix(op.Date), op.Comment)
	if err != nil {
		return core.Operation{}, fmt.Errorf("insert operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Operation{}, fmt.Errorf("operation insert id: %w", err)
	}

	op.ID = id
	q.record(Change{Entity: EntityOperation, Op: OpCreated, ID: id})
	return op, nil
}

func (q *queries) GetOperation(ctx context.Context, id int64) (core.Operation, error) {
	var op core.Operation
	var date int64
	err := q.db.QueryRowContext(ctx,
		`SELECT id, category_id, subcategory_id, account_id, amount_cents, date, comment
		 FROM operations WHERE id = ?`, id).
		Scan(&op.ID, &op.CategoryID, &op.SubcategoryID, &op.AccountID, &op.Amount.Cents, &date, &op.Comment)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Operation{}, fmt.Errorf("operation %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Operation{}, fmt.Errorf("get operation: %w", err)
	}
	op.Date = fromUnix(date)
	return op, nil
}

// ListOperations returns operations in [from, to] inclusive, newest first.
// accountID 0 (the virtual total account) selects every account.
func (q *queries) ListOperations(ctx context.Context, accountID int64, from, to time.Time) ([]core.Operation, error) {
	query := `SELECT id, category_id, subcategory_id, account_id, amount_cents, date, comment
		 FROM operations WHERE date >= ? AND date <= ?`
	args := []any{toUnix(from), toUnix(to)}
	if accountID != core.TotalAccountID {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []core.Operation
	for rows.Next() {
		var op core.Operation
		var date int64
		if err := rows.Scan(&op.ID, &op.CategoryID, &op.SubcategoryID, &op.AccountID,
			&op.Amount.Cents, &date, &op.Comment); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Date = fromUnix(date)
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// ListOperationsByCategory returns every operation referencing the category,
// used when a category delete has to reverse their effects first.
func (q *queries) ListOperationsByCategory(ctx context.Context, categoryID int64) ([]core.Operation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, category_id, subcategory_id, account_id, amount_cents, date, comment
		 FROM operations WHERE category_id = ? ORDER BY id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list operations by category: %w", err)
	}
	defer rows.Close()

	var ops []core.Operation
	for rows.Next() {
		var op core.Operation
		var date int64
		if err := rows.Scan(&op.ID, &op.CategoryID, &op.SubcategoryID, &op.AccountID,
			&op.Amount.Cents, &date, &op.Comment); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Date = fromUnix(date)
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (q *queries) UpdateOperation(ctx context.Context, op core.Operation) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE operations
		 SET category_id = ?, subcategory_id = ?, account_id = ?, amount_cents = ?, date = ?, comment = ?
		 WHERE id = ?`,
		op.CategoryID, op.SubcategoryID, op.AccountID, op.Amount.Cents, toUnix(op.Date), op.Comment, op.ID)
	if err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("operation %d: %w", op.ID, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityOperation, Op: OpUpdated, ID: op.ID})
	return nil
}

func (q *queries) DeleteOperation(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("operation %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityOperation, Op: OpDeleted, ID: id})
	return nil
}
