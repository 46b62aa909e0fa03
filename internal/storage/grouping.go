package storage

import (
	"context"
	"fmt"
	"time"

	"moneta/internal/core"
)

// CategorySum is one grouping row: the operation total for a category over a
// period. The reporting service turns these into GroupedCategory read models
// alongside the synthetic transfer buckets.
type CategorySum struct {
	CategoryID   int64
	CategoryName string
	CategoryType core.CategoryType
	Total        core.Money
}

// MonthSum is the operation total for one calendar month and category type.
type MonthSum struct {
	Year  int
	Month int
	Type  core.CategoryType
	Total core.Money
}

// SumOperationsByCategory groups operations in [from, to] inclusive by
// category. accountID 0 selects every account.
func (q *queries) SumOperationsByCategory(ctx context.Context, accountID int64, from, to time.Time) ([]CategorySum, error) {
	query := `SELECT c.id, c.name, c.type, SUM(o.amount_cents)
		 FROM operations o
		 JOIN categories c ON c.id = o.category_id
		 WHERE o.date >= ? AND o.date <= ?`
	args := []any{toUnix(from), toUnix(to)}
	if accountID != core.TotalAccountID {
		query += ` AND o.account_id = ?`
		args = append(args, accountID)
	}
	query += ` GROUP BY c.id, c.name, c.type`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum operations by category: %w", err)
	}
	defer rows.Close()

	var sums []CategorySum
	for rows.Next() {
		var s CategorySum
		var typ string
		if err := rows.Scan(&s.CategoryID, &s.CategoryName, &typ, &s.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		s.CategoryType = core.CategoryType(typ)
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

// SumTransfersOut totals transfers leaving the account in [from, to].
func (q *queries) SumTransfersOut(ctx context.Context, accountID int64, from, to time.Time) (core.Money, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transfers
		 WHERE from_account_id = ? AND date >= ? AND date <= ?`,
		accountID, toUnix(from), toUnix(to)).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum outgoing transfers: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// SumTransfersIn totals transfers arriving at the account in [from, to].
func (q *queries) SumTransfersIn(ctx context.Context, accountID int64, from, to time.Time) (core.Money, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transfers
		 WHERE to_account_id = ? AND date >= ? AND date <= ?`,
		accountID, toUnix(from), toUnix(to)).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum incoming transfers: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// SumTransfersAll totals every transfer in [from, to], each counted once,
// for the virtual total account's undirected transfer bucket.
func (q *queries) SumTransfersAll(ctx context.Context, from, to time.Time) (core.Money, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transfers
		 WHERE date >= ? AND date <= ?`,
		toUnix(from), toUnix(to)).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum all transfers: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// SumOperationsByMonth groups operation totals by calendar month and
// category type over [from, to]. Months without activity produce no row; the
// reporting service zero-fills the series.
func (q *queries) SumOperationsByMonth(ctx context.Context, accountID int64, from, to time.Time) ([]MonthSum, error) {
	query := `SELECT CAST(strftime('%Y', o.date, 'unixepoch') AS INTEGER),
			CAST(strftime('%m', o.date, 'unixepoch') AS INTEGER),
			c.type, SUM(o.amount_cents)
		 FROM operations o
		 JOIN categories c ON c.id = o.category_id
		 WHERE o.date >= ? AND o.date <= ?`
	args := []any{toUnix(from), toUnix(to)}
	if accountID != core.TotalAccountID {
		query += ` AND o.account_id = ?`
		args = append(args, accountID)
	}
	query += ` GROUP BY 1, 2, c.type`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum operations by month: %w", err)
	}
	defer rows.Close()

	var sums []MonthSum
	for rows.Next() {
		var s MonthSum
		var typ string
		if err := rows.Scan(&s.Year, &s.Month, &typ, &s.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan month sum: %w", err)
		}
		s.Type = core.CategoryType(typ)
		sums = append(sums, s)
	}
	return sums, rows.Err()
}
