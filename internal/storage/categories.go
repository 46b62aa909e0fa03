package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneta/internal/core"
)

func (q *queries) CreateCategory(ctx context.Context, name string, typ core.CategoryType) (core.Category, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (name, type) VALUES (?, ?)`, name, string(typ))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}

	q.record(Change{Entity: EntityCategory, Op: OpCreated, ID: id})
	return core.Category{ID: id, Name: name, Type: typ}, nil
}

func (q *queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var typ string
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, type FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Type = core.CategoryType(typ)
	return c, nil
}

func (q *queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, type FROM categories ORDER BY type, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *queries) UpdateCategoryName(ctx context.Context, id int64, name string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityCategory, Op: OpUpdated, ID: id})
	return nil
}

// DeleteCategory removes a category. Foreign keys cascade the delete to its
// subcategories and operations; the caller reverses operation effects first.
func (q *queries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntityCategory, Op: OpDeleted, ID: id})
	return nil
}

// CategoryNameExists reports whether another category of the same type
// already uses the name.
func (q *queries) CategoryNameExists(ctx context.Context, name string, typ core.CategoryType, excludeID int64) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ? AND type = ? AND id != ?`,
		name, string(typ), excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return count > 0, nil
}

func (q *queries) CreateSubcategory(ctx context.Context, name string, categoryID int64) (core.Subcategory, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO subcategories (name, category_id) VALUES (?, ?)`, name, categoryID)
	if err != nil {
		return core.Subcategory{}, fmt.Errorf("insert subcategory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Subcategory{}, fmt.Errorf("subcategory insert id: %w", err)
	}

	q.record(Change{Entity: EntitySubcategory, Op: OpCreated, ID: id})
	return core.Subcategory{ID: id, Name: name, CategoryID: categoryID}, nil
}

func (q *queries) GetSubcategory(ctx context.Context, id int64) (core.Subcategory, error) {
	var s core.Subcategory
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, category_id FROM subcategories WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subcategory{}, fmt.Errorf("subcategory %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Subcategory{}, fmt.Errorf("get subcategory: %w", err)
	}
	return s, nil
}

func (q *queries) ListSubcategories(ctx context.Context, categoryID int64) ([]core.Subcategory, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, category_id FROM subcategories WHERE category_id = ? ORDER BY name`,
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	var subcategories []core.Subcategory
	for rows.Next() {
		var s core.Subcategory
		if err := rows.Scan(&s.ID, &s.Name, &s.CategoryID); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		subcategories = append(subcategories, s)
	}
	return subcategories, rows.Err()
}

func (q *queries) UpdateSubcategoryName(ctx context.Context, id int64, name string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE subcategories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update subcategory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subcategory %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntitySubcategory, Op: OpUpdated, ID: id})
	return nil
}

func (q *queries) DeleteSubcategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM subcategories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subcategory %d: %w", id, core.ErrNotFound)
	}
	q.record(Change{Entity: EntitySubcategory, Op: OpDeleted, ID: id})
	return nil
}

// SubcategoryNameExists reports whether the parent category already has a
// subcategory with the name.
func (q *queries) SubcategoryNameExists(ctx context.Context, name string, categoryID, excludeID int64) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subcategories WHERE name = ? AND category_id = ? AND id != ?`,
		name, categoryID, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check subcategory name: %w", err)
	}
	return count > 0, nil
}
