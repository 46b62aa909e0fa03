package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/core"
	"moneta/internal/storage"
)

// CategoryService manages the category taxonomy. Names collide within a
// category type; subcategory names collide within their parent category.
type CategoryService struct {
	repo *storage.Repository
}

func NewCategoryService(repo *storage.Repository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) Create(ctx context.Context, name string, typ core.CategoryType) (core.Category, error) {
	category := core.Category{Name: name, Type: typ}
	if err := category.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validate category: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Category{}, err
	}
	defer tx.Rollback()

	taken, err := tx.CategoryNameExists(ctx, name, typ, 0)
	if err != nil {
		return core.Category{}, err
	}
	if taken {
		return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrNameTaken)
	}

	created, err := tx.CreateCategory(ctx, name, typ)
	if err != nil {
		return core.Category{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Category{}, err
	}
	return created, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CategoryService) Rename(ctx context.Context, id int64, name string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	category, err := tx.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	category.Name = name
	if err := category.Validate(); err != nil {
		return fmt.Errorf("validate category: %w", err)
	}

	taken, err := tx.CategoryNameExists(ctx, name, category.Type, id)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("category %q: %w", name, core.ErrNameTaken)
	}

	if err := tx.UpdateCategoryName(ctx, id, name); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a category together with its subcategories and operations.
// Unlike an account delete, the referenced accounts survive, so every
// operation's effect is reversed before the cascade removes the entries;
// otherwise balances would silently drift away from the remaining journal.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	category, err := tx.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	ops, err := tx.ListOperationsByCategory(ctx, id)
	if err != nil {
		return err
	}

	for _, op := range ops {
		account, err := tx.GetAccount(ctx, op.AccountID)
		if err != nil {
			return err
		}
		reversed := core.ReverseOperation(account.Balance, op.Amount, category.Type)
		if err := tx.UpdateAccountBalance(ctx, account.ID, reversed); err != nil {
			return err
		}
	}

	if err := tx.DeleteCategory(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted",
		"id", id, "name", category.Name, "operations_reversed", len(ops))
	return nil
}

func (s *CategoryService) CreateSubcategory(ctx context.Context, name string, categoryID int64) (core.Subcategory, error) {
	subcategory := core.Subcategory{Name: name, CategoryID: categoryID}
	if err := subcategory.Validate(); err != nil {
		return core.Subcategory{}, fmt.Errorf("validate subcategory: %w", err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return core.Subcategory{}, err
	}
	defer tx.Rollback()

	if _, err := tx.GetCategory(ctx, categoryID); err != nil {
		return core.Subcategory{}, err
	}
	taken, err := tx.SubcategoryNameExists(ctx, name, categoryID, 0)
	if err != nil {
		return core.Subcategory{}, err
	}
	if taken {
		return core.Subcategory{}, fmt.Errorf("subcategory %q: %w", name, core.ErrNameTaken)
	}

	created, err := tx.CreateSubcategory(ctx, name, categoryID)
	if err != nil {
		return core.Subcategory{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Subcategory{}, err
	}
	return created, nil
}

func (s *CategoryService) ListSubcategories(ctx context.Context, categoryID int64) ([]core.Subcategory, error) {
	return s.repo.ListSubcategories(ctx, categoryID)
}

func (s *CategoryService) RenameSubcategory(ctx context.Context, id int64, name string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	subcategory, err := tx.GetSubcategory(ctx, id)
	if err != nil {
		return err
	}
	subcategory.Name = name
	if err := subcategory.Validate(); err != nil {
		return fmt.Errorf("validate subcategory: %w", err)
	}

	taken, err := tx.SubcategoryNameExists(ctx, name, subcategory.CategoryID, id)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("subcategory %q: %w", name, core.ErrNameTaken)
	}

	if err := tx.UpdateSubcategoryName(ctx, id, name); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteSubcategory removes the tag; operations referencing it keep their
// category and lose only the subcategory (the storage layer nulls it out).
func (s *CategoryService) DeleteSubcategory(ctx context.Context, id int64) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.DeleteSubcategory(ctx, id); err != nil {
		return err
	}
	return tx.Commit()
}
