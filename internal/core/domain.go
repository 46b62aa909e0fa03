package core

import (
	"strings"
	"time"
)

const (
	Expense CategoryType = "EXPENSE"
	Income  CategoryType = "INCOME"
)

// TotalAccountID identifies the virtual account that aggregates every real
// account's balance. It is computed on read and never persisted.
const TotalAccountID int64 = 0

const maxNameLen = 100
const maxCommentLen = 200

type (
	CategoryType string

	Account struct {
		ID      int64
		Name    string
		Balance Money
	}

	Category struct {
		ID   int64
		Name string
		Type CategoryType
	}

	Subcategory struct {
		ID         int64
		Name       string
		CategoryID int64
	}

	Operation struct {
		ID            int64
		CategoryID    int64
		SubcategoryID *int64
		AccountID     int64
		Amount        Money // always positive; sign comes from the category type
		Date          time.Time
		Comment       string
	}

	Transfer struct {
		ID            int64
		FromAccountID int64
		ToAccountID   int64
		Amount        Money // always positive
		Date          time.Time
		Comment       string
	}
)

func (t CategoryType) Validate() error {
	switch t {
	case Expense, Income:
		return nil
	default:
		return ErrInvalidCategoryType
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLen {
		return ErrNameTooLong
	}
	return nil
}

func validateComment(comment string) error {
	if len(comment) > maxCommentLen {
		return ErrCommentTooLong
	}
	return nil
}

func (a Account) Validate() error {
	return validateName(a.Name)
}

// IsVirtual reports whether the account is the synthetic total account.
func (a Account) IsVirtual() bool {
	return a.ID == TotalAccountID
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	return c.Type.Validate()
}

func (s Subcategory) Validate() error {
	if err := validateName(s.Name); err != nil {
		return err
	}
	if s.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

func (o Operation) Validate() error {
	if o.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if o.AccountID <= 0 {
		return ErrMissingAccount
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if o.Date.IsZero() {
		return ErrMissingDate
	}
	return validateComment(o.Comment)
}

func (t Transfer) Validate() error {
	if t.FromAccountID <= 0 || t.ToAccountID <= 0 {
		return ErrMissingAccount
	}
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return validateComment(t.Comment)
}
