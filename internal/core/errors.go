package core

import "errors"

// Validation errors: malformed input, reported before any mutation.
var (
	ErrEmptyName           = errors.New("empty name")
	ErrNameTooLong         = errors.New("name too long (max 100 characters)")
	ErrCommentTooLong      = errors.New("comment too long (max 200 characters)")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidPeriodicity  = errors.New("invalid periodicity")
	ErrSameAccount         = errors.New("transfer source and destination must differ")
	ErrMissingAccount      = errors.New("missing account reference")
	ErrMissingCategory     = errors.New("missing category reference")
	ErrMissingDate         = errors.New("missing date")
	ErrSubcategoryMismatch = errors.New("subcategory does not belong to category")
	ErrDateInPast          = errors.New("next date is in the past")
)

// Workflow errors, matched with errors.Is at the service boundary.
var (
	// ErrNotFound means a referenced entity id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStaleReference means an account referenced by a journal entry
	// vanished between load and mutation. The entry mutation is abandoned.
	ErrStaleReference = errors.New("stale account reference")

	// ErrNameTaken means a sibling with the same name already exists.
	ErrNameTaken = errors.New("name already taken")
)
