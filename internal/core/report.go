package core

const (
	// Operation buckets carry the category they were grouped under.
	GroupExpense OperationType = "EXPENSE"
	GroupIncome  OperationType = "INCOME"

	// Transfer buckets are synthetic pseudo-categories. Direction is
	// relative to the account being viewed; the total account sees a
	// single undirected bucket.
	GroupOutcomeTransfer OperationType = "OUTCOME_TRANSFER"
	GroupIncomeTransfer  OperationType = "INCOME_TRANSFER"
	GroupTransfer        OperationType = "TRANSFER"
)

type OperationType string

// GroupedCategory is a read-model row summarizing the total amount per
// category (or transfer direction) over a period. Totals are always
// non-negative; the sign is carried by Type.
type GroupedCategory struct {
	Type         OperationType
	CategoryName string
	CategoryID   *int64 // nil for transfer buckets
	Total        Money
}

// MonthTotals holds the expense and income operation sums for one calendar
// month. A monthly series always contains twelve of these, zero-filled for
// months without activity, so charts render at a fixed width.
type MonthTotals struct {
	Year    int
	Month   int // 1-12
	Expense Money
	Income  Money
}
