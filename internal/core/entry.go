package core

import "time"

const (
	EntryOperation EntryKind = "operation"
	EntryTransfer  EntryKind = "transfer"
)

type EntryKind string

// Entry is the tagged union of the two journal entry kinds. Operations and
// transfers stay distinct types everywhere else; they are unified only at
// the aggregation boundary.
type Entry struct {
	Kind      EntryKind
	Operation *Operation
	Transfer  *Transfer
}

func NewOperationEntry(op Operation) Entry {
	return Entry{Kind: EntryOperation, Operation: &op}
}

func NewTransferEntry(tr Transfer) Entry {
	return Entry{Kind: EntryTransfer, Transfer: &tr}
}

// Date returns the entry's journal date regardless of kind.
func (e Entry) Date() time.Time {
	if e.Kind == EntryTransfer {
		return e.Transfer.Date
	}
	return e.Operation.Date
}

// Amount returns the entry's positive amount regardless of kind.
func (e Entry) Amount() Money {
	if e.Kind == EntryTransfer {
		return e.Transfer.Amount
	}
	return e.Operation.Amount
}

// Touches reports whether the entry references the given account.
func (e Entry) Touches(accountID int64) bool {
	switch e.Kind {
	case EntryTransfer:
		return e.Transfer.FromAccountID == accountID || e.Transfer.ToAccountID == accountID
	default:
		return e.Operation.AccountID == accountID
	}
}
