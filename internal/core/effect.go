package core

// Balance mutation is pure arithmetic over balances already loaded into
// memory. Callers are responsible for persisting the results; the services
// layer runs every apply/reverse pair inside one storage transaction so the
// entry and the balance never commit separately.

// OperationEffect returns the signed delta an operation causes on its
// account: negative for expenses, positive for income.
func OperationEffect(amount Money, categoryType CategoryType) Money {
	if categoryType == Expense {
		return Money{Cents: -amount.Cents}
	}
	return amount
}

// ApplyOperation returns the account balance after the operation's effect.
func ApplyOperation(balance, amount Money, categoryType CategoryType) Money {
	return balance.Add(OperationEffect(amount, categoryType))
}

// ReverseOperation undoes a previously applied operation effect. Applying an
// effect and then reversing it returns the original balance exactly.
func ReverseOperation(balance, amount Money, categoryType CategoryType) Money {
	return balance.Sub(OperationEffect(amount, categoryType))
}

// ApplyTransfer moves amount from one balance to the other.
func ApplyTransfer(fromBalance, toBalance, amount Money) (Money, Money) {
	return fromBalance.Sub(amount), toBalance.Add(amount)
}

// ReverseTransfer is the exact negation of ApplyTransfer, applied in the
// same (from, to) order.
func ReverseTransfer(fromBalance, toBalance, amount Money) (Money, Money) {
	return fromBalance.Add(amount), toBalance.Sub(amount)
}
