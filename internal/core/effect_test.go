package core

import "testing"

func TestOperationEffect(t *testing.T) {
	amount := Money{Cents: 500}
	if got := OperationEffect(amount, Expense); got.Cents != -500 {
		t.Fatalf("expense effect: expected -500, got %d", got.Cents)
	}
	if got := OperationEffect(amount, Income); got.Cents != 500 {
		t.Fatalf("income effect: expected 500, got %d", got.Cents)
	}
}

func TestApplyReverseOperationRoundTrip(t *testing.T) {
	cases := []struct {
		balance int64
		amount  int64
		typ     CategoryType
	}{
		{10000, 500, Expense},
		{10000, 500, Income},
		{0, 1, Expense},
		{-300, 250, Income},
	}
	for i, tc := range cases {
		balance := Money{Cents: tc.balance}
		amount := Money{Cents: tc.amount}

		applied := ApplyOperation(balance, amount, tc.typ)
		back := ReverseOperation(applied, amount, tc.typ)
		if back != balance {
			t.Fatalf("case %d: reverse(apply(b)) = %d, want %d", i, back.Cents, balance.Cents)
		}
	}
}

func TestApplyOperationSign(t *testing.T) {
	balance := Money{Cents: 10000}
	if got := ApplyOperation(balance, Money{Cents: 2500}, Expense); got.Cents != 7500 {
		t.Fatalf("expense: expected 7500, got %d", got.Cents)
	}
	if got := ApplyOperation(balance, Money{Cents: 2500}, Income); got.Cents != 12500 {
		t.Fatalf("income: expected 12500, got %d", got.Cents)
	}
}

func TestApplyTransfer(t *testing.T) {
	from, to := ApplyTransfer(Money{Cents: 1000}, Money{Cents: 200}, Money{Cents: 300})
	if from.Cents != 700 || to.Cents != 500 {
		t.Fatalf("expected (700, 500), got (%d, %d)", from.Cents, to.Cents)
	}
	// Balances may go negative; the ledger does not enforce overdraft limits.
	from, to = ApplyTransfer(Money{Cents: 100}, Money{Cents: 0}, Money{Cents: 300})
	if from.Cents != -200 || to.Cents != 300 {
		t.Fatalf("expected (-200, 300), got (%d, %d)", from.Cents, to.Cents)
	}
}

func TestReverseTransferRoundTrip(t *testing.T) {
	origFrom := Money{Cents: 1000}
	origTo := Money{Cents: 200}
	amount := Money{Cents: 450}

	from, to := ApplyTransfer(origFrom, origTo, amount)
	from, to = ReverseTransfer(from, to, amount)
	if from != origFrom || to != origTo {
		t.Fatalf("expected (%d, %d), got (%d, %d)",
			origFrom.Cents, origTo.Cents, from.Cents, to.Cents)
	}
}
