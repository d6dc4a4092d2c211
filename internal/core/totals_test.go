package core

import (
	"testing"
)

func tx(id string, amount int64, typ TransactionType, category string) Transaction {
	return Transaction{ID: id, Amount: NewMoney(amount), Type: typ, Category: category, Date: NewDate(2025, 1, 10)}
}

func TestCalculateTotals(t *testing.T) {
	txs := []Transaction{
		tx("1", 500000, Income, "Gaji"),
		tx("2", 100000, Expense, "Makanan"),
		tx("3", 50000, Expense, "Transport"),
	}
	got := CalculateTotals(txs)
	if !got.TotalIncome.Equal(NewMoney(500000)) {
		t.Fatalf("income: %s", got.TotalIncome)
	}
	if !got.TotalExpense.Equal(NewMoney(150000)) {
		t.Fatalf("expense: %s", got.TotalExpense)
	}
	if !got.Balance.Equal(NewMoney(350000)) {
		t.Fatalf("balance: %s", got.Balance)
	}

	again := CalculateTotals(txs)
	if !again.Balance.Equal(got.Balance) || !again.TotalIncome.Equal(got.TotalIncome) || !again.TotalExpense.Equal(got.TotalExpense) {
		t.Fatalf("totals not idempotent: %+v vs %+v", got, again)
	}

	reversed := []Transaction{txs[2], txs[1], txs[0]}
	if r := CalculateTotals(reversed); !r.Balance.Equal(got.Balance) {
		t.Fatalf("totals depend on order")
	}
}

func TestCalculateTotalsEmptyAndZeroAmounts(t *testing.T) {
	got := CalculateTotals(nil)
	if !got.Balance.IsZero() || !got.TotalIncome.IsZero() || !got.TotalExpense.IsZero() {
		t.Fatalf("empty list should produce zero totals: %+v", got)
	}

	// A zero-value amount contributes nothing.
	got = CalculateTotals([]Transaction{{ID: "x", Type: Expense, Category: "c"}, tx("y", 10, Expense, "c")})
	if !got.TotalExpense.Equal(NewMoney(10)) {
		t.Fatalf("expense: %s", got.TotalExpense)
	}
}

func TestRecomputeBudgetSpent(t *testing.T) {
	txs := []Transaction{
		tx("1", 100000, Expense, "Makanan"),
		tx("2", 80000, Expense, "Makanan"),
		tx("3", 999, Income, "Makanan"),
		tx("4", 5000, Expense, "makanan"),
	}
	budgets := []Budget{
		{ID: "b1", Category: "Makanan", Limit: NewMoney(200000), Spent: NewMoney(1), Period: Monthly},
		{ID: "b2", Category: "Hiburan", Limit: NewMoney(1000), Spent: NewMoney(7), Period: Weekly},
	}
	got := RecomputeBudgetSpent(txs, budgets)
	if !got[0].Spent.Equal(NewMoney(180000)) {
		t.Fatalf("b1 spent: %s", got[0].Spent)
	}
	if !got[1].Spent.IsZero() {
		t.Fatalf("b2 spent: %s", got[1].Spent)
	}
	if !budgets[0].Spent.Equal(NewMoney(1)) {
		t.Fatalf("input budgets were mutated")
	}
}

func TestReconcile(t *testing.T) {
	s := DefaultState()
	s.Transactions = []Transaction{tx("1", 100000, Expense, "Makanan")}
	s.Budgets = []Budget{{ID: "b1", Category: "Makanan", Limit: NewMoney(200000), Period: Monthly}}
	s = Reconcile(s)
	if !s.TotalExpense.Equal(NewMoney(100000)) || !s.Balance.Equal(NewMoney(-100000)) {
		t.Fatalf("totals: expense=%s balance=%s", s.TotalExpense, s.Balance)
	}
	if !s.Budgets[0].Spent.Equal(NewMoney(100000)) {
		t.Fatalf("spent: %s", s.Budgets[0].Spent)
	}
}
