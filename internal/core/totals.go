package core

// Totals are the aggregate figures derived from the transaction list.
type Totals struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
}

// CalculateTotals sums income and expense amounts. The order of txs does not
// matter. Transactions with an unknown type contribute to neither total.
func CalculateTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.TotalIncome = t.TotalIncome.Add(tx.Amount)
		case Expense:
			t.TotalExpense = t.TotalExpense.Add(tx.Amount)
		}
	}
	t.Balance = t.TotalIncome.Sub(t.TotalExpense)
	return t
}

// CategorySpent sums every expense whose category matches exactly.
func CategorySpent(txs []Transaction, category string) Money {
	var spent Money
	for _, tx := range txs {
		if tx.Type == Expense && tx.Category == category {
			spent = spent.Add(tx.Amount)
		}
	}
	return spent
}

// RecomputeBudgetSpent returns a copy of budgets with Spent recomputed from
// scratch over all transactions, regardless of the budget period.
func RecomputeBudgetSpent(txs []Transaction, budgets []Budget) []Budget {
	out := make([]Budget, len(budgets))
	for i, b := range budgets {
		b.Spent = CategorySpent(txs, b.Category)
		out[i] = b
	}
	return out
}

// Reconcile recomputes every derived field of s. It is the one
// reconciliation pass run after each structural mutation.
func Reconcile(s AppState) AppState {
	totals := CalculateTotals(s.Transactions)
	s.TotalIncome = totals.TotalIncome
	s.TotalExpense = totals.TotalExpense
	s.Balance = totals.Balance
	s.Budgets = RecomputeBudgetSpent(s.Transactions, s.Budgets)
	return s
}
