package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Milestones are the savings progress percentages that trigger an alert.
var Milestones = []int{25, 50, 75, 100}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Income     Money            `json:"income"`
	Expense    Money            `json:"expense"`
	Balance    Money            `json:"balance"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

// SummarizeMonth aggregates the transactions dated in year/month. Expense
// categories are sorted by amount, largest first, then by name.
func SummarizeMonth(txs []Transaction, year, month int) MonthOverview {
	ov := MonthOverview{Year: year, Month: month, ByCategory: []CategoryAmount{}}
	inMonth := make([]Transaction, 0, len(txs))
	byCat := map[string]Money{}
	for _, tx := range txs {
		if tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		inMonth = append(inMonth, tx)
		if tx.Type == Expense {
			byCat[tx.Category] = byCat[tx.Category].Add(tx.Amount)
		}
	}
	totals := CalculateTotals(inMonth)
	ov.Income, ov.Expense, ov.Balance = totals.TotalIncome, totals.TotalExpense, totals.Balance

	for name, amount := range byCat {
		ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		a, b := ov.ByCategory[i], ov.ByCategory[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})
	return ov
}

// BudgetUtilization returns Spent as a percentage of Limit.
func BudgetUtilization(b Budget) decimal.Decimal {
	return Percent(b.Spent, b.Limit)
}

// SavingsProgress returns Current as a percentage of Target.
func SavingsProgress(g SavingsGoal) decimal.Decimal {
	return Percent(g.Current, g.Target)
}

// ReachedMilestone returns the highest milestone not above progress, or 0.
func ReachedMilestone(progress decimal.Decimal) int {
	reached := 0
	for _, m := range Milestones {
		if progress.GreaterThanOrEqual(decimal.NewFromInt(int64(m))) {
			reached = m
		}
	}
	return reached
}

// IsMilestone reports whether m is zero or one of Milestones.
func IsMilestone(m int) bool {
	if m == 0 {
		return true
	}
	for _, v := range Milestones {
		if v == m {
			return true
		}
	}
	return false
}

// Settle returns g with Current clamped into [0, Target] and
// LastNotifiedMilestone lowered to the highest milestone g has actually
// reached. A marker that is not a milestone is first rounded down to one.
func (g SavingsGoal) Settle() SavingsGoal {
	g.Current = g.Current.Clamp(Money{}, g.Target)
	marker := 0
	for _, m := range Milestones {
		if m <= g.LastNotifiedMilestone {
			marker = m
		}
	}
	if reached := ReachedMilestone(SavingsProgress(g)); reached < marker {
		marker = reached
	}
	g.LastNotifiedMilestone = marker
	return g
}
