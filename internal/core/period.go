// This file implements the Strategy Pattern for budget period windows.
// Each period type has its own strategy that knows where the current
// window starts and ends.

package core

import (
	"fmt"
	"time"
)

// PeriodWindow is the strategy interface for locating the budget window that
// contains a given day.
type PeriodWindow interface {
	// Bounds returns the first day of the window and the first day after it.
	Bounds(day Date) (start, end Date)
}

// WeeklyWindow implements PeriodWindow for ISO weeks starting on Monday.
type WeeklyWindow struct{}

func (WeeklyWindow) Bounds(day Date) (Date, Date) {
	offset := (int(day.Weekday()) + 6) % 7
	start := Date{Time: day.AddDate(0, 0, -offset)}
	return start, Date{Time: start.AddDate(0, 0, 7)}
}

// MonthlyWindow implements PeriodWindow for calendar months.
type MonthlyWindow struct{}

func (MonthlyWindow) Bounds(day Date) (Date, Date) {
	start := NewDate(day.Year(), day.Month(), 1)
	return start, Date{Time: start.AddDate(0, 1, 0)}
}

var periodWindows = map[Period]PeriodWindow{
	Weekly:  WeeklyWindow{},
	Monthly: MonthlyWindow{},
}

// GetPeriodWindow returns the window strategy for a period.
func GetPeriodWindow(p Period) (PeriodWindow, error) {
	w, ok := periodWindows[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	return w, nil
}

// PeriodSpend is the spend of one budget restricted to its current window.
type PeriodSpend struct {
	BudgetID string `json:"budgetId"`
	Start    Date   `json:"start"`
	End      Date   `json:"end"`
	Spent    Money  `json:"spent"`
}

// SpentInPeriod sums the budget's category expenses dated inside the window
// containing now. It is informational and does not touch Budget.Spent.
func SpentInPeriod(txs []Transaction, b Budget, now time.Time) (PeriodSpend, error) {
	w, err := GetPeriodWindow(b.Period)
	if err != nil {
		return PeriodSpend{}, err
	}
	start, end := w.Bounds(DateOf(now))
	ps := PeriodSpend{BudgetID: b.ID, Start: start, End: end}
	for _, tx := range txs {
		if tx.Type != Expense || tx.Category != b.Category {
			continue
		}
		if tx.Date.Before(start.Time) || !tx.Date.Before(end.Time) {
			continue
		}
		ps.Spent = ps.Spent.Add(tx.Amount)
	}
	return ps, nil
}
