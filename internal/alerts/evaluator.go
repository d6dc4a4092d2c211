// Package alerts decides which notifications the current ledger state calls
// for. Every check is a pure function of the state and the current time.
package alerts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

type Kind string

const (
	BudgetWarning    Kind = "budget_warning"
	BudgetExceeded   Kind = "budget_exceeded"
	SavingsMilestone Kind = "savings_milestone"
	SavingsDeadline  Kind = "savings_deadline"
	ActivityReminder Kind = "activity_reminder"
)

const (
	// WarningPercent and ExceededPercent bound budget utilization alerts.
	WarningPercent  = 80
	ExceededPercent = 100

	// DeadlineWindowDays is how far ahead deadline reminders look.
	DeadlineWindowDays = 7

	// ReminderStartHour and ReminderEndHour delimit the evening window
	// [start, end) for the activity reminder.
	ReminderStartHour = 19
	ReminderEndHour   = 22
)

// Alert is one notification the user should receive. Key identifies the
// condition so repeated evaluations can be deduplicated.
type Alert struct {
	Kind      Kind              `json:"kind"`
	Key       string            `json:"key"`
	SubjectID string            `json:"subjectId,omitempty"`
	Milestone int               `json:"milestone,omitempty"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (local time when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location != nil {
		return time.Now().In(c.Location)
	}
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Evaluator binds the checks to a Clock.
type Evaluator struct {
	clock Clock
}

func NewEvaluator(clock Clock) *Evaluator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Evaluator{clock: clock}
}

// Now returns the evaluator's current time.
func (e *Evaluator) Now() time.Time { return e.clock.Now() }

func (e *Evaluator) CheckBudgets(s core.AppState) []Alert {
	return BudgetAlerts(s.Budgets)
}

func (e *Evaluator) CheckSavingsMilestones(s core.AppState) []Alert {
	return MilestoneAlerts(s.Savings)
}

func (e *Evaluator) CheckDeadlines(s core.AppState) []Alert {
	return DeadlineAlerts(s.Savings, e.clock.Now())
}

func (e *Evaluator) CheckActivity(s core.AppState) []Alert {
	return ActivityAlerts(s.Transactions, e.clock.Now())
}

// Evaluate runs every check in order: budgets, milestones, deadlines,
// activity.
func (e *Evaluator) Evaluate(s core.AppState) []Alert {
	return EvaluateAt(s, e.clock.Now())
}

// EvaluateAt is Evaluate for an explicit instant.
func EvaluateAt(s core.AppState, now time.Time) []Alert {
	var out []Alert
	out = append(out, BudgetAlerts(s.Budgets)...)
	out = append(out, MilestoneAlerts(s.Savings)...)
	out = append(out, DeadlineAlerts(s.Savings, now)...)
	out = append(out, ActivityAlerts(s.Transactions, now)...)
	return out
}

// BudgetAlerts warns at [80%, 100%) utilization and reports an overrun at
// 100% and above. Budgets without a positive limit are skipped.
func BudgetAlerts(budgets []core.Budget) []Alert {
	var out []Alert
	warn, exceeded := decimal.NewFromInt(WarningPercent), decimal.NewFromInt(ExceededPercent)
	for _, b := range budgets {
		if !b.Limit.IsPositive() {
			continue
		}
		pct := core.BudgetUtilization(b)
		data := map[string]string{
			"budgetId": b.ID,
			"category": b.Category,
			"spent":    b.Spent.String(),
			"limit":    b.Limit.String(),
			"percent":  pct.Floor().String(),
		}
		switch {
		case pct.GreaterThanOrEqual(exceeded):
			out = append(out, Alert{
				Kind:      BudgetExceeded,
				Key:       fmt.Sprintf("%s:%s", BudgetExceeded, b.ID),
				SubjectID: b.ID,
				Title:     "Budget exceeded",
				Body:      fmt.Sprintf("You have spent %s of your %s budget for %s.", b.Spent, b.Limit, b.Category),
				Data:      data,
			})
		case pct.GreaterThanOrEqual(warn):
			out = append(out, Alert{
				Kind:      BudgetWarning,
				Key:       fmt.Sprintf("%s:%s", BudgetWarning, b.ID),
				SubjectID: b.ID,
				Title:     "Budget almost used up",
				Body:      fmt.Sprintf("%s%% of your %s budget is spent.", pct.Floor(), b.Category),
				Data:      data,
			})
		}
	}
	return out
}

// MilestoneAlerts reports the highest milestone a goal has reached when it
// is above the goal's last notified milestone.
func MilestoneAlerts(goals []core.SavingsGoal) []Alert {
	var out []Alert
	for _, g := range goals {
		reached := core.ReachedMilestone(core.SavingsProgress(g))
		if reached == 0 || reached <= g.LastNotifiedMilestone {
			continue
		}
		body := fmt.Sprintf("%s is %d%% funded.", g.Name, reached)
		if reached == 100 {
			body = fmt.Sprintf("%s is fully funded.", g.Name)
		}
		out = append(out, Alert{
			Kind:      SavingsMilestone,
			Key:       fmt.Sprintf("%s:%s:%d", SavingsMilestone, g.ID, reached),
			SubjectID: g.ID,
			Milestone: reached,
			Title:     "Savings milestone reached",
			Body:      body,
			Data: map[string]string{
				"savingsId": g.ID,
				"name":      g.Name,
				"milestone": fmt.Sprint(reached),
			},
		})
	}
	return out
}

// DeadlineAlerts reminds about incomplete goals whose deadline falls within
// the next DeadlineWindowDays days, today included.
func DeadlineAlerts(goals []core.SavingsGoal, now time.Time) []Alert {
	var out []Alert
	today := core.DateOf(now)
	for _, g := range goals {
		if g.Deadline == nil || g.Current.Cmp(g.Target) >= 0 {
			continue
		}
		days := today.DaysUntil(*g.Deadline)
		if days < 0 || days > DeadlineWindowDays {
			continue
		}
		remaining := g.Target.Sub(g.Current)
		body := fmt.Sprintf("%d days left to save %s for %s.", days, remaining, g.Name)
		if days == 0 {
			body = fmt.Sprintf("%s is due today, %s still to go.", g.Name, remaining)
		}
		out = append(out, Alert{
			Kind:      SavingsDeadline,
			Key:       fmt.Sprintf("%s:%s:%s", SavingsDeadline, g.ID, g.Deadline),
			SubjectID: g.ID,
			Title:     "Savings deadline approaching",
			Body:      body,
			Data: map[string]string{
				"savingsId": g.ID,
				"deadline":  g.Deadline.String(),
				"daysLeft":  fmt.Sprint(days),
				"remaining": remaining.String(),
			},
		})
	}
	return out
}

// ActivityAlerts nudges the user in the evening when nothing has been
// recorded for today.
func ActivityAlerts(txs []core.Transaction, now time.Time) []Alert {
	if h := now.Hour(); h < ReminderStartHour || h >= ReminderEndHour {
		return nil
	}
	today := core.DateOf(now)
	if HasActivityOn(txs, today) {
		return nil
	}
	return []Alert{ActivityAlert(today)}
}

// HasActivityOn reports whether any transaction is dated on day.
func HasActivityOn(txs []core.Transaction, day core.Date) bool {
	for _, tx := range txs {
		if tx.Date.SameDay(day) {
			return true
		}
	}
	return false
}

// ActivityAlert builds the reminder for day.
func ActivityAlert(day core.Date) Alert {
	return Alert{
		Kind:  ActivityReminder,
		Key:   fmt.Sprintf("%s:%s", ActivityReminder, day),
		Title: "Don't forget today's spending",
		Body:  "You haven't recorded any transactions today.",
		Data:  map[string]string{"date": day.String()},
	}
}
