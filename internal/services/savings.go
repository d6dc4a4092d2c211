package services

import (
	"context"
	"fmt"
	"slices"

	"dompet/internal/core"
)

// SavingsInput carries the fields of a new savings goal.
type SavingsInput struct {
	Name     string     `json:"name"`
	Target   core.Money `json:"target"`
	Current  core.Money `json:"current"`
	Deadline *core.Date `json:"deadline,omitempty"`
}

// SavingsPatch holds the fields to change; nil fields are kept.
// ClearDeadline removes the deadline.
type SavingsPatch struct {
	Name          *string     `json:"name,omitempty"`
	Target        *core.Money `json:"target,omitempty"`
	Current       *core.Money `json:"current,omitempty"`
	Deadline      *core.Date  `json:"deadline,omitempty"`
	ClearDeadline bool        `json:"clearDeadline,omitempty"`
}

// AddSavings appends a savings goal with Current clamped to the target.
func (l *Ledger) AddSavings(ctx context.Context, in SavingsInput) (core.SavingsGoal, error) {
	g := core.SavingsGoal{
		Name:      in.Name,
		Target:    in.Target,
		Current:   in.Current,
		CreatedAt: l.now(),
	}
	if in.Deadline != nil {
		d := *in.Deadline
		g.Deadline = &d
	}
	if err := g.ValidateNew(); err != nil {
		return core.SavingsGoal{}, err
	}
	g = g.Settle()
	g.ID = l.newID()

	_, err := l.commit(ctx, "add savings", true, func(s *core.AppState) (bool, error) {
		s.Savings = append(s.Savings, g)
		return true, nil
	})
	if err != nil {
		return core.SavingsGoal{}, err
	}

	l.logger.InfoContext(ctx, "Savings goal added",
		"id", g.ID, "name", g.Name, "target", g.Target.String(), "current", g.Current.String())
	return cloneGoal(g), nil
}

// EditSavings merges patch into the goal with id and re-clamps Current.
func (l *Ledger) EditSavings(ctx context.Context, id string, patch SavingsPatch) (core.SavingsGoal, bool, error) {
	var updated core.SavingsGoal
	found := false
	_, err := l.commit(ctx, "edit savings", true, func(s *core.AppState) (bool, error) {
		i := s.FindSavings(id)
		if i < 0 {
			return false, nil
		}
		found = true
		g := s.Savings[i]
		if patch.Name != nil {
			g.Name = *patch.Name
		}
		if patch.Target != nil {
			g.Target = *patch.Target
		}
		if patch.Current != nil {
			g.Current = *patch.Current
		}
		switch {
		case patch.ClearDeadline:
			g.Deadline = nil
		case patch.Deadline != nil:
			d := *patch.Deadline
			g.Deadline = &d
		}
		if err := g.Validate(); err != nil {
			return false, err
		}
		g = g.Settle()
		s.Savings[i] = g
		updated = g
		return true, nil
	})
	if err != nil {
		return core.SavingsGoal{}, false, err
	}
	if !found {
		l.notFound(ctx, "savings", id)
		return core.SavingsGoal{}, false, nil
	}
	return cloneGoal(updated), true, nil
}

// DeleteSavings removes the goal with id together with its savings
// transactions.
func (l *Ledger) DeleteSavings(ctx context.Context, id string) (bool, error) {
	found := false
	_, err := l.commit(ctx, "delete savings", true, func(s *core.AppState) (bool, error) {
		i := s.FindSavings(id)
		if i < 0 {
			return false, nil
		}
		found = true
		s.Savings = append(s.Savings[:i], s.Savings[i+1:]...)
		s.SavingsTransactions = slices.DeleteFunc(s.SavingsTransactions, func(e core.SavingsTransaction) bool {
			return e.SavingsID == id
		})
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		l.notFound(ctx, "savings", id)
	}
	return found, nil
}

// UpdateSavings adds amount to the goal's Current. A negative amount is a
// withdrawal. The result is clamped into [0, Target] and the change actually
// applied is recorded as a savings transaction.
func (l *Ledger) UpdateSavings(ctx context.Context, id string, amount core.Money) (core.SavingsGoal, bool, error) {
	if amount.IsZero() {
		return core.SavingsGoal{}, false, core.ErrInvalidAmount
	}

	var updated core.SavingsGoal
	found := false
	_, err := l.commit(ctx, "update savings", true, func(s *core.AppState) (bool, error) {
		i := s.FindSavings(id)
		if i < 0 {
			return false, nil
		}
		found = true
		g := s.Savings[i]
		before := g.Current
		g.Current = g.Current.Add(amount)
		g = g.Settle()
		updated = g

		delta := g.Current.Sub(before)
		if delta.IsZero() {
			return false, nil
		}
		entry := core.SavingsTransaction{
			ID:        l.newID(),
			SavingsID: id,
			Amount:    delta,
			Type:      core.Deposit,
			Date:      l.today(),
		}
		if delta.IsNegative() {
			entry.Type = core.Withdrawal
		}
		s.Savings[i] = g
		s.SavingsTransactions = append(s.SavingsTransactions, entry)
		return true, nil
	})
	if err != nil {
		return core.SavingsGoal{}, false, err
	}
	if !found {
		l.notFound(ctx, "savings", id)
		return core.SavingsGoal{}, false, nil
	}

	l.logger.InfoContext(ctx, "Savings updated",
		"id", id, "requested", amount.String(), "current", updated.Current.String())
	return cloneGoal(updated), true, nil
}

// MarkMilestoneNotified records the last milestone an alert was sent for.
// Observers are not notified since no user-visible data changed.
func (l *Ledger) MarkMilestoneNotified(ctx context.Context, id string, milestone int) (bool, error) {
	if !core.IsMilestone(milestone) {
		return false, fmt.Errorf("%w: %d", ErrInvalidMilestone, milestone)
	}

	found := false
	_, err := l.commit(ctx, "mark milestone", false, func(s *core.AppState) (bool, error) {
		i := s.FindSavings(id)
		if i < 0 {
			return false, nil
		}
		found = true
		if s.Savings[i].LastNotifiedMilestone == milestone {
			return false, nil
		}
		s.Savings[i].LastNotifiedMilestone = milestone
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		l.notFound(ctx, "savings", id)
	}
	return found, nil
}

func cloneGoal(g core.SavingsGoal) core.SavingsGoal {
	if g.Deadline != nil {
		d := *g.Deadline
		g.Deadline = &d
	}
	return g
}
