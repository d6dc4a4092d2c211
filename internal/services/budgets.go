package services

import (
	"context"

	"dompet/internal/core"
)

type BudgetInput struct {
	Category string      `json:"category"`
	Limit    core.Money  `json:"limit"`
	Period   core.Period `json:"period"`
}

// BudgetPatch holds the fields to change; nil fields are kept.
type BudgetPatch struct {
	Category *string      `json:"category,omitempty"`
	Limit    *core.Money  `json:"limit,omitempty"`
	Period   *core.Period `json:"period,omitempty"`
}

// AddBudget appends a budget. Its spent amount is reconciled against the
// existing transactions before the budget is stored.
func (l *Ledger) AddBudget(ctx context.Context, in BudgetInput) (core.Budget, error) {
	b := core.Budget{
		Category:  in.Category,
		Limit:     in.Limit,
		Period:    in.Period,
		CreatedAt: l.now(),
	}
	if b.Period == "" {
		b.Period = core.Monthly
	}
	if err := b.ValidateNew(); err != nil {
		return core.Budget{}, err
	}
	b.ID = l.newID()

	state, err := l.commit(ctx, "add budget", true, func(s *core.AppState) (bool, error) {
		s.Budgets = append(s.Budgets, b)
		return true, nil
	})
	if err != nil {
		return core.Budget{}, err
	}

	b = state.Budgets[state.FindBudget(b.ID)]
	l.logger.InfoContext(ctx, "Budget added",
		"id", b.ID, "category", b.Category, "limit", b.Limit.String(), "spent", b.Spent.String())
	return b, nil
}

// EditBudget merges patch into the budget with id and reconciles its spend.
func (l *Ledger) EditBudget(ctx context.Context, id string, patch BudgetPatch) (core.Budget, bool, error) {
	found := false
	state, err := l.commit(ctx, "edit budget", true, func(s *core.AppState) (bool, error) {
		i := s.FindBudget(id)
		if i < 0 {
			return false, nil
		}
		found = true
		b := s.Budgets[i]
		if patch.Category != nil {
			b.Category = *patch.Category
		}
		if patch.Limit != nil {
			b.Limit = *patch.Limit
		}
		if patch.Period != nil {
			b.Period = *patch.Period
		}
		if err := b.Validate(); err != nil {
			return false, err
		}
		s.Budgets[i] = b
		return true, nil
	})
	if err != nil {
		return core.Budget{}, false, err
	}
	if !found {
		l.notFound(ctx, "budget", id)
		return core.Budget{}, false, nil
	}
	return state.Budgets[state.FindBudget(id)], true, nil
}

// DeleteBudget removes the budget with id. Transactions are not touched.
func (l *Ledger) DeleteBudget(ctx context.Context, id string) (bool, error) {
	found := false
	_, err := l.commit(ctx, "delete budget", true, func(s *core.AppState) (bool, error) {
		i := s.FindBudget(id)
		if i < 0 {
			return false, nil
		}
		found = true
		s.Budgets = append(s.Budgets[:i], s.Budgets[i+1:]...)
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		l.notFound(ctx, "budget", id)
	}
	return found, nil
}
