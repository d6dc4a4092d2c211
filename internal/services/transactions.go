package services

import (
	"context"

	"dompet/internal/core"
)

// TransactionInput carries the fields of a new transaction. A zero Date means
// today.
type TransactionInput struct {
	Amount      core.Money           `json:"amount"`
	Type        core.TransactionType `json:"type"`
	Category    string               `json:"category"`
	Description string               `json:"description"`
	Date        core.Date            `json:"date"`
}

// TransactionPatch holds the fields to change; nil fields are kept.
type TransactionPatch struct {
	Amount      *core.Money           `json:"amount,omitempty"`
	Type        *core.TransactionType `json:"type,omitempty"`
	Category    *string               `json:"category,omitempty"`
	Description *string               `json:"description,omitempty"`
	Date        *core.Date            `json:"date,omitempty"`
}

func (p TransactionPatch) apply(t core.Transaction) core.Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

// AddTransaction validates the input, assigns an id and puts the new
// transaction first.
func (l *Ledger) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	now := l.now()
	tx := core.Transaction{
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   &now,
	}
	if tx.Date.IsZero() {
		tx.Date = l.today()
	}
	if err := tx.ValidateNew(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = l.newID()

	_, err := l.commit(ctx, "add transaction", true, func(s *core.AppState) (bool, error) {
		s.Transactions = append([]core.Transaction{tx}, s.Transactions...)
		return true, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	l.logger.InfoContext(ctx, "Transaction added",
		"id", tx.ID, "type", tx.Type, "category", tx.Category, "amount", tx.Amount.String())
	return cloneTransaction(tx), nil
}

// EditTransaction merges patch into the transaction with id. The bool is
// false when no such transaction exists.
func (l *Ledger) EditTransaction(ctx context.Context, id string, patch TransactionPatch) (core.Transaction, bool, error) {
	var updated core.Transaction
	found := false
	_, err := l.commit(ctx, "edit transaction", true, func(s *core.AppState) (bool, error) {
		i := s.FindTransaction(id)
		if i < 0 {
			return false, nil
		}
		found = true
		merged := patch.apply(s.Transactions[i])
		if err := merged.Validate(); err != nil {
			return false, err
		}
		s.Transactions[i] = merged
		updated = merged
		return true, nil
	})
	if err != nil {
		return core.Transaction{}, false, err
	}
	if !found {
		l.notFound(ctx, "transaction", id)
		return core.Transaction{}, false, nil
	}
	return cloneTransaction(updated), true, nil
}

// DeleteTransaction removes the transaction with id. Unknown ids are a no-op.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	found := false
	_, err := l.commit(ctx, "delete transaction", true, func(s *core.AppState) (bool, error) {
		i := s.FindTransaction(id)
		if i < 0 {
			return false, nil
		}
		found = true
		s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		l.notFound(ctx, "transaction", id)
	}
	return found, nil
}

func cloneTransaction(t core.Transaction) core.Transaction {
	if t.CreatedAt != nil {
		c := *t.CreatedAt
		t.CreatedAt = &c
	}
	return t
}
