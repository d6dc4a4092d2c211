package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"dompet/internal/core"
)

// Repository persists the whole AppState through a Backend. It owns the
// document format: on load every record is validated on its own and bad
// records are dropped instead of failing the load.
type Repository struct {
	backend Backend
	logger  *slog.Logger
}

func NewRepository(backend Backend, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{backend: backend, logger: logger}
}

// Load returns the persisted state, or the default state when nothing is
// stored or the document cannot be parsed. Only backend read errors are
// returned.
func (r *Repository) Load(ctx context.Context) (core.AppState, error) {
	data, err := r.backend.Load(ctx)
	if errors.Is(err, ErrNoData) {
		r.logger.InfoContext(ctx, "No persisted state found, starting empty")
		return core.DefaultState(), nil
	}
	if err != nil {
		return core.DefaultState(), fmt.Errorf("load state: %w", err)
	}

	state, stats := Decode(ctx, data, r.logger)
	r.logger.InfoContext(ctx, "State loaded",
		"transactions", len(state.Transactions),
		"budgets", len(state.Budgets),
		"savings", len(state.Savings),
		"dropped", stats.Dropped,
		"parse_failed", stats.ParseFailed)
	return state, nil
}

// Save writes the full aggregate.
func (r *Repository) Save(ctx context.Context, state core.AppState) error {
	data, err := Encode(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := r.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Clear removes the persisted document.
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// DecodeStats reports what Decode had to discard.
type DecodeStats struct {
	Dropped     int
	ParseFailed bool
}

type document struct {
	Transactions        []json.RawMessage `json:"transactions"`
	Budgets             []json.RawMessage `json:"budgets"`
	Savings             []json.RawMessage `json:"savings"`
	SavingsTransactions []json.RawMessage `json:"savingsTransactions"`
}

// Encode serializes the aggregate as the persisted JSON document.
func Encode(state core.AppState) ([]byte, error) {
	if state.Transactions == nil {
		state.Transactions = []core.Transaction{}
	}
	if state.Budgets == nil {
		state.Budgets = []core.Budget{}
	}
	if state.Savings == nil {
		state.Savings = []core.SavingsGoal{}
	}
	if state.SavingsTransactions == nil {
		state.SavingsTransactions = []core.SavingsTransaction{}
	}
	return json.Marshal(state)
}

// Decode parses a persisted document. A top-level parse failure yields the
// default state. Each array element is decoded and validated separately;
// failures and duplicate ids are dropped with one warning each. Savings goals
// are settled so Current fits the target and the milestone marker does not
// exceed the progress actually reached. Derived totals and budget spend are
// recomputed rather than trusted.
func Decode(ctx context.Context, data []byte, logger *slog.Logger) (core.AppState, DecodeStats) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats DecodeStats

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.WarnContext(ctx, "Persisted state is corrupt, falling back to empty state", "error", err)
		stats.ParseFailed = true
		return core.DefaultState(), stats
	}

	drop := func(kind string, index int, err error) {
		stats.Dropped++
		logger.WarnContext(ctx, "Dropping malformed record", "kind", kind, "index", index, "error", err)
	}

	state := core.DefaultState()
	state.Transactions = decodeRecords[core.Transaction](doc.Transactions, "transaction", func(t core.Transaction) string { return t.ID }, drop)
	state.Budgets = decodeRecords[core.Budget](doc.Budgets, "budget", func(b core.Budget) string { return b.ID }, drop)
	state.Savings = decodeRecords[core.SavingsGoal](doc.Savings, "savings", func(g core.SavingsGoal) string { return g.ID }, drop)
	entries := decodeRecords[core.SavingsTransaction](doc.SavingsTransactions, "savings_transaction", func(s core.SavingsTransaction) string { return s.ID }, drop)

	for i, e := range entries {
		if state.FindSavings(e.SavingsID) < 0 {
			drop("savings_transaction", i, fmt.Errorf("unknown savings goal %q", e.SavingsID))
			continue
		}
		state.SavingsTransactions = append(state.SavingsTransactions, e)
	}
	for i, g := range state.Savings {
		state.Savings[i] = g.Settle()
	}

	return core.Reconcile(state), stats
}

type validator interface {
	Validate() error
}

func decodeRecords[T validator](raw []json.RawMessage, kind string, id func(T) string, drop func(string, int, error)) []T {
	out := make([]T, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		var rec T
		if err := json.Unmarshal(r, &rec); err != nil {
			drop(kind, i, err)
			continue
		}
		if err := rec.Validate(); err != nil {
			drop(kind, i, err)
			continue
		}
		if _, dup := seen[id(rec)]; dup {
			drop(kind, i, fmt.Errorf("duplicate id %q", id(rec)))
			continue
		}
		seen[id(rec)] = struct{}{}
		out = append(out, rec)
	}
	return out
}
