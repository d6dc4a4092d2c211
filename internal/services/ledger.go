package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"dompet/internal/core"
	applog "dompet/internal/log"
)

var (
	// ErrNotReady is returned by every operation before Init or after Dispose.
	ErrNotReady = errors.New("ledger not initialized")
	// ErrInvalidMilestone is returned for a milestone outside 0/25/50/75/100.
	ErrInvalidMilestone = errors.New("invalid milestone")
)

// Repository is the persistence port the Ledger depends on.
type Repository interface {
	Load(ctx context.Context) (core.AppState, error)
	Save(ctx context.Context, state core.AppState) error
	Clear(ctx context.Context) error
}

// Observer is called with a snapshot after every committed change. It runs
// outside the ledger lock and may call back into the Ledger.
type Observer func(ctx context.Context, state core.AppState)

// Ledger owns the single in-memory AppState. Operations are serialized and
// each one persists its result before it becomes visible.
type Ledger struct {
	mu        sync.Mutex
	repo      Repository
	state     core.AppState
	ready     bool
	observers []Observer

	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Ledger)

func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(l *Ledger) { l.observers = append(l.observers, o) }
}

func NewLedger(repo Repository, opts ...Option) *Ledger {
	l := &Ledger{
		repo:   repo,
		state:  core.DefaultState(),
		newID:  uuid.NewString,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(applog.FieldComponent, applog.ComponentLedger)
	return l
}

// Subscribe registers an observer after construction.
func (l *Ledger) Subscribe(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// Init loads the persisted state and makes the ledger ready. Calling it on a
// ready ledger is a no-op. A backend read error leaves the ledger
// uninitialized.
func (l *Ledger) Init(ctx context.Context) error {
	l.mu.Lock()
	if l.ready {
		l.mu.Unlock()
		return nil
	}
	state, err := l.repo.Load(ctx)
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("init ledger: %w", err)
	}
	l.state = state
	l.ready = true
	snapshot, observers := l.state.Clone(), slices.Clone(l.observers)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Ledger ready",
		"transactions", len(snapshot.Transactions),
		"budgets", len(snapshot.Budgets),
		"savings", len(snapshot.Savings))
	l.publish(ctx, observers, snapshot)
	return nil
}

// Dispose returns the ledger to the uninitialized state.
func (l *Ledger) Dispose(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready {
		l.logger.InfoContext(ctx, "Ledger disposed")
	}
	l.ready = false
	l.state = core.DefaultState()
}

// Ready reports whether Init has completed.
func (l *Ledger) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

// State returns a deep copy of the current state.
func (l *Ledger) State() (core.AppState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready {
		return core.AppState{}, ErrNotReady
	}
	return l.state.Clone(), nil
}

// RefreshData discards the in-memory state and reloads it from storage.
func (l *Ledger) RefreshData(ctx context.Context) error {
	l.mu.Lock()
	if !l.ready {
		l.mu.Unlock()
		return ErrNotReady
	}
	state, err := l.repo.Load(ctx)
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("refresh data: %w", err)
	}
	l.state = state
	snapshot, observers := l.state.Clone(), slices.Clone(l.observers)
	l.mu.Unlock()

	l.publish(ctx, observers, snapshot)
	return nil
}

// ClearAllData removes the persisted document and resets to the default state.
func (l *Ledger) ClearAllData(ctx context.Context) error {
	l.mu.Lock()
	if !l.ready {
		l.mu.Unlock()
		return ErrNotReady
	}
	if err := l.repo.Clear(ctx); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("clear all data: %w", err)
	}
	l.state = core.DefaultState()
	snapshot, observers := l.state.Clone(), slices.Clone(l.observers)
	l.mu.Unlock()

	l.logger.WarnContext(ctx, "All data cleared")
	l.publish(ctx, observers, snapshot)
	return nil
}

// commit runs fn on a copy of the state. When fn reports a change the copy is
// reconciled, saved and swapped in, then observers are notified if publish
// is set. The in-memory state is untouched when fn or Save fails.
func (l *Ledger) commit(ctx context.Context, op string, publish bool, fn func(s *core.AppState) (bool, error)) (core.AppState, error) {
	l.mu.Lock()
	if !l.ready {
		l.mu.Unlock()
		return core.AppState{}, ErrNotReady
	}

	next := l.state.Clone()
	changed, err := fn(&next)
	if err != nil {
		l.mu.Unlock()
		return core.AppState{}, err
	}
	if !changed {
		snapshot := l.state.Clone()
		l.mu.Unlock()
		return snapshot, nil
	}

	next = core.Reconcile(next)
	if err := l.repo.Save(ctx, next); err != nil {
		l.mu.Unlock()
		l.logger.ErrorContext(ctx, "Failed to persist state", applog.FieldOperation, op, applog.FieldError, err)
		return core.AppState{}, fmt.Errorf("%s: %w", op, err)
	}
	l.state = next
	snapshot, observers := next.Clone(), slices.Clone(l.observers)
	l.mu.Unlock()

	if publish {
		l.publish(ctx, observers, snapshot)
	}
	return snapshot, nil
}

func (l *Ledger) publish(ctx context.Context, observers []Observer, snapshot core.AppState) {
	for _, o := range observers {
		o(ctx, snapshot.Clone())
	}
}

func (l *Ledger) today() core.Date {
	return core.DateOf(l.now())
}

func (l *Ledger) notFound(ctx context.Context, kind, id string) {
	l.logger.WarnContext(ctx, "Record not found, nothing changed", "kind", kind, "id", id)
}
