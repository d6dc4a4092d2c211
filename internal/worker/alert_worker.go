package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dompet/internal/alerts"
	"dompet/internal/cache"
	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/notify"
)

const (
	dedupeCapacity = 1024

	// deadlineReminderHour is when the day-before deadline reminder fires.
	deadlineReminderHour = 9
)

// Ledger is the part of the state container the worker reads and updates.
type Ledger interface {
	State() (core.AppState, error)
	MarkMilestoneNotified(ctx context.Context, id string, milestone int) (bool, error)
}

// AlertWorker turns ledger state into notifications. Immediate alerts are
// sent through the notifier and deduplicated by key for a TTL; future
// reminders are rescheduled from scratch whenever the state changes.
type AlertWorker struct {
	ledger    Ledger
	evaluator *alerts.Evaluator
	notifier  notify.Notifier
	sent      cache.Cache[time.Time]
	caches    *cache.Manager
	logger    *slog.Logger

	mu              sync.Mutex
	pendingActivity string
	rescheduledOn   core.Date
}

func NewAlertWorker(ledger Ledger, evaluator *alerts.Evaluator, notifier notify.Notifier, dedupeTTL time.Duration, logger *slog.Logger) *AlertWorker {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(applog.FieldComponent, applog.ComponentWorker)

	sent := cache.NewLRUCache[time.Time](dedupeCapacity, dedupeTTL).WithClock(evaluator.Now)
	caches := cache.NewManager(logger)
	caches.Register(sent)

	return &AlertWorker{
		ledger:    ledger,
		evaluator: evaluator,
		notifier:  notifier,
		sent:      sent,
		caches:    caches,
		logger:    logger,
	}
}

// Dispatch evaluates the current ledger state and sends what is due.
func (w *AlertWorker) Dispatch(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.ledger.State()
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	return w.dispatch(ctx, s)
}

// Reschedule replaces every scheduled reminder based on the current state.
func (w *AlertWorker) Reschedule(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.ledger.State()
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	return w.reschedule(ctx, s)
}

// OnStateChange is a ledger observer. The state is re-read under the worker
// lock so milestones marked by a concurrent dispatch are seen.
func (w *AlertWorker) OnStateChange(ctx context.Context, _ core.AppState) {
	ctx = context.WithoutCancel(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.ledger.State()
	if err != nil {
		w.logger.WarnContext(ctx, "Skipping alert evaluation", "error", err)
		return
	}
	if err := w.dispatch(ctx, s); err != nil {
		w.logger.ErrorContext(ctx, "Alert dispatch failed", "error", err)
	}
	if err := w.reschedule(ctx, s); err != nil {
		w.logger.ErrorContext(ctx, "Reminder reschedule failed", "error", err)
	}
}

// Run dispatches on every tick until ctx is cancelled. Reminders are
// rescheduled once per day and the dedupe cache is purged in the background.
func (w *AlertWorker) Run(ctx context.Context, interval time.Duration) error {
	w.logger.InfoContext(ctx, "Alert worker started", "interval", interval)

	go w.caches.Run(ctx, interval)

	w.tick(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Alert worker stopping")
			return nil
		}
	}
}

func (w *AlertWorker) tick(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.ledger.State()
	if err != nil {
		w.logger.WarnContext(ctx, "Skipping alert evaluation", "error", err)
		return
	}
	if err := w.dispatch(ctx, s); err != nil {
		w.logger.ErrorContext(ctx, "Alert dispatch failed", "error", err)
	}
	if !w.rescheduledOn.SameDay(core.DateOf(w.evaluator.Now())) {
		if err := w.reschedule(ctx, s); err != nil {
			w.logger.ErrorContext(ctx, "Reminder reschedule failed", "error", err)
		}
	}
}

// dispatch must be called with w.mu held.
func (w *AlertWorker) dispatch(ctx context.Context, s core.AppState) error {
	var errs []error
	for _, a := range w.evaluator.Evaluate(s) {
		if a.Kind == alerts.ActivityReminder && a.Key == w.pendingActivity {
			continue
		}
		if a.Kind != alerts.SavingsMilestone {
			if _, seen := w.sent.Get(a.Key); seen {
				continue
			}
		}

		fields := applog.NewFields().WithAlert(string(a.Kind), a.Key).WithOperation(applog.OpDispatch)
		if err := w.notifier.SendNow(ctx, a); err != nil {
			w.logger.WarnContext(ctx, "Alert delivery failed", fields.WithError(err).ToSlice()...)
			errs = append(errs, fmt.Errorf("send %s: %w", a.Key, err))
			continue
		}
		w.sent.Set(a.Key, w.evaluator.Now())
		w.logger.InfoContext(ctx, "Alert sent", fields.ToSlice()...)

		if a.Kind == alerts.SavingsMilestone {
			if _, err := w.ledger.MarkMilestoneNotified(ctx, a.SubjectID, a.Milestone); err != nil {
				errs = append(errs, fmt.Errorf("mark milestone %s: %w", a.Key, err))
			}
		}
	}
	return errors.Join(errs...)
}

// reschedule must be called with w.mu held.
func (w *AlertWorker) reschedule(ctx context.Context, s core.AppState) error {
	if err := w.notifier.CancelAll(ctx); err != nil {
		return fmt.Errorf("cancel reminders: %w", err)
	}
	w.pendingActivity = ""

	now := w.evaluator.Now()
	w.rescheduledOn = core.DateOf(now)

	var errs []error
	at, activity := NextActivityReminder(s.Transactions, now)
	if err := w.notifier.ScheduleAt(ctx, at, activity); err != nil {
		errs = append(errs, fmt.Errorf("schedule %s: %w", activity.Key, err))
	} else {
		w.pendingActivity = activity.Key
	}

	for _, r := range DeadlineReminders(s.Savings, now) {
		if err := w.notifier.ScheduleAt(ctx, r.At, r.Alert); err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", r.Alert.Key, err))
		}
	}

	w.logger.DebugContext(ctx, "Reminders rescheduled",
		applog.FieldOperation, applog.OpSchedule,
		"activity_at", at,
		"errors", len(errs))
	return errors.Join(errs...)
}

// NextActivityReminder returns the next evening reminder: today at the
// window start when that is still ahead and nothing has been recorded today,
// otherwise tomorrow.
func NextActivityReminder(txs []core.Transaction, now time.Time) (time.Time, alerts.Alert) {
	y, m, d := now.Date()
	at := time.Date(y, m, d, alerts.ReminderStartHour, 0, 0, 0, now.Location())
	if !now.Before(at) || alerts.HasActivityOn(txs, core.DateOf(now)) {
		at = at.AddDate(0, 0, 1)
	}
	return at, alerts.ActivityAlert(core.DateOf(at))
}

// Reminder is an alert to deliver at a future instant.
type Reminder struct {
	At    time.Time
	Alert alerts.Alert
}

// DeadlineReminders returns a reminder at 09:00 on the day before each
// future deadline of an incomplete goal.
func DeadlineReminders(goals []core.SavingsGoal, now time.Time) []Reminder {
	var out []Reminder
	for _, g := range goals {
		if g.Deadline == nil || g.Current.Cmp(g.Target) >= 0 {
			continue
		}
		dl := g.Deadline
		at := time.Date(dl.Year(), time.Month(dl.Month()), dl.Day()-1, deadlineReminderHour, 0, 0, 0, now.Location())
		if !at.After(now) {
			continue
		}
		for _, a := range alerts.DeadlineAlerts([]core.SavingsGoal{g}, at) {
			out = append(out, Reminder{At: at, Alert: a})
		}
	}
	return out
}
