// Package notify delivers alerts to the user, either immediately or at a
// scheduled time.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dompet/internal/alerts"
	applog "dompet/internal/log"
)

// Notifier delivers alerts. Implementations must be safe for concurrent use.
type Notifier interface {
	SendNow(ctx context.Context, a alerts.Alert) error
	ScheduleAt(ctx context.Context, at time.Time, a alerts.Alert) error
	CancelAll(ctx context.Context) error
}

// Sink receives alerts that are due.
type Sink interface {
	Deliver(ctx context.Context, a alerts.Alert) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, a alerts.Alert) error

func (f SinkFunc) Deliver(ctx context.Context, a alerts.Alert) error { return f(ctx, a) }

// LogSink writes every delivered alert to the logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(ctx context.Context, a alerts.Alert) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fields := applog.NewFields().WithAlert(string(a.Kind), a.Key).WithComponent(applog.ComponentNotify)
	logger.InfoContext(ctx, a.Title+": "+a.Body, fields.ToSlice()...)
	return nil
}

// LocalNotifier delivers to a Sink in-process. Scheduled alerts are held in
// timers until due or until CancelAll.
type LocalNotifier struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
}

func NewLocalNotifier(sink Sink, logger *slog.Logger) *LocalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = LogSink{Logger: logger}
	}
	return &LocalNotifier{
		sink:    sink,
		logger:  logger,
		now:     time.Now,
		pending: make(map[*time.Timer]struct{}),
	}
}

func (n *LocalNotifier) SendNow(ctx context.Context, a alerts.Alert) error {
	return n.sink.Deliver(ctx, a)
}

// ScheduleAt delivers a at the given time. A time in the past delivers
// immediately.
func (n *LocalNotifier) ScheduleAt(ctx context.Context, at time.Time, a alerts.Alert) error {
	delay := at.Sub(n.now())
	if delay <= 0 {
		return n.SendNow(ctx, a)
	}

	// Delivery happens after the request that scheduled it is gone.
	deliverCtx := context.WithoutCancel(ctx)

	n.mu.Lock()
	defer n.mu.Unlock()
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		n.mu.Lock()
		_, live := n.pending[timer]
		delete(n.pending, timer)
		n.mu.Unlock()
		if !live {
			return
		}
		if err := n.sink.Deliver(deliverCtx, a); err != nil {
			n.logger.ErrorContext(deliverCtx, "Scheduled alert delivery failed",
				applog.FieldAlertKey, a.Key, applog.FieldError, err)
		}
	})
	n.pending[timer] = struct{}{}
	return nil
}

// CancelAll drops every alert that has not been delivered yet.
func (n *LocalNotifier) CancelAll(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for t := range n.pending {
		t.Stop()
		delete(n.pending, t)
	}
	return nil
}

// Pending returns the number of scheduled alerts not yet delivered.
func (n *LocalNotifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
