package notify

import (
	"context"
	"sync"
	"time"

	"dompet/internal/alerts"
)

// Scheduled is one ScheduleAt call seen by a Recorder.
type Scheduled struct {
	At    time.Time
	Alert alerts.Alert
}

// Recorder is a Notifier that only remembers what it was asked to do.
type Recorder struct {
	mu        sync.Mutex
	sent      []alerts.Alert
	scheduled []Scheduled
	cancels   int

	// Err, when set, is returned by every call.
	Err error
}

func (r *Recorder) SendNow(_ context.Context, a alerts.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, a)
	return nil
}

func (r *Recorder) ScheduleAt(_ context.Context, at time.Time, a alerts.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.scheduled = append(r.scheduled, Scheduled{At: at, Alert: a})
	return nil
}

// CancelAll forgets every scheduled alert.
func (r *Recorder) CancelAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.scheduled = nil
	r.cancels++
	return nil
}

func (r *Recorder) Sent() []alerts.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]alerts.Alert(nil), r.sent...)
}

func (r *Recorder) Scheduled() []Scheduled {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Scheduled(nil), r.scheduled...)
}

func (r *Recorder) Cancels() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancels
}

// Reset clears everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent, r.scheduled, r.cancels = nil, nil, 0
}
