package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dompet/internal/alerts"
	"dompet/internal/notify"
)

// MessageKind tells the consumer which Notifier call to make.
type MessageKind string

const (
	KindSend      MessageKind = "send"
	KindSchedule  MessageKind = "schedule"
	KindCancelAll MessageKind = "cancel_all"
)

// AlertMessage carries one Notifier call over the queue. Cancel requests
// travel in the same queue as alerts so they stay ordered.
type AlertMessage struct {
	Kind      MessageKind   `json:"kind"`
	Alert     *alerts.Alert `json:"alert,omitempty"`
	DeliverAt *time.Time    `json:"deliverAt,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewSendMessage(a alerts.Alert) *AlertMessage {
	return &AlertMessage{Kind: KindSend, Alert: &a, Timestamp: time.Now()}
}

func NewScheduleMessage(at time.Time, a alerts.Alert) *AlertMessage {
	return &AlertMessage{Kind: KindSchedule, Alert: &a, DeliverAt: &at, Timestamp: time.Now()}
}

func NewCancelAllMessage() *AlertMessage {
	return &AlertMessage{Kind: KindCancelAll, Timestamp: time.Now()}
}

// Validate checks that the fields required by Kind are present.
func (m *AlertMessage) Validate() error {
	switch m.Kind {
	case KindSend:
		if m.Alert == nil {
			return errors.New("send message without alert")
		}
	case KindSchedule:
		if m.Alert == nil || m.DeliverAt == nil {
			return errors.New("schedule message needs alert and deliverAt")
		}
	case KindCancelAll:
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return nil
}

// Apply performs the call the message describes on n.
func (m *AlertMessage) Apply(ctx context.Context, n notify.Notifier) error {
	if err := m.Validate(); err != nil {
		return err
	}
	switch m.Kind {
	case KindSend:
		return n.SendNow(ctx, *m.Alert)
	case KindSchedule:
		return n.ScheduleAt(ctx, *m.DeliverAt, *m.Alert)
	default:
		return n.CancelAll(ctx)
	}
}

// ToJSON converts the message to JSON bytes
func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON decodes and validates a message.
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
