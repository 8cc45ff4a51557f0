package services

import "context"

type EventType string // Тип события

const (
	BidPlaced         EventType = "bid.placed"
	BidUpdated        EventType = "bid.updated"
	BidWithdrawn      EventType = "bid.withdrawn"
	BidAccepted       EventType = "bid.accepted"
	BidRejected       EventType = "bid.rejected"
	LoadCreated       EventType = "load.created"
	LoadAssigned      EventType = "load.assigned"
	LoadStatusChanged EventType = "load.status_changed"
	LoadCancelled     EventType = "load.cancelled"
	TrackingCreated   EventType = "tracking.created"
	TrackingIssue     EventType = "tracking.issue_reported"
)

// Event описывает изменение, о котором нужно сообщить участникам.
// Recipients - идентификаторы профилей грузоотправителей и перевозчиков.
type Event struct {
	Type       EventType `json:"type"`
	Recipients []string  `json:"-"`
	Payload    any       `json:"data"`
}

// Notifier получает события после успешной фиксации транзакции.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

// MultiNotifier рассылает события нескольким получателям по порядку.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event Event) {
	for _, n := range m {
		n.Notify(ctx, event)
	}
}

func notifyAll(ctx context.Context, n Notifier, events []Event) {
	for _, event := range events {
		n.Notify(ctx, event)
	}
}
