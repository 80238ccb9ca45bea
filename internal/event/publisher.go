package event

import "context"

const (
	TypeOrderCreated       = "order.created"
	TypeOrderCancelled     = "order.cancelled"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the message emitted on order lifecycle changes.
type OrderEvent struct {
	EventType  string `json:"eventType"`
	OrderID    string `json:"orderId"`
	UserID     string `json:"userId,omitempty"`
	FromStatus string `json:"fromStatus,omitempty"`
	ToStatus   string `json:"toStatus,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// Publisher delivers order lifecycle events to interested consumers.
// Publishing is best-effort; failures must not fail the commercial
// operation that triggered the event.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, evt OrderEvent) error
	Close() error
}

// NopPublisher drops all events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(ctx context.Context, evt OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
