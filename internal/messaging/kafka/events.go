package kafka

import (
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// TopicCartEvents — topic по умолчанию для событий корзины.
const TopicCartEvents = "cart.events"

// Kafka headers событий корзины
const (
	HeaderEventType = "x-event-type"
	HeaderEventID   = "x-event-id"
)

// CartEventMessage — JSON-представление события корзины в Kafka.
type CartEventMessage struct {
	EventID    string               `json:"event_id"`
	EventType  domain.CartEventType `json:"event_type"`
	CartKey    string               `json:"cart_key"`
	ProductID  int64                `json:"product_id"`
	Amount     int                  `json:"amount"`
	CartItems  int                  `json:"cart_items"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// NewCartEventMessage присваивает событию уникальный идентификатор.
func NewCartEventMessage(event domain.CartEvent) *CartEventMessage {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return &CartEventMessage{
		EventID:    uuid.NewString(),
		EventType:  event.Type,
		CartKey:    event.CartKey,
		ProductID:  event.ProductID,
		Amount:     event.Amount,
		CartItems:  event.CartItems,
		OccurredAt: occurredAt,
	}
}

// Event возвращает доменное событие.
func (m *CartEventMessage) Event() domain.CartEvent {
	return domain.CartEvent{
		Type:       m.EventType,
		CartKey:    m.CartKey,
		ProductID:  m.ProductID,
		Amount:     m.Amount,
		CartItems:  m.CartItems,
		OccurredAt: m.OccurredAt,
	}
}
