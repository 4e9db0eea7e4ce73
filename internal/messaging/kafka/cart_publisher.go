package kafka

import (
	"context"
	"errors"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// CartEventPublisher отправляет события корзины в Kafka. Ключом сообщения служит
// ключ корзины, чтобы события одной корзины шли в одну партицию.
type CartEventPublisher struct {
	producer *Producer
	topic    string
}

// NewCartEventPublisher создаёт паблишер событий корзины.
func NewCartEventPublisher(producer *Producer, topic string) *CartEventPublisher {
	if topic == "" {
		topic = TopicCartEvents
	}
	return &CartEventPublisher{producer: producer, topic: topic}
}

// Publish отправляет событие. sarama.SyncProducer не принимает контекст,
// поэтому отменённый контекст проверяется только до отправки.
func (p *CartEventPublisher) Publish(ctx context.Context, event domain.CartEvent) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka cart event publisher is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewCartEventMessage(event)
	return p.producer.PublishEvent(p.topic, event.CartKey, msg,
		sarama.RecordHeader{Key: []byte(HeaderEventType), Value: []byte(msg.EventType)},
		sarama.RecordHeader{Key: []byte(HeaderEventID), Value: []byte(msg.EventID)},
	)
}

var _ domain.CartEventPublisher = (*CartEventPublisher)(nil)
