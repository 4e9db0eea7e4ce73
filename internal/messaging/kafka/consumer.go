package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// CartEventHandler получает разобранные события корзины.
type CartEventHandler func(ctx context.Context, event *CartEventMessage) error

// Consumer читает события корзины из consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler CartEventHandler
	logger  *log.Entry
	wg      sync.WaitGroup
}

// NewConsumer создает новый Kafka consumer. fromOldest=true читает topic с начала.
func NewConsumer(brokers []string, groupID string, topics []string, fromOldest bool, handler CartEventHandler, logger *log.Entry) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	if fromOldest {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return newConsumer(group, topics, handler, logger), nil
}

func newConsumer(group sarama.ConsumerGroup, topics []string, handler CartEventHandler, logger *log.Entry) *Consumer {
	if len(topics) == 0 {
		topics = []string{TopicCartEvents}
	}
	if logger == nil {
		logger = log.WithField("component", "kafka-consumer")
	}
	return &Consumer{
		group:   group,
		topics:  topics,
		handler: handler,
		logger:  logger,
	}
}

// Start запускает чтение в фоне до отмены ctx.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			// Consume завершается при каждом rebalance, поэтому вызывается в цикле
			if err := c.group.Consume(ctx, c.topics, c); err != nil {
				c.logger.WithError(err).Error("error from consumer")
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.logger.WithError(err).Error("consumer error")
		}
	}()

	c.logger.WithField("topics", c.topics).Info("kafka consumer started")
}

// Stop закрывает группу и дожидается фоновых горутин.
func (c *Consumer) Stop() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	c.wg.Wait()
	c.logger.Info("kafka consumer stopped")
	return nil
}

// Setup вызывается при старте consumer session
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup вызывается при завершении consumer session
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim разбирает сообщения партиции и передаёт их обработчику.
// Нечитаемые сообщения пропускаются: повторное чтение их не исправит.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			fields := log.Fields{
				"topic":     message.Topic,
				"partition": message.Partition,
				"offset":    message.Offset,
			}

			event, err := ParseCartEvent(message)
			if err != nil {
				c.logger.WithError(err).WithFields(fields).Warn("skipping malformed cart event")
				session.MarkMessage(message, "")
				continue
			}

			if err := c.handler(session.Context(), event); err != nil {
				c.logger.WithError(err).WithFields(fields).Error("cart event handler failed")
				continue
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// ParseCartEvent парсит CartEventMessage из сообщения
func ParseCartEvent(message *sarama.ConsumerMessage) (*CartEventMessage, error) {
	var event CartEventMessage
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart event: %w", err)
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("cart event without type at offset %d", message.Offset)
	}
	return &event, nil
}
