package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imagerisk/imagerisk/pkg/events"
	pkgkafka "github.com/imagerisk/imagerisk/pkg/kafka"
)

// MessageWriter is satisfied by *pkgkafka.Producer.
type MessageWriter interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// KafkaPublisher implements port.EventPublisher using Kafka. Events are keyed
// by aggregate ID so every event of one image lands on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *slog.Logger
	topic  string
}

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(writer MessageWriter, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger,
	}
}

// Publish sends domain events to Kafka.
func (p *KafkaPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	messages := make([]pkgkafka.Message, 0, len(evts))
	for _, evt := range evts {
		eventType := evt.EventType()

		payload, err := events.NewEnvelope(evt).Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
		}

		p.logger.DebugContext(ctx, "publishing event",
			slog.String("event_type", eventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(payload)),
		)

		messages = append(messages, pkgkafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: payload,
			Headers: map[string]string{
				"event_type": eventType,
			},
		})
	}

	if len(messages) == 0 {
		return nil
	}

	if err := p.writer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}

	return nil
}
