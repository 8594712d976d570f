package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/user/tenant-guard/internal/domain"
)

// KafkaPublisher is an AuditStore backend that publishes security
// events to a Kafka topic instead of (or alongside) a relational table.
// Deployments with a central SIEM pipeline consume the topic directly.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger.With("component", "audit_kafka"),
	}
}

// Append publishes a single event. Events for the same tenant share a
// key so a consumer sees them in order.
func (p *KafkaPublisher) Append(ctx context.Context, event domain.SecurityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}

	var key []byte
	if event.TenantID != nil {
		key = []byte(event.TenantID.String())
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload}); err != nil {
		return fmt.Errorf("publish security event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
