package mailer

import (
	"context"
	"fmt"

	"webinars/pkg/kafka"
	"webinars/pkg/middleware"
	"webinars/pkg/model"
)

const (
	EventTypeEmailRequested = "email.requested"
	emailSchemaVersion      = "1"
)

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaMailer hands messages to the notifier relay through a Kafka topic.
// Messages for one recipient share a partition.
type KafkaMailer struct {
	publisher Publisher
	source    string
}

func NewKafkaMailer(publisher Publisher, source string) *KafkaMailer {
	return &KafkaMailer{publisher: publisher, source: source}
}

func (m *KafkaMailer) Send(ctx context.Context, email model.Email) error {
	msg, err := kafka.NewMessage().
		WithKey(email.To).
		WithValue(email).
		WithEventType(EventTypeEmailRequested).
		WithSchemaVersion(emailSchemaVersion).
		WithSource(m.source).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		Build()
	if err != nil {
		return err
	}

	if err := m.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish email to %s: %w", email.To, err)
	}
	return nil
}
