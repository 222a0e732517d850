// Package notifier delivers notification emails published by the participations
// service to their recipients.
package notifier

import (
	"context"

	"webinars/internal/participations/mailer"
	"webinars/internal/participations/notification"
	"webinars/internal/participations/validator"
	"webinars/pkg/kafka"
	"webinars/pkg/logger"
	"webinars/pkg/model"
)

type Relay struct {
	mailer    notification.Mailer
	validator *validator.ParticipationValidator
	log       *logger.Logger
}

func NewRelay(m notification.Mailer, v *validator.ParticipationValidator, log *logger.Logger) *Relay {
	return &Relay{mailer: m, validator: v, log: log}
}

// Handle is a kafka.MessageHandler. Messages that cannot be decoded or are
// incomplete are permanent failures; delivery failures are retried.
func (r *Relay) Handle(ctx context.Context, msg kafka.Message) error {
	if eventType := msg.GetEventType(); eventType != mailer.EventTypeEmailRequested {
		r.log.Warn("Skipping message with unexpected event type",
			"event_id", msg.GetEventID(),
			"event_type", eventType,
		)
		return nil
	}

	var email model.Email
	if err := msg.DecodeValue(&email); err != nil {
		return kafka.NewPermanentError("failed to decode email", err)
	}
	if err := r.validator.ValidateEmail(&email); err != nil {
		return kafka.NewPermanentError("invalid email", err)
	}

	if err := r.mailer.Send(ctx, email); err != nil {
		return kafka.NewTransientError("failed to deliver email", err)
	}

	r.log.Info("Email delivered",
		"event_id", msg.GetEventID(),
		"correlation_id", msg.GetCorrelationID(),
		"to", email.To,
	)
	return nil
}
