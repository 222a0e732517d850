package mailer

import (
	"context"

	"webinars/pkg/logger"
	"webinars/pkg/model"
)

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, email model.Email) error {
	m.log.Info("Email",
		"to", email.To,
		"subject", email.Subject,
		"body", email.Body,
	)
	return nil
}
