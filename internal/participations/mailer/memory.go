// Package mailer holds the Mailer implementations the notification dispatcher can use.
package mailer

import (
	"context"
	"sync"

	"webinars/pkg/model"
)

// InMemoryMailer records every message it is asked to send.
type InMemoryMailer struct {
	mu   sync.Mutex
	sent []model.Email
	fail error
}

func NewInMemoryMailer() *InMemoryMailer {
	return &InMemoryMailer{}
}

func (m *InMemoryMailer) Send(ctx context.Context, email model.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, email)
	return nil
}

// FailWith makes every following Send return err. Pass nil to recover.
func (m *InMemoryMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *InMemoryMailer) SentEmails() []model.Email {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Email, len(m.sent))
	copy(out, m.sent)
	return out
}
