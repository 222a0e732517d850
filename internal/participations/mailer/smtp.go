package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"webinars/pkg/model"
)

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" envDefault:"localhost"`
	Port     int    `env:"SMTP_PORT" envDefault:"25"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@webinars.local"`
	// Domain appended to recipients that are bare ids, such as organizer ids.
	RecipientDomain string `env:"SMTP_RECIPIENT_DOMAIN"`
}

// LoadSMTPConfig reads the SMTP settings from the environment.
func LoadSMTPConfig() (SMTPConfig, error) {
	var cfg SMTPConfig
	if err := env.Parse(&cfg); err != nil {
		return SMTPConfig{}, fmt.Errorf("parse smtp config: %w", err)
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return SMTPConfig{}, fmt.Errorf("SMTP_HOST is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return SMTPConfig{}, fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	return cfg, nil
}

// defaultSMTPTimeout bounds a delivery regardless of its context.
const defaultSMTPTimeout = 30 * time.Second

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg}
	m.send = m.deliver
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, email model.Email) error {
	to := m.resolveRecipient(email.To)
	if to == "" {
		return fmt.Errorf("recipient %q has no deliverable address", email.To)
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	body := buildMessage(m.cfg.From, to, email)

	if err := m.send(ctx, addr, auth, m.cfg.From, []string{to}, body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("failed to send email to %s: %w", to, ctxErr)
		}
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// deliver is smtp.SendMail over a connection bounded by ctx.
func (m *SMTPMailer) deliver(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	if err := conn.SetDeadline(time.Now().Add(defaultSMTPTimeout)); err != nil {
		_ = conn.Close()
		return err
	}
	// Cancelling ctx fails any pending read or write on conn.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp server does not support AUTH")
		}
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *SMTPMailer) resolveRecipient(to string) string {
	to = strings.TrimSpace(to)
	if strings.Contains(to, "@") || to == "" {
		return to
	}
	if m.cfg.RecipientDomain == "" {
		return ""
	}
	return to + "@" + m.cfg.RecipientDomain
}

func buildMessage(from, to string, email model.Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + stripCRLF(to) + "\r\n")
	b.WriteString("Subject: " + stripCRLF(email.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

func stripCRLF(s string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(s)
}
