// Package notification sends the two messages that follow a successful booking.
package notification

import (
	"context"
	"fmt"
	"time"

	"webinars/pkg/logger"
	"webinars/pkg/model"
)

type Mailer interface {
	Send(ctx context.Context, email model.Email) error
}

// Notifier is what the admission engine calls after a seat has been committed.
// It never reports failure.
type Notifier interface {
	NotifyParticipation(ctx context.Context, webinar *model.Webinar, user *model.User)
}

type Dispatcher struct {
	mailer  Mailer
	timeout time.Duration
	log     *logger.Logger
}

func NewDispatcher(mailer Mailer, timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		mailer:  mailer,
		timeout: timeout,
		log:     log,
	}
}

func OrganizerEmail(webinar *model.Webinar, user *model.User) model.Email {
	return model.Email{
		To:      webinar.OrganizerID,
		Subject: fmt.Sprintf("New participant for %s", webinar.Title),
		Body:    fmt.Sprintf("User %s has registered for your webinar.", user.Email),
	}
}

func ParticipantEmail(webinar *model.Webinar, user *model.User) model.Email {
	return model.Email{
		To:      user.Email,
		Subject: fmt.Sprintf("You are registered for %s", webinar.Title),
		Body:    fmt.Sprintf("Dear %s, you have successfully registered for the webinar: %s.", user.Email, webinar.Title),
	}
}

// NotifyParticipation sends the organizer message and then the participant
// message. Each send gets its own timeout and is detached from the caller's
// cancellation, so an aborted request does not drop the notifications.
func (d *Dispatcher) NotifyParticipation(ctx context.Context, webinar *model.Webinar, user *model.User) {
	d.send(ctx, "organizer", OrganizerEmail(webinar, user), webinar.ID)
	d.send(ctx, "participant", ParticipantEmail(webinar, user), webinar.ID)
}

func (d *Dispatcher) send(ctx context.Context, recipient string, email model.Email, webinarID string) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Mailer panicked",
				"recipient", recipient,
				"webinar_id", webinarID,
				"panic", r,
			)
		}
	}()

	if err := d.mailer.Send(sendCtx, email); err != nil {
		d.log.Error("Failed to send notification",
			"recipient", recipient,
			"to", email.To,
			"webinar_id", webinarID,
			"error", err,
		)
		return
	}

	d.log.Debug("Notification sent", "recipient", recipient, "to", email.To, "webinar_id", webinarID)
}
