package testutil

import (
	"fmt"

	"github.com/google/uuid"

	"webinars/pkg/model"
)

type WebinarBuilder struct {
	webinar model.Webinar
}

func NewWebinarBuilder() *WebinarBuilder {
	id := uuid.NewString()
	return &WebinarBuilder{
		webinar: model.Webinar{
			ID:          id,
			Title:       "Test Webinar " + id[:8],
			Seats:       10,
			OrganizerID: "organizer@example.com",
		},
	}
}

func (b *WebinarBuilder) WithID(id string) *WebinarBuilder {
	b.webinar.ID = id
	return b
}

func (b *WebinarBuilder) WithTitle(title string) *WebinarBuilder {
	b.webinar.Title = title
	return b
}

func (b *WebinarBuilder) WithSeats(seats int) *WebinarBuilder {
	b.webinar.Seats = seats
	return b
}

func (b *WebinarBuilder) WithOrganizer(organizerID string) *WebinarBuilder {
	b.webinar.OrganizerID = organizerID
	return b
}

func (b *WebinarBuilder) Build() *model.Webinar {
	w := b.webinar
	return &w
}

type UserBuilder struct {
	user model.User
}

func NewUserBuilder() *UserBuilder {
	id := uuid.NewString()
	return &UserBuilder{
		user: model.User{
			ID:    id,
			Email: fmt.Sprintf("user-%s@example.com", id[:8]),
		},
	}
}

func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.user.ID = id
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

func (b *UserBuilder) Build() *model.User {
	u := b.user
	return &u
}
