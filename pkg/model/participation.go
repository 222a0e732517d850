package model

import "time"

// Participation records that a user holds one seat in a webinar.
// At most one exists per (UserID, WebinarID).
type Participation struct {
	ID        string    `json:"id" bson:"_id" validate:"required,uuid4"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required"`
	WebinarID string    `json:"webinar_id" bson:"webinar_id" validate:"required"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type ParticipationRequest struct {
	UserID string `json:"user_id" validate:"notblank,max=128"`
	Email  string `json:"email" validate:"omitempty,email"`
}
