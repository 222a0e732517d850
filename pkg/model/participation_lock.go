package model

import "time"

// ParticipationLock is an advisory lock document serialising admissions for one webinar
// across service instances. Documents past ExpiresAt are reaped by a TTL index.
type ParticipationLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
