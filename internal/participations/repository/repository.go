// Package repository defines the storage contracts consumed by the admission engine.
//
// Every backend (memory, mongo, sqlite, postgres) enforces the uniqueness of
// (user_id, webinar_id) itself and reports a violation as ErrDuplicateParticipation.
// Save is all-or-nothing: a participation is either fully visible to subsequent
// FindByWebinarID calls or not at all.
package repository

import (
	"context"
	"errors"

	"webinars/pkg/model"
)

var (
	ErrNotFound = errors.New("record not found")

	ErrDuplicateParticipation = errors.New("participation already exists for user and webinar")

	ErrCapacityExceeded = errors.New("webinar capacity exceeded")
)

type WebinarRepository interface {
	FindByID(ctx context.Context, id string) (*model.Webinar, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type ParticipationRepository interface {
	FindByWebinarID(ctx context.Context, webinarID string) ([]*model.Participation, error)
	Save(ctx context.Context, participation *model.Participation) error
}

// CapacityGuard is implemented by stores able to insert a participation only while
// the webinar still has fewer than seats participations, in a single atomic statement.
type CapacityGuard interface {
	SaveWithinCapacity(ctx context.Context, participation *model.Participation, seats int) error
}

// Transactional is implemented by stores that can run the read-check-write sequence
// inside a storage transaction.
type Transactional interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// LockingTransactional is implemented by stores that can take the per-key
// exclusion inside the transaction itself. The lock is held until the
// transaction ends and shares its connection, so a waiter never holds more
// than one storage connection.
type LockingTransactional interface {
	RunLocked(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}
