// Package memory holds in-process repositories used by tests and local runs.
package memory

import (
	"context"
	"sync"

	"webinars/internal/participations/repository"
	"webinars/pkg/model"
)

type WebinarRepository struct {
	mu       sync.RWMutex
	webinars map[string]model.Webinar
}

func NewWebinarRepository(webinars ...*model.Webinar) *WebinarRepository {
	r := &WebinarRepository{webinars: make(map[string]model.Webinar)}
	for _, w := range webinars {
		r.Create(w)
	}
	return r
}

func (r *WebinarRepository) Create(webinar *model.Webinar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webinars[webinar.ID] = *webinar
}

func (r *WebinarRepository) FindByID(ctx context.Context, id string) (*model.Webinar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.webinars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserRepository(users ...*model.User) *UserRepository {
	r := &UserRepository{users: make(map[string]model.User)}
	for _, u := range users {
		r.Create(u)
	}
	return r
}

func (r *UserRepository) Create(user *model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// ParticipationRepository keeps participations grouped by webinar in insertion order.
type ParticipationRepository struct {
	mu        sync.RWMutex
	byWebinar map[string][]model.Participation
}

func NewParticipationRepository(participations ...*model.Participation) *ParticipationRepository {
	r := &ParticipationRepository{byWebinar: make(map[string][]model.Participation)}
	for _, p := range participations {
		_ = r.Save(context.Background(), p)
	}
	return r
}

func (r *ParticipationRepository) FindByWebinarID(ctx context.Context, webinarID string) ([]*model.Participation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byWebinar[webinarID]
	result := make([]*model.Participation, 0, len(stored))
	for i := range stored {
		p := stored[i]
		result = append(result, &p)
	}
	return result, nil
}

func (r *ParticipationRepository) Save(ctx context.Context, participation *model.Participation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existsLocked(participation) {
		return repository.ErrDuplicateParticipation
	}
	r.byWebinar[participation.WebinarID] = append(r.byWebinar[participation.WebinarID], *participation)
	return nil
}

func (r *ParticipationRepository) SaveWithinCapacity(ctx context.Context, participation *model.Participation, seats int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existsLocked(participation) {
		return repository.ErrDuplicateParticipation
	}
	if len(r.byWebinar[participation.WebinarID]) >= seats {
		return repository.ErrCapacityExceeded
	}
	r.byWebinar[participation.WebinarID] = append(r.byWebinar[participation.WebinarID], *participation)
	return nil
}

// Count returns the number of participations stored for a webinar.
func (r *ParticipationRepository) Count(webinarID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byWebinar[webinarID])
}

func (r *ParticipationRepository) existsLocked(participation *model.Participation) bool {
	for _, p := range r.byWebinar[participation.WebinarID] {
		if p.UserID == participation.UserID {
			return true
		}
	}
	return false
}
