package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"webinars/internal/participations/locker"
	"webinars/internal/participations/repository"
	"webinars/pkg/model"
)

type WebinarRepository struct {
	pool *pgxpool.Pool
}

func NewWebinarRepository(pool *pgxpool.Pool) *WebinarRepository {
	return &WebinarRepository{pool: pool}
}

func (r *WebinarRepository) Create(ctx context.Context, webinar *model.Webinar) error {
	const query = `INSERT INTO webinars (id, title, seats, organizer_id) VALUES ($1, $2, $3, $4)`
	if _, err := conn(ctx, r.pool).Exec(ctx, query, webinar.ID, webinar.Title, webinar.Seats, webinar.OrganizerID); err != nil {
		return fmt.Errorf("create webinar: %w", err)
	}
	return nil
}

func (r *WebinarRepository) FindByID(ctx context.Context, id string) (*model.Webinar, error) {
	const query = `SELECT id, title, seats, organizer_id FROM webinars WHERE id = $1`
	var w model.Webinar
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&w.ID, &w.Title, &w.Seats, &w.OrganizerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get webinar: %w", err)
	}
	return &w, nil
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	const query = `INSERT INTO users (id, email, password) VALUES ($1, $2, $3)`
	if _, err := conn(ctx, r.pool).Exec(ctx, query, user.ID, user.Email, user.Password); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	const query = `SELECT id, email, password FROM users WHERE id = $1`
	var u model.User
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.Password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

type ParticipationRepository struct {
	pool     *pgxpool.Pool
	lockWait time.Duration
}

// NewParticipationRepository builds the store. lockWait bounds how long RunLocked
// waits for another transaction's webinar lock; zero waits for the caller's context.
func NewParticipationRepository(pool *pgxpool.Pool, lockWait time.Duration) *ParticipationRepository {
	return &ParticipationRepository{pool: pool, lockWait: lockWait}
}

func (r *ParticipationRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// RunLocked runs fn in a transaction holding a transaction-scoped advisory lock on
// key. The lock lives on the transaction's connection and is released on commit or
// rollback, so a waiter costs one pooled connection.
func (r *ParticipationRepository) RunLocked(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, func(ctx context.Context) error {
		tx := txFromContext(ctx)
		if r.lockWait > 0 {
			ms := strconv.FormatInt(r.lockWait.Milliseconds(), 10)
			if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, ms); err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			if isLockNotAvailable(err) {
				return fmt.Errorf("%w: webinar %s", locker.ErrLockTimeout, key)
			}
			return fmt.Errorf("acquire advisory lock: %w", err)
		}
		return fn(ctx)
	})
}

func (r *ParticipationRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *ParticipationRepository) FindByWebinarID(ctx context.Context, webinarID string) ([]*model.Participation, error) {
	const query = `
SELECT id::text, user_id, webinar_id, created_at
FROM participations
WHERE webinar_id = $1
ORDER BY created_at, id`

	rows, err := conn(ctx, r.pool).Query(ctx, query, webinarID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	participations := []*model.Participation{}
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.ID, &p.UserID, &p.WebinarID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		participations = append(participations, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	return participations, nil
}

func (r *ParticipationRepository) Save(ctx context.Context, p *model.Participation) error {
	const query = `INSERT INTO participations (id, user_id, webinar_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := conn(ctx, r.pool).Exec(ctx, query, p.ID, p.UserID, p.WebinarID, p.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateParticipation
		}
		return fmt.Errorf("insert participation: %w", err)
	}
	return nil
}

// SaveWithinCapacity inserts p only while the webinar holds fewer than seats
// participations. Under READ COMMITTED the count is only authoritative inside
// RunLocked.
func (r *ParticipationRepository) SaveWithinCapacity(ctx context.Context, p *model.Participation, seats int) error {
	const query = `
INSERT INTO participations (id, user_id, webinar_id, created_at)
SELECT $1::uuid, $2::text, $3::text, $4::timestamptz
WHERE (SELECT COUNT(*) FROM participations WHERE webinar_id = $3::text) < $5::int`

	tag, err := conn(ctx, r.pool).Exec(ctx, query, p.ID, p.UserID, p.WebinarID, p.CreatedAt, seats)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateParticipation
		}
		return fmt.Errorf("insert participation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrCapacityExceeded
	}
	return nil
}
