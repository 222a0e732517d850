// Package sqlite is the single-file storage backend. Admissions for one webinar
// are serialised in-process by locker.KeyedLocker, and SaveWithinCapacity refuses
// over-capacity inserts in one statement.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"webinars/internal/participations/repository"
	"webinars/internal/participations/repository/sqlite/migrations"
	"webinars/pkg/model"
)

type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the SQLite database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serialises writers and avoids SQLITE_BUSY_SNAPSHOT on
	// read-then-write statements under WAL.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Webinars() *WebinarRepository {
	return &WebinarRepository{db: s.db}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{db: s.db}
}

func (s *Store) Participations() *ParticipationRepository {
	return &ParticipationRepository{db: s.db}
}

type WebinarRepository struct {
	db *sql.DB
}

func (r *WebinarRepository) Create(ctx context.Context, webinar *model.Webinar) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webinars (id, title, seats, organizer_id) VALUES (?, ?, ?, ?)`,
		webinar.ID, webinar.Title, webinar.Seats, webinar.OrganizerID,
	)
	if err != nil {
		return fmt.Errorf("failed to create webinar: %w", err)
	}
	return nil
}

func (r *WebinarRepository) FindByID(ctx context.Context, id string) (*model.Webinar, error) {
	var w model.Webinar
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, seats, organizer_id FROM webinars WHERE id = ?`, id,
	).Scan(&w.ID, &w.Title, &w.Seats, &w.OrganizerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find webinar: %w", err)
	}
	return &w, nil
}

type UserRepository struct {
	db *sql.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password) VALUES (?, ?, ?)`,
		user.ID, user.Email, user.Password,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

type ParticipationRepository struct {
	db *sql.DB
}

func (r *ParticipationRepository) FindByWebinarID(ctx context.Context, webinarID string) ([]*model.Participation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, webinar_id, created_at FROM participations
		 WHERE webinar_id = ? ORDER BY created_at, rowid`, webinarID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find participations: %w", err)
	}
	defer rows.Close()

	participations := []*model.Participation{}
	for rows.Next() {
		var p model.Participation
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.WebinarID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		p.CreatedAt = fromMillis(createdAt)
		participations = append(participations, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return participations, nil
}

func (r *ParticipationRepository) Save(ctx context.Context, participation *model.Participation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO participations (id, user_id, webinar_id, created_at) VALUES (?, ?, ?, ?)`,
		participation.ID, participation.UserID, participation.WebinarID, toMillis(participation.CreatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return repository.ErrDuplicateParticipation
		}
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

func (r *ParticipationRepository) SaveWithinCapacity(ctx context.Context, participation *model.Participation, seats int) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO participations (id, user_id, webinar_id, created_at)
		 SELECT ?, ?, ?, ?
		 WHERE (SELECT COUNT(*) FROM participations WHERE webinar_id = ?) < ?`,
		participation.ID, participation.UserID, participation.WebinarID, toMillis(participation.CreatedAt),
		participation.WebinarID, seats,
	)
	if err != nil {
		if isConstraintError(err) {
			return repository.ErrDuplicateParticipation
		}
		return fmt.Errorf("failed to create participation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrCapacityExceeded
	}
	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
