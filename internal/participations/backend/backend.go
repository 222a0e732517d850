// Package backend opens the storage and locking implementations selected by
// STORAGE_DRIVER.
package backend

import (
	"context"
	"fmt"

	"webinars/internal/participations/locker"
	mongolocker "webinars/internal/participations/locker/mongo"
	"webinars/internal/participations/repository"
	"webinars/internal/participations/repository/memory"
	mongorepo "webinars/internal/participations/repository/mongo"
	pgrepo "webinars/internal/participations/repository/postgres"
	pgmigrations "webinars/internal/participations/repository/postgres/migrations"
	"webinars/internal/participations/repository/sqlite"
	"webinars/pkg/config"
)

type Backend struct {
	Webinars       repository.WebinarRepository
	Users          repository.UserRepository
	Participations repository.ParticipationRepository
	Locker         locker.Locker
	Pinger         repository.Pinger

	close func() error
}

// Close releases resources the backend owns. Connections held by cfg.Client are
// closed by cfg.GracefulShutdown instead.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

type alwaysReady struct{}

func (alwaysReady) Ping(context.Context) error { return nil }

func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return &Backend{
			Webinars:       memory.NewWebinarRepository(),
			Users:          memory.NewUserRepository(),
			Participations: memory.NewParticipationRepository(),
			Locker:         locker.NewKeyedLocker(),
			Pinger:         alwaysReady{},
		}, nil

	case config.DriverMongo:
		if cfg.Client.Mongo == nil {
			cfg.SetMongo()
		}
		participations := mongorepo.NewParticipationRepository(cfg)
		return &Backend{
			Webinars:       mongorepo.NewWebinarRepository(cfg),
			Users:          mongorepo.NewUserRepository(cfg),
			Participations: participations,
			Locker:         mongolocker.NewLocker(cfg),
			Pinger:         participations,
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &Backend{
			Webinars:       store.Webinars(),
			Users:          store.Users(),
			Participations: store.Participations(),
			Locker:         locker.NewKeyedLocker(),
			Pinger:         store,
			close:          store.Close,
		}, nil

	case config.DriverPostgres:
		if cfg.Client.Postgres == nil {
			cfg.SetPostgres()
		}
		pool := cfg.Client.Postgres
		if err := pgmigrations.Apply(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to apply postgres migrations: %w", err)
		}
		// Waiters queue in process without a connection; the store's advisory
		// lock keeps instances sharing the database apart.
		participations := pgrepo.NewParticipationRepository(pool, cfg.LockWaitTimeout)
		return &Backend{
			Webinars:       pgrepo.NewWebinarRepository(pool),
			Users:          pgrepo.NewUserRepository(pool),
			Participations: participations,
			Locker:         locker.NewKeyedLocker(),
			Pinger:         participations,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
