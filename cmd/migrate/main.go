package main

import (
	"context"
	"time"

	mongomigration "webinars/internal/migrations/mongo"
	pgmigrations "webinars/internal/participations/repository/postgres/migrations"
	"webinars/pkg/config"
)

const JobName = "migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "driver", cfg.StorageDriver)

	switch cfg.StorageDriver {
	case config.DriverMongo:
		cfg.SetMongo()
		if err := mongomigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
	case config.DriverPostgres:
		cfg.SetPostgres()
		if err := pgmigrations.Apply(ctx, cfg.Client.Postgres); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
	default:
		cfg.Log.Info("Nothing to migrate, schema is applied when the store opens", "driver", cfg.StorageDriver)
		return
	}

	cfg.Log.Info("Migration completed successfully")
}
