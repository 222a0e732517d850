package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"webinars/internal/participations/repository/postgres/migrations"
	"webinars/pkg/client"
)

// testDBLockID serialises test packages sharing one database.
const testDBLockID int64 = 739104523

// NewPostgresPool connects to TEST_POSTGRES_DSN, skipping the test when it is unset,
// applies migrations and truncates every table.
func NewPostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := getEnv("TEST_POSTGRES_DSN", "")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	pool, err := client.NewPostgresPool(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	t.Cleanup(pool.Close)

	lockTestDB(t, pool)

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE participations, users, webinars`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return pool
}

func lockTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("failed to acquire lock conn: %v", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, testDBLockID); err != nil {
		conn.Release()
		t.Fatalf("failed to lock test database: %v", err)
	}
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, testDBLockID)
		conn.Release()
	})
}
