package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	participationserrors "webinars/internal/participations/errors"
	"webinars/internal/participations/locker"
	"webinars/internal/participations/mailer"
	"webinars/internal/participations/notification"
	"webinars/internal/participations/repository"
	pgrepo "webinars/internal/participations/repository/postgres"
	"webinars/internal/participations/service"
	"webinars/internal/participations/validator"
	"webinars/pkg/client"
	"webinars/pkg/config"
	"webinars/pkg/logger"
	"webinars/pkg/model"
	"webinars/test/integration/testutil"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		StorageDriver: driver,
		Log:           logger.Discard(),
		Client:        client.NewClient(),
	}
}

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), testConfig(config.DriverMemory))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	if _, ok := b.Locker.(*locker.KeyedLocker); !ok {
		t.Errorf("expected in-process locker, got %T", b.Locker)
	}
	if _, ok := b.Participations.(repository.CapacityGuard); !ok {
		t.Errorf("memory participations should guard capacity")
	}
	if err := b.Pinger.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpen_SQLite(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "webinars.db")

	b, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	if _, ok := b.Participations.(repository.CapacityGuard); !ok {
		t.Errorf("sqlite participations should guard capacity")
	}
	if err := b.Pinger.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), testConfig("cassandra")); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpen_PostgresBookingUnderContention(t *testing.T) {
	const contenders = 25

	pool := testutil.NewPostgresPool(t)
	if contenders <= int(pool.Config().MaxConns) {
		t.Fatalf("contention must exceed the pool size %d", pool.Config().MaxConns)
	}

	cfg := testConfig(config.DriverPostgres)
	cfg.Client.Postgres = pool
	cfg.LockWaitTimeout = 10 * time.Second

	b, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	webinars := pgrepo.NewWebinarRepository(pool)
	users := pgrepo.NewUserRepository(pool)
	for _, w := range []*model.Webinar{
		{ID: "w1", Title: "Go", Seats: 1, OrganizerID: "org"},
		{ID: "w2", Title: "Rust", Seats: 1, OrganizerID: "org"},
	} {
		if err := webinars.Create(ctx, w); err != nil {
			t.Fatalf("seed webinar: %v", err)
		}
	}
	userIDs := make([]string, contenders+1)
	for i := range userIDs {
		userIDs[i] = fmt.Sprintf("u%d", i)
		if err := users.Create(ctx, &model.User{ID: userIDs[i], Email: userIDs[i] + "@example.com"}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	svc := service.NewParticipationService(
		b.Webinars,
		b.Users,
		b.Participations,
		b.Locker,
		notification.NewDispatcher(mailer.NewInMemoryMailer(), time.Second, logger.Discard()),
		validator.NewParticipationValidator(logger.Discard()),
		cfg,
	)

	var wg sync.WaitGroup
	var admitted, full atomic.Int32
	start := make(chan struct{})
	for _, id := range userIDs[:contenders] {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, err := svc.BookSeat(ctx, "w1", &model.User{ID: id})
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, participationserrors.ErrNotEnoughSeats):
				full.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	close(start)

	other, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if _, err := svc.BookSeat(other, "w2", &model.User{ID: userIDs[contenders]}); err != nil {
		t.Errorf("booking on w2 blocked by contention on w1: %v", err)
	}

	wg.Wait()
	if admitted.Load() != 1 || full.Load() != contenders-1 {
		t.Errorf("expected 1 admitted and %d NotEnoughSeats, got %d and %d", contenders-1, admitted.Load(), full.Load())
	}
}
