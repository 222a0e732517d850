package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"webinars/internal/participations/repository"
	"webinars/pkg/model"
)

var (
	_ repository.WebinarRepository       = (*WebinarRepository)(nil)
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.ParticipationRepository = (*ParticipationRepository)(nil)
	_ repository.CapacityGuard           = (*ParticipationRepository)(nil)
	_ repository.Pinger                  = (*Store)(nil)
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "webinars.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store *Store, seats int, userIDs ...string) {
	t.Helper()
	ctx := context.Background()
	if err := store.Webinars().Create(ctx, &model.Webinar{ID: "w1", Title: "Go", Seats: seats, OrganizerID: "org"}); err != nil {
		t.Fatalf("seed webinar: %v", err)
	}
	for _, id := range userIDs {
		if err := store.Users().Create(ctx, &model.User{ID: id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
}

func participation(userID string, at time.Time) *model.Participation {
	return &model.Participation{ID: uuid.NewString(), UserID: userID, WebinarID: "w1", CreatedAt: at}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webinars.db")
	for range 2 {
		store, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestFindByID(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, 3, "u1")
	ctx := context.Background()

	w, err := store.Webinars().FindByID(ctx, "w1")
	if err != nil {
		t.Fatalf("find webinar: %v", err)
	}
	if w.Seats != 3 || w.OrganizerID != "org" || w.Title != "Go" {
		t.Errorf("unexpected webinar %+v", w)
	}
	u, err := store.Users().FindByID(ctx, "u1")
	if err != nil || u.Email != "u1@example.com" {
		t.Errorf("unexpected user %+v (%v)", u, err)
	}

	if _, err := store.Webinars().FindByID(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Users().FindByID(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestParticipations_SaveFindOrder(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, 5, "u1", "u2", "u3")
	repo := store.Participations()
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"u3", "u1", "u2"} {
		if err := repo.Save(ctx, participation(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := repo.FindByWebinarID(ctx, "w1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := []string{"u3", "u1", "u2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d participations, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].UserID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i].UserID, want[i])
		}
	}
	if !got[0].CreatedAt.Equal(base) {
		t.Errorf("created_at round trip: got %s, want %s", got[0].CreatedAt, base)
	}

	empty, err := repo.FindByWebinarID(ctx, "other")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no participations, got %v (%v)", empty, err)
	}
}

func TestParticipations_Duplicate(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, 5, "u1")
	repo := store.Participations()
	ctx := context.Background()

	if err := repo.Save(ctx, participation("u1", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, participation("u1", time.Now())); !errors.Is(err, repository.ErrDuplicateParticipation) {
		t.Errorf("Save: expected ErrDuplicateParticipation, got %v", err)
	}
	if err := repo.SaveWithinCapacity(ctx, participation("u1", time.Now()), 5); !errors.Is(err, repository.ErrDuplicateParticipation) {
		t.Errorf("SaveWithinCapacity: expected ErrDuplicateParticipation, got %v", err)
	}
}

func TestParticipations_SaveWithinCapacity(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, 2, "u1", "u2", "u3")
	repo := store.Participations()
	ctx := context.Background()

	for _, id := range []string{"u1", "u2"} {
		if err := repo.SaveWithinCapacity(ctx, participation(id, time.Now()), 2); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := repo.SaveWithinCapacity(ctx, participation("u3", time.Now()), 2); !errors.Is(err, repository.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	got, _ := repo.FindByWebinarID(ctx, "w1")
	if len(got) != 2 {
		t.Errorf("expected 2 participations, got %d", len(got))
	}
}

func TestParticipations_ConcurrentLastSeat(t *testing.T) {
	const contenders = 10

	store := openTestStore(t)
	ids := make([]string, contenders)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%d", i)
	}
	seed(t, store, 1, ids...)
	repo := store.Participations()

	var wg sync.WaitGroup
	var successes atomic.Int32
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := repo.SaveWithinCapacity(context.Background(), participation(id, time.Now()), 1)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, repository.ErrCapacityExceeded):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes.Load())
	}
}

func TestPing(t *testing.T) {
	store := openTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	if got := extractUp(content); got != "\nCREATE TABLE a (id INT);\n" {
		t.Errorf("unexpected up section %q", got)
	}
	if got := extractUp("SELECT 1;"); got != "SELECT 1;" {
		t.Errorf("unmarked content should be returned whole, got %q", got)
	}
}
