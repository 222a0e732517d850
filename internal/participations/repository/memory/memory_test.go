package memory

import (
	"context"
	"errors"
	"testing"

	"webinars/internal/participations/repository"
	"webinars/pkg/model"
)

var (
	_ repository.WebinarRepository       = (*WebinarRepository)(nil)
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.ParticipationRepository = (*ParticipationRepository)(nil)
	_ repository.CapacityGuard           = (*ParticipationRepository)(nil)
)

func TestWebinarRepository_FindByID(t *testing.T) {
	repo := NewWebinarRepository(&model.Webinar{ID: "w1", Title: "Webinar 1", Seats: 10, OrganizerID: "organizer1"})

	w, err := repo.FindByID(context.Background(), "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Title != "Webinar 1" {
		t.Errorf("expected title 'Webinar 1', got %q", w.Title)
	}

	w.Seats = 1
	again, _ := repo.FindByID(context.Background(), "w1")
	if again.Seats != 10 {
		t.Errorf("mutating a returned webinar must not change the stored copy")
	}

	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	repo := NewUserRepository(&model.User{ID: "u1", Email: "user@example.com"})

	if _, err := repo.FindByID(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), "u2"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestParticipationRepository_SaveEnforcesUniqueness(t *testing.T) {
	repo := NewParticipationRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, &model.Participation{ID: "p1", UserID: "u1", WebinarID: "w1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := repo.Save(ctx, &model.Participation{ID: "p2", UserID: "u1", WebinarID: "w1"})
	if !errors.Is(err, repository.ErrDuplicateParticipation) {
		t.Fatalf("expected ErrDuplicateParticipation, got %v", err)
	}
	if err := repo.Save(ctx, &model.Participation{ID: "p3", UserID: "u1", WebinarID: "w2"}); err != nil {
		t.Fatalf("same user in another webinar should be accepted, got %v", err)
	}

	if repo.Count("w1") != 1 {
		t.Errorf("expected 1 participation in w1, got %d", repo.Count("w1"))
	}
}

func TestParticipationRepository_SaveWithinCapacity(t *testing.T) {
	repo := NewParticipationRepository(&model.Participation{ID: "p1", UserID: "u1", WebinarID: "w1"})
	ctx := context.Background()

	err := repo.SaveWithinCapacity(ctx, &model.Participation{ID: "p2", UserID: "u2", WebinarID: "w1"}, 1)
	if !errors.Is(err, repository.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	err = repo.SaveWithinCapacity(ctx, &model.Participation{ID: "p3", UserID: "u1", WebinarID: "w1"}, 5)
	if !errors.Is(err, repository.ErrDuplicateParticipation) {
		t.Fatalf("expected ErrDuplicateParticipation, got %v", err)
	}
	if err := repo.SaveWithinCapacity(ctx, &model.Participation{ID: "p4", UserID: "u2", WebinarID: "w1"}, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParticipationRepository_FindByWebinarIDOrder(t *testing.T) {
	repo := NewParticipationRepository(
		&model.Participation{ID: "p1", UserID: "u1", WebinarID: "w1"},
		&model.Participation{ID: "p2", UserID: "u2", WebinarID: "w1"},
	)

	got, err := repo.FindByWebinarID(context.Background(), "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("expected [p1 p2] in insertion order, got %+v", got)
	}

	empty, err := repo.FindByWebinarID(context.Background(), "w9")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result, got %v, %v", empty, err)
	}
}

func TestRepositories_HonourCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewWebinarRepository().FindByID(ctx, "w1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := NewParticipationRepository().Save(ctx, &model.Participation{ID: "p1"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
