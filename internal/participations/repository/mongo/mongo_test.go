package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"webinars/internal/participations/repository"
	"webinars/pkg/model"
	"webinars/test/integration/testutil"
)

var (
	_ repository.WebinarRepository       = (*WebinarRepository)(nil)
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.ParticipationRepository = (*ParticipationRepository)(nil)
	_ repository.Transactional           = (*ParticipationRepository)(nil)
	_ repository.Pinger                  = (*ParticipationRepository)(nil)
)

func newParticipation(webinarID, userID string, at time.Time) *model.Participation {
	return &model.Participation{ID: uuid.NewString(), UserID: userID, WebinarID: webinarID, CreatedAt: at}
}

func TestWebinarAndUserRepository(t *testing.T) {
	h := testutil.NewMongoHelper(t)
	cfg := h.Config()
	ctx := context.Background()

	webinars := NewWebinarRepository(cfg)
	users := NewUserRepository(cfg)

	w := testutil.NewWebinarBuilder().WithSeats(3).Build()
	if err := webinars.Create(ctx, w); err != nil {
		t.Fatalf("create webinar: %v", err)
	}
	u := testutil.NewUserBuilder().Build()
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := webinars.FindByID(ctx, w.ID)
	if err != nil {
		t.Fatalf("find webinar: %v", err)
	}
	if *got != *w {
		t.Errorf("got %+v, want %+v", got, w)
	}

	gotUser, err := users.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if gotUser.Email != u.Email {
		t.Errorf("got email %q, want %q", gotUser.Email, u.Email)
	}

	if _, err := webinars.FindByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := users.FindByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestParticipationRepository_SaveAndFind(t *testing.T) {
	h := testutil.NewMongoHelper(t)
	repo := NewParticipationRepository(h.Config())
	ctx := context.Background()

	base := time.Now().UTC()
	first := newParticipation("w1", "u1", base)
	second := newParticipation("w1", "u2", base.Add(time.Second))
	other := newParticipation("w2", "u1", base)

	for _, p := range []*model.Participation{second, first, other} {
		if err := repo.Save(ctx, p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := repo.FindByWebinarID(ctx, "w1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].UserID != "u1" || got[1].UserID != "u2" {
		t.Errorf("unexpected participations %+v", got)
	}

	empty, err := repo.FindByWebinarID(ctx, "none")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v (%v)", empty, err)
	}
}

func TestParticipationRepository_Duplicate(t *testing.T) {
	h := testutil.NewMongoHelper(t)
	repo := NewParticipationRepository(h.Config())
	ctx := context.Background()

	if err := repo.Save(ctx, newParticipation("w1", "u1", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	err := repo.Save(ctx, newParticipation("w1", "u1", time.Now()))
	if !errors.Is(err, repository.ErrDuplicateParticipation) {
		t.Fatalf("expected ErrDuplicateParticipation, got %v", err)
	}
}

func TestParticipationRepository_TransactionRollsBack(t *testing.T) {
	h := testutil.NewMongoHelper(t)
	repo := NewParticipationRepository(h.Config())
	ctx := context.Background()

	rejected := errors.New("rejected")
	err := repo.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Save(ctx, newParticipation("w1", "u1", time.Now())); err != nil {
			return err
		}
		return rejected
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("expected fn error to pass through, got %v", err)
	}

	got, err := repo.FindByWebinarID(ctx, "w1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected rollback, found %d participations", len(got))
	}
}

func TestParticipationRepository_Ping(t *testing.T) {
	h := testutil.NewMongoHelper(t)
	if err := NewParticipationRepository(h.Config()).Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected deadline")
	}

	parent, parentCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer parentCancel()
	ctx, cancel = withTimeout(parent, time.Minute)
	defer cancel()
	deadline, _ := ctx.Deadline()
	if time.Until(deadline) > time.Second {
		t.Errorf("expected the shorter parent deadline to win")
	}
}
