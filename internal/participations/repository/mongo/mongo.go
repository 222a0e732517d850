package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"webinars/internal/participations/repository"
	"webinars/pkg/config"
	mongotx "webinars/pkg/db/mongo"
	"webinars/pkg/model"
)

const (
	WebinarsCollection       = "Webinars"
	UsersCollection          = "Users"
	ParticipationsCollection = "Participations"
)

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged since wrapping it detaches calls from the
// transaction.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

type WebinarRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewWebinarRepository(cfg *config.Config) *WebinarRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &WebinarRepository{
		cfg:        cfg,
		collection: db.Collection(WebinarsCollection),
	}
}

// Create stores a webinar. Used for seeding; webinar management is out of scope.
func (r *WebinarRepository) Create(ctx context.Context, webinar *model.Webinar) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, webinar); err != nil {
		return fmt.Errorf("failed to create webinar: %w", err)
	}
	return nil
}

func (r *WebinarRepository) FindByID(ctx context.Context, id string) (*model.Webinar, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var webinar model.Webinar
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&webinar)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find webinar: %w", err)
	}
	return &webinar, nil
}

type UserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewUserRepository(cfg *config.Config) *UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &UserRepository{
		cfg:        cfg,
		collection: db.Collection(UsersCollection),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// ParticipationRepository relies on the unique (webinar_id, user_id) index
// created by the migration job.
type ParticipationRepository struct {
	cfg        *config.Config
	client     *mongo.Client
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewParticipationRepository(cfg *config.Config) *ParticipationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &ParticipationRepository{
		cfg:        cfg,
		client:     cfg.Client.Mongo,
		collection: db.Collection(ParticipationsCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.WriteTimeout),
	}
}

func (r *ParticipationRepository) FindByWebinarID(ctx context.Context, webinarID string) ([]*model.Participation, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"webinar_id": webinarID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find participations: %w", err)
	}
	defer cursor.Close(ctx)

	participations := []*model.Participation{}
	if err = cursor.All(ctx, &participations); err != nil {
		return nil, fmt.Errorf("failed to decode participations: %w", err)
	}
	return participations, nil
}

func (r *ParticipationRepository) Save(ctx context.Context, participation *model.Participation) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	participation.CreatedAt = participation.CreatedAt.UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, participation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateParticipation
		}
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

// RunInTransaction runs fn in a multi-document transaction. Requires a replica set.
func (r *ParticipationRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *ParticipationRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}
	return nil
}
