// Package mongo implements the per-webinar lock across service instances with
// advisory lock documents keyed by webinar id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"webinars/internal/participations/locker"
	"webinars/pkg/config"
	"webinars/pkg/logger"
	"webinars/pkg/model"
)

const (
	LocksCollection = "Participation_locks"

	initialRetryInterval = 10 * time.Millisecond
	maxRetryInterval     = 250 * time.Millisecond
	releaseTimeout       = 5 * time.Second
)

var errLockHeld = errors.New("lock held by another owner")

type leaseKey struct{}

type lease struct {
	key   string
	owner string
}

type Locker struct {
	collection *mongo.Collection
	ttl        time.Duration
	wait       time.Duration
	log        *logger.Logger
	now        func() time.Time
}

func NewLocker(cfg *config.Config) *Locker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &Locker{
		collection: db.Collection(LocksCollection),
		ttl:        cfg.LockTTL,
		wait:       cfg.LockWaitTimeout,
		log:        cfg.Log,
		now:        time.Now,
	}
}

// Lock inserts the lock document for key, retrying with exponential backoff while
// another owner holds it. Expired documents are taken over without waiting for
// the TTL monitor.
func (l *Locker) Lock(ctx context.Context, key string) (locker.Unlock, error) {
	_, unlock, err := l.Lease(ctx, key)
	return unlock, err
}

// Lease is Lock that also returns a context carrying the owner token Fence checks.
func (l *Locker) Lease(ctx context.Context, key string) (context.Context, locker.Unlock, error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	owner := uuid.NewString()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialRetryInterval
	b.MaxInterval = maxRetryInterval

	_, err := backoff.Retry(waitCtx, func() (struct{}, error) {
		err := l.acquire(waitCtx, key, owner)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, errLockHeld):
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(l.wait))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		if errors.Is(err, errLockHeld) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w: webinar %s", locker.ErrLockTimeout, key)
		}
		return nil, nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() { l.release(ctx, key, owner) })
	}
	return context.WithValue(ctx, leaseKey{}, lease{key: key, owner: owner}), unlock, nil
}

// Fence renews the lease carried by ctx. Called with a transaction's session
// context the renewal joins the transaction: it commits only if the lock
// document still names this owner and has not expired, and a takeover racing
// with it conflicts with the transaction instead of slipping past it.
func (l *Locker) Fence(ctx context.Context, key string) error {
	held, ok := ctx.Value(leaseKey{}).(lease)
	if !ok || held.key != key {
		return fmt.Errorf("%w: no lease for webinar %s", locker.ErrLockLost, key)
	}

	now := l.now().UTC()
	res, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": key, "owner": held.owner, "expires_at": bson.M{"$gt": now}},
		bson.M{"$set": bson.M{"expires_at": now.Add(l.ttl)}},
	)
	if err != nil {
		return fmt.Errorf("failed to renew lock: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: webinar %s", locker.ErrLockLost, key)
	}
	return nil
}

func (l *Locker) acquire(ctx context.Context, key, owner string) error {
	now := l.now().UTC()

	if _, err := l.collection.DeleteOne(ctx, bson.M{
		"_id":        key,
		"expires_at": bson.M{"$lte": now},
	}); err != nil {
		return fmt.Errorf("failed to clear expired lock: %w", err)
	}

	lock := &model.ParticipationLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}
	if _, err := l.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errLockHeld
		}
		return fmt.Errorf("failed to insert lock: %w", err)
	}
	return nil
}

// release deletes the lock only if it is still ours. A lock that expired and was
// taken over by someone else is left alone.
func (l *Locker) release(ctx context.Context, key, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner}); err != nil {
		l.log.Error("Failed to release webinar lock", "webinar_id", key, "error", err)
	}
}
