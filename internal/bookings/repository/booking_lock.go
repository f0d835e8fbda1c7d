package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "meetly/internal/bookings/errors"
	"meetly/pkg/config"
	"meetly/pkg/model"
)

const (
	LockCollectionName = "BookingLocks"
)

// BookingLockRepository serializes admission per event type. A lock is
// a document whose _id is the lock key; the unique index on
// _id makes acquisition an atomic insert-or-fail. A TTL index on
// expires_at reaps locks abandoned by crashed processes.
type BookingLockRepository interface {
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	err := r.insert(ctx, key)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to acquire admission lock: %w", err)
	}

	// The TTL monitor only runs periodically, so an expired lock can
	// still be present. Remove it if stale and retry once.
	res, delErr := r.collection.DeleteOne(ctx, bson.M{
		"_id":        key,
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if delErr != nil || res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", bookingerrors.ErrLockNotAcquired, key)
	}

	if err := r.insert(ctx, key); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", bookingerrors.ErrLockNotAcquired, key)
		}
		return fmt.Errorf("failed to acquire admission lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) insert(ctx context.Context, key string) error {
	now := time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, model.BookingLock{
		ID:        key,
		ExpiresAt: now.Add(r.cfg.SlotLockTTL),
		CreatedAt: now,
	})
	return err
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to release admission lock: %w", err)
	}
	return nil
}
