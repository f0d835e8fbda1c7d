package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	eventtypeserrors "meetly/internal/eventtypes/errors"
	"meetly/pkg/config"
	mongotx "meetly/pkg/db/mongo"
	"meetly/pkg/model"
)

const (
	CollectionName = "EventTypes"
)

type mongoEventTypeRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type EventTypeRepository interface {
	Create(ctx context.Context, et *model.EventType) error
	FindByID(ctx context.Context, id string) (*model.EventType, error)
	FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.EventType, error)
	Update(ctx context.Context, id string, et *model.EventType) (*mongo.UpdateResult, error)
	Deactivate(ctx context.Context, id string) error
	Count(ctx context.Context, activeOnly bool) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoEventTypeRepository(cfg *config.Config) EventTypeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventTypeRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoEventTypeRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoEventTypeRepository) Create(ctx context.Context, et *model.EventType) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	et.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, et)
	if err != nil {
		return fmt.Errorf("failed to create event type: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		et.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEventTypeRepository) FindByID(ctx context.Context, id string) (*model.EventType, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventtypeserrors.ErrInvalidID, id)
	}

	var et model.EventType
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&et)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", eventtypeserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find event type: %w", err)
	}

	return &et, nil
}

func (r *mongoEventTypeRepository) FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.EventType, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query event types: %w", err)
	}
	defer cursor.Close(ctx)

	var eventTypes []*model.EventType
	if err = cursor.All(ctx, &eventTypes); err != nil {
		return nil, fmt.Errorf("failed to decode event types: %w", err)
	}
	return eventTypes, nil
}

func (r *mongoEventTypeRepository) Update(ctx context.Context, id string, et *model.EventType) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventtypeserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":              et.Name,
			"slug":              et.Slug,
			"description":       et.Description,
			"location":          et.Location,
			"host_name":         et.HostName,
			"host_email":        et.HostEmail,
			"duration_min":      et.DurationMin,
			"buffer_before_min": et.BufferBeforeMin,
			"buffer_after_min":  et.BufferAfterMin,
			"booking_type":      et.BookingType,
			"capacity":          et.Capacity,
			"schedule_id":       et.ScheduleID,
			"active":            et.Active,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update event type: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", eventtypeserrors.ErrNotFound, id)
	}

	return result, nil
}

// Deactivate soft-deletes the event type so existing bookings keep a
// resolvable reference.
func (r *mongoEventTypeRepository) Deactivate(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", eventtypeserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return fmt.Errorf("failed to deactivate event type: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", eventtypeserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoEventTypeRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count event types: %w", err)
	}
	return count, nil
}

func (r *mongoEventTypeRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
