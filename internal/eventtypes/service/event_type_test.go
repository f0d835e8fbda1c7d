package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"meetly/internal/eventtypes/validator"
	scheduleerrors "meetly/internal/schedules/errors"
	"meetly/pkg/config"
	mongotx "meetly/pkg/db/mongo"
	apperrors "meetly/pkg/errors"
	"meetly/pkg/logger"
	"meetly/pkg/model"
)

const testScheduleID = "507f1f77bcf86cd799439011"

type mockEventTypeRepository struct {
	createFunc     func(ctx context.Context, et *model.EventType) error
	findByIDFunc   func(ctx context.Context, id string) (*model.EventType, error)
	findAllFunc    func(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.EventType, error)
	updateFunc     func(ctx context.Context, id string, et *model.EventType) (*mongo.UpdateResult, error)
	deactivateFunc func(ctx context.Context, id string) error
	countFunc      func(ctx context.Context, activeOnly bool) (int64, error)
}

func (m *mockEventTypeRepository) Create(ctx context.Context, et *model.EventType) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, et)
	}
	return nil
}

func (m *mockEventTypeRepository) FindByID(ctx context.Context, id string) (*model.EventType, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockEventTypeRepository) FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.EventType, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, activeOnly, limit, offset)
	}
	return []*model.EventType{}, nil
}

func (m *mockEventTypeRepository) Update(ctx context.Context, id string, et *model.EventType) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, et)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockEventTypeRepository) Deactivate(ctx context.Context, id string) error {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return nil
}

func (m *mockEventTypeRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, activeOnly)
	}
	return 0, nil
}

func (m *mockEventTypeRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockScheduleGetter struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Schedule, error)
}

func (m *mockScheduleGetter) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Schedule{ID: id, Name: "Main", TimeZone: "UTC"}, nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	return &config.Config{
		Log:                    log,
		ReadTimeout:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
		DefaultSlotDurationMin: 30,
		DefaultCapacity:        1,
	}
}

func newTestService(repo *mockEventTypeRepository, schedules *mockScheduleGetter) EventTypeService {
	cfg := testConfig()
	return NewEventTypeService(repo, schedules, validator.NewEventTypeValidator(cfg.Log), cfg)
}

func TestCreate_AppliesDefaultsAndSlug(t *testing.T) {
	var created *model.EventType
	repo := &mockEventTypeRepository{
		createFunc: func(ctx context.Context, et *model.EventType) error {
			created = et
			return nil
		},
	}
	svc := newTestService(repo, &mockScheduleGetter{})

	et := &model.EventType{
		Name:       "30 Minute Intro Call",
		ScheduleID: testScheduleID,
	}
	if err := svc.Create(context.Background(), et); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Slug != "30-minute-intro-call" {
		t.Errorf("expected derived slug, got %q", created.Slug)
	}
	if created.DurationMin != 30 {
		t.Errorf("expected default duration 30, got %d", created.DurationMin)
	}
	if created.BookingType != model.BookingTypeOneOnOne {
		t.Errorf("expected default booking type one_on_one, got %q", created.BookingType)
	}
	if created.Capacity != 1 {
		t.Errorf("expected default capacity 1, got %d", created.Capacity)
	}
	if !created.Active {
		t.Errorf("expected new event type to be active")
	}
}

func TestCreate_NormalizesHostIdentity(t *testing.T) {
	var created *model.EventType
	repo := &mockEventTypeRepository{
		createFunc: func(ctx context.Context, et *model.EventType) error {
			created = et
			return nil
		},
	}
	svc := newTestService(repo, &mockScheduleGetter{})

	et := &model.EventType{
		Name:       "Intro Call",
		Location:   "  Room 4B  ",
		HostName:   "  Sam  Rivera ",
		HostEmail:  "Sam.Rivera@Example.com",
		ScheduleID: testScheduleID,
	}
	if err := svc.Create(context.Background(), et); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Location != "Room 4B" {
		t.Errorf("location must be trimmed, got %q", created.Location)
	}
	if created.HostName != "Sam Rivera" {
		t.Errorf("host name must be normalized, got %q", created.HostName)
	}
	if created.HostEmail != "sam.rivera@example.com" {
		t.Errorf("host email must be lowercased, got %q", created.HostEmail)
	}
}

func TestCreate_RejectsInvalidHostEmail(t *testing.T) {
	svc := newTestService(&mockEventTypeRepository{}, &mockScheduleGetter{})

	et := &model.EventType{
		Name:       "Intro Call",
		HostEmail:  "not-an-email",
		ScheduleID: testScheduleID,
	}
	err := svc.Create(context.Background(), et)
	if err == nil {
		t.Fatal("expected validation error for malformed host email")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestCreate_ScheduleNotFound(t *testing.T) {
	schedules := &mockScheduleGetter{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return nil, fmt.Errorf("%w: %s", scheduleerrors.ErrNotFound, id)
		},
	}
	svc := newTestService(&mockEventTypeRepository{}, schedules)

	et := &model.EventType{
		Name:       "Intro Call",
		ScheduleID: testScheduleID,
	}
	err := svc.Create(context.Background(), et)
	if err == nil {
		t.Fatal("expected not found error for missing schedule")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestCreate_RejectsInvalidBookingType(t *testing.T) {
	svc := newTestService(&mockEventTypeRepository{}, &mockScheduleGetter{})

	et := &model.EventType{
		Name:        "Intro Call",
		ScheduleID:  testScheduleID,
		BookingType: "round_robin",
	}
	err := svc.Create(context.Background(), et)
	if err == nil {
		t.Fatal("expected validation error for unknown booking type")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestUpdate_MergesFields(t *testing.T) {
	existing := &model.EventType{
		ID:          "607f1f77bcf86cd799439012",
		Name:        "Intro Call",
		Slug:        "intro-call",
		DurationMin: 30,
		BookingType: model.BookingTypeGroup,
		Capacity:    5,
		ScheduleID:  testScheduleID,
		Active:      true,
	}

	var written *model.EventType
	repo := &mockEventTypeRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.EventType, error) {
			return existing, nil
		},
		updateFunc: func(ctx context.Context, id string, et *model.EventType) (*mongo.UpdateResult, error) {
			written = et
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	svc := newTestService(repo, &mockScheduleGetter{})

	newDuration := 45
	newCapacity := 10
	err := svc.Update(context.Background(), existing.ID, &model.EventTypeUpdate{
		DurationMin: &newDuration,
		Capacity:    &newCapacity,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if written.DurationMin != 45 {
		t.Errorf("expected duration 45, got %d", written.DurationMin)
	}
	if written.Capacity != 10 {
		t.Errorf("expected capacity 10, got %d", written.Capacity)
	}
	if written.Name != "Intro Call" {
		t.Errorf("untouched fields must be preserved, got name %q", written.Name)
	}
}

func TestUpdate_RejectsZeroCapacity(t *testing.T) {
	repo := &mockEventTypeRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.EventType, error) {
			return &model.EventType{
				ID:          id,
				Name:        "Intro Call",
				DurationMin: 30,
				BookingType: model.BookingTypeGroup,
				Capacity:    5,
				ScheduleID:  testScheduleID,
			}, nil
		},
	}
	svc := newTestService(repo, &mockScheduleGetter{})

	zero := 0
	err := svc.Update(context.Background(), "607f1f77bcf86cd799439012", &model.EventTypeUpdate{
		Capacity: &zero,
	})
	if err == nil {
		t.Fatal("expected validation error for zero capacity")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}
