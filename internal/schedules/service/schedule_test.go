package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"meetly/internal/schedules/validator"
	"meetly/pkg/config"
	mongotx "meetly/pkg/db/mongo"
	apperrors "meetly/pkg/errors"
	"meetly/pkg/logger"
	"meetly/pkg/model"
)

// Mock repository for testing
type mockScheduleRepository struct {
	createFunc   func(ctx context.Context, sc *model.Schedule) error
	findByIDFunc func(ctx context.Context, id string) (*model.Schedule, error)
	findAllFunc  func(ctx context.Context, limit int, offset int64) ([]*model.Schedule, error)
	updateFunc   func(ctx context.Context, id string, sc *model.Schedule) (*mongo.UpdateResult, error)
	deleteFunc   func(ctx context.Context, id string) error
	countFunc    func(ctx context.Context) (int64, error)
}

func (m *mockScheduleRepository) Create(ctx context.Context, sc *model.Schedule) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, sc)
	}
	return nil
}

func (m *mockScheduleRepository) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockScheduleRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Schedule, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Schedule{}, nil
}

func (m *mockScheduleRepository) Update(ctx context.Context, id string, sc *model.Schedule) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, sc)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockScheduleRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockScheduleRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockScheduleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	return &config.Config{
		Log:                log,
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		DefaultTimeZone:    "UTC",
		DefaultDayStart:    "09:00",
		DefaultDayEnd:      "17:00",
		DefaultWorkingDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
	}
}

func newTestService(repo *mockScheduleRepository) ScheduleService {
	cfg := testConfig()
	return NewScheduleService(repo, validator.NewScheduleValidator(cfg.Log), cfg)
}

func TestCreate_AppliesDefaults(t *testing.T) {
	var created *model.Schedule
	repo := &mockScheduleRepository{
		createFunc: func(ctx context.Context, sc *model.Schedule) error {
			created = sc
			return nil
		},
	}
	svc := newTestService(repo)

	sc := &model.Schedule{Name: "  Consulting   Hours "}
	if err := svc.Create(context.Background(), sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Name != "Consulting Hours" {
		t.Errorf("expected normalized name, got %q", created.Name)
	}
	if created.TimeZone != "UTC" {
		t.Errorf("expected default time zone UTC, got %q", created.TimeZone)
	}
	if len(created.Weekly) != 5 {
		t.Fatalf("expected 5 default weekly windows, got %d", len(created.Weekly))
	}
	if created.Weekly[0].Day != "monday" || created.Weekly[0].Start != "09:00" || created.Weekly[0].End != "17:00" {
		t.Errorf("unexpected first default window: %+v", created.Weekly[0])
	}
}

func TestCreate_RejectsReversedWindow(t *testing.T) {
	svc := newTestService(&mockScheduleRepository{})

	sc := &model.Schedule{
		Name:     "Broken",
		TimeZone: "UTC",
		Weekly: []model.WeeklyWindow{
			{Day: "monday", TimeWindow: model.TimeWindow{Start: "17:00", End: "09:00"}},
		},
	}

	err := svc.Create(context.Background(), sc)
	if err == nil {
		t.Fatal("expected validation error for reversed window")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestGetAll_CountAndPage(t *testing.T) {
	repo := &mockScheduleRepository{
		countFunc: func(ctx context.Context) (int64, error) {
			time.Sleep(10 * time.Millisecond)
			return 50, nil
		},
		findAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Schedule, error) {
			time.Sleep(10 * time.Millisecond)
			return []*model.Schedule{{ID: "1", Name: "Schedule 1"}}, nil
		},
	}
	svc := newTestService(repo)

	for i := 0; i < 20; i++ {
		schedules, count, err := svc.GetAll(context.Background(), 10, 0)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if count != 50 {
			t.Errorf("iteration %d: expected count 50, got %d", i, count)
		}
		if len(schedules) != 1 {
			t.Errorf("iteration %d: expected 1 schedule, got %d", i, len(schedules))
		}
	}
}

func TestSetDateOverride_ReplacesSameDate(t *testing.T) {
	existing := &model.Schedule{
		ID:       "507f1f77bcf86cd799439011",
		Name:     "Main",
		TimeZone: "UTC",
		Overrides: []model.DateOverride{
			{Date: "2025-03-04", Windows: []model.TimeWindow{{Start: "08:00", End: "10:00"}}},
		},
	}

	var written *model.Schedule
	repo := &mockScheduleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return existing, nil
		},
		updateFunc: func(ctx context.Context, id string, sc *model.Schedule) (*mongo.UpdateResult, error) {
			written = sc
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	svc := newTestService(repo)

	err := svc.SetDateOverride(context.Background(), existing.ID, model.DateOverride{
		Date:    "2025-03-04",
		Windows: []model.TimeWindow{{Start: "13:00", End: "15:00"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(written.Overrides) != 1 {
		t.Fatalf("expected override to be replaced, got %d overrides", len(written.Overrides))
	}
	if written.Overrides[0].Windows[0].Start != "13:00" {
		t.Errorf("expected replaced window, got %+v", written.Overrides[0].Windows[0])
	}
}

func TestSetDateOverride_InvalidDate(t *testing.T) {
	svc := newTestService(&mockScheduleRepository{})

	err := svc.SetDateOverride(context.Background(), "507f1f77bcf86cd799439011", model.DateOverride{
		Date: "03/04/2025",
	})
	if err == nil {
		t.Fatal("expected error for invalid date format")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestRemoveDateOverride_NotFound(t *testing.T) {
	repo := &mockScheduleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return &model.Schedule{ID: id, Name: "Main", TimeZone: "UTC"}, nil
		},
	}
	svc := newTestService(repo)

	err := svc.RemoveDateOverride(context.Background(), "507f1f77bcf86cd799439011", "2025-03-04")
	if err == nil {
		t.Fatal("expected not found error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}
