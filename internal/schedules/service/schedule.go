package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	scheduleerrors "meetly/internal/schedules/errors"
	"meetly/internal/schedules/repository"
	"meetly/internal/schedules/validator"
	"meetly/pkg/config"
	apperrors "meetly/pkg/errors"
	"meetly/pkg/model"
	"meetly/pkg/sanitizer"
)

type ScheduleService interface {
	Create(ctx context.Context, sc *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Schedule, int64, error)
	Update(ctx context.Context, id string, updates *model.ScheduleUpdate) error
	ReplaceWeekly(ctx context.Context, id string, weekly []model.WeeklyWindow) error
	SetDateOverride(ctx context.Context, id string, override model.DateOverride) error
	RemoveDateOverride(ctx context.Context, id string, date string) error
	Delete(ctx context.Context, id string) error
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	validator *validator.ScheduleValidator
	cfg       *config.Config
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	validator *validator.ScheduleValidator,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *scheduleService) Create(ctx context.Context, sc *model.Schedule) error {
	sc.Name = sanitizer.NormalizeName(sc.Name)
	s.applyDefaults(sc)

	if err := s.validator.Validate(sc); err != nil {
		s.cfg.Log.Warn("Schedule validation failed",
			"name", sc.Name,
			"error", err,
		)
		return apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, sc); err != nil {
		s.cfg.Log.Error("Failed to create schedule",
			"name", sc.Name,
			"error", err,
		)
		return s.storeError("Failed to create schedule", err)
	}

	s.cfg.Log.Info("Schedule created successfully",
		"id", sc.ID,
		"name", sc.Name,
		"time_zone", sc.TimeZone,
	)
	return nil
}

func (s *scheduleService) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	sc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Schedule", id)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid schedule ID format")
		}
		s.cfg.Log.Error("Failed to get schedule by ID",
			"id", id,
			"error", err,
		)
		return nil, s.storeError("Failed to retrieve schedule", err)
	}

	return sc, nil
}

func (s *scheduleService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Schedule, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	// Count and page share a context so either timing out cancels both.
	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var schedules []*model.Schedule
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx)
		if err != nil {
			s.cfg.Log.Error("Failed to count schedules", "error", err)
			errCount = s.storeError("Failed to count schedules", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		schedules, err = s.repo.FindAll(sharedCtx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all schedules",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = s.storeError("Failed to retrieve schedules", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return schedules, count, nil
}

func (s *scheduleService) Update(ctx context.Context, id string, updates *model.ScheduleUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}

	return s.mutate(ctx, id, func(sc *model.Schedule) error {
		if updates.Name != "" {
			sc.Name = updates.Name
		}
		if updates.TimeZone != "" {
			sc.TimeZone = updates.TimeZone
		}
		return nil
	})
}

func (s *scheduleService) ReplaceWeekly(ctx context.Context, id string, weekly []model.WeeklyWindow) error {
	if id == "" {
		return apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	return s.mutate(ctx, id, func(sc *model.Schedule) error {
		sc.Weekly = weekly
		return nil
	})
}

func (s *scheduleService) SetDateOverride(ctx context.Context, id string, override model.DateOverride) error {
	if id == "" {
		return apperrors.InvalidInput("Schedule ID cannot be empty")
	}
	if _, err := time.Parse("2006-01-02", override.Date); err != nil {
		return apperrors.InvalidInput("Override date must be in YYYY-MM-DD format")
	}

	return s.mutate(ctx, id, func(sc *model.Schedule) error {
		for i := range sc.Overrides {
			if sc.Overrides[i].Date == override.Date {
				sc.Overrides[i] = override
				return nil
			}
		}
		sc.Overrides = append(sc.Overrides, override)
		return nil
	})
}

func (s *scheduleService) RemoveDateOverride(ctx context.Context, id string, date string) error {
	if id == "" {
		return apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	return s.mutate(ctx, id, func(sc *model.Schedule) error {
		for i := range sc.Overrides {
			if sc.Overrides[i].Date == date {
				sc.Overrides = append(sc.Overrides[:i], sc.Overrides[i+1:]...)
				return nil
			}
		}
		return apperrors.NotFoundWithID("Override", date)
	})
}

// mutate loads the schedule, applies fn, re-validates and writes the
// whole document back inside one transaction.
func (s *scheduleService) mutate(ctx context.Context, id string, fn func(sc *model.Schedule) error) error {
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		sc, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			if errors.Is(err, scheduleerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Schedule", id)
			}
			if errors.Is(err, scheduleerrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid schedule ID format")
			}
			return s.storeError("Failed to load schedule", err)
		}

		if err := fn(sc); err != nil {
			return err
		}

		if err := s.validator.Validate(sc); err != nil {
			return apperrors.Validation("Schedule validation failed", map[string]any{
				"error": err.Error(),
			})
		}

		if _, err := s.repo.Update(sessCtx, id, sc); err != nil {
			return s.storeError("Failed to update schedule", err)
		}
		return nil
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			s.cfg.Log.Error("Failed to update schedule", "id", id, "error", err)
		}
		return err
	}

	s.cfg.Log.Info("Schedule updated successfully", "id", id)
	return nil
}

func (s *scheduleService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Schedule", id)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid schedule ID format")
		}
		s.cfg.Log.Error("Failed to delete schedule",
			"id", id,
			"error", err,
		)
		return s.storeError("Failed to delete schedule", err)
	}

	s.cfg.Log.Info("Schedule deleted successfully", "id", id)
	return nil
}

func (s *scheduleService) applyDefaults(sc *model.Schedule) {
	if sc.TimeZone == "" {
		sc.TimeZone = s.cfg.DefaultTimeZone
	}
	if len(sc.Weekly) == 0 {
		for _, day := range s.cfg.DefaultWorkingDays {
			sc.Weekly = append(sc.Weekly, model.WeeklyWindow{
				Day: day,
				TimeWindow: model.TimeWindow{
					Start: s.cfg.DefaultDayStart,
					End:   s.cfg.DefaultDayEnd,
				},
			})
		}
	}
}

// storeError maps deadline expiry to a retryable unavailable error,
// anything else stays internal.
func (s *scheduleService) storeError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable("schedule store")
	}
	return apperrors.Internal(message, err)
}
