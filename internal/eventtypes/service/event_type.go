package service

import (
	"context"
	"errors"
	"sync"

	eventtypeerrors "meetly/internal/eventtypes/errors"
	"meetly/internal/eventtypes/repository"
	"meetly/internal/eventtypes/validator"
	scheduleerrors "meetly/internal/schedules/errors"
	"meetly/pkg/config"
	apperrors "meetly/pkg/errors"
	"meetly/pkg/model"
	"meetly/pkg/sanitizer"
)

// ScheduleGetter resolves schedule references on create and update.
type ScheduleGetter interface {
	FindByID(ctx context.Context, id string) (*model.Schedule, error)
}

type EventTypeService interface {
	Create(ctx context.Context, et *model.EventType) error
	GetByID(ctx context.Context, id string) (*model.EventType, error)
	GetAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.EventType, int64, error)
	Update(ctx context.Context, id string, updates *model.EventTypeUpdate) error
	Delete(ctx context.Context, id string) error
}

type eventTypeService struct {
	repo      repository.EventTypeRepository
	schedules ScheduleGetter
	validator *validator.EventTypeValidator
	cfg       *config.Config
}

func NewEventTypeService(
	repo repository.EventTypeRepository,
	schedules ScheduleGetter,
	validator *validator.EventTypeValidator,
	cfg *config.Config,
) EventTypeService {
	return &eventTypeService{
		repo:      repo,
		schedules: schedules,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *eventTypeService) Create(ctx context.Context, et *model.EventType) error {
	s.sanitize(et)
	s.applyDefaults(et)

	if err := s.validator.Validate(et); err != nil {
		s.cfg.Log.Warn("Event type validation failed",
			"name", et.Name,
			"error", err,
		)
		return apperrors.Validation("Event type validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.resolveSchedule(ctx, et.ScheduleID); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, et); err != nil {
		s.cfg.Log.Error("Failed to create event type",
			"name", et.Name,
			"error", err,
		)
		return s.storeError("Failed to create event type", err)
	}

	s.cfg.Log.Info("Event type created successfully",
		"id", et.ID,
		"name", et.Name,
		"slug", et.Slug,
		"booking_type", et.BookingType,
	)
	return nil
}

func (s *eventTypeService) GetByID(ctx context.Context, id string) (*model.EventType, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event type ID cannot be empty")
	}

	et, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("EventType", id)
		}
		if errors.Is(err, eventtypeerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid event type ID format")
		}
		s.cfg.Log.Error("Failed to get event type by ID",
			"id", id,
			"error", err,
		)
		return nil, s.storeError("Failed to retrieve event type", err)
	}

	return et, nil
}

func (s *eventTypeService) GetAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.EventType, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var eventTypes []*model.EventType
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx, activeOnly)
		if err != nil {
			s.cfg.Log.Error("Failed to count event types", "error", err)
			errCount = s.storeError("Failed to count event types", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		eventTypes, err = s.repo.FindAll(sharedCtx, activeOnly, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all event types",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = s.storeError("Failed to retrieve event types", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return eventTypes, count, nil
}

func (s *eventTypeService) Update(ctx context.Context, id string, updates *model.EventTypeUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Event type ID cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Event type update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	merged := s.mergeUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Event type validation failed after merge",
			"id", id,
			"error", err,
		)
		return apperrors.Validation("Event type validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if updates.ScheduleID != "" {
		if err := s.resolveSchedule(ctx, merged.ScheduleID); err != nil {
			return err
		}
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update event type",
			"id", id,
			"error", err,
		)
		return s.storeError("Failed to update event type", err)
	}

	s.cfg.Log.Info("Event type updated successfully", "id", id, "name", merged.Name)
	return nil
}

func (s *eventTypeService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Event type ID cannot be empty")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, eventtypeerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("EventType", id)
		}
		if errors.Is(err, eventtypeerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid event type ID format")
		}
		s.cfg.Log.Error("Failed to deactivate event type",
			"id", id,
			"error", err,
		)
		return s.storeError("Failed to delete event type", err)
	}

	s.cfg.Log.Info("Event type deactivated", "id", id)
	return nil
}

func (s *eventTypeService) resolveSchedule(ctx context.Context, scheduleID string) error {
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Schedule", scheduleID)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid schedule ID format")
		}
		return s.storeError("Failed to resolve schedule", err)
	}
	return nil
}

func (s *eventTypeService) sanitize(et *model.EventType) {
	et.Name = sanitizer.NormalizeName(et.Name)
	et.Description = sanitizer.TrimAndNormalize(et.Description)
	et.Location = sanitizer.TrimAndNormalize(et.Location)
	et.HostName = sanitizer.NormalizeName(et.HostName)
	et.HostEmail = sanitizer.NormalizeEmail(et.HostEmail)
	if et.Slug == "" {
		et.Slug = sanitizer.Slugify(et.Name)
	} else {
		et.Slug = sanitizer.Slugify(et.Slug)
	}
}

func (s *eventTypeService) applyDefaults(et *model.EventType) {
	if et.DurationMin == 0 {
		et.DurationMin = s.cfg.DefaultSlotDurationMin
	}
	if et.BookingType == "" {
		et.BookingType = model.BookingTypeOneOnOne
	}
	if et.Capacity == 0 {
		et.Capacity = s.cfg.DefaultCapacity
	}
	et.Active = true
}

func (s *eventTypeService) mergeUpdates(existing *model.EventType, updates *model.EventTypeUpdate) *model.EventType {
	merged := *existing

	if updates.Name != "" {
		merged.Name = sanitizer.NormalizeName(updates.Name)
		merged.Slug = sanitizer.Slugify(merged.Name)
	}
	if updates.Description != "" {
		merged.Description = sanitizer.TrimAndNormalize(updates.Description)
	}
	if updates.Location != "" {
		merged.Location = sanitizer.TrimAndNormalize(updates.Location)
	}
	if updates.HostName != "" {
		merged.HostName = sanitizer.NormalizeName(updates.HostName)
	}
	if updates.HostEmail != "" {
		merged.HostEmail = sanitizer.NormalizeEmail(updates.HostEmail)
	}
	if updates.DurationMin != nil {
		merged.DurationMin = *updates.DurationMin
	}
	if updates.BufferBeforeMin != nil {
		merged.BufferBeforeMin = *updates.BufferBeforeMin
	}
	if updates.BufferAfterMin != nil {
		merged.BufferAfterMin = *updates.BufferAfterMin
	}
	if updates.BookingType != "" {
		merged.BookingType = updates.BookingType
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.ScheduleID != "" {
		merged.ScheduleID = updates.ScheduleID
	}
	if updates.Active != nil {
		merged.Active = *updates.Active
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}

func (s *eventTypeService) storeError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable("event type store")
	}
	return apperrors.Internal(message, err)
}
