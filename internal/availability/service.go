package availability

import (
	"context"
	"errors"
	"time"

	eventtypeerrors "meetly/internal/eventtypes/errors"
	scheduleerrors "meetly/internal/schedules/errors"
	"meetly/pkg/config"
	apperrors "meetly/pkg/errors"
	"meetly/pkg/interval"
	"meetly/pkg/model"
)

// EventTypeGetter and ScheduleGetter are satisfied by the event type
// and schedule repositories.
type EventTypeGetter interface {
	FindByID(ctx context.Context, id string) (*model.EventType, error)
}

type ScheduleGetter interface {
	FindByID(ctx context.Context, id string) (*model.Schedule, error)
}

// BookingFinder returns the confirmed bookings of an event type that
// overlap [start, end).
type BookingFinder interface {
	FindOverlapping(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error)
}

type AvailabilityService interface {
	ListSlots(ctx context.Context, eventTypeID, date string) ([]model.Slot, error)
}

type availabilityService struct {
	eventTypes EventTypeGetter
	schedules  ScheduleGetter
	bookings   BookingFinder
	cfg        *config.Config
}

func NewAvailabilityService(
	eventTypes EventTypeGetter,
	schedules ScheduleGetter,
	bookings BookingFinder,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		eventTypes: eventTypes,
		schedules:  schedules,
		bookings:   bookings,
		cfg:        cfg,
	}
}

// ListSlots resolves the open windows of the event type's schedule for
// the given "YYYY-MM-DD" date, tiles them into candidate slots, and
// returns the candidates that still have seats. Read-only and lockless:
// results can go stale the moment they are returned, and booking
// re-validates under its own transaction.
func (s *availabilityService) ListSlots(ctx context.Context, eventTypeID, date string) ([]model.Slot, error) {
	if eventTypeID == "" {
		return nil, apperrors.InvalidInput("Event type ID cannot be empty")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	et, err := s.getEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	if et.ScheduleID == "" {
		return nil, apperrors.NotFound("Schedule")
	}

	sc, err := s.getSchedule(ctx, et.ScheduleID)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(sc.TimeZone)
	if err != nil {
		s.cfg.Log.Error("Schedule has unloadable time zone",
			"schedule_id", sc.ID,
			"time_zone", sc.TimeZone,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load schedule time zone", err)
	}

	if err := s.checkDateRange(date, loc); err != nil {
		return nil, err
	}

	windows, err := ResolveWindows(sc, date)
	if err != nil {
		return nil, apperrors.InvalidInput("Schedule contains an invalid window")
	}
	if len(windows) == 0 {
		return []model.Slot{}, nil
	}

	starts := SlotStarts(windows, et.DurationMin)
	if len(starts) == 0 {
		return []model.Slot{}, nil
	}

	day, _ := time.Parse(dateLayout, date)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	bufBefore := time.Duration(et.BufferBeforeMin) * time.Minute
	bufAfter := time.Duration(et.BufferAfterMin) * time.Minute

	// The day prefilter is widened by the buffers so a booking just
	// outside the day still blocks the slots its expansion reaches.
	bookings, err := s.bookings.FindOverlapping(ctx, eventTypeID, dayStart.Add(-bufAfter), dayEnd.Add(bufBefore))
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for slot listing",
			"event_type_id", eventTypeID,
			"date", date,
			"error", err,
		)
		return nil, s.storeError("Failed to load bookings", err)
	}

	capacity := et.EffectiveCapacity()
	duration := time.Duration(et.DurationMin) * time.Minute

	slots := make([]model.Slot, 0, len(starts))
	for _, startMin := range starts {
		slotStart := dayStart.Add(time.Duration(startMin) * time.Minute)
		candidate := interval.New(slotStart, slotStart.Add(duration))

		occupancy := CountOccupancy(bookings, candidate, bufBefore, bufAfter)
		if occupancy >= capacity {
			continue
		}
		slots = append(slots, model.Slot{
			Time:           FormatClock(startMin),
			AvailableSeats: capacity - occupancy,
		})
	}

	return slots, nil
}

func (s *availabilityService) checkDateRange(date string, loc *time.Location) error {
	day, _ := time.ParseInLocation(dateLayout, date, loc)
	horizon := time.Now().In(loc).AddDate(0, 0, s.cfg.MaxSlotRangeDays)
	if day.After(horizon) {
		return apperrors.InvalidInput("Date is beyond the booking horizon")
	}
	return nil
}

func (s *availabilityService) getEventType(ctx context.Context, id string) (*model.EventType, error) {
	et, err := s.eventTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("EventType", id)
		}
		if errors.Is(err, eventtypeerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid event type ID format")
		}
		s.cfg.Log.Error("Failed to load event type", "id", id, "error", err)
		return nil, s.storeError("Failed to load event type", err)
	}
	if !et.Active {
		return nil, apperrors.NotFoundWithID("EventType", id)
	}
	return et, nil
}

func (s *availabilityService) getSchedule(ctx context.Context, id string) (*model.Schedule, error) {
	sc, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Schedule", id)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid schedule ID format")
		}
		s.cfg.Log.Error("Failed to load schedule", "id", id, "error", err)
		return nil, s.storeError("Failed to load schedule", err)
	}
	return sc, nil
}

func (s *availabilityService) storeError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable("availability store")
	}
	return apperrors.Internal(message, err)
}
