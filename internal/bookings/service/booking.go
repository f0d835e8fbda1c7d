package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meetly/internal/availability"
	bookingerrors "meetly/internal/bookings/errors"
	"meetly/internal/bookings/repository"
	"meetly/internal/bookings/validator"
	eventtypeerrors "meetly/internal/eventtypes/errors"
	scheduleerrors "meetly/internal/schedules/errors"
	"meetly/pkg/config"
	apperrors "meetly/pkg/errors"
	"meetly/pkg/interval"
	"meetly/pkg/kafka"
	"meetly/pkg/model"
	"meetly/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	EventBookingConfirmed   = "booking.confirmed"
	EventBookingCancelled   = "booking.cancelled"
	EventBookingRescheduled = "booking.rescheduled"
)

// Booking instants arrive as naive local time in the schedule's zone.
var startLayouts = []string{"2006-01-02 15:04:05", "2006-01-02 15:04"}

type EventTypeGetter interface {
	FindByID(ctx context.Context, id string) (*model.EventType, error)
}

type ScheduleGetter interface {
	FindByID(ctx context.Context, id string) (*model.Schedule, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookRequest struct {
	EventTypeID string `json:"event_type_id"`
	Start       string `json:"start"`
	BookerName  string `json:"booker_name"`
	BookerEmail string `json:"booker_email"`
	Notes       string `json:"notes,omitempty"`
}

// ListFilter narrows booking listings. When is "", "upcoming" or
// "past"; From/To are "YYYY-MM-DD" bounds on the start time.
type ListFilter struct {
	EventTypeID string
	Status      string
	When        string
	From        string
	To          string
}

type BookingService interface {
	Book(ctx context.Context, req *BookRequest) (*model.Booking, error)
	Reschedule(ctx context.Context, id, newStart string) (*model.Booking, error)
	Cancel(ctx context.Context, id, reason string) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, filter ListFilter, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	locks      repository.BookingLockRepository
	eventTypes EventTypeGetter
	schedules  ScheduleGetter
	publisher  EventPublisher
	validator  *validator.BookingValidator
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	locks repository.BookingLockRepository,
	eventTypes EventTypeGetter,
	schedules ScheduleGetter,
	publisher EventPublisher,
	bookingValidator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		locks:      locks,
		eventTypes: eventTypes,
		schedules:  schedules,
		publisher:  publisher,
		validator:  bookingValidator,
		cfg:        cfg,
	}
}

// Book admits a new booking for the requested start time. Admission is
// serialized by an advisory lock per event type and the occupancy
// re-check runs inside the same transaction that inserts the booking,
// so two racing bookers cannot both pass the capacity check. The lock
// must cover the whole event type: racing bookings with different but
// overlapping start times would take disjoint per-slot locks, and the
// transactions alone do not conflict on disjoint inserts.
func (s *bookingService) Book(ctx context.Context, req *BookRequest) (*model.Booking, error) {
	if req.EventTypeID == "" {
		return nil, apperrors.InvalidInput("Event type ID cannot be empty")
	}

	et, err := s.getEventType(ctx, req.EventTypeID)
	if err != nil {
		return nil, err
	}
	if !et.Active {
		return nil, apperrors.NotFoundWithID("EventType", req.EventTypeID)
	}

	start, err := s.parseStart(ctx, et, req.Start)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		EventTypeID: et.ID,
		BookerName:  sanitizer.NormalizeName(req.BookerName),
		BookerEmail: sanitizer.NormalizeEmail(req.BookerEmail),
		Notes:       sanitizer.TrimAndNormalize(req.Notes),
		StartTime:   start,
		EndTime:     start.Add(time.Duration(et.DurationMin) * time.Minute),
		Status:      model.BookingStatusConfirmed,
	}

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"event_type_id", et.ID,
			"error", err,
		)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.admitAndInsert(ctx, et, booking, ""); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking confirmed",
		"id", booking.ID,
		"event_type_id", et.ID,
		"start", booking.StartTime,
	)
	s.publishEvent(EventBookingConfirmed, booking)
	return booking, nil
}

// Reschedule supersedes a confirmed booking with a new one at newStart.
// Marking the old booking rescheduled, re-checking occupancy for the
// new interval and inserting the replacement happen in one transaction:
// a rejected new slot rolls everything back and the old booking stays
// confirmed.
func (s *bookingService) Reschedule(ctx context.Context, id, newStart string) (*model.Booking, error) {
	old, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status != model.BookingStatusConfirmed {
		return nil, apperrors.NotFoundWithID("Booking", id)
	}

	// Deactivated event types keep serving their existing bookings.
	et, err := s.getEventType(ctx, old.EventTypeID)
	if err != nil {
		return nil, err
	}

	start, err := s.parseStart(ctx, et, newStart)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		EventTypeID:       et.ID,
		BookerName:        old.BookerName,
		BookerEmail:       old.BookerEmail,
		Notes:             old.Notes,
		StartTime:         start,
		EndTime:           start.Add(time.Duration(et.DurationMin) * time.Minute),
		Status:            model.BookingStatusConfirmed,
		RescheduledFromID: old.ID,
	}

	if err := s.validator.Validate(booking); err != nil {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	opCtx := context.WithoutCancel(ctx)
	if err := s.acquireLock(opCtx, et.ID); err != nil {
		return nil, err
	}
	defer s.releaseLock(opCtx, et.ID)

	err = s.repo.ExecuteTransaction(opCtx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.UpdateStatus(sessCtx, old.ID, model.BookingStatusRescheduled, ""); err != nil {
			return s.storeError("Failed to mark booking rescheduled", err)
		}
		if err := s.checkOccupancy(sessCtx, et, booking, old.ID); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return s.storeError("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, asAdmissionError(err)
	}

	s.cfg.Log.Info("Booking rescheduled",
		"old_id", old.ID,
		"new_id", booking.ID,
		"start", booking.StartTime,
	)
	s.publishEvent(EventBookingRescheduled, booking)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id, reason string) error {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != model.BookingStatusConfirmed {
		return apperrors.Conflict("Only confirmed bookings can be cancelled")
	}

	reason = sanitizer.TrimAndNormalize(reason)
	if err := s.repo.UpdateStatus(ctx, id, model.BookingStatusCancelled, reason); err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return s.storeError("Failed to cancel booking", err)
	}

	s.cfg.Log.Info("Booking cancelled", "id", id)
	b.Status = model.BookingStatusCancelled
	b.CancellationReason = reason
	s.publishEvent(EventBookingCancelled, b)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to get booking by ID", "id", id, "error", err)
		return nil, s.storeError("Failed to retrieve booking", err)
	}

	return b, nil
}

func (s *bookingService) GetAll(ctx context.Context, filter ListFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	repoFilter, err := toRepoFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx, repoFilter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = s.storeError("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindAll(sharedCtx, repoFilter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = s.storeError("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

// admitAndInsert serializes on the event type lock, then re-checks
// occupancy and inserts in one transaction. The transaction runs under
// context.WithoutCancel: once admission starts, it commits or rolls
// back, never stops half-applied because the caller went away.
func (s *bookingService) admitAndInsert(ctx context.Context, et *model.EventType, booking *model.Booking, excludeID string) error {
	opCtx := context.WithoutCancel(ctx)

	if err := s.acquireLock(opCtx, et.ID); err != nil {
		return err
	}
	defer s.releaseLock(opCtx, et.ID)

	err := s.repo.ExecuteTransaction(opCtx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkOccupancy(sessCtx, et, booking, excludeID); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return s.storeError("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		return asAdmissionError(err)
	}
	return nil
}

func (s *bookingService) checkOccupancy(ctx context.Context, et *model.EventType, booking *model.Booking, excludeID string) error {
	bufBefore := time.Duration(et.BufferBeforeMin) * time.Minute
	bufAfter := time.Duration(et.BufferAfterMin) * time.Minute

	// Widened by the buffers so bookings whose expansion reaches into
	// the candidate interval are fetched too.
	existing, err := s.repo.FindOverlapping(ctx, et.ID,
		booking.StartTime.Add(-bufAfter),
		booking.EndTime.Add(bufBefore),
	)
	if err != nil {
		return s.storeError("Failed to load overlapping bookings", err)
	}

	if excludeID != "" {
		filtered := existing[:0]
		for _, b := range existing {
			if b.ID != excludeID {
				filtered = append(filtered, b)
			}
		}
		existing = filtered
	}

	candidate := interval.New(booking.StartTime, booking.EndTime)
	occupancy := availability.CountOccupancy(existing, candidate, bufBefore, bufAfter)
	if occupancy >= et.EffectiveCapacity() {
		return apperrors.SlotUnavailable("Requested slot is no longer available")
	}
	return nil
}

func (s *bookingService) acquireLock(ctx context.Context, eventTypeID string) error {
	if err := s.locks.Acquire(ctx, lockKey(eventTypeID)); err != nil {
		if errors.Is(err, bookingerrors.ErrLockNotAcquired) {
			return apperrors.SlotUnavailable("Another booking for this event type is in progress")
		}
		s.cfg.Log.Error("Failed to acquire admission lock",
			"event_type_id", eventTypeID,
			"error", err,
		)
		return s.storeError("Failed to acquire admission lock", err)
	}
	return nil
}

func (s *bookingService) releaseLock(ctx context.Context, eventTypeID string) {
	if err := s.locks.Release(ctx, lockKey(eventTypeID)); err != nil {
		// Abandoned locks expire via TTL.
		s.cfg.Log.Warn("Failed to release admission lock",
			"event_type_id", eventTypeID,
			"error", err,
		)
	}
}

func lockKey(eventTypeID string) string {
	return fmt.Sprintf("admission:%s", eventTypeID)
}

// parseStart interprets a naive "YYYY-MM-DD HH:MM[:SS]" instant in the
// time zone of the event type's schedule.
func (s *bookingService) parseStart(ctx context.Context, et *model.EventType, raw string) (time.Time, error) {
	if et.ScheduleID == "" {
		return time.Time{}, apperrors.NotFound("Schedule")
	}

	sc, err := s.getSchedule(ctx, et.ScheduleID)
	if err != nil {
		return time.Time{}, err
	}

	loc, err := time.LoadLocation(sc.TimeZone)
	if err != nil {
		s.cfg.Log.Error("Schedule has unloadable time zone",
			"schedule_id", sc.ID,
			"time_zone", sc.TimeZone,
			"error", err,
		)
		return time.Time{}, apperrors.Internal("Failed to load schedule time zone", err)
	}

	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.InvalidInput("Start must be in YYYY-MM-DD HH:MM format")
}

func (s *bookingService) getEventType(ctx context.Context, id string) (*model.EventType, error) {
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
	return et, nil
}

func (s *bookingService) getSchedule(ctx context.Context, id string) (*model.Schedule, error) {
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

func (s *bookingService) publishEvent(eventType string, b *model.Booking) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	msg := kafka.NewMessage().
		WithKey(b.ID).
		WithEventType(eventType).
		WithSource("meetly").
		WithSchemaVersion("1").
		WithValue(b).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		// Booking state is already committed; event delivery is best
		// effort and failures only get logged.
		s.cfg.Log.Warn("Failed to publish booking event",
			"event", eventType,
			"booking_id", b.ID,
			"error", err,
		)
	}
}

func toRepoFilter(filter ListFilter) (repository.BookingFilter, error) {
	repoFilter := repository.BookingFilter{
		EventTypeID: filter.EventTypeID,
		Status:      filter.Status,
	}

	switch filter.When {
	case "":
	case "upcoming":
		repoFilter.From = time.Now().UTC()
	case "past":
		repoFilter.To = time.Now().UTC()
	default:
		return repository.BookingFilter{}, apperrors.InvalidInput("when must be 'upcoming' or 'past'")
	}

	if filter.From != "" {
		from, err := time.Parse("2006-01-02", filter.From)
		if err != nil {
			return repository.BookingFilter{}, apperrors.InvalidInput("from must be in YYYY-MM-DD format")
		}
		repoFilter.From = from
	}
	if filter.To != "" {
		to, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return repository.BookingFilter{}, apperrors.InvalidInput("to must be in YYYY-MM-DD format")
		}
		repoFilter.To = to
	}

	return repoFilter, nil
}

func (s *bookingService) storeError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable("booking store")
	}
	return apperrors.Internal(message, err)
}

// asAdmissionError keeps AppErrors raised inside the transaction intact
// and wraps anything else, like a transaction commit failure.
func asAdmissionError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Booking transaction failed", err)
}
