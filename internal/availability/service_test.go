package availability

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	eventtypeerrors "meetly/internal/eventtypes/errors"
	"meetly/pkg/config"
	apperrors "meetly/pkg/errors"
	"meetly/pkg/logger"
	"meetly/pkg/model"
)

const (
	testEventTypeID = "607f1f77bcf86cd799439012"
	testSchedID     = "507f1f77bcf86cd799439011"
	testMonday      = "2026-03-02"
)

type mockEventTypeGetter struct {
	findByIDFunc func(ctx context.Context, id string) (*model.EventType, error)
}

func (m *mockEventTypeGetter) FindByID(ctx context.Context, id string) (*model.EventType, error) {
	return m.findByIDFunc(ctx, id)
}

type mockScheduleGetter struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Schedule, error)
}

func (m *mockScheduleGetter) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return weekdaySchedule(), nil
}

type mockBookingFinder struct {
	findOverlappingFunc func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error)
}

func (m *mockBookingFinder) FindOverlapping(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, eventTypeID, start, end)
	}
	return []*model.Booking{}, nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	return &config.Config{
		Log:              log,
		ReadTimeout:      5 * time.Second,
		MaxSlotRangeDays: 90,
	}
}

func oneOnOneEventType() *model.EventType {
	return &model.EventType{
		ID:          testEventTypeID,
		Name:        "Intro Call",
		Slug:        "intro-call",
		DurationMin: 30,
		BookingType: model.BookingTypeOneOnOne,
		Capacity:    1,
		ScheduleID:  testSchedID,
		Active:      true,
	}
}

func newListService(et *model.EventType, sc *model.Schedule, bookings []*model.Booking) AvailabilityService {
	eventTypes := &mockEventTypeGetter{
		findByIDFunc: func(ctx context.Context, id string) (*model.EventType, error) {
			return et, nil
		},
	}
	schedules := &mockScheduleGetter{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return sc, nil
		},
	}
	finder := &mockBookingFinder{
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			return bookings, nil
		},
	}
	return NewAvailabilityService(eventTypes, schedules, finder, testConfig())
}

func TestListSlots_FullOpenDay(t *testing.T) {
	svc := newListService(oneOnOneEventType(), weekdaySchedule(), nil)

	slots, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for 09:00-17:00 at 30min, got %d", len(slots))
	}
	if slots[0].Time != "09:00" || slots[15].Time != "16:30" {
		t.Errorf("expected 09:00..16:30, got %s..%s", slots[0].Time, slots[15].Time)
	}
	for _, s := range slots {
		if s.AvailableSeats != 1 {
			t.Errorf("slot %s: expected 1 seat, got %d", s.Time, s.AvailableSeats)
		}
	}
}

func TestListSlots_BookedSlotExcluded(t *testing.T) {
	bookings := []*model.Booking{confirmedBooking("10:00", "10:30")}
	svc := newListService(oneOnOneEventType(), weekdaySchedule(), bookings)

	slots, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Time == "10:00" {
			t.Errorf("booked 10:00 slot must not be offered")
		}
	}
}

func TestListSlots_GroupSeatsRemaining(t *testing.T) {
	et := oneOnOneEventType()
	et.BookingType = model.BookingTypeGroup
	et.Capacity = 3

	bookings := []*model.Booking{
		confirmedBooking("10:00", "10:30"),
		confirmedBooking("10:00", "10:30"),
	}
	svc := newListService(et, weekdaySchedule(), bookings)

	slots, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, s := range slots {
		if s.Time == "10:00" {
			found = true
			if s.AvailableSeats != 1 {
				t.Errorf("expected 1 seat left at 10:00, got %d", s.AvailableSeats)
			}
		} else if s.AvailableSeats != 3 {
			t.Errorf("slot %s: expected 3 seats, got %d", s.Time, s.AvailableSeats)
		}
	}
	if !found {
		t.Error("10:00 slot with remaining seats must still be offered")
	}
}

func TestListSlots_BufferBlocksAdjacentSlots(t *testing.T) {
	et := oneOnOneEventType()
	et.BufferBeforeMin = 15
	et.BufferAfterMin = 15

	bookings := []*model.Booking{confirmedBooking("10:00", "10:30")}
	svc := newListService(et, weekdaySchedule(), bookings)

	slots, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range slots {
		if s.Time == "09:30" || s.Time == "10:00" || s.Time == "10:30" {
			t.Errorf("slot %s falls inside the buffered booking and must be excluded", s.Time)
		}
	}
	if len(slots) != 13 {
		t.Errorf("expected 13 slots, got %d", len(slots))
	}
}

func TestListSlots_BlockedDateYieldsEmptyList(t *testing.T) {
	sc := weekdaySchedule()
	sc.Overrides = []model.DateOverride{{Date: testMonday, Windows: []model.TimeWindow{}}}
	svc := newListService(oneOnOneEventType(), sc, nil)

	slots, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err != nil {
		t.Fatalf("blocked date must not be an error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected empty slot list, got %+v", slots)
	}
}

func TestListSlots_Idempotent(t *testing.T) {
	bookings := []*model.Booking{confirmedBooking("11:00", "11:30")}
	svc := newListService(oneOnOneEventType(), weekdaySchedule(), bookings)

	first, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("listing twice with no writes must match: %+v vs %+v", first, second)
	}
}

func TestListSlots_EventTypeNotFound(t *testing.T) {
	eventTypes := &mockEventTypeGetter{
		findByIDFunc: func(ctx context.Context, id string) (*model.EventType, error) {
			return nil, fmt.Errorf("%w: %s", eventtypeerrors.ErrNotFound, id)
		},
	}
	svc := NewAvailabilityService(eventTypes, &mockScheduleGetter{}, &mockBookingFinder{}, testConfig())

	_, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestListSlots_NoScheduleAssigned(t *testing.T) {
	et := oneOnOneEventType()
	et.ScheduleID = ""
	svc := newListService(et, weekdaySchedule(), nil)

	_, err := svc.ListSlots(context.Background(), testEventTypeID, testMonday)
	if err == nil {
		t.Fatal("expected not found error for missing schedule reference")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestListSlots_DateBeyondHorizon(t *testing.T) {
	svc := newListService(oneOnOneEventType(), weekdaySchedule(), nil)

	_, err := svc.ListSlots(context.Background(), testEventTypeID, "2200-01-01")
	if err == nil {
		t.Fatal("expected error for date beyond booking horizon")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestListSlots_InvalidDate(t *testing.T) {
	svc := newListService(oneOnOneEventType(), weekdaySchedule(), nil)

	_, err := svc.ListSlots(context.Background(), testEventTypeID, "March 2nd")
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}
