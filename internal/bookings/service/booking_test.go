package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "meetly/internal/bookings/errors"
	"meetly/internal/bookings/repository"
	"meetly/internal/bookings/validator"
	"meetly/pkg/config"
	mongotx "meetly/pkg/db/mongo"
	apperrors "meetly/pkg/errors"
	"meetly/pkg/kafka"
	"meetly/pkg/logger"
	"meetly/pkg/model"
)

const (
	testEventTypeID = "607f1f77bcf86cd799439012"
	testSchedID     = "507f1f77bcf86cd799439011"
	testBookingID   = "707f1f77bcf86cd799439013"
)

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, b *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findOverlappingFunc func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error)
	findAllFunc         func(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	countFunc           func(ctx context.Context, filter repository.BookingFilter) (int64, error)
	updateStatusFunc    func(ctx context.Context, id, status, reason string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	b.ID = testBookingID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, eventTypeID, start, end)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, filter repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id, status, reason string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, reason)
	}
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

// memLockRepository mimics the atomic insert-or-fail lock document.
type memLockRepository struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLockRepository() *memLockRepository {
	return &memLockRepository{held: make(map[string]bool)}
}

func (m *memLockRepository) Acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return fmt.Errorf("%w: %s", bookingerrors.ErrLockNotAcquired, key)
	}
	m.held[key] = true
	return nil
}

func (m *memLockRepository) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

type mockEventTypeGetter struct {
	findByIDFunc func(ctx context.Context, id string) (*model.EventType, error)
}

func (m *mockEventTypeGetter) FindByID(ctx context.Context, id string) (*model.EventType, error) {
	return m.findByIDFunc(ctx, id)
}

type mockScheduleGetter struct{}

func (m *mockScheduleGetter) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	return &model.Schedule{ID: id, Name: "Office Hours", TimeZone: "UTC"}, nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, msg := range m.messages {
		types = append(types, msg.GetEventType())
	}
	return types
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	return &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		SlotLockTTL:  30 * time.Second,
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

func eventTypeGetterFor(et *model.EventType) *mockEventTypeGetter {
	return &mockEventTypeGetter{
		findByIDFunc: func(ctx context.Context, id string) (*model.EventType, error) {
			return et, nil
		},
	}
}

func newTestService(repo *mockBookingRepository, et *model.EventType, publisher EventPublisher) BookingService {
	cfg := testConfig()
	return NewBookingService(
		repo,
		newMemLockRepository(),
		eventTypeGetterFor(et),
		&mockScheduleGetter{},
		publisher,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)
}

func bookRequest(start string) *BookRequest {
	return &BookRequest{
		EventTypeID: testEventTypeID,
		Start:       start,
		BookerName:  "  dana  ",
		BookerEmail: "Dana@Example.com",
	}
}

func TestBook_AdmitsOpenSlot(t *testing.T) {
	var created *model.Booking
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, b *model.Booking) error {
			b.ID = testBookingID
			created = b
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, oneOnOneEventType(), publisher)

	booking, err := svc.Book(context.Background(), bookRequest("2026-03-02 10:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.BookingStatusConfirmed {
		t.Errorf("expected confirmed booking, got %q", booking.Status)
	}
	if !booking.EndTime.Equal(booking.StartTime.Add(30 * time.Minute)) {
		t.Errorf("end must be start+duration, got %v..%v", booking.StartTime, booking.EndTime)
	}
	if created.BookerName != "dana" || created.BookerEmail != "dana@example.com" {
		t.Errorf("booker identity not normalized: %q %q", created.BookerName, created.BookerEmail)
	}

	events := publisher.eventTypes()
	if len(events) != 1 || events[0] != EventBookingConfirmed {
		t.Errorf("expected one %s event, got %v", EventBookingConfirmed, events)
	}
}

func TestBook_RejectsOccupiedOneOnOneSlot(t *testing.T) {
	existing := &model.Booking{
		ID:          "807f1f77bcf86cd799439014",
		EventTypeID: testEventTypeID,
		StartTime:   time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC),
		Status:      model.BookingStatusConfirmed,
	}
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			return []*model.Booking{existing}, nil
		},
		createFunc: func(ctx context.Context, b *model.Booking) error {
			t.Fatal("rejected booking must not be inserted")
			return nil
		},
	}
	svc := newTestService(repo, oneOnOneEventType(), nil)

	_, err := svc.Book(context.Background(), bookRequest("2026-03-02 10:00"))
	if err == nil {
		t.Fatal("expected slot unavailable error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeSlotUnavailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeSlotUnavailable, appErr.Code)
	}
}

func TestBook_BackToBackAdmitted(t *testing.T) {
	existing := &model.Booking{
		ID:          "807f1f77bcf86cd799439014",
		EventTypeID: testEventTypeID,
		StartTime:   time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC),
		Status:      model.BookingStatusConfirmed,
	}
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			return []*model.Booking{existing}, nil
		},
	}
	svc := newTestService(repo, oneOnOneEventType(), nil)

	booking, err := svc.Book(context.Background(), bookRequest("2026-03-02 10:30"))
	if err != nil {
		t.Fatalf("back-to-back slot with no buffers must be admitted: %v", err)
	}
	if booking.Status != model.BookingStatusConfirmed {
		t.Errorf("expected confirmed booking, got %q", booking.Status)
	}
}

func TestBook_BufferBlocksAdjacentSlot(t *testing.T) {
	et := oneOnOneEventType()
	et.BufferAfterMin = 15

	existing := &model.Booking{
		ID:          "807f1f77bcf86cd799439014",
		EventTypeID: testEventTypeID,
		StartTime:   time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC),
		Status:      model.BookingStatusConfirmed,
	}
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			return []*model.Booking{existing}, nil
		},
	}
	svc := newTestService(repo, et, nil)

	_, err := svc.Book(context.Background(), bookRequest("2026-03-02 10:30"))
	if err == nil {
		t.Fatal("buffer after existing booking must block the adjacent slot")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeSlotUnavailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeSlotUnavailable, appErr.Code)
	}
}

func TestBook_GroupAdmitsUpToCapacity(t *testing.T) {
	et := oneOnOneEventType()
	et.BookingType = model.BookingTypeGroup
	et.Capacity = 3

	start := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	occupied := []*model.Booking{
		{ID: "807f1f77bcf86cd799439014", EventTypeID: testEventTypeID, StartTime: start, EndTime: start.Add(30 * time.Minute), Status: model.BookingStatusConfirmed},
		{ID: "807f1f77bcf86cd799439015", EventTypeID: testEventTypeID, StartTime: start, EndTime: start.Add(30 * time.Minute), Status: model.BookingStatusConfirmed},
	}
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			return occupied, nil
		},
	}
	svc := newTestService(repo, et, nil)

	if _, err := svc.Book(context.Background(), bookRequest("2026-03-02 10:00")); err != nil {
		t.Fatalf("third seat of capacity 3 must be admitted: %v", err)
	}
}

func TestBook_ConcurrentOneOnOneAdmitsExactlyOne(t *testing.T) {
	var mu sync.Mutex
	var store []*model.Booking

	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			mu.Lock()
			defer mu.Unlock()
			var out []*model.Booking
			for _, b := range store {
				if b.StartTime.Before(end) && start.Before(b.EndTime) {
					out = append(out, b)
				}
			}
			return out, nil
		},
		createFunc: func(ctx context.Context, b *model.Booking) error {
			mu.Lock()
			defer mu.Unlock()
			b.ID = fmt.Sprintf("a07f1f77bcf86cd79943%04d", len(store))
			store = append(store, b)
			return nil
		},
	}
	svc := newTestService(repo, oneOnOneEventType(), nil)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), bookRequest("2026-03-02 10:00"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	admitted, rejected := 0, 0
	for err := range results {
		if err == nil {
			admitted++
			continue
		}
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeSlotUnavailable {
			t.Errorf("unexpected error code %s: %v", appErr.Code, err)
		}
		rejected++
	}

	if admitted != 1 {
		t.Errorf("exactly one concurrent booking must win, got %d", admitted)
	}
	if rejected != attempts-1 {
		t.Errorf("expected %d rejections, got %d", attempts-1, rejected)
	}
	if len(store) != 1 {
		t.Errorf("store must hold exactly one booking, got %d", len(store))
	}
}

func TestBook_ConcurrentOverlappingStartsAdmitExactlyOne(t *testing.T) {
	et := oneOnOneEventType()
	et.DurationMin = 60

	var mu sync.Mutex
	var store []*model.Booking

	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			mu.Lock()
			defer mu.Unlock()
			var out []*model.Booking
			for _, b := range store {
				if b.StartTime.Before(end) && start.Before(b.EndTime) {
					out = append(out, b)
				}
			}
			return out, nil
		},
		createFunc: func(ctx context.Context, b *model.Booking) error {
			mu.Lock()
			defer mu.Unlock()
			b.ID = fmt.Sprintf("a07f1f77bcf86cd79943%04d", len(store))
			store = append(store, b)
			return nil
		},
	}
	svc := newTestService(repo, et, nil)

	// Two different start times whose 60-minute spans overlap. The
	// admission lock covers the whole event type, so the second
	// attempt either loses the lock or fails the occupancy re-check.
	starts := []string{"2026-03-02 10:00", "2026-03-02 10:30"}
	results := make(chan error, len(starts))
	var wg sync.WaitGroup
	for _, start := range starts {
		wg.Add(1)
		go func(start string) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), bookRequest(start))
			results <- err
		}(start)
	}
	wg.Wait()
	close(results)

	admitted := 0
	for err := range results {
		if err == nil {
			admitted++
			continue
		}
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeSlotUnavailable {
			t.Errorf("unexpected error code %s: %v", appErr.Code, err)
		}
	}

	if admitted != 1 {
		t.Errorf("overlapping starts must admit exactly one booking, got %d", admitted)
	}
	if len(store) != 1 {
		t.Errorf("store must hold exactly one booking, got %d", len(store))
	}
}

func TestBook_InvalidStart(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, oneOnOneEventType(), nil)

	_, err := svc.Book(context.Background(), bookRequest("next tuesday at ten"))
	if err == nil {
		t.Fatal("expected invalid input error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestBook_InactiveEventType(t *testing.T) {
	et := oneOnOneEventType()
	et.Active = false
	svc := newTestService(&mockBookingRepository{}, et, nil)

	_, err := svc.Book(context.Background(), bookRequest("2026-03-02 10:00"))
	if err == nil {
		t.Fatal("expected not found error for deactivated event type")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func confirmedStored(id string) *model.Booking {
	return &model.Booking{
		ID:          id,
		EventTypeID: testEventTypeID,
		BookerName:  "dana",
		BookerEmail: "dana@example.com",
		StartTime:   time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC),
		Status:      model.BookingStatusConfirmed,
	}
}

func TestReschedule_SupersedesOldBooking(t *testing.T) {
	old := confirmedStored(testBookingID)

	var statusUpdates []string
	var created *model.Booking
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return old, nil
		},
		updateStatusFunc: func(ctx context.Context, id, status, reason string) error {
			statusUpdates = append(statusUpdates, status)
			return nil
		},
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			// The old booking is still confirmed at read time and
			// must be excluded from its own reschedule check.
			return []*model.Booking{old}, nil
		},
		createFunc: func(ctx context.Context, b *model.Booking) error {
			b.ID = "907f1f77bcf86cd799439015"
			created = b
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, oneOnOneEventType(), publisher)

	booking, err := svc.Reschedule(context.Background(), testBookingID, "2026-03-02 10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.RescheduledFromID != testBookingID {
		t.Errorf("new booking must link to the old one, got %q", booking.RescheduledFromID)
	}
	if len(statusUpdates) != 1 || statusUpdates[0] != model.BookingStatusRescheduled {
		t.Errorf("old booking must be marked rescheduled, got %v", statusUpdates)
	}
	if created.BookerEmail != old.BookerEmail {
		t.Errorf("booker identity must carry over, got %q", created.BookerEmail)
	}

	events := publisher.eventTypes()
	if len(events) != 1 || events[0] != EventBookingRescheduled {
		t.Errorf("expected one %s event, got %v", EventBookingRescheduled, events)
	}
}

func TestReschedule_RejectedSlotInsertsNothing(t *testing.T) {
	old := confirmedStored(testBookingID)
	blocker := confirmedStored("807f1f77bcf86cd799439014")
	blocker.StartTime = time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)
	blocker.EndTime = blocker.StartTime.Add(30 * time.Minute)

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return old, nil
		},
		findOverlappingFunc: func(ctx context.Context, eventTypeID string, start, end time.Time) ([]*model.Booking, error) {
			return []*model.Booking{blocker}, nil
		},
		createFunc: func(ctx context.Context, b *model.Booking) error {
			t.Fatal("rejected reschedule must not insert a booking")
			return nil
		},
	}
	svc := newTestService(repo, oneOnOneEventType(), nil)

	_, err := svc.Reschedule(context.Background(), testBookingID, "2026-03-02 14:00")
	if err == nil {
		t.Fatal("expected slot unavailable error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeSlotUnavailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeSlotUnavailable, appErr.Code)
	}
}

func TestReschedule_NonConfirmedBooking(t *testing.T) {
	old := confirmedStored(testBookingID)
	old.Status = model.BookingStatusCancelled

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return old, nil
		},
	}
	svc := newTestService(repo, oneOnOneEventType(), nil)

	_, err := svc.Reschedule(context.Background(), testBookingID, "2026-03-02 14:00")
	if err == nil {
		t.Fatal("expected not found error for non-confirmed booking")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestCancel_ConfirmedBooking(t *testing.T) {
	old := confirmedStored(testBookingID)

	var gotStatus, gotReason string
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return old, nil
		},
		updateStatusFunc: func(ctx context.Context, id, status, reason string) error {
			gotStatus, gotReason = status, reason
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, oneOnOneEventType(), publisher)

	if err := svc.Cancel(context.Background(), testBookingID, "  can't make it  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotStatus != model.BookingStatusCancelled {
		t.Errorf("expected cancelled status, got %q", gotStatus)
	}
	if gotReason != "can't make it" {
		t.Errorf("reason must be trimmed, got %q", gotReason)
	}

	events := publisher.eventTypes()
	if len(events) != 1 || events[0] != EventBookingCancelled {
		t.Errorf("expected one %s event, got %v", EventBookingCancelled, events)
	}
}

func TestCancel_NonConfirmedBooking(t *testing.T) {
	old := confirmedStored(testBookingID)
	old.Status = model.BookingStatusRescheduled

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return old, nil
		},
	}
	svc := newTestService(repo, oneOnOneEventType(), nil)

	err := svc.Cancel(context.Background(), testBookingID, "")
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestGetAll_RejectsUnknownWhenFilter(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, oneOnOneEventType(), nil)

	_, _, err := svc.GetAll(context.Background(), ListFilter{When: "someday"}, 10, 0)
	if err == nil {
		t.Fatal("expected invalid input error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}
