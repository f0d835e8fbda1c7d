package model

import "time"

const (
	BookingTypeOneOnOne = "one_on_one"
	BookingTypeGroup    = "group"
)

type EventType struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Slug            string    `json:"slug,omitempty" bson:"slug" validate:"omitempty,min=2,max=120"`
	Description     string    `json:"description,omitempty" bson:"description" validate:"omitempty,max=500"`
	Location        string    `json:"location,omitempty" bson:"location" validate:"omitempty,max=200"`
	HostName        string    `json:"host_name,omitempty" bson:"host_name" validate:"omitempty,min=2,max=100"`
	HostEmail       string    `json:"host_email,omitempty" bson:"host_email" validate:"omitempty,email"`
	DurationMin     int       `json:"duration_min" bson:"duration_min" validate:"required,min=5,max=480"`
	BufferBeforeMin int       `json:"buffer_before_min" bson:"buffer_before_min" validate:"min=0,max=240"`
	BufferAfterMin  int       `json:"buffer_after_min" bson:"buffer_after_min" validate:"min=0,max=240"`
	BookingType     string    `json:"booking_type" bson:"booking_type" validate:"required,oneof=one_on_one group"`
	Capacity        int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=200"`
	ScheduleID      string    `json:"schedule_id" bson:"schedule_id" validate:"required,mongodb"`
	Active          bool      `json:"active" bson:"active"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type EventTypeUpdate struct {
	Name            string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description     string `json:"description,omitempty" validate:"omitempty,max=500"`
	Location        string `json:"location,omitempty" validate:"omitempty,max=200"`
	HostName        string `json:"host_name,omitempty" validate:"omitempty,min=2,max=100"`
	HostEmail       string `json:"host_email,omitempty" validate:"omitempty,email"`
	DurationMin     *int   `json:"duration_min,omitempty" validate:"omitempty,min=5,max=480"`
	BufferBeforeMin *int   `json:"buffer_before_min,omitempty" validate:"omitempty,min=0,max=240"`
	BufferAfterMin  *int   `json:"buffer_after_min,omitempty" validate:"omitempty,min=0,max=240"`
	BookingType     string `json:"booking_type,omitempty" validate:"omitempty,oneof=one_on_one group"`
	Capacity        *int   `json:"capacity,omitempty" validate:"omitempty,min=1,max=200"`
	ScheduleID      string `json:"schedule_id,omitempty" validate:"omitempty,mongodb"`
	Active          *bool  `json:"active,omitempty"`
}

// EffectiveCapacity is the number of seats per slot. One-on-one event
// types always have a single seat regardless of the stored capacity.
func (e *EventType) EffectiveCapacity() int {
	if e.BookingType == BookingTypeOneOnOne {
		return 1
	}
	return e.Capacity
}
