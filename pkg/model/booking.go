package model

import "time"

const (
	BookingStatusConfirmed   = "confirmed"
	BookingStatusCancelled   = "cancelled"
	BookingStatusRescheduled = "rescheduled"
)

type Booking struct {
	ID                 string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventTypeID        string    `json:"event_type_id" bson:"event_type_id" validate:"required,mongodb"`
	BookerName         string    `json:"booker_name" bson:"booker_name" validate:"required,min=2,max=100"`
	BookerEmail        string    `json:"booker_email" bson:"booker_email" validate:"required,email"`
	Notes              string    `json:"notes,omitempty" bson:"notes" validate:"omitempty,max=1000"`
	StartTime          time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime            time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Status             string    `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled rescheduled"`
	RescheduledFromID  string    `json:"rescheduled_from_id,omitempty" bson:"rescheduled_from_id,omitempty" validate:"omitempty,mongodb"`
	CancellationReason string    `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty" validate:"omitempty,max=500"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
