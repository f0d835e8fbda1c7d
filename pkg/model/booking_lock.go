package model

import "time"

// BookingLock is an advisory lock keyed by event type, held for the
// duration of an admission check. Keying by event type rather than by
// slot covers racing attempts whose start times differ but overlap.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
