package model

// Slot is a bookable start time with the number of seats still open.
// Slots are computed per request and never persisted; Time is the
// wall-clock "HH:MM" start in the owning schedule's time zone.
type Slot struct {
	Time           string `json:"time"`
	AvailableSeats int    `json:"available_seats"`
}
