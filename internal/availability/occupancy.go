package availability

import (
	"time"

	"meetly/pkg/interval"
	"meetly/pkg/model"
)

// CountOccupancy counts the confirmed bookings whose buffer-expanded
// interval overlaps the candidate slot. The buffers widen the stored
// booking, not the candidate: they protect time around existing
// commitments, so two back-to-back slots with zero buffers never
// conflict.
func CountOccupancy(bookings []*model.Booking, slot interval.Span, bufBefore, bufAfter time.Duration) int {
	count := 0
	for _, b := range bookings {
		if b.Status != model.BookingStatusConfirmed {
			continue
		}
		booked := interval.New(b.StartTime, b.EndTime).Expand(bufBefore, bufAfter)
		if booked.Overlaps(slot) {
			count++
		}
	}
	return count
}
