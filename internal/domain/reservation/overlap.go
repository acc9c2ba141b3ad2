package reservation

import (
	"time"

	"github.com/google/uuid"
)

// Overlaps reports whether the half-open date ranges [a1,a2) and [b1,b2)
// share at least one night: a1 < b2 && b1 < a2. Back-to-back stays, where
// one guest departs the day another arrives, do not overlap.
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && b1.Before(a2)
}

// HasOverlap reports whether any blocking reservation in the slice intersects
// [checkIn, checkOut). Reservations whose hold has expired do not block.
// excludeID skips the reservation being modified; pass uuid.Nil for create
// flows.
func HasOverlap(reservations []*Reservation, checkIn, checkOut time.Time, excludeID uuid.UUID, now time.Time) bool {
	return CountOverlapping(reservations, checkIn, checkOut, excludeID, now) > 0
}

// CountOverlapping counts blocking reservations intersecting
// [checkIn, checkOut), used for pooled room-type inventory.
func CountOverlapping(reservations []*Reservation, checkIn, checkOut time.Time, excludeID uuid.UUID, now time.Time) int {
	count := 0
	for _, r := range reservations {
		if excludeID != uuid.Nil && r.ID() == excludeID {
			continue
		}
		if !r.IsBlocking(now) {
			continue
		}
		if Overlaps(r.CheckInDate(), r.CheckOutDate(), checkIn, checkOut) {
			count++
		}
	}
	return count
}

// CountOverlappingLocks counts unexpired room locks intersecting
// [checkIn, checkOut), excluding any lock owned by excludeReservationID.
func CountOverlappingLocks(locks []*RoomLock, checkIn, checkOut time.Time, excludeReservationID uuid.UUID, now time.Time) int {
	count := 0
	for _, l := range locks {
		if excludeReservationID != uuid.Nil && l.ReservationID == excludeReservationID {
			continue
		}
		if l.Expired(now) {
			continue
		}
		if Overlaps(l.CheckInDate, l.CheckOutDate, checkIn, checkOut) {
			count++
		}
	}
	return count
}
