package reservation

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long an abandoned claim can block a room. It
// matches the payment window with headroom for gateway latency.
const DefaultLockTTL = 10 * time.Minute

// RoomLock is a transient exclusive claim over a room and date window. It is
// created in the same transaction as its pending reservation and removed when
// the reservation is confirmed, cancelled, or the TTL passes.
type RoomLock struct {
	ID            uuid.UUID
	RoomID        uuid.UUID
	CheckInDate   time.Time
	CheckOutDate  time.Time
	ReservationID uuid.UUID
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// NewRoomLock creates a lock for the given claim with the given TTL.
func NewRoomLock(roomID uuid.UUID, checkIn, checkOut time.Time, reservationID uuid.UUID, now time.Time, ttl time.Duration) *RoomLock {
	return &RoomLock{
		ID:            uuid.New(),
		RoomID:        roomID,
		CheckInDate:   DateOf(checkIn),
		CheckOutDate:  DateOf(checkOut),
		ReservationID: reservationID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

// Expired reports whether the lock's TTL has passed.
func (l *RoomLock) Expired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}
