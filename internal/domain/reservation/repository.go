package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for reservation aggregates.
// Reservations are never deleted; terminal states are retained for audit.
type Repository interface {
	// FindByID retrieves a reservation by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindByGuestID retrieves a guest's reservations with pagination,
	// newest first.
	FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*Reservation, int64, error)

	// FindActivePendingByGuest returns the guest's unexpired pending
	// reservation, or nil if none exists.
	FindActivePendingByGuest(ctx context.Context, guestID uuid.UUID, now time.Time) (*Reservation, error)

	// FindBlockingByRoom retrieves reservations for the room that overlap
	// [checkIn, checkOut) and count toward the no-double-booking invariant.
	// excludeID skips the reservation being modified; pass uuid.Nil otherwise.
	FindBlockingByRoom(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeID uuid.UUID, now time.Time) ([]*Reservation, error)

	// FindExpiredPending retrieves pending reservations whose hold deadline
	// has passed.
	FindExpiredPending(ctx context.Context, now time.Time) ([]*Reservation, error)

	// FindByPaymentLinkToken retrieves a reservation by its deferred-payment
	// token.
	FindByPaymentLinkToken(ctx context.Context, token string) (*Reservation, error)

	// ListAll retrieves all reservations with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Reservation, int64, error)

	// Save persists a new reservation.
	Save(ctx context.Context, r *Reservation) error

	// Update persists changes to an existing reservation with optimistic
	// locking.
	Update(ctx context.Context, r *Reservation) error

	// CancelIfPending atomically cancels the reservation only if it is still
	// pending, returning whether this caller performed the transition. This
	// status guard is what makes the expiry sweep idempotent and safe against
	// a concurrent payment confirmation.
	CancelIfPending(ctx context.Context, id uuid.UUID, reason string, now time.Time) (bool, error)
}

// LockRepository defines the persistence contract for room locks.
type LockRepository interface {
	// AcquireWithReservation atomically verifies availability and inserts the
	// lock together with its pending reservation. Availability means fewer
	// than poolSize blocking reservations plus live locks overlap the
	// requested window. Returns RoomNotAvailableError when the race is lost.
	AcquireWithReservation(ctx context.Context, lock *RoomLock, r *Reservation, poolSize int, now time.Time) error

	// RescheduleWithReservation atomically verifies availability for the
	// reservation's new window (its own footprint excluded) and persists the
	// rescheduled reservation, moving its lock if one is still held. The same
	// serialization as AcquireWithReservation applies, so a concurrent
	// acquisition for the window cannot slip between the check and the write.
	RescheduleWithReservation(ctx context.Context, r *Reservation, poolSize int, now time.Time) error

	// FindOverlapping retrieves unexpired locks for the room intersecting
	// [checkIn, checkOut).
	FindOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, now time.Time) ([]*RoomLock, error)

	// ReleaseByReservationID removes the lock held for a reservation, if any.
	ReleaseByReservationID(ctx context.Context, reservationID uuid.UUID) error

	// DeleteExpired removes locks past their TTL, returning how many were
	// reclaimed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
