package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	reservationDomain "github.com/harborview-hotels/service-reservation/internal/domain/reservation"
)

// LockManager serializes room-lock acquisition per room. The keyed mutex keeps
// concurrent requests for the same room inside this process from racing each
// other; the database transaction underneath settles races across processes.
type LockManager struct {
	mutexes  sync.Map // roomID -> *sync.Mutex
	lockRepo reservationDomain.LockRepository
}

// NewLockManager creates a LockManager over the given lock repository.
func NewLockManager(lockRepo reservationDomain.LockRepository) *LockManager {
	return &LockManager{lockRepo: lockRepo}
}

func (m *LockManager) roomMutex(roomID uuid.UUID) *sync.Mutex {
	mu, _ := m.mutexes.LoadOrStore(roomID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Acquire takes the per-room mutex, then atomically verifies availability and
// inserts the lock with its pending reservation. Returns
// RoomNotAvailableError when the room has no capacity left for the window.
func (m *LockManager) Acquire(ctx context.Context, lock *reservationDomain.RoomLock, res *reservationDomain.Reservation, poolSize int, now time.Time) error {
	mu := m.roomMutex(lock.RoomID)
	mu.Lock()
	defer mu.Unlock()

	return m.lockRepo.AcquireWithReservation(ctx, lock, res, poolSize, now)
}

// Reschedule takes the per-room mutex, then atomically re-verifies
// availability for the reservation's new window and persists the move. The
// serialization is the same as Acquire's, so a concurrent acquisition cannot
// land between the re-check and the write.
func (m *LockManager) Reschedule(ctx context.Context, res *reservationDomain.Reservation, poolSize int, now time.Time) error {
	mu := m.roomMutex(res.RoomID())
	mu.Lock()
	defer mu.Unlock()

	return m.lockRepo.RescheduleWithReservation(ctx, res, poolSize, now)
}

// Release removes the lock held for a reservation. Releasing twice is a no-op.
func (m *LockManager) Release(ctx context.Context, reservationID uuid.UUID) error {
	return m.lockRepo.ReleaseByReservationID(ctx, reservationID)
}

// FindOverlapping exposes the live locks intersecting a window, for
// availability reads outside the acquisition path.
func (m *LockManager) FindOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, now time.Time) ([]*reservationDomain.RoomLock, error) {
	return m.lockRepo.FindOverlapping(ctx, roomID, checkIn, checkOut, now)
}

// DeleteExpired removes locks past their TTL.
func (m *LockManager) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.lockRepo.DeleteExpired(ctx, now)
}
