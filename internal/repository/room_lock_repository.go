package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reservationDomain "github.com/harborview-hotels/service-reservation/internal/domain/reservation"
	"github.com/harborview-hotels/service-reservation/pkg/domain"
)

// RoomLockModel is the GORM model for the room_locks table.
type RoomLockModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID        uuid.UUID `gorm:"type:uuid;not null;index:idx_room_locks_room_dates,priority:1"`
	CheckInDate   time.Time `gorm:"type:date;not null;index:idx_room_locks_room_dates,priority:2"`
	CheckOutDate  time.Time `gorm:"type:date;not null;index:idx_room_locks_room_dates,priority:3"`
	ReservationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt     time.Time `gorm:"not null"`
	ExpiresAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for the GORM model.
func (RoomLockModel) TableName() string {
	return "room_locks"
}

// GormRoomLockRepository is the GORM-based implementation of
// reservation.LockRepository.
type GormRoomLockRepository struct {
	db *gorm.DB
}

// NewGormRoomLockRepository creates a new GormRoomLockRepository.
func NewGormRoomLockRepository(db *gorm.DB) *GormRoomLockRepository {
	return &GormRoomLockRepository{db: db}
}

// AcquireWithReservation verifies availability and inserts the lock together
// with its pending reservation in one transaction. A per-room advisory lock
// serializes concurrent acquisitions across processes, so the availability
// count cannot go stale between the check and the insert.
func (r *GormRoomLockRepository) AcquireWithReservation(ctx context.Context, lock *reservationDomain.RoomLock, res *reservationDomain.Reservation, poolSize int, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", lock.RoomID.String()).Error; err != nil {
			return fmt.Errorf("failed to take room advisory lock: %w", err)
		}

		var blockingCount int64
		if err := tx.Model(&ReservationModel{}).
			Where("room_id = ?", lock.RoomID).
			Where("check_in_date < ? AND check_out_date > ?", lock.CheckOutDate, lock.CheckInDate).
			Where(blockingStatusCond, now).
			Count(&blockingCount).Error; err != nil {
			return fmt.Errorf("failed to count blocking reservations: %w", err)
		}

		var lockCount int64
		if err := tx.Model(&RoomLockModel{}).
			Where("room_id = ?", lock.RoomID).
			Where("check_in_date < ? AND check_out_date > ?", lock.CheckOutDate, lock.CheckInDate).
			Where("expires_at > ?", now).
			Count(&lockCount).Error; err != nil {
			return fmt.Errorf("failed to count overlapping locks: %w", err)
		}

		if blockingCount+lockCount >= int64(poolSize) {
			return &reservationDomain.RoomNotAvailableError{
				RoomID:       lock.RoomID,
				CheckInDate:  lock.CheckInDate,
				CheckOutDate: lock.CheckOutDate,
			}
		}

		if err := tx.Create(toRoomLockModel(lock)).Error; err != nil {
			return fmt.Errorf("failed to insert room lock: %w", err)
		}
		if err := tx.Create(toReservationModel(res)).Error; err != nil {
			return fmt.Errorf("failed to insert pending reservation: %w", err)
		}
		return nil
	})
}

// RescheduleWithReservation verifies availability for the reservation's new
// window and persists the reschedule in one transaction, under the same
// per-room advisory lock as AcquireWithReservation. The reservation's own row
// and lock are excluded from the count, and its lock (if still held) moves to
// the new window.
func (r *GormRoomLockRepository) RescheduleWithReservation(ctx context.Context, res *reservationDomain.Reservation, poolSize int, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", res.RoomID().String()).Error; err != nil {
			return fmt.Errorf("failed to take room advisory lock: %w", err)
		}

		var blockingCount int64
		if err := tx.Model(&ReservationModel{}).
			Where("room_id = ?", res.RoomID()).
			Where("id <> ?", res.ID()).
			Where("check_in_date < ? AND check_out_date > ?", res.CheckOutDate(), res.CheckInDate()).
			Where(blockingStatusCond, now).
			Count(&blockingCount).Error; err != nil {
			return fmt.Errorf("failed to count blocking reservations: %w", err)
		}

		var lockCount int64
		if err := tx.Model(&RoomLockModel{}).
			Where("room_id = ?", res.RoomID()).
			Where("reservation_id <> ?", res.ID()).
			Where("check_in_date < ? AND check_out_date > ?", res.CheckOutDate(), res.CheckInDate()).
			Where("expires_at > ?", now).
			Count(&lockCount).Error; err != nil {
			return fmt.Errorf("failed to count overlapping locks: %w", err)
		}

		if blockingCount+lockCount >= int64(poolSize) {
			return &reservationDomain.RoomNotAvailableError{
				RoomID:       res.RoomID(),
				CheckInDate:  res.CheckInDate(),
				CheckOutDate: res.CheckOutDate(),
			}
		}

		model := toReservationModel(res)
		expectedVersion := res.Version() - 1
		result := tx.Model(&ReservationModel{}).
			Where("id = ? AND version = ?", model.ID, expectedVersion).
			Updates(map[string]interface{}{
				"check_in_date":    model.CheckInDate,
				"check_out_date":   model.CheckOutDate,
				"number_of_guests": model.NumberOfGuests,
				"version":          model.Version,
				"updated_at":       model.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to reschedule reservation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("reservation was modified by another transaction")
		}

		if err := tx.Model(&RoomLockModel{}).
			Where("reservation_id = ?", res.ID()).
			Updates(map[string]interface{}{
				"check_in_date":  model.CheckInDate,
				"check_out_date": model.CheckOutDate,
			}).Error; err != nil {
			return fmt.Errorf("failed to move room lock: %w", err)
		}
		return nil
	})
}

// FindOverlapping retrieves unexpired locks for the room intersecting the
// requested window.
func (r *GormRoomLockRepository) FindOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, now time.Time) ([]*reservationDomain.RoomLock, error) {
	var models []RoomLockModel
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn).
		Where("expires_at > ?", now).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping locks: %w", err)
	}

	locks := make([]*reservationDomain.RoomLock, len(models))
	for i, m := range models {
		locks[i] = toDomainRoomLock(&m)
	}
	return locks, nil
}

// ReleaseByReservationID removes the lock held for a reservation, if any.
// Releasing an already-released lock is a no-op.
func (r *GormRoomLockRepository) ReleaseByReservationID(ctx context.Context, reservationID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Delete(&RoomLockModel{}).Error; err != nil {
		return fmt.Errorf("failed to release room lock: %w", err)
	}
	return nil
}

// DeleteExpired removes locks past their TTL.
func (r *GormRoomLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&RoomLockModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired locks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// --- Conversion Helpers ---

func toRoomLockModel(l *reservationDomain.RoomLock) *RoomLockModel {
	return &RoomLockModel{
		ID:            l.ID,
		RoomID:        l.RoomID,
		CheckInDate:   l.CheckInDate,
		CheckOutDate:  l.CheckOutDate,
		ReservationID: l.ReservationID,
		CreatedAt:     l.CreatedAt,
		ExpiresAt:     l.ExpiresAt,
	}
}

func toDomainRoomLock(m *RoomLockModel) *reservationDomain.RoomLock {
	return &reservationDomain.RoomLock{
		ID:            m.ID,
		RoomID:        m.RoomID,
		CheckInDate:   reservationDomain.DateOf(m.CheckInDate),
		CheckOutDate:  reservationDomain.DateOf(m.CheckOutDate),
		ReservationID: m.ReservationID,
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
	}
}
