package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	reservationDomain "github.com/harborview-hotels/service-reservation/internal/domain/reservation"
	"github.com/harborview-hotels/service-reservation/pkg/domain"
)

// ReservationModel is the GORM model for the reservations table.
type ReservationModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RoomID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_reservations_room_dates,priority:1"`
	GuestID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	CheckInDate        time.Time       `gorm:"type:date;not null;index:idx_reservations_room_dates,priority:2"`
	CheckOutDate       time.Time       `gorm:"type:date;not null;index:idx_reservations_room_dates,priority:3"`
	NumberOfGuests     int             `gorm:"not null"`
	Status             string          `gorm:"not null;size:20;index"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency           string          `gorm:"not null;size:3;default:'USD'"`
	ExpiresAt          *time.Time      `gorm:"index"`
	CancellationReason string          `gorm:"size:500"`
	CancelledAt        *time.Time      `gorm:""`
	CheckedInAt        *time.Time      `gorm:""`
	CheckedOutAt       *time.Time      `gorm:""`
	PaymentLinkToken   string          `gorm:"size:64;index"`
	SpecialRequests    string          `gorm:"size:1000"`
	Version            int64           `gorm:"not null;default:1"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// blockingStatusCond is the WHERE fragment selecting reservations that count
// toward the no-double-booking invariant: confirmed, checked in, or pending
// with an unexpired hold.
const blockingStatusCond = "(status IN ('confirmed', 'checked_in') OR (status = 'pending' AND expires_at > ?))"

// GormReservationRepository is the GORM-based implementation of
// reservation.Repository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID retrieves a reservation by its unique identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservationDomain.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", id.String())
		}
		return nil, fmt.Errorf("failed to find reservation by ID: %w", err)
	}
	return toDomainReservation(&model)
}

// FindByGuestID retrieves a guest's reservations with pagination.
func (r *GormReservationRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Where("guest_id = ?", guestID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count guest reservations: %w", err)
	}

	var models []ReservationModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find guest reservations: %w", err)
	}

	return toDomainReservations(models, total)
}

// FindActivePendingByGuest returns the guest's unexpired pending reservation,
// or nil if none exists.
func (r *GormReservationRepository) FindActivePendingByGuest(ctx context.Context, guestID uuid.UUID, now time.Time) (*reservationDomain.Reservation, error) {
	var model ReservationModel
	err := r.db.WithContext(ctx).
		Where("guest_id = ? AND status = 'pending' AND expires_at > ?", guestID, now).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending reservation: %w", err)
	}
	return toDomainReservation(&model)
}

// FindBlockingByRoom retrieves blocking reservations overlapping the window.
func (r *GormReservationRepository) FindBlockingByRoom(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeID uuid.UUID, now time.Time) ([]*reservationDomain.Reservation, error) {
	query := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn).
		Where(blockingStatusCond, now)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var models []ReservationModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find blocking reservations: %w", err)
	}

	reservations, _, err := toDomainReservations(models, int64(len(models)))
	return reservations, err
}

// FindExpiredPending retrieves pending reservations whose hold has passed.
func (r *GormReservationRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]*reservationDomain.Reservation, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).
		Where("status = 'pending' AND expires_at < ?", now).
		Order("expires_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired reservations: %w", err)
	}

	reservations, _, err := toDomainReservations(models, int64(len(models)))
	return reservations, err
}

// FindByPaymentLinkToken retrieves a reservation by its deferred-payment token.
func (r *GormReservationRepository) FindByPaymentLinkToken(ctx context.Context, token string) (*reservationDomain.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("payment_link_token = ?", token).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", token)
		}
		return nil, fmt.Errorf("failed to find reservation by payment link token: %w", err)
	}
	return toDomainReservation(&model)
}

// ListAll retrieves all reservations with pagination.
func (r *GormReservationRepository) ListAll(ctx context.Context, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	var models []ReservationModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	return toDomainReservations(models, total)
}

// Save persists a new reservation.
func (r *GormReservationRepository) Save(ctx context.Context, res *reservationDomain.Reservation) error {
	model := toReservationModel(res)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// Update persists changes to an existing reservation with optimistic locking.
func (r *GormReservationRepository) Update(ctx context.Context, res *reservationDomain.Reservation) error {
	model := toReservationModel(res)

	// Only update if the version matches (current version - 1, since
	// IncrementVersion was called before persisting).
	expectedVersion := res.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"check_in_date":       model.CheckInDate,
			"check_out_date":      model.CheckOutDate,
			"number_of_guests":    model.NumberOfGuests,
			"status":              model.Status,
			"total_amount":        model.TotalAmount,
			"currency":            model.Currency,
			"expires_at":          model.ExpiresAt,
			"cancellation_reason": model.CancellationReason,
			"cancelled_at":        model.CancelledAt,
			"checked_in_at":       model.CheckedInAt,
			"checked_out_at":      model.CheckedOutAt,
			"payment_link_token":  model.PaymentLinkToken,
			"special_requests":    model.SpecialRequests,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	return nil
}

// CancelIfPending atomically cancels the reservation only if it is still
// pending. The status guard makes the expiry sweep idempotent and decides the
// race against a concurrent payment confirmation: whichever writer observes
// pending first wins.
func (r *GormReservationRepository) CancelIfPending(ctx context.Context, id uuid.UUID, reason string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ? AND status = 'pending'", id).
		Updates(map[string]interface{}{
			"status":              string(reservationDomain.StatusCancelled),
			"cancellation_reason": reason,
			"cancelled_at":        now,
			"expires_at":          nil,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel pending reservation: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// --- Conversion Helpers ---

func toReservationModel(res *reservationDomain.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:                 res.ID(),
		RoomID:             res.RoomID(),
		GuestID:            res.GuestID(),
		CheckInDate:        res.CheckInDate(),
		CheckOutDate:       res.CheckOutDate(),
		NumberOfGuests:     res.NumberOfGuests(),
		Status:             string(res.Status()),
		TotalAmount:        res.TotalAmount(),
		Currency:           res.Currency(),
		ExpiresAt:          res.ExpiresAt(),
		CancellationReason: res.CancellationReason(),
		CancelledAt:        res.CancelledAt(),
		CheckedInAt:        res.CheckedInAt(),
		CheckedOutAt:       res.CheckedOutAt(),
		PaymentLinkToken:   res.PaymentLinkToken(),
		SpecialRequests:    res.SpecialRequests(),
		Version:            res.Version(),
		CreatedAt:          res.CreatedAt(),
		UpdatedAt:          res.UpdatedAt(),
	}
}

func toDomainReservation(m *ReservationModel) (*reservationDomain.Reservation, error) {
	status, err := reservationDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return reservationDomain.Reconstruct(
		m.ID,
		m.RoomID,
		m.GuestID,
		reservationDomain.DateOf(m.CheckInDate),
		reservationDomain.DateOf(m.CheckOutDate),
		m.NumberOfGuests,
		status,
		m.TotalAmount,
		m.Currency,
		m.ExpiresAt,
		m.CancellationReason,
		m.CancelledAt,
		m.CheckedInAt,
		m.CheckedOutAt,
		m.PaymentLinkToken,
		m.SpecialRequests,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainReservations(models []ReservationModel, total int64) ([]*reservationDomain.Reservation, int64, error) {
	reservations := make([]*reservationDomain.Reservation, len(models))
	for i, m := range models {
		res, err := toDomainReservation(&m)
		if err != nil {
			return nil, 0, err
		}
		reservations[i] = res
	}
	return reservations, total, nil
}
