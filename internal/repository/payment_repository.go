package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	paymentDomain "github.com/harborview-hotels/service-reservation/internal/domain/payment"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReservationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency      string          `gorm:"not null;size:3"`
	ChargeID      string          `gorm:"size:100;index"`
	Status        string          `gorm:"not null;size:20"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PaymentModel) TableName() string {
	return "payments"
}

// GormPaymentRepository is the GORM-based implementation of
// payment.Repository.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByReservationID retrieves the latest payment for a reservation, or nil
// if no payment was ever taken.
func (r *GormPaymentRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return toDomainPayment(&model), nil
}

// Save persists a new payment record.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	if err := r.db.WithContext(ctx).Create(toPaymentModel(p)).Error; err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// Update persists changes to an existing payment record.
func (r *GormPaymentRepository) Update(ctx context.Context, p *paymentDomain.Payment) error {
	if err := r.db.WithContext(ctx).Save(toPaymentModel(p)).Error; err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func toPaymentModel(p *paymentDomain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:            p.ID,
		ReservationID: p.ReservationID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		ChargeID:      p.ChargeID,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toDomainPayment(m *PaymentModel) *paymentDomain.Payment {
	return &paymentDomain.Payment{
		ID:            m.ID,
		ReservationID: m.ReservationID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		ChargeID:      m.ChargeID,
		Status:        paymentDomain.Status(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
