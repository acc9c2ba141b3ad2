package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status tracks a payment record's lifecycle.
type Status string

const (
	StatusPending          Status = "pending"
	StatusSucceeded        Status = "succeeded"
	StatusFailed           Status = "failed"
	StatusRefundProcessing Status = "refund_processing"
	StatusRefunded         Status = "refunded"
)

// RefundOutcome records what happened to the refund attempt made during a
// cancellation. The cancellation itself is durable regardless of this value.
type RefundOutcome string

const (
	RefundProcessing         RefundOutcome = "PROCESSING"
	RefundFailed             RefundOutcome = "FAILED"
	RefundNoRefundDue        RefundOutcome = "NO_REFUND_DUE"
	RefundNoPaymentFound     RefundOutcome = "NO_PAYMENT_FOUND"
	RefundPaymentNotEligible RefundOutcome = "PAYMENT_NOT_ELIGIBLE"
)

// Payment is the record of a charge taken for a reservation.
type Payment struct {
	ID            uuid.UUID
	ReservationID uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	ChargeID      string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPayment creates a pending payment record for a reservation.
func NewPayment(reservationID uuid.UUID, amount decimal.Decimal, currency string, now time.Time) *Payment {
	return &Payment{
		ID:            uuid.New(),
		ReservationID: reservationID,
		Amount:        amount,
		Currency:      currency,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MarkSucceeded records the provider charge reference after a successful
// charge.
func (p *Payment) MarkSucceeded(chargeID string, now time.Time) {
	p.ChargeID = chargeID
	p.Status = StatusSucceeded
	p.UpdatedAt = now
}

// MarkFailed records a failed charge.
func (p *Payment) MarkFailed(now time.Time) {
	p.Status = StatusFailed
	p.UpdatedAt = now
}

// MarkRefundProcessing records that a refund has been handed to the provider.
func (p *Payment) MarkRefundProcessing(now time.Time) {
	p.Status = StatusRefundProcessing
	p.UpdatedAt = now
}
