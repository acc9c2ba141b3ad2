package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeResult is the provider's answer to a charge request.
type ChargeResult struct {
	ChargeID string
	Status   string
}

// RefundResult is the provider's answer to a refund request.
type RefundResult struct {
	RefundID string
	Status   string
}

// PaymentLink is a hosted payment page issued for deferred-payment flows.
type PaymentLink struct {
	Token string
	URL   string
}

// Gateway is the external payment collaborator. Implementations must be
// idempotent per logical operation; this core reports failures to the caller
// and never retries silently.
type Gateway interface {
	// Charge collects amount from the instrument referenced by token.
	Charge(ctx context.Context, amount decimal.Decimal, currency, token string) (ChargeResult, error)

	// Refund returns amount against a previous charge.
	Refund(ctx context.Context, chargeID string, amount decimal.Decimal, reason string) (RefundResult, error)

	// CreatePaymentLink issues a hosted payment link for a reservation so
	// payment can be completed later or by someone else.
	CreatePaymentLink(ctx context.Context, reservationID uuid.UUID, amount decimal.Decimal, currency, description string) (PaymentLink, error)
}

// GatewayError wraps a provider-side failure. The reservation stays
// unconfirmed; the caller decides whether to retry.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps provider failures to 502 Bad Gateway.
func (e *GatewayError) HTTPStatus() int {
	return 502
}

// Repository defines the persistence contract for payment records.
type Repository interface {
	// FindByReservationID retrieves the payment for a reservation, or nil if
	// none was ever taken.
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*Payment, error)

	// Save persists a new payment record.
	Save(ctx context.Context, p *Payment) error

	// Update persists changes to an existing payment record.
	Update(ctx context.Context, p *Payment) error
}
