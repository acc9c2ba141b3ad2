package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	paymentDomain "github.com/harborview-hotels/service-reservation/internal/domain/payment"
)

// RazorpayGateway implements payment.Gateway against the Razorpay API.
type RazorpayGateway struct {
	client *razorpay.Client
	logger *zap.Logger
}

// NewRazorpayGateway creates a gateway for the given API credentials.
func NewRazorpayGateway(keyID, keySecret string, logger *zap.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		logger: logger,
	}
}

// minorUnits converts a decimal amount to the provider's integer minor units.
func minorUnits(amount decimal.Decimal) int {
	return int(amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// Charge captures a previously authorized payment referenced by token.
func (g *RazorpayGateway) Charge(ctx context.Context, amount decimal.Decimal, currency, token string) (paymentDomain.ChargeResult, error) {
	data := map[string]interface{}{
		"currency": currency,
	}

	body, err := g.client.Payment.Capture(token, minorUnits(amount), data, nil)
	if err != nil {
		return paymentDomain.ChargeResult{}, &paymentDomain.GatewayError{Op: "charge", Err: err}
	}

	id, _ := body["id"].(string)
	status, _ := body["status"].(string)
	if id == "" {
		return paymentDomain.ChargeResult{}, &paymentDomain.GatewayError{
			Op:  "charge",
			Err: fmt.Errorf("provider response missing payment id"),
		}
	}

	g.logger.Info("payment captured",
		zap.String("charge_id", id),
		zap.String("status", status),
	)
	return paymentDomain.ChargeResult{ChargeID: id, Status: status}, nil
}

// Refund returns amount against a previous charge.
func (g *RazorpayGateway) Refund(ctx context.Context, chargeID string, amount decimal.Decimal, reason string) (paymentDomain.RefundResult, error) {
	data := map[string]interface{}{
		"speed": "normal",
		"notes": map[string]interface{}{
			"reason": reason,
		},
	}

	body, err := g.client.Payment.Refund(chargeID, minorUnits(amount), data, nil)
	if err != nil {
		return paymentDomain.RefundResult{}, &paymentDomain.GatewayError{Op: "refund", Err: err}
	}

	id, _ := body["id"].(string)
	status, _ := body["status"].(string)
	if id == "" {
		return paymentDomain.RefundResult{}, &paymentDomain.GatewayError{
			Op:  "refund",
			Err: fmt.Errorf("provider response missing refund id"),
		}
	}

	g.logger.Info("refund submitted",
		zap.String("charge_id", chargeID),
		zap.String("refund_id", id),
		zap.String("status", status),
	)
	return paymentDomain.RefundResult{RefundID: id, Status: status}, nil
}

// CreatePaymentLink issues a hosted payment page for a reservation.
func (g *RazorpayGateway) CreatePaymentLink(ctx context.Context, reservationID uuid.UUID, amount decimal.Decimal, currency, description string) (paymentDomain.PaymentLink, error) {
	data := map[string]interface{}{
		"amount":       minorUnits(amount),
		"currency":     currency,
		"description":  description,
		"reference_id": reservationID.String(),
	}

	body, err := g.client.PaymentLink.Create(data, nil)
	if err != nil {
		return paymentDomain.PaymentLink{}, &paymentDomain.GatewayError{Op: "create_payment_link", Err: err}
	}

	id, _ := body["id"].(string)
	shortURL, _ := body["short_url"].(string)
	if id == "" || shortURL == "" {
		return paymentDomain.PaymentLink{}, &paymentDomain.GatewayError{
			Op:  "create_payment_link",
			Err: fmt.Errorf("provider response missing link id or url"),
		}
	}

	return paymentDomain.PaymentLink{Token: id, URL: shortURL}, nil
}
