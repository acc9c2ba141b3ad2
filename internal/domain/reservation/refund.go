package reservation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RefundCalculation describes the refund a guest would receive for cancelling
// on a given day. All amounts are exact decimals rounded to the currency's
// minor unit.
type RefundCalculation struct {
	OriginalAmount    decimal.Decimal `json:"original_amount"`
	RefundAmount      decimal.Decimal `json:"refund_amount"`
	CancellationFee   decimal.Decimal `json:"cancellation_fee"`
	RefundPercentage  int             `json:"refund_percentage"`
	DaysUntilCheckIn  int             `json:"days_until_check_in"`
	PolicyDescription string          `json:"policy_description"`
	FullRefund        bool            `json:"full_refund"`
	NoRefund          bool            `json:"no_refund"`
	Explanation       string          `json:"explanation"`
}

// DaysUntil returns the calendar-day difference from today to checkIn.
// Calendar days, not elapsed hours: cancelling at 23:00 the day before
// check-in is still one day out.
func DaysUntil(checkIn, today time.Time) int {
	return int(DateOf(checkIn).Sub(DateOf(today)).Hours() / 24)
}

// CalculateRefund computes the refund for cancelling a stay with the given
// total amount and check-in date under policy, as of today. Pure function;
// the caller supplies today from an injected clock.
func CalculateRefund(totalAmount decimal.Decimal, checkInDate time.Time, policy CancellationPolicy, today time.Time) RefundCalculation {
	days := DaysUntil(checkInDate, today)
	hundred := decimal.NewFromInt(100)

	calc := RefundCalculation{
		OriginalAmount:   totalAmount,
		CancellationFee:  decimal.Zero,
		DaysUntilCheckIn: days,
	}

	switch {
	case days >= policy.FullRefundDays:
		calc.RefundAmount = totalAmount
		calc.RefundPercentage = 100
		calc.FullRefund = true
		calc.PolicyDescription = fmt.Sprintf("Free cancellation (%d+ days before check-in)", policy.FullRefundDays)
		calc.Explanation = fmt.Sprintf(
			"You will receive a full refund of %s because you are cancelling at least %d days before check-in.",
			totalAmount.StringFixed(2), policy.FullRefundDays)

	case days >= policy.PartialRefundDays:
		pct := decimal.NewFromInt(int64(policy.PartialRefundPercentage))
		calc.RefundAmount = totalAmount.Mul(pct).Div(hundred).Round(2)
		calc.RefundPercentage = policy.PartialRefundPercentage
		calc.PolicyDescription = fmt.Sprintf("Partial refund (%d%%, %d-%d days before check-in)",
			policy.PartialRefundPercentage, policy.PartialRefundDays, policy.FullRefundDays)
		calc.Explanation = fmt.Sprintf(
			"You will receive a %d%% refund of %s (original %s) because you are cancelling %d-%d days before check-in.",
			policy.PartialRefundPercentage, calc.RefundAmount.StringFixed(2), totalAmount.StringFixed(2),
			policy.PartialRefundDays, policy.FullRefundDays)

	case days >= policy.NoRefundDays:
		calc.CancellationFee = policy.LateCancellationFee
		refund := totalAmount.Sub(policy.LateCancellationFee)
		if refund.IsNegative() {
			refund = decimal.Zero
		}
		calc.RefundAmount = refund
		if totalAmount.IsPositive() {
			calc.RefundPercentage = int(refund.Mul(hundred).Div(totalAmount).Round(0).IntPart())
		}
		calc.PolicyDescription = fmt.Sprintf("Late cancellation (fee %s)", policy.LateCancellationFee.StringFixed(2))
		calc.Explanation = fmt.Sprintf(
			"You will receive %s after a cancellation fee of %s (original %s) because you are cancelling %d-%d days before check-in.",
			refund.StringFixed(2), policy.LateCancellationFee.StringFixed(2), totalAmount.StringFixed(2),
			policy.NoRefundDays, policy.PartialRefundDays)

	default:
		calc.RefundAmount = decimal.Zero
		calc.CancellationFee = totalAmount
		calc.NoRefund = true
		calc.PolicyDescription = fmt.Sprintf("No refund (within %d day(s) of check-in)", policy.NoRefundDays)
		calc.Explanation = fmt.Sprintf(
			"No refund is available because you are cancelling within %d day(s) of check-in. The full amount of %s is forfeited.",
			policy.NoRefundDays, totalAmount.StringFixed(2))
	}

	return calc
}
