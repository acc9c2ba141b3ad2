package reservation

import "github.com/shopspring/decimal"

// CancellationPolicy defines the tiered refund schedule applied when a guest
// cancels before check-in.
type CancellationPolicy struct {
	// FullRefundDays: 100% refund when cancelling at least this many days
	// before check-in.
	FullRefundDays int

	// PartialRefundDays: lower bound (inclusive) of the partial-refund tier.
	PartialRefundDays int

	// PartialRefundPercentage applied within the partial tier (0-100).
	PartialRefundPercentage int

	// NoRefundDays: lower bound (inclusive) of the fee-only tier. Below this
	// the whole amount is forfeited.
	NoRefundDays int

	// LateCancellationFee is the flat fee deducted in the fee-only tier.
	LateCancellationFee decimal.Decimal
}

// DefaultPolicy is the standard hotel schedule: free until 7 days out, 50%
// until 3 days out, $25 fee until 1 day out, nothing after that.
func DefaultPolicy() CancellationPolicy {
	return CancellationPolicy{
		FullRefundDays:          7,
		PartialRefundDays:       3,
		PartialRefundPercentage: 50,
		NoRefundDays:            1,
		LateCancellationFee:     decimal.NewFromFloat(25.00),
	}
}

// FlexiblePolicy is the guest-friendly schedule.
func FlexiblePolicy() CancellationPolicy {
	return CancellationPolicy{
		FullRefundDays:          3,
		PartialRefundDays:       1,
		PartialRefundPercentage: 75,
		NoRefundDays:            0,
		LateCancellationFee:     decimal.NewFromFloat(15.00),
	}
}

// StrictPolicy is the near-non-refundable schedule.
func StrictPolicy() CancellationPolicy {
	return CancellationPolicy{
		FullRefundDays:          14,
		PartialRefundDays:       7,
		PartialRefundPercentage: 25,
		NoRefundDays:            3,
		LateCancellationFee:     decimal.NewFromFloat(50.00),
	}
}

// PolicyByName resolves a configured preset name, defaulting to the standard
// schedule for unknown names.
func PolicyByName(name string) CancellationPolicy {
	switch name {
	case "flexible":
		return FlexiblePolicy()
	case "strict":
		return StrictPolicy()
	default:
		return DefaultPolicy()
	}
}
