package reservation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborview-hotels/service-reservation/pkg/domain"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func validReservation(t *testing.T) *Reservation {
	t.Helper()
	res, err := NewReservation(
		uuid.New(), uuid.New(),
		day(10), day(12),
		2, 2, decimal.NewFromInt(200), "USD", "late arrival",
		testNow, 5*time.Minute,
	)
	require.NoError(t, err)
	return res
}

func TestNewReservation(t *testing.T) {
	res := validReservation(t)

	assert.Equal(t, StatusPending, res.Status())
	assert.Equal(t, 2, res.Nights())
	assert.Equal(t, "200.00", res.TotalAmount().StringFixed(2))
	require.NotNil(t, res.ExpiresAt())
	assert.Equal(t, testNow.Add(5*time.Minute), *res.ExpiresAt())
	assert.Equal(t, int64(1), res.Version())
}

func TestNewReservation_Validation(t *testing.T) {
	amount := decimal.NewFromInt(200)

	tests := []struct {
		name     string
		mutate   func() (*Reservation, error)
	}{
		{"check-out before check-in", func() (*Reservation, error) {
			return NewReservation(uuid.New(), uuid.New(), day(12), day(10), 2, 2, amount, "USD", "", testNow, 5*time.Minute)
		}},
		{"zero-night stay", func() (*Reservation, error) {
			return NewReservation(uuid.New(), uuid.New(), day(10), day(10), 2, 2, amount, "USD", "", testNow, 5*time.Minute)
		}},
		{"check-in in the past", func() (*Reservation, error) {
			return NewReservation(uuid.New(), uuid.New(), day(10), day(12), 2, 2, amount, "USD", "", day(15), 5*time.Minute)
		}},
		{"zero guests", func() (*Reservation, error) {
			return NewReservation(uuid.New(), uuid.New(), day(10), day(12), 0, 2, amount, "USD", "", testNow, 5*time.Minute)
		}},
		{"guests exceed capacity", func() (*Reservation, error) {
			return NewReservation(uuid.New(), uuid.New(), day(10), day(12), 3, 2, amount, "USD", "", testNow, 5*time.Minute)
		}},
		{"negative amount", func() (*Reservation, error) {
			return NewReservation(uuid.New(), uuid.New(), day(10), day(12), 2, 2, decimal.NewFromInt(-1), "USD", "", testNow, 5*time.Minute)
		}},
		{"missing room", func() (*Reservation, error) {
			return NewReservation(uuid.Nil, uuid.New(), day(10), day(12), 2, 2, amount, "USD", "", testNow, 5*time.Minute)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mutate()
			var vErr *domain.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestNewReservation_SameDayCheckInAllowed(t *testing.T) {
	_, err := NewReservation(
		uuid.New(), uuid.New(),
		DateOf(testNow), DateOf(testNow).AddDate(0, 0, 1),
		1, 2, decimal.NewFromInt(100), "USD", "",
		testNow, 5*time.Minute,
	)
	assert.NoError(t, err)
}

func TestLifecycle_HappyPath(t *testing.T) {
	res := validReservation(t)

	require.NoError(t, res.ConfirmOnPayment(testNow.Add(time.Minute)))
	assert.Equal(t, StatusConfirmed, res.Status())
	assert.Nil(t, res.ExpiresAt(), "confirmation clears the hold deadline")

	checkInTime := day(10).Add(15 * time.Hour)
	require.NoError(t, res.CheckIn(checkInTime))
	assert.Equal(t, StatusCheckedIn, res.Status())
	require.NotNil(t, res.CheckedInAt())

	checkOutTime := day(12).Add(10 * time.Hour)
	require.NoError(t, res.CheckOut(checkOutTime))
	assert.Equal(t, StatusCheckedOut, res.Status())
	require.NotNil(t, res.CheckedOutAt())
}

func TestLifecycle_IllegalTransitions(t *testing.T) {
	t.Run("check-in before payment", func(t *testing.T) {
		res := validReservation(t)
		err := res.CheckIn(testNow)
		var sErr *domain.InvalidStateError
		assert.ErrorAs(t, err, &sErr)
	})

	t.Run("check-out before check-in", func(t *testing.T) {
		res := validReservation(t)
		require.NoError(t, res.ConfirmOnPayment(testNow))
		err := res.CheckOut(testNow)
		var sErr *domain.InvalidStateError
		assert.ErrorAs(t, err, &sErr)
	})

	t.Run("confirm twice", func(t *testing.T) {
		res := validReservation(t)
		require.NoError(t, res.ConfirmOnPayment(testNow))
		err := res.ConfirmOnPayment(testNow)
		var sErr *domain.InvalidStateError
		assert.ErrorAs(t, err, &sErr)
	})

	t.Run("cancel after check-out", func(t *testing.T) {
		res := validReservation(t)
		require.NoError(t, res.ConfirmOnPayment(testNow))
		require.NoError(t, res.CheckIn(testNow))
		require.NoError(t, res.CheckOut(testNow))
		err := res.Cancel("too late", testNow)
		var sErr *domain.InvalidStateError
		assert.ErrorAs(t, err, &sErr)
	})

	t.Run("cancel after cancel", func(t *testing.T) {
		res := validReservation(t)
		require.NoError(t, res.Cancel("first", testNow))
		err := res.Cancel("second", testNow)
		var sErr *domain.InvalidStateError
		assert.ErrorAs(t, err, &sErr)
	})
}

func TestCancel_RecordsReasonAndClearsHold(t *testing.T) {
	res := validReservation(t)
	cancelTime := testNow.Add(2 * time.Minute)

	require.NoError(t, res.Cancel("changed plans", cancelTime))
	assert.Equal(t, StatusCancelled, res.Status())
	assert.Equal(t, "changed plans", res.CancellationReason())
	require.NotNil(t, res.CancelledAt())
	assert.Equal(t, cancelTime, *res.CancelledAt())
	assert.Nil(t, res.ExpiresAt())
}

func TestHoldExpiredAndIsBlocking(t *testing.T) {
	res := validReservation(t)

	assert.False(t, res.HoldExpired(testNow))
	assert.True(t, res.IsBlocking(testNow))

	afterWindow := testNow.Add(6 * time.Minute)
	assert.True(t, res.HoldExpired(afterWindow))
	assert.False(t, res.IsBlocking(afterWindow), "expired pending holds stop blocking")

	// A confirmed reservation blocks regardless of time.
	confirmed := validReservation(t)
	require.NoError(t, confirmed.ConfirmOnPayment(testNow))
	assert.False(t, confirmed.HoldExpired(afterWindow))
	assert.True(t, confirmed.IsBlocking(afterWindow))

	cancelled := validReservation(t)
	require.NoError(t, cancelled.Cancel("", testNow))
	assert.False(t, cancelled.IsBlocking(testNow))
}

func TestReschedule(t *testing.T) {
	res := validReservation(t)

	require.NoError(t, res.Reschedule(day(15), day(18), 1, 2, testNow))
	assert.Equal(t, day(15), res.CheckInDate())
	assert.Equal(t, day(18), res.CheckOutDate())
	assert.Equal(t, 3, res.Nights())
	assert.Equal(t, 1, res.NumberOfGuests())

	t.Run("rejects inverted dates", func(t *testing.T) {
		err := res.Reschedule(day(18), day(15), 1, 2, testNow)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("rejects terminal state", func(t *testing.T) {
		done := validReservation(t)
		require.NoError(t, done.Cancel("", testNow))
		err := done.Reschedule(day(15), day(18), 1, 2, testNow)
		var sErr *domain.InvalidStateError
		assert.ErrorAs(t, err, &sErr)
		assert.Equal(t, string(StatusCancelled), sErr.From)
		assert.Equal(t, "rescheduled", sErr.To)
	})
}

func TestStatusTransitionTable(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPending.CanTransitionTo(StatusCheckedIn))

	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCheckedIn))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusCheckedOut))

	assert.True(t, StatusCheckedIn.CanTransitionTo(StatusCheckedOut))

	assert.True(t, StatusCheckedOut.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusCheckedOut.CanBeCancelled())

	_, err := ParseStatus("teleported")
	assert.Error(t, err)

	parsed, err := ParseStatus("checked_in")
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, parsed)
}
