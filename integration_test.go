//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reservationEvents "github.com/harborview-hotels/service-reservation/internal/events"
	"github.com/harborview-hotels/service-reservation/internal/repository"
)

// TestPaymentSucceeded_ConfirmsReservation verifies that when a
// PaymentSucceededEvent is published to payment.events, the reservation
// service picks it up, confirms the pending reservation, and releases its
// room lock.
func TestPaymentSucceeded_ConfirmsReservation(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Seed a room and a pending reservation holding it.
	roomID := uuid.New()
	reservationID := uuid.New()
	guestID := uuid.New()
	seedRoom(t, infra.DB, roomID, 1)
	seedPendingReservation(t, infra.DB, reservationID, roomID, guestID)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish PaymentSucceededEvent.
	evt := reservationEvents.PaymentSucceededEvent{
		ReservationID: reservationID,
		PaymentID:     uuid.New(),
		ChargeID:      "pay_integration_test",
		OccurredAt:    time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, reservationEvents.TopicPaymentEvents,
		"service-payment", reservationEvents.PaymentSucceeded, evt)

	// Assert: reservation transitions to "confirmed" and the hold clears.
	model := waitForReservationStatus(t, infra.DB, reservationID, "confirmed", 15*time.Second)
	assert.Nil(t, model.ExpiresAt, "expires_at should be cleared on confirmation")

	// Assert: the room lock was released.
	require.Eventually(t, func() bool {
		var count int64
		infra.DB.Model(&repository.RoomLockModel{}).
			Where("reservation_id = ?", reservationID).
			Count(&count)
		return count == 0
	}, 10*time.Second, 200*time.Millisecond, "room lock was not released")

	// Assert: ReservationConfirmedEvent on reservation.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, reservationEvents.TopicReservationEvents,
		reservationEvents.ReservationConfirmed, 15*time.Second)

	var confirmed reservationEvents.ReservationConfirmedEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, reservationID, confirmed.ReservationID)
	assert.Equal(t, roomID, confirmed.RoomID)
	assert.Equal(t, guestID, confirmed.GuestID)
	assert.Equal(t, "USD", confirmed.Currency)
}

// TestDoubleBooking_SecondAcquisitionRejected verifies that two pending holds
// cannot coexist for the same single-unit room and overlapping dates.
func TestDoubleBooking_SecondAcquisitionRejected(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	roomID := uuid.New()
	seedRoom(t, infra.DB, roomID, 1)
	seedPendingReservation(t, infra.DB, uuid.New(), roomID, uuid.New())

	// A second guest tries the same window through the full acquisition path.
	checkIn := time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02")
	checkOut := time.Now().UTC().AddDate(0, 0, 12).Format("2006-01-02")

	_, err := stack.Service.CreateReservation(context.Background(), uuid.New(),
		createRequest(roomID, checkIn, checkOut))
	require.Error(t, err, "overlapping reservation must be rejected")

	var count int64
	infra.DB.Model(&repository.ReservationModel{}).
		Where("room_id = ? AND status = 'pending'", roomID).
		Count(&count)
	assert.Equal(t, int64(1), count, "only the original hold may exist")
}
