package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	reservationDomain "github.com/harborview-hotels/service-reservation/internal/domain/reservation"
	"github.com/harborview-hotels/service-reservation/internal/events"
)

func newReclaimer(env *testEnv) *ExpiryReclaimer {
	return NewExpiryReclaimer(
		env.store,
		NewLockManager(env.store),
		env.pub,
		env.clk,
		time.Minute,
		zap.NewNop(),
	)
}

func TestSweep_ReclaimsExpiredHolds(t *testing.T) {
	env := newTestEnv(t, 1)
	reclaimer := newReclaimer(env)
	guestID := uuid.New()

	dto, err := env.svc.CreateReservation(context.Background(), guestID, env.createRequest("2026-09-10", "2026-09-12"))
	require.NoError(t, err)
	require.NotNil(t, dto.ExpiresAt)
	holdDeadline := *dto.ExpiresAt

	// Before the payment window closes the sweep must not touch it.
	require.NoError(t, reclaimer.Sweep(context.Background()))
	res, err := env.store.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, reservationDomain.StatusPending, res.Status())

	env.clk.Advance(6 * time.Minute)
	require.NoError(t, reclaimer.Sweep(context.Background()))

	res, err = env.store.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, reservationDomain.StatusCancelled, res.Status())
	assert.Equal(t, ExpiredHoldReason, res.CancellationReason())
	assert.Equal(t, 0, env.store.lockCount(), "sweep releases the room lock")

	// The cancellation clears the aggregate's deadline; the event still
	// carries the one that lapsed.
	published := env.pub.ofType(events.ReservationExpired)
	require.Len(t, published, 1)
	var payload events.ReservationExpiredEvent
	require.NoError(t, published[0].ParseData(&payload))
	assert.Equal(t, dto.ID, payload.ReservationID)
	assert.True(t, payload.ExpiredAt.Equal(holdDeadline))

	// The room is bookable again.
	_, err = env.svc.CreateReservation(context.Background(), uuid.New(), env.createRequest("2026-09-10", "2026-09-12"))
	assert.NoError(t, err)
}

func TestSweep_Idempotent(t *testing.T) {
	env := newTestEnv(t, 1)
	reclaimer := newReclaimer(env)

	_, err := env.svc.CreateReservation(context.Background(), uuid.New(), env.createRequest("2026-09-10", "2026-09-12"))
	require.NoError(t, err)

	env.clk.Advance(6 * time.Minute)
	require.NoError(t, reclaimer.Sweep(context.Background()))
	require.NoError(t, reclaimer.Sweep(context.Background()))

	assert.Len(t, env.pub.ofType(events.ReservationExpired), 1, "a hold is reclaimed at most once")
}

func TestSweep_LeavesConfirmedAlone(t *testing.T) {
	env := newTestEnv(t, 1)
	reclaimer := newReclaimer(env)
	guestID := uuid.New()

	dto := confirmReservation(t, env, guestID, "2026-09-10", "2026-09-12")

	env.clk.Advance(time.Hour)
	require.NoError(t, reclaimer.Sweep(context.Background()))

	res, err := env.store.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, reservationDomain.StatusConfirmed, res.Status())
	assert.Empty(t, env.pub.ofType(events.ReservationExpired))
}

func TestSweep_RaceWithConfirmationHasOneWinner(t *testing.T) {
	env := newTestEnv(t, 1)
	guestID := uuid.New()

	dto, err := env.svc.CreateReservation(context.Background(), guestID, env.createRequest("2026-09-10", "2026-09-12"))
	require.NoError(t, err)

	env.clk.Advance(6 * time.Minute)

	// The status-guarded cancel is what both the sweep and a late payment
	// contend on: once one side has moved the status off pending, the other
	// side's write is refused.
	did, err := env.store.CancelIfPending(context.Background(), dto.ID, ExpiredHoldReason, env.clk.Now())
	require.NoError(t, err)
	assert.True(t, did)

	err = env.svc.ConfirmFromPaymentEvent(context.Background(), dto.ID, "pay_late")
	require.NoError(t, err, "late payment event is ignored, not an error")

	res, err := env.store.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, reservationDomain.StatusCancelled, res.Status())
	assert.Empty(t, env.pub.ofType(events.ReservationConfirmed))
}

func TestSweep_PurgesExpiredLocks(t *testing.T) {
	env := newTestEnv(t, 1)
	reclaimer := newReclaimer(env)

	// A lock whose reservation row vanished still expires by TTL.
	orphan := reservationDomain.NewRoomLock(env.roomID,
		time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		uuid.New(), env.clk.Now(), reservationDomain.DefaultLockTTL)
	env.store.locks[orphan.ReservationID] = orphan

	env.clk.Advance(reservationDomain.DefaultLockTTL + time.Minute)
	require.NoError(t, reclaimer.Sweep(context.Background()))

	assert.Equal(t, 0, env.store.lockCount())
}
