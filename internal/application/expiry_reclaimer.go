package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	reservationDomain "github.com/harborview-hotels/service-reservation/internal/domain/reservation"
	"github.com/harborview-hotels/service-reservation/internal/events"
	"github.com/harborview-hotels/service-reservation/pkg/clock"
	"github.com/harborview-hotels/service-reservation/pkg/kafka"
)

// ExpiredHoldReason is recorded on reservations reclaimed by the sweep.
const ExpiredHoldReason = "payment window expired"

// ExpiryReclaimer periodically cancels pending reservations whose payment
// window has passed and releases their room locks. Every step is guarded so
// the sweep is idempotent: running it twice, or concurrently with a payment
// confirmation, settles on exactly one outcome per reservation.
type ExpiryReclaimer struct {
	repo     reservationDomain.Repository
	locks    *LockManager
	producer EventPublisher
	clk      clock.Clock
	interval time.Duration
	logger   *zap.Logger
}

// NewExpiryReclaimer creates a reclaimer sweeping at the given interval.
func NewExpiryReclaimer(
	repo reservationDomain.Repository,
	locks *LockManager,
	producer EventPublisher,
	clk clock.Clock,
	interval time.Duration,
	logger *zap.Logger,
) *ExpiryReclaimer {
	return &ExpiryReclaimer{
		repo:     repo,
		locks:    locks,
		producer: producer,
		clk:      clk,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (r *ExpiryReclaimer) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("expiry reclaimer started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("expiry reclaimer stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep reclaims all currently-expired pending reservations and purges locks
// past their TTL. A failure on one reservation does not stop the rest.
func (r *ExpiryReclaimer) Sweep(ctx context.Context) error {
	now := r.clk.Now()

	expired, err := r.repo.FindExpiredPending(ctx, now)
	if err != nil {
		return err
	}

	reclaimed := 0
	for _, res := range expired {
		// The cancellation clears the hold deadline, so take it now for the
		// event payload.
		var expiredAt time.Time
		if deadline := res.ExpiresAt(); deadline != nil {
			expiredAt = *deadline
		}

		did, err := r.repo.CancelIfPending(ctx, res.ID(), ExpiredHoldReason, now)
		if err != nil {
			r.logger.Error("failed to expire reservation",
				zap.String("reservation_id", res.ID().String()),
				zap.Error(err),
			)
			continue
		}
		if !did {
			// Lost the race to a payment confirmation or an earlier sweep.
			continue
		}

		if err := r.locks.Release(ctx, res.ID()); err != nil {
			r.logger.Warn("failed to release lock for expired reservation",
				zap.String("reservation_id", res.ID().String()),
				zap.Error(err),
			)
		}

		evt := events.ReservationExpiredEvent{
			ReservationID: res.ID(),
			RoomID:        res.RoomID(),
			GuestID:       res.GuestID(),
			ExpiredAt:     expiredAt,
			OccurredAt:    now,
		}
		r.publishExpired(ctx, evt)
		reclaimed++
	}

	purged, err := r.locks.DeleteExpired(ctx, now)
	if err != nil {
		r.logger.Error("failed to purge expired locks", zap.Error(err))
	}

	if reclaimed > 0 || purged > 0 {
		r.logger.Info("expiry sweep completed",
			zap.Int("reservations_reclaimed", reclaimed),
			zap.Int64("locks_purged", purged),
		)
	}
	return nil
}

func (r *ExpiryReclaimer) publishExpired(ctx context.Context, evt events.ReservationExpiredEvent) {
	cloudEvent, err := kafka.NewCloudEvent("service-reservation", events.ReservationExpired, evt)
	if err != nil {
		r.logger.Error("failed to create cloud event", zap.Error(err))
		return
	}
	if err := r.producer.PublishEvent(ctx, events.TopicReservationEvents, cloudEvent); err != nil {
		r.logger.Error("failed to publish expiry event",
			zap.String("reservation_id", evt.ReservationID.String()),
			zap.Error(err),
		)
	}
}
