package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	paymentDomain "github.com/harborview-hotels/service-reservation/internal/domain/payment"
	reservationDomain "github.com/harborview-hotels/service-reservation/internal/domain/reservation"
	roomDomain "github.com/harborview-hotels/service-reservation/internal/domain/room"
	"github.com/harborview-hotels/service-reservation/internal/events"
	"github.com/harborview-hotels/service-reservation/pkg/clock"
	"github.com/harborview-hotels/service-reservation/pkg/domain"
	"github.com/harborview-hotels/service-reservation/pkg/kafka"
)

// CreateReservationRequest holds the data needed to place a new hold.
type CreateReservationRequest struct {
	RoomID          uuid.UUID `json:"room_id" binding:"required"`
	CheckInDate     string    `json:"check_in_date" binding:"required"`
	CheckOutDate    string    `json:"check_out_date" binding:"required"`
	NumberOfGuests  int       `json:"number_of_guests" binding:"required,min=1"`
	SpecialRequests string    `json:"special_requests"`
}

// ConfirmPaymentRequest carries the payment instrument token for confirming a
// pending reservation.
type ConfirmPaymentRequest struct {
	PaymentToken string `json:"payment_token" binding:"required"`
}

// ModifyReservationRequest holds the new stay parameters for a reschedule.
type ModifyReservationRequest struct {
	CheckInDate    string `json:"check_in_date" binding:"required"`
	CheckOutDate   string `json:"check_out_date" binding:"required"`
	NumberOfGuests int    `json:"number_of_guests" binding:"required,min=1"`
}

// CancelReservationRequest carries an optional cancellation reason.
type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

// CancelWithRefundRequest carries the cancellation reason and the guest's
// acknowledgement of the refund policy.
type CancelWithRefundRequest struct {
	Reason            string `json:"reason"`
	AcknowledgePolicy bool   `json:"acknowledge_policy"`
}

// ReservationDTO is the response representation of a reservation.
type ReservationDTO struct {
	ID                 uuid.UUID  `json:"id"`
	RoomID             uuid.UUID  `json:"room_id"`
	GuestID            uuid.UUID  `json:"guest_id"`
	CheckInDate        string     `json:"check_in_date"`
	CheckOutDate       string     `json:"check_out_date"`
	Nights             int        `json:"nights"`
	NumberOfGuests     int        `json:"number_of_guests"`
	Status             string     `json:"status"`
	TotalAmount        string     `json:"total_amount"`
	Currency           string     `json:"currency"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time `json:"checked_out_at,omitempty"`
	SpecialRequests    string     `json:"special_requests,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CancellationResultDTO is the combined result of a cancel-with-refund call.
// The cancellation is always durable when this is returned; RefundOutcome
// reports what happened to the money.
type CancellationResultDTO struct {
	Reservation   ReservationDTO                      `json:"reservation"`
	Refund        reservationDomain.RefundCalculation `json:"refund"`
	RefundOutcome string                              `json:"refund_outcome"`
	Message       string                              `json:"message"`
}

// AvailabilityDTO reports how many units of a room type remain bookable for a
// window.
type AvailabilityDTO struct {
	RoomID         uuid.UUID `json:"room_id"`
	CheckInDate    string    `json:"check_in_date"`
	CheckOutDate   string    `json:"check_out_date"`
	Available      bool      `json:"available"`
	RemainingUnits int       `json:"remaining_units"`
}

// PaymentLinkDTO is the response for a created deferred-payment link.
type PaymentLinkDTO struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// EventPublisher publishes CloudEvents to a topic. Satisfied by
// kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// ReservationService is the application service orchestrating reservation
// use cases.
type ReservationService struct {
	repo       reservationDomain.Repository
	locks      *LockManager
	rooms      roomDomain.Catalog
	payments   paymentDomain.Repository
	gateway    paymentDomain.Gateway
	producer   EventPublisher
	clk        clock.Clock
	policy     reservationDomain.CancellationPolicy
	holdWindow time.Duration
	lockTTL    time.Duration
	logger     *zap.Logger
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	repo reservationDomain.Repository,
	locks *LockManager,
	rooms roomDomain.Catalog,
	payments paymentDomain.Repository,
	gateway paymentDomain.Gateway,
	producer EventPublisher,
	clk clock.Clock,
	policy reservationDomain.CancellationPolicy,
	holdWindow time.Duration,
	lockTTL time.Duration,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		repo:       repo,
		locks:      locks,
		rooms:      rooms,
		payments:   payments,
		gateway:    gateway,
		producer:   producer,
		clk:        clk,
		policy:     policy,
		holdWindow: holdWindow,
		lockTTL:    lockTTL,
		logger:     logger,
	}
}

// CreateReservation places a pending hold on a room for the requested window.
// One live hold per guest: a second request while an unexpired pending
// reservation exists is rejected with the existing reservation's ID.
func (s *ReservationService) CreateReservation(ctx context.Context, guestID uuid.UUID, req CreateReservationRequest) (*ReservationDTO, error) {
	now := s.clk.Now()

	checkIn, checkOut, err := parseStayDates(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}

	// Best-effort guard against a guest stacking up holds. It is not
	// serialized with acquisition, so two simultaneous requests by the same
	// guest can both pass; room availability below still holds either way.
	existing, err := s.repo.FindActivePendingByGuest(ctx, guestID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &reservationDomain.PendingHoldExistsError{
			ReservationID: existing.ID(),
			ExpiresAt:     *existing.ExpiresAt(),
		}
	}

	rm, err := s.rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	totalAmount := rm.PricePerNight.Mul(decimal.NewFromInt(int64(nights(checkIn, checkOut))))

	res, err := reservationDomain.NewReservation(
		rm.ID,
		guestID,
		checkIn,
		checkOut,
		req.NumberOfGuests,
		rm.Capacity,
		totalAmount,
		"USD",
		req.SpecialRequests,
		now,
		s.holdWindow,
	)
	if err != nil {
		return nil, err
	}

	lock := reservationDomain.NewRoomLock(rm.ID, checkIn, checkOut, res.ID(), now, s.lockTTL)
	if err := s.locks.Acquire(ctx, lock, res, rm.TotalRooms, now); err != nil {
		return nil, err
	}

	evt := events.ReservationCreatedEvent{
		ReservationID: res.ID(),
		RoomID:        res.RoomID(),
		GuestID:       res.GuestID(),
		CheckInDate:   res.CheckInDate(),
		CheckOutDate:  res.CheckOutDate(),
		TotalAmount:   res.TotalAmount(),
		Currency:      res.Currency(),
		ExpiresAt:     *res.ExpiresAt(),
		OccurredAt:    now,
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCreated, evt)

	result := toReservationDTO(res)
	return &result, nil
}

// ConfirmPayment charges the guest's payment instrument and confirms the
// pending reservation. An expired hold cannot be confirmed; the sweep owns it.
func (s *ReservationService) ConfirmPayment(ctx context.Context, reservationID, guestID uuid.UUID, req ConfirmPaymentRequest) (*ReservationDTO, error) {
	now := s.clk.Now()

	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}
	if res.HoldExpired(now) {
		return nil, domain.NewConflictError("payment window has expired; place a new reservation")
	}

	pay := paymentDomain.NewPayment(res.ID(), res.TotalAmount(), res.Currency(), now)
	if err := s.payments.Save(ctx, pay); err != nil {
		return nil, err
	}

	charge, err := s.gateway.Charge(ctx, res.TotalAmount(), res.Currency(), req.PaymentToken)
	if err != nil {
		pay.MarkFailed(s.clk.Now())
		if uerr := s.payments.Update(ctx, pay); uerr != nil {
			s.logger.Error("failed to record failed charge",
				zap.String("reservation_id", res.ID().String()),
				zap.Error(uerr),
			)
		}
		return nil, err
	}

	pay.MarkSucceeded(charge.ChargeID, s.clk.Now())
	if err := s.payments.Update(ctx, pay); err != nil {
		return nil, err
	}

	// The money is taken; from here a lost race against the expiry sweep must
	// refund the charge, not just surface the conflict.
	if err := res.ConfirmOnPayment(s.clk.Now()); err != nil {
		return nil, s.refundLostConfirmation(ctx, res, pay, err)
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, s.refundLostConfirmation(ctx, res, pay, err)
	}

	if err := s.locks.Release(ctx, res.ID()); err != nil {
		s.logger.Warn("failed to release room lock after confirmation",
			zap.String("reservation_id", res.ID().String()),
			zap.Error(err),
		)
	}

	evt := events.ReservationConfirmedEvent{
		ReservationID: res.ID(),
		RoomID:        res.RoomID(),
		GuestID:       res.GuestID(),
		CheckInDate:   res.CheckInDate(),
		CheckOutDate:  res.CheckOutDate(),
		TotalAmount:   res.TotalAmount(),
		Currency:      res.Currency(),
		OccurredAt:    s.clk.Now(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationConfirmed, evt)

	result := toReservationDTO(res)
	return &result, nil
}

// refundLostConfirmation compensates a successful charge whose reservation was
// reclaimed before the confirmation could be written. The full charge is
// refunded; if the provider refuses, the payment row stays succeeded so
// reconciliation can pick it up.
func (s *ReservationService) refundLostConfirmation(ctx context.Context, res *reservationDomain.Reservation, pay *paymentDomain.Payment, cause error) error {
	s.logger.Warn("reservation reclaimed during payment, refunding charge",
		zap.String("reservation_id", res.ID().String()),
		zap.String("charge_id", pay.ChargeID),
		zap.Error(cause),
	)

	if _, err := s.gateway.Refund(ctx, pay.ChargeID, pay.Amount, "hold expired before payment completed"); err != nil {
		s.logger.Error("failed to refund charge for reclaimed reservation",
			zap.String("reservation_id", res.ID().String()),
			zap.String("charge_id", pay.ChargeID),
			zap.Error(err),
		)
		return domain.NewConflictError("reservation is no longer available; the charge could not be refunded automatically and has been flagged for review")
	}

	pay.MarkRefundProcessing(s.clk.Now())
	if err := s.payments.Update(ctx, pay); err != nil {
		s.logger.Error("failed to record refund for reclaimed reservation",
			zap.String("reservation_id", res.ID().String()),
			zap.Error(err),
		)
	}
	return domain.NewConflictError("reservation is no longer available; the charge is being refunded")
}

// ConfirmFromPaymentEvent confirms a reservation after the payment service
// reports a successful deferred payment. Safe to call more than once; a
// reservation that is no longer pending is left alone.
func (s *ReservationService) ConfirmFromPaymentEvent(ctx context.Context, reservationID uuid.UUID, chargeID string) error {
	now := s.clk.Now()

	res, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.Status() != reservationDomain.StatusPending {
		s.logger.Info("ignoring payment event for non-pending reservation",
			zap.String("reservation_id", reservationID.String()),
			zap.String("status", string(res.Status())),
		)
		return nil
	}
	if res.HoldExpired(now) {
		return domain.NewConflictError("payment arrived after the hold expired")
	}

	pay := paymentDomain.NewPayment(res.ID(), res.TotalAmount(), res.Currency(), now)
	pay.MarkSucceeded(chargeID, now)
	if err := s.payments.Save(ctx, pay); err != nil {
		return err
	}

	if err := res.ConfirmOnPayment(now); err != nil {
		return err
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return err
	}

	if err := s.locks.Release(ctx, res.ID()); err != nil {
		s.logger.Warn("failed to release room lock after confirmation",
			zap.String("reservation_id", res.ID().String()),
			zap.Error(err),
		)
	}

	evt := events.ReservationConfirmedEvent{
		ReservationID: res.ID(),
		RoomID:        res.RoomID(),
		GuestID:       res.GuestID(),
		CheckInDate:   res.CheckInDate(),
		CheckOutDate:  res.CheckOutDate(),
		TotalAmount:   res.TotalAmount(),
		Currency:      res.Currency(),
		OccurredAt:    now,
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationConfirmed, evt)
	return nil
}

// CheckInGuest transitions a confirmed reservation to checked in.
func (s *ReservationService) CheckInGuest(ctx context.Context, reservationID, guestID uuid.UUID) (*ReservationDTO, error) {
	now := s.clk.Now()

	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}

	if err := res.CheckIn(now); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	evt := events.ReservationCheckedInEvent{
		ReservationID: res.ID(),
		RoomID:        res.RoomID(),
		GuestID:       res.GuestID(),
		CheckedInAt:   *res.CheckedInAt(),
		OccurredAt:    now,
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCheckedIn, evt)

	result := toReservationDTO(res)
	return &result, nil
}

// CheckOutGuest transitions a checked-in reservation to checked out.
func (s *ReservationService) CheckOutGuest(ctx context.Context, reservationID, guestID uuid.UUID) (*ReservationDTO, error) {
	now := s.clk.Now()

	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}

	if err := res.CheckOut(now); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	evt := events.ReservationCheckedOutEvent{
		ReservationID: res.ID(),
		RoomID:        res.RoomID(),
		GuestID:       res.GuestID(),
		CheckedOutAt:  *res.CheckedOutAt(),
		OccurredAt:    now,
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCheckedOut, evt)

	result := toReservationDTO(res)
	return &result, nil
}

// CancelReservation cancels a reservation without touching payments. Use
// CancelWithRefund for the guest-facing flow.
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID, guestID uuid.UUID, reason string) (*ReservationDTO, error) {
	now := s.clk.Now()

	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}

	if err := res.Cancel(reason, now); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	if err := s.locks.Release(ctx, res.ID()); err != nil {
		s.logger.Warn("failed to release room lock after cancellation",
			zap.String("reservation_id", res.ID().String()),
			zap.Error(err),
		)
	}

	s.publishCancelled(ctx, res, reason, now)

	result := toReservationDTO(res)
	return &result, nil
}

// PreviewRefund computes the refund the guest would receive for cancelling
// today, without changing anything.
func (s *ReservationService) PreviewRefund(ctx context.Context, reservationID, guestID uuid.UUID) (*reservationDomain.RefundCalculation, error) {
	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}
	if !res.Status().CanBeCancelled() {
		return nil, domain.NewInvalidStateError(string(res.Status()), string(reservationDomain.StatusCancelled))
	}

	calc := reservationDomain.CalculateRefund(res.TotalAmount(), res.CheckInDate(), s.policy, s.clk.Now())
	return &calc, nil
}

// CancelWithRefund cancels the reservation and then attempts the refund the
// policy grants. The cancellation is persisted before the provider is called,
// so a refund failure never resurrects the reservation.
func (s *ReservationService) CancelWithRefund(ctx context.Context, reservationID, guestID uuid.UUID, req CancelWithRefundRequest) (*CancellationResultDTO, error) {
	now := s.clk.Now()

	if !req.AcknowledgePolicy {
		return nil, domain.NewValidationError("the cancellation policy must be acknowledged")
	}

	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}

	calc := reservationDomain.CalculateRefund(res.TotalAmount(), res.CheckInDate(), s.policy, now)

	if err := res.Cancel(req.Reason, now); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	if err := s.locks.Release(ctx, res.ID()); err != nil {
		s.logger.Warn("failed to release room lock after cancellation",
			zap.String("reservation_id", res.ID().String()),
			zap.Error(err),
		)
	}

	s.publishCancelled(ctx, res, req.Reason, now)

	outcome := s.attemptRefund(ctx, res, calc)

	evt := events.RefundRequestedEvent{
		ReservationID: res.ID(),
		GuestID:       res.GuestID(),
		RefundAmount:  calc.RefundAmount,
		Currency:      res.Currency(),
		Outcome:       string(outcome),
		OccurredAt:    s.clk.Now(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationRefundRequested, evt)

	return &CancellationResultDTO{
		Reservation:   toReservationDTO(res),
		Refund:        calc,
		RefundOutcome: string(outcome),
		Message:       refundMessage(outcome, calc, res.Currency()),
	}, nil
}

func refundMessage(outcome paymentDomain.RefundOutcome, calc reservationDomain.RefundCalculation, currency string) string {
	switch outcome {
	case paymentDomain.RefundProcessing:
		return fmt.Sprintf("Your refund of %s %s is being processed and should arrive within 5-7 business days.",
			calc.RefundAmount.StringFixed(2), currency)
	case paymentDomain.RefundNoRefundDue:
		return "No refund is due under the cancellation policy."
	case paymentDomain.RefundNoPaymentFound:
		return "The reservation was cancelled; no payment was on record to refund."
	case paymentDomain.RefundPaymentNotEligible:
		return "The reservation was cancelled; the recorded payment is not eligible for an automatic refund."
	default:
		return "The reservation was cancelled; the refund could not be submitted and will be retried by support."
	}
}

// attemptRefund hands the refund to the provider and reports the outcome. It
// never returns an error: the cancellation is already durable and the outcome
// string carries the failure mode.
func (s *ReservationService) attemptRefund(ctx context.Context, res *reservationDomain.Reservation, calc reservationDomain.RefundCalculation) paymentDomain.RefundOutcome {
	if calc.NoRefund || !calc.RefundAmount.IsPositive() {
		return paymentDomain.RefundNoRefundDue
	}

	pay, err := s.payments.FindByReservationID(ctx, res.ID())
	if err != nil {
		s.logger.Error("failed to look up payment for refund",
			zap.String("reservation_id", res.ID().String()),
			zap.Error(err),
		)
		return paymentDomain.RefundFailed
	}
	if pay == nil {
		return paymentDomain.RefundNoPaymentFound
	}
	if pay.Status != paymentDomain.StatusSucceeded {
		return paymentDomain.RefundPaymentNotEligible
	}

	if _, err := s.gateway.Refund(ctx, pay.ChargeID, calc.RefundAmount, res.CancellationReason()); err != nil {
		s.logger.Error("refund request failed",
			zap.String("reservation_id", res.ID().String()),
			zap.String("charge_id", pay.ChargeID),
			zap.Error(err),
		)
		return paymentDomain.RefundFailed
	}

	pay.MarkRefundProcessing(s.clk.Now())
	if err := s.payments.Update(ctx, pay); err != nil {
		s.logger.Error("failed to record refund processing",
			zap.String("reservation_id", res.ID().String()),
			zap.Error(err),
		)
	}
	return paymentDomain.RefundProcessing
}

// ModifyReservation reschedules a reservation to new dates or guest count.
// Availability for the new window is re-verified and the move persisted inside
// the same per-room serialization that guards acquisition, with the
// reservation's own footprint excluded from the count.
func (s *ReservationService) ModifyReservation(ctx context.Context, reservationID, guestID uuid.UUID, req ModifyReservationRequest) (*ReservationDTO, error) {
	now := s.clk.Now()

	checkIn, checkOut, err := parseStayDates(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		return nil, err
	}

	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}

	rm, err := s.rooms.GetRoom(ctx, res.RoomID())
	if err != nil {
		return nil, err
	}

	// Work on a copy so a lost availability race leaves the loaded aggregate
	// untouched.
	updated := *res
	if err := updated.Reschedule(checkIn, checkOut, req.NumberOfGuests, rm.Capacity, now); err != nil {
		return nil, err
	}
	updated.IncrementVersion()
	if err := s.locks.Reschedule(ctx, &updated, rm.TotalRooms, now); err != nil {
		return nil, err
	}

	evt := events.ReservationModifiedEvent{
		ReservationID: updated.ID(),
		RoomID:        updated.RoomID(),
		GuestID:       updated.GuestID(),
		CheckInDate:   updated.CheckInDate(),
		CheckOutDate:  updated.CheckOutDate(),
		OccurredAt:    now,
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationModified, evt)

	result := toReservationDTO(&updated)
	return &result, nil
}

// CreatePaymentLink issues a hosted payment link for a pending reservation so
// payment can be completed later or by someone else.
func (s *ReservationService) CreatePaymentLink(ctx context.Context, reservationID, guestID uuid.UUID) (*PaymentLinkDTO, error) {
	now := s.clk.Now()

	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}
	if res.Status() != reservationDomain.StatusPending {
		return nil, domain.NewInvalidStateError(string(res.Status()), string(reservationDomain.StatusPending))
	}
	if res.HoldExpired(now) {
		return nil, domain.NewConflictError("payment window has expired; place a new reservation")
	}

	desc := fmt.Sprintf("Stay %s to %s",
		res.CheckInDate().Format(time.DateOnly), res.CheckOutDate().Format(time.DateOnly))
	link, err := s.gateway.CreatePaymentLink(ctx, res.ID(), res.TotalAmount(), res.Currency(), desc)
	if err != nil {
		return nil, err
	}

	res.AttachPaymentLinkToken(link.Token, now)
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	return &PaymentLinkDTO{Token: link.Token, URL: link.URL}, nil
}

// GetReservation retrieves a single reservation owned by the guest.
func (s *ReservationService) GetReservation(ctx context.Context, reservationID, guestID uuid.UUID) (*ReservationDTO, error) {
	res, err := s.findOwned(ctx, reservationID, guestID)
	if err != nil {
		return nil, err
	}
	result := toReservationDTO(res)
	return &result, nil
}

// GetReservationByPaymentToken retrieves a reservation by its deferred-payment
// token. No ownership check: the token itself is the capability.
func (s *ReservationService) GetReservationByPaymentToken(ctx context.Context, token string) (*ReservationDTO, error) {
	res, err := s.repo.FindByPaymentLinkToken(ctx, token)
	if err != nil {
		return nil, err
	}
	result := toReservationDTO(res)
	return &result, nil
}

// GetGuestReservations retrieves paginated reservations for a guest.
func (s *ReservationService) GetGuestReservations(ctx context.Context, guestID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReservationDTO], error) {
	reservations, total, err := s.repo.FindByGuestID(ctx, guestID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ReservationDTO, len(reservations))
	for i, res := range reservations {
		dtos[i] = toReservationDTO(res)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetMyPendingReservation returns the guest's live pending hold.
func (s *ReservationService) GetMyPendingReservation(ctx context.Context, guestID uuid.UUID) (*ReservationDTO, error) {
	res, err := s.repo.FindActivePendingByGuest(ctx, guestID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.NewNotFoundError("PendingReservation", guestID.String())
	}
	result := toReservationDTO(res)
	return &result, nil
}

// ListAllReservations returns a paginated list of all reservations (admin).
func (s *ReservationService) ListAllReservations(ctx context.Context, page, limit int) ([]ReservationDTO, int64, error) {
	reservations, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	dtos := make([]ReservationDTO, len(reservations))
	for i, res := range reservations {
		dtos[i] = toReservationDTO(res)
	}
	return dtos, total, nil
}

// CheckAvailability reports how many units of a room type remain bookable for
// a window. Advisory only; the acquisition transaction is authoritative.
func (s *ReservationService) CheckAvailability(ctx context.Context, roomID uuid.UUID, checkInDate, checkOutDate string) (*AvailabilityDTO, error) {
	now := s.clk.Now()

	checkIn, checkOut, err := parseStayDates(checkInDate, checkOutDate)
	if err != nil {
		return nil, err
	}

	rm, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	blocking, err := s.repo.FindBlockingByRoom(ctx, rm.ID, checkIn, checkOut, uuid.Nil, now)
	if err != nil {
		return nil, err
	}
	locks, err := s.locks.FindOverlapping(ctx, rm.ID, checkIn, checkOut, now)
	if err != nil {
		return nil, err
	}

	remaining := rm.TotalRooms - len(blocking) - len(locks)
	if remaining < 0 {
		remaining = 0
	}

	return &AvailabilityDTO{
		RoomID:         rm.ID,
		CheckInDate:    checkIn.Format(time.DateOnly),
		CheckOutDate:   checkOut.Format(time.DateOnly),
		Available:      remaining > 0,
		RemainingUnits: remaining,
	}, nil
}

// --- Helpers ---

func (s *ReservationService) findOwned(ctx context.Context, reservationID, guestID uuid.UUID) (*reservationDomain.Reservation, error) {
	res, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.GuestID() != guestID {
		return nil, domain.NewForbiddenError("reservation does not belong to this guest")
	}
	return res, nil
}

func (s *ReservationService) publishCancelled(ctx context.Context, res *reservationDomain.Reservation, reason string, now time.Time) {
	evt := events.ReservationCancelledEvent{
		ReservationID: res.ID(),
		RoomID:        res.RoomID(),
		GuestID:       res.GuestID(),
		Reason:        reason,
		CancelledAt:   *res.CancelledAt(),
		OccurredAt:    now,
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCancelled, evt)
}

func (s *ReservationService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-reservation", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func parseStayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(time.DateOnly, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError("check_in_date must be YYYY-MM-DD")
	}
	out, err := time.Parse(time.DateOnly, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError("check_out_date must be YYYY-MM-DD")
	}
	return in, out, nil
}

func nights(checkIn, checkOut time.Time) int {
	return int(reservationDomain.DateOf(checkOut).Sub(reservationDomain.DateOf(checkIn)).Hours() / 24)
}

func toReservationDTO(res *reservationDomain.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:                 res.ID(),
		RoomID:             res.RoomID(),
		GuestID:            res.GuestID(),
		CheckInDate:        res.CheckInDate().Format(time.DateOnly),
		CheckOutDate:       res.CheckOutDate().Format(time.DateOnly),
		Nights:             res.Nights(),
		NumberOfGuests:     res.NumberOfGuests(),
		Status:             string(res.Status()),
		TotalAmount:        res.TotalAmount().StringFixed(2),
		Currency:           res.Currency(),
		ExpiresAt:          res.ExpiresAt(),
		CancellationReason: res.CancellationReason(),
		CancelledAt:        res.CancelledAt(),
		CheckedInAt:        res.CheckedInAt(),
		CheckedOutAt:       res.CheckedOutAt(),
		SpecialRequests:    res.SpecialRequests(),
		Version:            res.Version(),
		CreatedAt:          res.CreatedAt(),
		UpdatedAt:          res.UpdatedAt(),
	}
}
