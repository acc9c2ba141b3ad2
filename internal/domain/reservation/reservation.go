package reservation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborview-hotels/service-reservation/pkg/domain"
)

// Reservation is the aggregate root for the reservation domain. State only
// moves through the transition methods below; there is no raw status setter.
type Reservation struct {
	id             uuid.UUID
	roomID         uuid.UUID
	guestID        uuid.UUID
	checkInDate    time.Time
	checkOutDate   time.Time
	numberOfGuests int
	status         Status

	totalAmount decimal.Decimal
	currency    string

	expiresAt          *time.Time
	cancellationReason string
	cancelledAt        *time.Time
	checkedInAt        *time.Time
	checkedOutAt       *time.Time

	paymentLinkToken string
	specialRequests  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewReservation creates a reservation in pending state holding the room for
// holdWindow. Dates use half-open [checkIn, checkOut) semantics on calendar
// days; now is the injected current time.
func NewReservation(
	roomID uuid.UUID,
	guestID uuid.UUID,
	checkInDate time.Time,
	checkOutDate time.Time,
	numberOfGuests int,
	roomCapacity int,
	totalAmount decimal.Decimal,
	currency string,
	specialRequests string,
	now time.Time,
	holdWindow time.Duration,
) (*Reservation, error) {
	if roomID == uuid.Nil {
		return nil, domain.NewValidationError("room ID is required")
	}
	if guestID == uuid.Nil {
		return nil, domain.NewValidationError("guest ID is required")
	}

	checkInDate = DateOf(checkInDate)
	checkOutDate = DateOf(checkOutDate)

	if !checkOutDate.After(checkInDate) {
		return nil, domain.NewValidationError("check-out date must be after check-in date")
	}
	if checkInDate.Before(DateOf(now)) {
		return nil, domain.NewValidationError("check-in date cannot be in the past")
	}
	if numberOfGuests < 1 {
		return nil, domain.NewValidationError("number of guests must be at least 1")
	}
	if numberOfGuests > roomCapacity {
		return nil, domain.NewValidationError(
			fmt.Sprintf("number of guests %d exceeds room capacity %d", numberOfGuests, roomCapacity))
	}
	if totalAmount.IsNegative() {
		return nil, domain.NewValidationError("total amount cannot be negative")
	}

	expiresAt := now.Add(holdWindow)
	return &Reservation{
		id:              uuid.New(),
		roomID:          roomID,
		guestID:         guestID,
		checkInDate:     checkInDate,
		checkOutDate:    checkOutDate,
		numberOfGuests:  numberOfGuests,
		status:          StatusPending,
		totalAmount:     totalAmount,
		currency:        currency,
		expiresAt:       &expiresAt,
		specialRequests: specialRequests,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Reconstruct rebuilds a Reservation from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	roomID uuid.UUID,
	guestID uuid.UUID,
	checkInDate time.Time,
	checkOutDate time.Time,
	numberOfGuests int,
	status Status,
	totalAmount decimal.Decimal,
	currency string,
	expiresAt *time.Time,
	cancellationReason string,
	cancelledAt *time.Time,
	checkedInAt *time.Time,
	checkedOutAt *time.Time,
	paymentLinkToken string,
	specialRequests string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:                 id,
		roomID:             roomID,
		guestID:            guestID,
		checkInDate:        checkInDate,
		checkOutDate:       checkOutDate,
		numberOfGuests:     numberOfGuests,
		status:             status,
		totalAmount:        totalAmount,
		currency:           currency,
		expiresAt:          expiresAt,
		cancellationReason: cancellationReason,
		cancelledAt:        cancelledAt,
		checkedInAt:        checkedInAt,
		checkedOutAt:       checkedOutAt,
		paymentLinkToken:   paymentLinkToken,
		specialRequests:    specialRequests,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// --- Getters ---

// ID returns the reservation's unique identifier.
func (r *Reservation) ID() uuid.UUID { return r.id }

// RoomID returns the booked room's identifier.
func (r *Reservation) RoomID() uuid.UUID { return r.roomID }

// GuestID returns the booking guest's identifier.
func (r *Reservation) GuestID() uuid.UUID { return r.guestID }

// CheckInDate returns the first night of the stay.
func (r *Reservation) CheckInDate() time.Time { return r.checkInDate }

// CheckOutDate returns the departure date (exclusive).
func (r *Reservation) CheckOutDate() time.Time { return r.checkOutDate }

// NumberOfGuests returns the guest count for the stay.
func (r *Reservation) NumberOfGuests() int { return r.numberOfGuests }

// Status returns the current reservation status.
func (r *Reservation) Status() Status { return r.status }

// TotalAmount returns the total price of the stay.
func (r *Reservation) TotalAmount() decimal.Decimal { return r.totalAmount }

// Currency returns the currency code.
func (r *Reservation) Currency() string { return r.currency }

// ExpiresAt returns the hold deadline, or nil once the hold is resolved.
func (r *Reservation) ExpiresAt() *time.Time { return r.expiresAt }

// CancellationReason returns the recorded cancellation reason.
func (r *Reservation) CancellationReason() string { return r.cancellationReason }

// CancelledAt returns the time the reservation was cancelled.
func (r *Reservation) CancelledAt() *time.Time { return r.cancelledAt }

// CheckedInAt returns the time the guest checked in.
func (r *Reservation) CheckedInAt() *time.Time { return r.checkedInAt }

// CheckedOutAt returns the time the guest checked out.
func (r *Reservation) CheckedOutAt() *time.Time { return r.checkedOutAt }

// PaymentLinkToken returns the opaque token for deferred-payment flows.
func (r *Reservation) PaymentLinkToken() string { return r.paymentLinkToken }

// SpecialRequests returns any free-form guest requests.
func (r *Reservation) SpecialRequests() string { return r.specialRequests }

// Version returns the entity version for optimistic locking.
func (r *Reservation) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }

// --- Behavior ---

// HoldExpired reports whether a pending reservation's payment window has
// passed. Always false for non-pending reservations.
func (r *Reservation) HoldExpired(now time.Time) bool {
	return r.status == StatusPending && r.expiresAt != nil && r.expiresAt.Before(now)
}

// IsBlocking reports whether the reservation counts toward the
// no-double-booking invariant: pending with an unexpired hold, confirmed,
// or checked in.
func (r *Reservation) IsBlocking(now time.Time) bool {
	switch r.status {
	case StatusPending:
		return !r.HoldExpired(now)
	case StatusConfirmed, StatusCheckedIn:
		return true
	default:
		return false
	}
}

// ConfirmOnPayment transitions the reservation from pending to confirmed
// after a successful payment and clears the hold deadline.
func (r *Reservation) ConfirmOnPayment(now time.Time) error {
	if !r.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(r.status), string(StatusConfirmed))
	}
	r.status = StatusConfirmed
	r.expiresAt = nil
	r.updatedAt = now
	return nil
}

// CheckIn transitions the reservation from confirmed to checked in.
func (r *Reservation) CheckIn(now time.Time) error {
	if !r.status.CanTransitionTo(StatusCheckedIn) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCheckedIn))
	}
	r.status = StatusCheckedIn
	r.checkedInAt = &now
	r.updatedAt = now
	return nil
}

// CheckOut transitions the reservation from checked in to checked out.
func (r *Reservation) CheckOut(now time.Time) error {
	if !r.status.CanTransitionTo(StatusCheckedOut) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCheckedOut))
	}
	r.status = StatusCheckedOut
	r.checkedOutAt = &now
	r.updatedAt = now
	return nil
}

// Cancel transitions the reservation to cancelled if it is not in a terminal
// state, recording the reason and time.
func (r *Reservation) Cancel(reason string, now time.Time) error {
	if !r.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(r.status), string(StatusCancelled))
	}
	r.status = StatusCancelled
	r.cancellationReason = reason
	r.cancelledAt = &now
	r.expiresAt = nil
	r.updatedAt = now
	return nil
}

// Reschedule moves the stay to new dates and guest count. Availability for
// the new window must be verified by the caller before persisting.
func (r *Reservation) Reschedule(checkInDate, checkOutDate time.Time, numberOfGuests, roomCapacity int, now time.Time) error {
	if r.status.IsTerminal() {
		return domain.NewInvalidStateError(string(r.status), "rescheduled")
	}
	checkInDate = DateOf(checkInDate)
	checkOutDate = DateOf(checkOutDate)
	if !checkOutDate.After(checkInDate) {
		return domain.NewValidationError("check-out date must be after check-in date")
	}
	if numberOfGuests < 1 || numberOfGuests > roomCapacity {
		return domain.NewValidationError(
			fmt.Sprintf("number of guests %d exceeds room capacity %d", numberOfGuests, roomCapacity))
	}
	r.checkInDate = checkInDate
	r.checkOutDate = checkOutDate
	r.numberOfGuests = numberOfGuests
	r.updatedAt = now
	return nil
}

// AttachPaymentLinkToken records the token issued for a deferred-payment flow.
func (r *Reservation) AttachPaymentLinkToken(token string, now time.Time) {
	r.paymentLinkToken = token
	r.updatedAt = now
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.version++
}

// Nights returns the length of the stay in nights.
func (r *Reservation) Nights() int {
	return int(r.checkOutDate.Sub(r.checkInDate).Hours() / 24)
}
