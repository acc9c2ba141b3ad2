package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kafka topics.
const (
	TopicReservationEvents = "reservation.events"
	TopicPaymentEvents     = "payment.events"
)

// Reservation event types, published on TopicReservationEvents.
const (
	ReservationCreated         = "reservation.created"
	ReservationConfirmed       = "reservation.confirmed"
	ReservationCheckedIn       = "reservation.checked_in"
	ReservationCheckedOut      = "reservation.checked_out"
	ReservationCancelled       = "reservation.cancelled"
	ReservationExpired         = "reservation.expired"
	ReservationModified        = "reservation.modified"
	ReservationRefundRequested = "reservation.refund_requested"
)

// Payment event types, consumed from TopicPaymentEvents.
const (
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
)

// ReservationCreatedEvent is emitted when a pending hold is placed.
type ReservationCreatedEvent struct {
	ReservationID uuid.UUID       `json:"reservation_id"`
	RoomID        uuid.UUID       `json:"room_id"`
	GuestID       uuid.UUID       `json:"guest_id"`
	CheckInDate   time.Time       `json:"check_in_date"`
	CheckOutDate  time.Time       `json:"check_out_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	ExpiresAt     time.Time       `json:"expires_at"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// ReservationConfirmedEvent is emitted when payment succeeds and the stay is
// locked in.
type ReservationConfirmedEvent struct {
	ReservationID uuid.UUID       `json:"reservation_id"`
	RoomID        uuid.UUID       `json:"room_id"`
	GuestID       uuid.UUID       `json:"guest_id"`
	CheckInDate   time.Time       `json:"check_in_date"`
	CheckOutDate  time.Time       `json:"check_out_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// ReservationCheckedInEvent is emitted when the guest arrives.
type ReservationCheckedInEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	RoomID        uuid.UUID `json:"room_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	CheckedInAt   time.Time `json:"checked_in_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReservationCheckedOutEvent is emitted when the stay completes.
type ReservationCheckedOutEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	RoomID        uuid.UUID `json:"room_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	CheckedOutAt  time.Time `json:"checked_out_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReservationCancelledEvent is emitted for guest cancellations.
type ReservationCancelledEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	RoomID        uuid.UUID `json:"room_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelled_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReservationExpiredEvent is emitted when the expiry sweep reclaims an
// abandoned pending hold.
type ReservationExpiredEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	RoomID        uuid.UUID `json:"room_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	ExpiredAt     time.Time `json:"expired_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReservationModifiedEvent is emitted when dates or guest count change.
type ReservationModifiedEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	RoomID        uuid.UUID `json:"room_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	CheckInDate   time.Time `json:"check_in_date"`
	CheckOutDate  time.Time `json:"check_out_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// RefundRequestedEvent is emitted after a cancellation's refund was handed to
// the payment provider.
type RefundRequestedEvent struct {
	ReservationID uuid.UUID       `json:"reservation_id"`
	GuestID       uuid.UUID       `json:"guest_id"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
	Currency      string          `json:"currency"`
	Outcome       string          `json:"outcome"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// PaymentSucceededEvent is the payload consumed from the payment service when
// a deferred payment completes.
type PaymentSucceededEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	PaymentID     uuid.UUID `json:"payment_id"`
	ChargeID      string    `json:"charge_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentFailedEvent is the payload consumed when a deferred payment fails.
type PaymentFailedEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	PaymentID     uuid.UUID `json:"payment_id"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}
