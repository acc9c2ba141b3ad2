package reservation

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RoomNotAvailableError indicates the requested room/date window is taken by
// a blocking reservation or a live lock. The caller may retry with different
// dates.
type RoomNotAvailableError struct {
	RoomID       uuid.UUID
	CheckInDate  time.Time
	CheckOutDate time.Time
}

func (e *RoomNotAvailableError) Error() string {
	return fmt.Sprintf("room %s is not available from %s to %s",
		e.RoomID, e.CheckInDate.Format(time.DateOnly), e.CheckOutDate.Format(time.DateOnly))
}

// HTTPStatus maps the error to 409 Conflict.
func (e *RoomNotAvailableError) HTTPStatus() int {
	return http.StatusConflict
}

// PendingHoldExistsError indicates the guest already holds an unexpired
// pending reservation. It carries the existing reservation's ID so the client
// can resume payment instead of creating a duplicate hold.
type PendingHoldExistsError struct {
	ReservationID uuid.UUID
	ExpiresAt     time.Time
}

func (e *PendingHoldExistsError) Error() string {
	return fmt.Sprintf("a pending reservation %s already exists (expires at %s)",
		e.ReservationID, e.ExpiresAt.Format(time.RFC3339))
}

// HTTPStatus maps the error to 409 Conflict.
func (e *PendingHoldExistsError) HTTPStatus() int {
	return http.StatusConflict
}
