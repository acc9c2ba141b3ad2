package room

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Room is the read-only catalog view of a bookable room type. The catalog
// itself is owned by another service; this core only reads capacity, price,
// and pooled inventory.
type Room struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Description   string          `json:"description,omitempty"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Capacity      int             `json:"capacity"`

	// TotalRooms is the pooled unit count for this room type. A value of 1
	// gives strict per-room mutual exclusion.
	TotalRooms int `json:"total_rooms"`
}

// Catalog is the external room-catalog collaborator.
type Catalog interface {
	// GetRoom retrieves a room by ID.
	GetRoom(ctx context.Context, id uuid.UUID) (*Room, error)

	// ListRooms retrieves all rooms, optionally filtered by minimum capacity.
	ListRooms(ctx context.Context, minCapacity int) ([]*Room, error)
}
