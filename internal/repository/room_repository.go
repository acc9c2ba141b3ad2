package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	roomDomain "github.com/harborview-hotels/service-reservation/internal/domain/room"
	"github.com/harborview-hotels/service-reservation/pkg/domain"
)

// RoomModel is the GORM model for the rooms table. The catalog is replicated
// locally so availability checks never cross a service boundary.
type RoomModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name          string          `gorm:"not null;size:100"`
	Type          string          `gorm:"not null;size:50;index"`
	Description   string          `gorm:"size:1000"`
	PricePerNight decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Capacity      int             `gorm:"not null"`
	TotalRooms    int             `gorm:"not null;default:1"`
}

// TableName returns the table name for the GORM model.
func (RoomModel) TableName() string {
	return "rooms"
}

// GormRoomRepository is the GORM-based implementation of room.Catalog.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GormRoomRepository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// GetRoom retrieves a room by ID.
func (r *GormRoomRepository) GetRoom(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	var model RoomModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", id.String())
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return toDomainRoom(&model), nil
}

// ListRooms retrieves all rooms, optionally filtered by minimum capacity.
func (r *GormRoomRepository) ListRooms(ctx context.Context, minCapacity int) ([]*roomDomain.Room, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if minCapacity > 0 {
		query = query.Where("capacity >= ?", minCapacity)
	}

	var models []RoomModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	rooms := make([]*roomDomain.Room, len(models))
	for i, m := range models {
		rooms[i] = toDomainRoom(&m)
	}
	return rooms, nil
}

func toDomainRoom(m *RoomModel) *roomDomain.Room {
	return &roomDomain.Room{
		ID:            m.ID,
		Name:          m.Name,
		Type:          m.Type,
		Description:   m.Description,
		PricePerNight: m.PricePerNight,
		Capacity:      m.Capacity,
		TotalRooms:    m.TotalRooms,
	}
}
