package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harborview-hotels/service-reservation/internal/application"
	roomDomain "github.com/harborview-hotels/service-reservation/internal/domain/room"
	"github.com/harborview-hotels/service-reservation/pkg/response"
)

// RoomHandler handles HTTP requests for the room catalog and availability
// reads. These endpoints are unauthenticated: browsing rooms does not require
// a guest identity.
type RoomHandler struct {
	catalog roomDomain.Catalog
	service *application.ReservationService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(catalog roomDomain.Catalog, service *application.ReservationService) *RoomHandler {
	return &RoomHandler{catalog: catalog, service: service}
}

// RegisterRoutes registers room routes on the given router group.
func (h *RoomHandler) RegisterRoutes(r *gin.RouterGroup) {
	rooms := r.Group("/api/v1/rooms")
	{
		rooms.GET("", h.ListRooms)
		rooms.GET("/:id", h.GetRoom)
		rooms.GET("/:id/availability", h.CheckAvailability)
	}
}

// ListRooms handles GET /api/v1/rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	minCapacity, _ := strconv.Atoi(c.DefaultQuery("min_capacity", "0"))

	rooms, err := h.catalog.ListRooms(c.Request.Context(), minCapacity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, rooms)
}

// GetRoom handles GET /api/v1/rooms/:id.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room ID")
		return
	}

	rm, err := h.catalog.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, rm)
}

// CheckAvailability handles GET /api/v1/rooms/:id/availability.
func (h *RoomHandler) CheckAvailability(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room ID")
		return
	}

	checkIn := c.Query("check_in")
	checkOut := c.Query("check_out")
	if checkIn == "" || checkOut == "" {
		response.BadRequest(c, "check_in and check_out query parameters are required")
		return
	}

	result, err := h.service.CheckAvailability(c.Request.Context(), roomID, checkIn, checkOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
