package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harborview-hotels/service-reservation/internal/application"
	"github.com/harborview-hotels/service-reservation/pkg/response"
)

// AdminReservationHandler handles back-office HTTP requests for reservation
// management. Access control lives at the edge proxy; these routes are only
// reachable on the internal network.
type AdminReservationHandler struct {
	service   *application.ReservationService
	reclaimer *application.ExpiryReclaimer
}

// NewAdminReservationHandler creates a new AdminReservationHandler.
func NewAdminReservationHandler(service *application.ReservationService, reclaimer *application.ExpiryReclaimer) *AdminReservationHandler {
	return &AdminReservationHandler{service: service, reclaimer: reclaimer}
}

// RegisterRoutes registers admin reservation routes.
func (h *AdminReservationHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/reservations", h.ListReservations)
		admin.POST("/expiry-sweep", h.TriggerSweep)
	}
}

// ListReservations handles GET /api/v1/admin/reservations.
func (h *AdminReservationHandler) ListReservations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	reservations, total, err := h.service.ListAllReservations(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, reservations, total, page, limit)
}

// TriggerSweep handles POST /api/v1/admin/expiry-sweep, running the expiry
// sweep immediately instead of waiting for the next tick.
func (h *AdminReservationHandler) TriggerSweep(c *gin.Context) {
	if err := h.reclaimer.Sweep(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
