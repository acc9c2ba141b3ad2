package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harborview-hotels/service-reservation/internal/application"
	"github.com/harborview-hotels/service-reservation/pkg/middleware"
	"github.com/harborview-hotels/service-reservation/pkg/response"
)

// ReservationHandler handles HTTP requests for reservation operations.
type ReservationHandler struct {
	service *application.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(service *application.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// RegisterRoutes registers all reservation routes on the given router group.
func (h *ReservationHandler) RegisterRoutes(r *gin.RouterGroup) {
	reservations := r.Group("/api/v1/reservations")
	reservations.Use(middleware.GuestIdentityMiddleware())
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", h.ListReservations)
		reservations.GET("/my-pending", h.GetMyPending)
		reservations.GET("/:id", h.GetReservation)
		reservations.POST("/:id/confirm-payment", h.ConfirmPayment)
		reservations.POST("/:id/payment-link", h.CreatePaymentLink)
		reservations.POST("/:id/check-in", h.CheckIn)
		reservations.POST("/:id/check-out", h.CheckOut)
		reservations.POST("/:id/cancel", h.Cancel)
		reservations.POST("/:id/cancel-with-refund", h.CancelWithRefund)
		reservations.GET("/:id/refund-preview", h.RefundPreview)
		reservations.PATCH("/:id", h.Modify)
	}

	// Payment-link lookups authenticate by token, not guest identity.
	r.GET("/api/v1/payment-links/:token", h.GetByPaymentToken)
}

// CreateReservation handles POST /api/v1/reservations.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	guestID, ok := middleware.GetGuestID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateReservation(c.Request.Context(), guestID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListReservations handles GET /api/v1/reservations.
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	guestID, ok := middleware.GetGuestID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetGuestReservations(c.Request.Context(), guestID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetMyPending handles GET /api/v1/reservations/my-pending.
func (h *ReservationHandler) GetMyPending(c *gin.Context) {
	guestID, ok := middleware.GetGuestID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetMyPendingReservation(c.Request.Context(), guestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetReservation handles GET /api/v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	result, err := h.service.GetReservation(c.Request.Context(), reservationID, guestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmPayment handles POST /api/v1/reservations/:id/confirm-payment.
func (h *ReservationHandler) ConfirmPayment(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	var req application.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ConfirmPayment(c.Request.Context(), reservationID, guestID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreatePaymentLink handles POST /api/v1/reservations/:id/payment-link.
func (h *ReservationHandler) CreatePaymentLink(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	result, err := h.service.CreatePaymentLink(c.Request.Context(), reservationID, guestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CheckIn handles POST /api/v1/reservations/:id/check-in.
func (h *ReservationHandler) CheckIn(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	result, err := h.service.CheckInGuest(c.Request.Context(), reservationID, guestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckOut handles POST /api/v1/reservations/:id/check-out.
func (h *ReservationHandler) CheckOut(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	result, err := h.service.CheckOutGuest(c.Request.Context(), reservationID, guestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Cancel handles POST /api/v1/reservations/:id/cancel. This only cancels the
// reservation; use CancelWithRefund for the money-back flow.
func (h *ReservationHandler) Cancel(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	var body application.CancelReservationRequest
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.CancelReservation(c.Request.Context(), reservationID, guestID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelWithRefund handles POST /api/v1/reservations/:id/cancel-with-refund.
// The guest must acknowledge the cancellation policy; the response carries the
// cancelled reservation, the refund breakdown and the refund outcome.
func (h *ReservationHandler) CancelWithRefund(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	var req application.CancelWithRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CancelWithRefund(c.Request.Context(), reservationID, guestID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RefundPreview handles GET /api/v1/reservations/:id/refund-preview.
func (h *ReservationHandler) RefundPreview(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	result, err := h.service.PreviewRefund(c.Request.Context(), reservationID, guestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Modify handles PATCH /api/v1/reservations/:id.
func (h *ReservationHandler) Modify(c *gin.Context) {
	reservationID, guestID, ok := h.idAndGuest(c)
	if !ok {
		return
	}

	var req application.ModifyReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ModifyReservation(c.Request.Context(), reservationID, guestID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetByPaymentToken handles GET /api/v1/payment-links/:token.
func (h *ReservationHandler) GetByPaymentToken(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "missing payment link token")
		return
	}

	result, err := h.service.GetReservationByPaymentToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func (h *ReservationHandler) idAndGuest(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return uuid.Nil, uuid.Nil, false
	}

	guestID, ok := middleware.GetGuestID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}

	return reservationID, guestID, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
