package booking

import (
	"context"
	"net/http"
	"strconv"

	"tourmarket/internal/domain"
	"tourmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings", h.ListBookings)
	rg.GET("/bookings/upcoming", h.ListUpcoming)
	rg.GET("/bookings/past", h.ListPast)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.PATCH("/bookings/:id/status", h.UpdateStatus)
	rg.POST("/bookings/:id/cancel", h.CancelBooking)
	rg.POST("/bookings/:id/complete", h.CompleteBooking)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

func (h *Handler) ListBookings(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	bookings, total, err := h.service.ListBookings(c.Request.Context(),
		c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, bookings, gin.H{
		"total":    total,
		"page":     q.Page,
		"per_page": q.PerPage,
	})
}

func (h *Handler) ListUpcoming(c *gin.Context) {
	h.listScoped(c, h.service.UpcomingBookings)
}

func (h *Handler) ListPast(c *gin.Context) {
	h.listScoped(c, h.service.PastBookings)
}

func (h *Handler) listScoped(c *gin.Context, list func(ctx context.Context, userID int64, role domain.UserRole, q ListQuery) ([]domain.Booking, int64, error)) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	bookings, total, err := list(c.Request.Context(),
		c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, bookings, gin.H{
		"total":    total,
		"page":     q.Page,
		"per_page": q.PerPage,
	})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(),
		c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Status must be confirmed or rejected")
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(),
		c.GetInt64("user_id"), id, domain.BookingStatus(req.Status), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason is required")
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(),
		c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), id, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) CompleteBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.service.CompleteBooking(c.Request.Context(),
		c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case ErrNotFound, ErrListingNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case ErrListingInactive, ErrGroupTooLarge, ErrInvalidTransition:
		response.Error(c, http.StatusUnprocessableEntity, "NOT_ALLOWED", err.Error())
	case ErrConflict:
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	case ErrRefundFailed:
		response.Error(c, http.StatusBadGateway, "REFUND_FAILED", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return 0, false
	}
	return id, true
}
