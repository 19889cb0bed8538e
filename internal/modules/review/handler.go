package review

import (
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

// RegisterPublicRoutes exposes read access without authentication.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/reviews", h.List)
	rg.GET("/reviews/:id", h.Get)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.Create)
	rg.PUT("/reviews/:id", h.Edit)
	rg.POST("/reviews/:id/report", h.Report)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/reviews/:id/visibility", h.SetVisibility)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be 1-5 and booking_id is required")
		return
	}

	rev, err := h.service.CreateReview(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rev)
}

func (h *Handler) Edit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req EditReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be 1-5")
		return
	}

	rev, err := h.service.EditReview(c.Request.Context(), c.GetInt64("user_id"), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rev)
}

func (h *Handler) Report(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	count, err := h.service.ReportReview(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report_count": count})
}

func (h *Handler) SetVisibility(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	rev, err := h.service.SetVisibility(c.Request.Context(), id, req.Hidden)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rev)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	reviews, total, err := h.service.ListReviews(c.Request.Context(),
		domain.UserRole(c.GetString("role")), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, reviews, gin.H{
		"total":    total,
		"page":     q.Page,
		"per_page": q.PerPage,
	})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rev, err := h.service.GetReview(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rev)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case ErrNotFound, ErrBookingNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case ErrNotCompleted, ErrEditWindowClosed:
		response.Error(c, http.StatusUnprocessableEntity, "NOT_ALLOWED", err.Error())
	case ErrAlreadyReviewed:
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
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
