package rating

import (
	"net/http"
	"strconv"

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
	rg.GET("/guides/me/earnings", h.Earnings)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/listings/:id/recompute", h.Recompute)
}

func (h *Handler) Earnings(c *gin.Context) {
	earnings, err := h.service.Earnings(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}
	response.Success(c, http.StatusOK, earnings)
}

func (h *Handler) Recompute(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid listing id")
		return
	}

	listing, err := h.service.RecomputeListing(c.Request.Context(), id)
	if err != nil {
		if err == ErrListingNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}
	response.Success(c, http.StatusOK, listing)
}
