package admin

import (
	"net/http"

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
	rg.GET("/stats", h.Stats)
	rg.POST("/users/activate", h.setUsersActive(true))
	rg.POST("/users/deactivate", h.setUsersActive(false))
	rg.POST("/listings/activate", h.setListingsActive(true))
	rg.POST("/listings/deactivate", h.setListingsActive(false))
}

type bulkIDsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1"`
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) setUsersActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkIDsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "ids must be a non-empty array")
			return
		}
		n, err := h.service.SetUsersActive(c.Request.Context(), req.IDs, active)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"updated": n})
	}
}

func (h *Handler) setListingsActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkIDsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "ids must be a non-empty array")
			return
		}
		n, err := h.service.SetListingsActive(c.Request.Context(), req.IDs, active)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"updated": n})
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
