package payment

import (
	"io"
	"net/http"

	"tourmarket/internal/domain"
	"tourmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/intent", h.CreateIntent)
	rg.POST("/payments/confirm", h.Confirm)
	rg.GET("/payments", h.List)
	rg.GET("/payments/:id", h.Get)
	rg.POST("/payments/:id/refund", h.Refund)
}

// RegisterWebhook mounts the gateway callback outside the auth middleware;
// it authenticates by signature instead.
func (h *Handler) RegisterWebhook(rg *gin.RouterGroup) {
	rg.POST("/webhooks/stripe", h.Webhook)
}

func (h *Handler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.CreateIntent(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "intent_id is required")
		return
	}

	p, err := h.service.ConfirmPayment(c.Request.Context(), c.GetInt64("user_id"), req.IntentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	p, err := h.service.GetPayment(c.Request.Context(),
		c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	payments, total, err := h.service.ListPayments(c.Request.Context(),
		c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, payments, gin.H{
		"total":    total,
		"page":     q.Page,
		"per_page": q.PerPage,
	})
}

func (h *Handler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Refund reason is required")
		return
	}

	p, err := h.service.Refund(c.Request.Context(),
		c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Webhook reads the raw body before any binding so the signature is checked
// against exactly the bytes the gateway signed.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unreadable payload")
		return
	}

	err = h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"received": true})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case ErrNotFound, ErrBookingNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case ErrNotPayable, ErrNotRefundable, ErrInvalidAmount:
		response.Error(c, http.StatusUnprocessableEntity, "NOT_ALLOWED", err.Error())
	case ErrAlreadyActive:
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	case ErrBadSignature:
		response.Error(c, http.StatusBadRequest, "BAD_SIGNATURE", err.Error())
	case ErrGatewayFailed:
		response.Error(c, http.StatusBadGateway, "GATEWAY_ERROR", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
