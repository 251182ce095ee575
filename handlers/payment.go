package handlers

import (
	"context"
	"io"
	"net/http"

	"voctnow/models"
	"voctnow/services/assignment"
	"voctnow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps the payload read from Stripe.
const maxWebhookBody = int64(65536)

// PaymentService collects payments and confirms bookings.
type PaymentService interface {
	CreateIntent(ctx context.Context, bookingID string) (*models.PaymentIntentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	MockSuccess(ctx context.Context, bookingID string) (*assignment.Result, error)
}

type PaymentHandler struct {
	Service PaymentService
}

func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: service}
}

// CreateIntent handles POST /api/payment/create-intent.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req models.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingID == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", "booking_id is required")
		return
	}

	resp, err := h.Service.CreateIntent(c.Request.Context(), req.BookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Webhook handles POST /api/payment/webhook. The raw body is needed for
// signature verification.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Failed to read body", err.Error())
		return
	}

	if err := h.Service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// MockSuccess handles POST /api/payment/mock-success/:id.
func (h *PaymentHandler) MockSuccess(c *gin.Context) {
	id := c.Param("id")
	res, err := h.Service.MockSuccess(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("demo payment confirmed", zap.String("bookingId", id), zap.String("outcome", string(res.Outcome)))
	c.JSON(http.StatusOK, gin.H{"booking": res.Booking, "outcome": res.Outcome})
}
