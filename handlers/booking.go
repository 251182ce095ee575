package handlers

import (
	"context"
	"net/http"

	"voctnow/models"
	"voctnow/services/assignment"
	"voctnow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingService is the intake and read side of bookings.
type BookingService interface {
	Create(ctx context.Context, in models.BookingInput) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error)
}

// Lifecycle drives assignment transitions.
type Lifecycle interface {
	AssignAs(ctx context.Context, bookingID, actor string) (*assignment.Result, error)
	Complete(ctx context.Context, bookingID, providerID, notes string) (*assignment.Result, error)
	Cancel(ctx context.Context, bookingID, reason, actor string) (*assignment.Result, error)
}

type BookingHandler struct {
	Service BookingService
	Engine  Lifecycle
}

func NewBookingHandler(service BookingService, engine Lifecycle) *BookingHandler {
	return &BookingHandler{Service: service, Engine: engine}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CreateBooking handles POST /api/booking.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var in models.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	b, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// GetBooking handles GET /api/booking/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListUserBookings handles GET /api/bookings/user/:userId.
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	list, err := h.Service.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// CancelBooking handles POST /api/booking/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}

	id := c.Param("id")
	res, err := h.Engine.Cancel(c.Request.Context(), id, req.Reason, models.ActorClient)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("booking cancelled by client", zap.String("bookingId", id), zap.String("outcome", string(res.Outcome)))
	c.JSON(http.StatusOK, gin.H{"booking": res.Booking, "outcome": res.Outcome})
}
