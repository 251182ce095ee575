package handlers

import (
	"context"
	"net/http"

	"voctnow/models"
	"voctnow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilitySetter toggles whether a practitioner receives new offers.
type AvailabilitySetter interface {
	SetAvailability(ctx context.Context, id string, available bool) error
}

// InternalHandler serves operator and practitioner endpoints under
// /api/internal.
type InternalHandler struct {
	Bookings  BookingService
	Engine    Lifecycle
	Providers AvailabilitySetter
}

func NewInternalHandler(bookings BookingService, engine Lifecycle, providers AvailabilitySetter) *InternalHandler {
	return &InternalHandler{Bookings: bookings, Engine: engine, Providers: providers}
}

type completeRequest struct {
	Notes string `json:"notes"`
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// RetryAssignment handles POST /api/internal/booking/:id/assign. It reruns
// matching for a booking stuck in no_provider_available.
func (h *InternalHandler) RetryAssignment(c *gin.Context) {
	id := c.Param("id")
	res, err := h.Engine.AssignAs(c.Request.Context(), id, models.ActorOperator)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("assignment retried", zap.String("bookingId", id), zap.String("outcome", string(res.Outcome)))

	resp := gin.H{"booking": res.Booking, "outcome": res.Outcome}
	if res.Provider != nil {
		resp["provider"] = res.Provider.DTO()
	}
	c.JSON(http.StatusOK, resp)
}

// CompleteSession handles
// POST /api/internal/practitioner/:id/session/:bookingId/complete.
func (h *InternalHandler) CompleteSession(c *gin.Context) {
	var req completeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}

	res, err := h.Engine.Complete(c.Request.Context(), c.Param("bookingId"), c.Param("id"), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": res.Booking, "outcome": res.Outcome})
}

// ListPractitionerBookings handles GET /api/internal/practitioner/:id/bookings.
func (h *InternalHandler) ListPractitionerBookings(c *gin.Context) {
	list, err := h.Bookings.ListByProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// SetAvailability handles PATCH /api/internal/practitioner/:id/availability.
func (h *InternalHandler) SetAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	id := c.Param("id")
	if err := h.Providers.SetAvailability(c.Request.Context(), id, *req.Available); err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("practitioner availability changed", zap.String("providerId", id), zap.Bool("available", *req.Available))
	c.JSON(http.StatusOK, gin.H{"id": id, "isAvailable": *req.Available})
}
