package handlers

import (
	"errors"
	"net/http"

	"voctnow/models"
	"voctnow/services/assignment"
	"voctnow/services/booking"
	"voctnow/services/payment"
	"voctnow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto an HTTP status.
func respondError(c *gin.Context, err error) {
	var verrs booking.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": "Validation failed",
			"errors":  verrs,
		})
	case errors.Is(err, assignment.ErrNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, models.ErrRecordNotFound):
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, assignment.ErrPreconditionFailed),
		errors.Is(err, assignment.ErrConflict),
		errors.Is(err, payment.ErrAlreadyPaid):
		utils.JSONError(c, http.StatusConflict, "Booking state conflict", err.Error())
	case errors.Is(err, payment.ErrInvalidSignature):
		utils.JSONError(c, http.StatusBadRequest, "Invalid signature", err.Error())
	case errors.Is(err, payment.ErrDemoDisabled):
		utils.JSONError(c, http.StatusForbidden, "Demo payments disabled", err.Error())
	default:
		getLogger(c).Error("request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred.")
	}
}
