package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers for route registration.
type HandlerBundle struct {
	// Booking endpoints
	CreateBooking    gin.HandlerFunc
	GetBooking       gin.HandlerFunc
	ListUserBookings gin.HandlerFunc
	CancelBooking    gin.HandlerFunc

	// Internal endpoints
	RetryAssignment          gin.HandlerFunc
	CompleteSession          gin.HandlerFunc
	ListPractitionerBookings gin.HandlerFunc
	SetAvailability          gin.HandlerFunc

	// Payment endpoints
	CreatePaymentIntent gin.HandlerFunc
	PaymentWebhook      gin.HandlerFunc
	MockPaymentSuccess  gin.HandlerFunc

	// Live channels
	ClientSocket   gin.HandlerFunc
	ProviderSocket gin.HandlerFunc

	Health gin.HandlerFunc
}
