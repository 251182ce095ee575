package routes

import (
	"time"

	"voctnow/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the client-facing booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/booking")
	{
		bookingGroup.POST("", hb.CreateBooking)
		bookingGroup.GET("/:id", hb.GetBooking)
		bookingGroup.POST("/:id/cancel", hb.CancelBooking)
	}
	r.GET("/api/bookings/user/:userId", hb.ListUserBookings)
}

// RegisterInternalRoutes registers operator and practitioner endpoints.
func RegisterInternalRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	internal := r.Group("/api/internal")
	{
		internal.POST("/booking/:id/assign", hb.RetryAssignment)

		practitioner := internal.Group("/practitioner/:id")
		practitioner.POST("/session/:bookingId/complete", hb.CompleteSession)
		practitioner.GET("/bookings", hb.ListPractitionerBookings)
		practitioner.PATCH("/availability", hb.SetAvailability)
	}
}

// RegisterPaymentRoutes registers payment endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	paymentGroup := r.Group("/api/payment")
	{
		paymentGroup.POST("/create-intent", hb.CreatePaymentIntent)
		paymentGroup.POST("/webhook", hb.PaymentWebhook)
		paymentGroup.POST("/mock-success/:id", hb.MockPaymentSuccess)
	}
}

// RegisterSocketRoutes registers the live channel endpoints.
func RegisterSocketRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	ws := r.Group("/ws")
	{
		ws.GET("/user/:id", hb.ClientSocket)
		ws.GET("/physio/:id", hb.ProviderSocket)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
		corsConfig.AllowOrigins = nil
	}
	r.Use(cors.New(corsConfig))

	RegisterHealthRoute(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterInternalRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterSocketRoutes(r, hb)
}
