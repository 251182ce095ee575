package models

import "time"

// Booking event actors.
const (
	ActorSystem   = "system"
	ActorPayment  = "payment"
	ActorProvider = "provider"
	ActorTimer    = "timer"
	ActorOperator = "operator"
	ActorClient   = "client"
)

// BookingEvent records one state transition of a booking.
type BookingEvent struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"booking_id" json:"booking_id"`
	Kind       string    `bson:"kind" json:"kind"`
	FromState  string    `bson:"from_state" json:"from_state"`
	ToState    string    `bson:"to_state" json:"to_state"`
	Actor      string    `bson:"actor" json:"actor"`
	ProviderID string    `bson:"provider_id,omitempty" json:"provider_id,omitempty"`
	Attempt    int       `bson:"attempt" json:"attempt"`
	Reason     string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Booking event kinds.
const (
	EventCreated          = "created"
	EventPaymentConfirmed = "payment_confirmed"
	EventAssigned         = "assigned"
	EventNoProvider       = "no_provider_available"
	EventAccepted         = "accepted"
	EventRejected         = "rejected"
	EventExpired          = "offer_expired"
	EventCompleted        = "completed"
	EventCancelled        = "cancelled"
)

// StateOf renders the composite state label used in events.
func StateOf(b *Booking) string {
	return b.Status + "/" + b.AssignmentStatus
}
