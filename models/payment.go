package models

import "time"

// PaymentIntentRequest asks for a payment intent for an existing booking.
type PaymentIntentRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
}

// PaymentIntentResponse is returned to the frontend to complete the payment.
type PaymentIntentResponse struct {
	BookingID    string `json:"booking_id"`
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// PaymentRecord is the stored trace of a payment attempt for a booking.
type PaymentRecord struct {
	ID        string    `bson:"id" json:"id"`
	BookingID string    `bson:"booking_id" json:"booking_id"`
	Provider  string    `bson:"provider" json:"provider"` // stripe, demo
	Amount    int64     `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
