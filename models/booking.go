package models

import "time"

// Booking lifecycle status.
const (
	StatusPendingPayment = "pending_payment"
	StatusConfirmed      = "confirmed"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
)

// Payment status.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Assignment status.
const (
	AssignmentUnassigned          = "unassigned"
	AssignmentAssigned            = "assigned"
	AssignmentAccepted            = "accepted"
	AssignmentNoProviderAvailable = "no_provider_available"
)

// Booking is a client's request for N sessions of a service together with its
// payment and provider-assignment state.
type Booking struct {
	ID                       string     `bson:"id" json:"id"`
	UserID                   string     `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ServiceType              string     `bson:"service_type" json:"service_type"`
	SessionCount             int        `bson:"session_count" json:"session_count"`
	Amount                   int64      `bson:"amount" json:"amount"`
	Currency                 string     `bson:"currency" json:"currency"`
	CustomerName             string     `bson:"customer_name" json:"customer_name"`
	CustomerPhone            string     `bson:"customer_phone" json:"customer_phone"`
	CustomerEmail            string     `bson:"customer_email,omitempty" json:"customer_email,omitempty"`
	Address                  string     `bson:"address" json:"address"`
	City                     string     `bson:"city" json:"city"`
	Pincode                  string     `bson:"pincode" json:"pincode"`
	PreferredDate            string     `bson:"preferred_date" json:"preferred_date"`
	PreferredTime            string     `bson:"preferred_time" json:"preferred_time"`
	ProviderGenderPreference string     `bson:"provider_gender_preference,omitempty" json:"provider_gender_preference,omitempty"`
	AssessmentID             string     `bson:"assessment_id,omitempty" json:"assessment_id,omitempty"`
	Status                   string     `bson:"status" json:"status"`
	PaymentStatus            string     `bson:"payment_status" json:"payment_status"`
	PaymentID                string     `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
	AssignedProviderID       string     `bson:"assigned_provider_id,omitempty" json:"assigned_provider_id,omitempty"`
	AssignmentStatus         string     `bson:"assignment_status" json:"assignment_status"`
	RejectedProviderIDs      []string   `bson:"rejected_provider_ids,omitempty" json:"-"`
	AssignmentAttempt        int        `bson:"assignment_attempt" json:"assignment_attempt"`
	AssignedAt               *time.Time `bson:"assigned_at,omitempty" json:"assigned_at,omitempty"`
	AcceptedAt               *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	CompletedAt              *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CancelledAt              *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	SessionNotes             string     `bson:"session_notes,omitempty" json:"session_notes,omitempty"`
	CancelReason             string     `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	Version                  int64      `bson:"version" json:"-"`
	CreatedAt                time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt                time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the booking can no longer transition.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// HasRejected reports whether providerID already declined this booking in the
// current attempt cycle.
func (b *Booking) HasRejected(providerID string) bool {
	for _, id := range b.RejectedProviderIDs {
		if id == providerID {
			return true
		}
	}
	return false
}

// Clone returns a copy that can be mutated without touching the original.
func (b *Booking) Clone() *Booking {
	cp := *b
	if b.RejectedProviderIDs != nil {
		cp.RejectedProviderIDs = append([]string(nil), b.RejectedProviderIDs...)
	}
	return &cp
}

// BookingInput is the intake payload for a new booking.
type BookingInput struct {
	UserID                   string `json:"user_id" validate:"omitempty,max=64"`
	ServiceType              string `json:"service_type" validate:"required,max=64"`
	SessionCount             int    `json:"session_count" validate:"required,min=1,max=90"`
	CustomerName             string `json:"customer_name" validate:"required,max=120"`
	CustomerPhone            string `json:"customer_phone" validate:"required,min=7,max=20"`
	CustomerEmail            string `json:"customer_email" validate:"omitempty,email"`
	Address                  string `json:"address" validate:"required"`
	City                     string `json:"city" validate:"required"`
	Pincode                  string `json:"pincode" validate:"required,numeric,len=6"`
	PreferredDate            string `json:"preferred_date" validate:"required,datetime=2006-01-02"`
	PreferredTime            string `json:"preferred_time" validate:"required,preferred_time"`
	ProviderGenderPreference string `json:"provider_gender_preference" validate:"omitempty,oneof=male female"`
	AssessmentID             string `json:"assessment_id"`
}
