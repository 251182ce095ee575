package bookingRepo

import (
	"context"
	"fmt"

	"voctnow/models"
)

// ErrNotFound is returned when no booking matches the requested id.
var ErrNotFound = fmt.Errorf("booking %w", models.ErrRecordNotFound)

// BookingRepository stores booking documents. Every write after creation is a
// compare-and-swap on the document version.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error)
	// SaveAssignment persists booking if the stored version still equals
	// booking.Version. On success booking.Version is advanced.
	SaveAssignment(ctx context.Context, booking *models.Booking) (bool, error)
	// ConfirmPayment moves a pending_payment booking to confirmed/paid. It
	// reports false when the booking was already past pending_payment.
	ConfirmPayment(ctx context.Context, id, paymentRef string) (bool, error)
	// AttachPayment records the payment reference created for the booking.
	AttachPayment(ctx context.Context, id, paymentRef string) error
}
