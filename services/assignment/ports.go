package assignment

import (
	"context"
	"time"

	"voctnow/models"
)

// BookingStore is the persistence the engine needs. SaveAssignment is a
// compare-and-swap on booking.Version and reports false when it lost.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	SaveAssignment(ctx context.Context, booking *models.Booking) (bool, error)
}

// ProviderDirectory returns candidate providers in a stable order.
type ProviderDirectory interface {
	FindCandidates(ctx context.Context, filter models.CandidateFilter) ([]models.Provider, error)
}

// Notifier pushes assignment outcomes to connected parties. Implementations
// must not block on delivery and must swallow transport failures.
type Notifier interface {
	AssignmentOffered(ctx context.Context, b *models.Booking, p *models.Provider, expiresAt *time.Time)
	AssignmentConfirmed(ctx context.Context, b *models.Booking)
	NoProviderAvailable(ctx context.Context, b *models.Booking)
	BookingCancelled(ctx context.Context, b *models.Booking, providerID string)
}

// ExpiryScheduler arms and disarms the acceptance deadline of one offer.
type ExpiryScheduler interface {
	Schedule(ctx context.Context, bookingID string, attempt int, at time.Time) error
	Cancel(ctx context.Context, bookingID string, attempt int) error
}

// EventSink records booking transitions.
type EventSink interface {
	Append(ctx context.Context, event *models.BookingEvent) error
}

type noopNotifier struct{}

func (noopNotifier) AssignmentOffered(context.Context, *models.Booking, *models.Provider, *time.Time) {}
func (noopNotifier) AssignmentConfirmed(context.Context, *models.Booking)                             {}
func (noopNotifier) NoProviderAvailable(context.Context, *models.Booking)                             {}
func (noopNotifier) BookingCancelled(context.Context, *models.Booking, string)                        {}

type noopEvents struct{}

func (noopEvents) Append(context.Context, *models.BookingEvent) error { return nil }
