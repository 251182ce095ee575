package notification

import (
	"context"
	"errors"
	"time"

	"voctnow/models"
	"voctnow/services/assignment"

	"go.uber.org/zap"
)

// Pusher delivers frames to live channels.
type Pusher interface {
	SendToClient(ctx context.Context, id string, msg any) (bool, error)
	SendToProvider(ctx context.Context, id string, msg any) (bool, error)
}

// Responder applies a provider's answer to an offer.
type Responder interface {
	Resolve(ctx context.Context, bookingID string, accepted bool, responderID string) (*assignment.Result, error)
}

// Bridge connects the assignment engine to live channels: it pushes outcomes
// to clients and providers and routes provider answers back to the engine.
// Pushes are best effort; an offline recipient sees the same state by polling.
type Bridge struct {
	Registry Pusher
	Engine   Responder
	Alerts   AlertSender
	Logger   *zap.Logger
}

var _ assignment.Notifier = (*Bridge)(nil)

func (b *Bridge) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// NotifyClient pushes payload to the client if connected. Failures are logged.
func (b *Bridge) NotifyClient(ctx context.Context, clientID string, payload any) {
	if clientID == "" || b.Registry == nil {
		return
	}
	delivered, err := b.Registry.SendToClient(ctx, clientID, payload)
	b.logDelivery("client", clientID, delivered, err)
}

// NotifyProvider pushes payload to the provider if connected. Failures are logged.
func (b *Bridge) NotifyProvider(ctx context.Context, providerID string, payload any) {
	if providerID == "" || b.Registry == nil {
		return
	}
	delivered, err := b.Registry.SendToProvider(ctx, providerID, payload)
	b.logDelivery("provider", providerID, delivered, err)
}

func (b *Bridge) logDelivery(kind, id string, delivered bool, err error) {
	switch {
	case err != nil:
		b.logger().Warn("live push failed", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
	case !delivered:
		b.logger().Debug("live push skipped, recipient offline", zap.String("kind", kind), zap.String("id", id))
	}
}

func (b *Bridge) AssignmentOffered(ctx context.Context, booking *models.Booking, p *models.Provider, expiresAt *time.Time) {
	b.NotifyClient(ctx, booking.UserID, models.NewPhysioAssigned(booking.ID, p.FullName))
	b.NotifyProvider(ctx, p.ID, models.NewBookingOffer(booking.ID, expiresAt))
}

func (b *Bridge) AssignmentConfirmed(ctx context.Context, booking *models.Booking) {
	b.NotifyClient(ctx, booking.UserID, models.NewPhysioConfirmed(booking.ID))
}

func (b *Bridge) NoProviderAvailable(ctx context.Context, booking *models.Booking) {
	b.logger().Warn("no provider available for booking",
		zap.String("bookingId", booking.ID),
		zap.String("genderPreference", booking.ProviderGenderPreference),
		zap.Int("excluded", len(booking.RejectedProviderIDs)),
	)
	b.NotifyClient(ctx, booking.UserID, models.NewNoProviderAvailable(booking.ID))
	if b.Alerts != nil {
		b.Alerts.NoProviderAvailable(ctx, booking)
	}
}

func (b *Bridge) BookingCancelled(ctx context.Context, booking *models.Booking, providerID string) {
	msg := models.NewBookingCancelled(booking.ID)
	b.NotifyClient(ctx, booking.UserID, msg)
	b.NotifyProvider(ctx, providerID, msg)
}

// HandleProviderMessage routes one inbound frame from providerID. Frames of
// unknown type or shape are ignored.
func (b *Bridge) HandleProviderMessage(ctx context.Context, providerID string, raw []byte) {
	msg, err := models.DecodeInbound(raw)
	if err != nil {
		b.logger().Debug("ignoring provider frame", zap.String("providerId", providerID), zap.Error(err))
		return
	}

	switch m := msg.(type) {
	case models.BookingResponse:
		if b.Engine == nil {
			return
		}
		res, err := b.Engine.Resolve(ctx, m.BookingID, m.Accepted, providerID)
		if err != nil {
			if errors.Is(err, assignment.ErrNotFound) {
				b.logger().Debug("response for unknown booking", zap.String("bookingId", m.BookingID))
				return
			}
			b.logger().Error("failed to resolve booking response",
				zap.String("bookingId", m.BookingID),
				zap.String("providerId", providerID),
				zap.Error(err),
			)
			return
		}
		b.logger().Info("booking response handled",
			zap.String("bookingId", m.BookingID),
			zap.String("providerId", providerID),
			zap.Bool("accepted", m.Accepted),
			zap.String("outcome", string(res.Outcome)),
		)
	}
}
