package events

import (
	"context"
	"fmt"

	"voctnow/models"

	"go.uber.org/zap"
)

// Journal durably stores booking events.
type Journal interface {
	Append(ctx context.Context, event *models.BookingEvent) error
}

// Publisher fans booking events out to other services.
type Publisher interface {
	Publish(ctx context.Context, event *models.BookingEvent) error
}

// Recorder writes every booking event to the journal and then to the stream.
// Stream failures are logged; the journal is the source of truth.
type Recorder struct {
	journal   Journal
	publisher Publisher
	logger    *zap.Logger
}

// NewRecorder requires a journal; publisher may be nil when no broker is set up.
func NewRecorder(journal Journal, publisher Publisher, logger *zap.Logger) (*Recorder, error) {
	if journal == nil {
		return nil, fmt.Errorf("event recorder initialization error: journal is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{journal: journal, publisher: publisher, logger: logger}, nil
}

func (r *Recorder) Append(ctx context.Context, event *models.BookingEvent) error {
	if err := r.journal.Append(ctx, event); err != nil {
		return err
	}
	if r.publisher == nil {
		return nil
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("failed to publish booking event",
			zap.String("bookingId", event.BookingID),
			zap.String("kind", event.Kind),
			zap.Error(err),
		)
	}
	return nil
}
