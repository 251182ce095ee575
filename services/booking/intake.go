package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"voctnow/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a booking id is unknown.
var ErrNotFound = errors.New("booking not found")

// Store is the booking persistence used by intake and listing.
type Store interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error)
}

// EventSink records booking transitions.
type EventSink interface {
	Append(ctx context.Context, event *models.BookingEvent) error
}

// Service creates bookings and serves read queries. It never changes a
// booking after creation; payment and assignment own every later transition.
type Service struct {
	store     Store
	validator *BookingValidator
	events    EventSink
	currency  string
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, v *BookingValidator, events EventSink, currency string, logger *zap.Logger) (*Service, error) {
	if store == nil || v == nil {
		return nil, fmt.Errorf("booking service initialization error: store or validator is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "inr"
	}
	return &Service{
		store:     store,
		validator: v,
		events:    events,
		currency:  strings.ToLower(currency),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create validates the intake payload and stores a new booking in
// pending_payment/unassigned.
func (s *Service) Create(ctx context.Context, in models.BookingInput) (*models.Booking, error) {
	normalize(&in)
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	now := s.now()
	b := &models.Booking{
		ID:                       uuid.New().String(),
		UserID:                   in.UserID,
		ServiceType:              in.ServiceType,
		SessionCount:             in.SessionCount,
		Amount:                   PriceFor(in.SessionCount),
		Currency:                 s.currency,
		CustomerName:             in.CustomerName,
		CustomerPhone:            in.CustomerPhone,
		CustomerEmail:            in.CustomerEmail,
		Address:                  in.Address,
		City:                     in.City,
		Pincode:                  in.Pincode,
		PreferredDate:            in.PreferredDate,
		PreferredTime:            in.PreferredTime,
		ProviderGenderPreference: in.ProviderGenderPreference,
		AssessmentID:             in.AssessmentID,
		Status:                   models.StatusPendingPayment,
		PaymentStatus:            models.PaymentPending,
		AssignmentStatus:         models.AssignmentUnassigned,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}

	s.record(ctx, b)
	s.logger.Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("serviceType", b.ServiceType),
		zap.Int("sessions", b.SessionCount),
		zap.Int64("amount", b.Amount),
	)
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return s.store.ListByProvider(ctx, providerID)
}

func (s *Service) record(ctx context.Context, b *models.Booking) {
	if s.events == nil {
		return
	}
	event := &models.BookingEvent{
		ID:        uuid.New().String(),
		BookingID: b.ID,
		Kind:      models.EventCreated,
		ToState:   models.StateOf(b),
		Actor:     models.ActorClient,
		CreatedAt: b.CreatedAt,
	}
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Error("failed to record booking event", zap.String("bookingId", b.ID), zap.Error(err))
	}
}

func normalize(in *models.BookingInput) {
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.City = strings.TrimSpace(in.City)
	in.Pincode = strings.TrimSpace(in.Pincode)
	in.PreferredTime = strings.TrimSpace(in.PreferredTime)
	in.ProviderGenderPreference = strings.ToLower(strings.TrimSpace(in.ProviderGenderPreference))
	if in.ProviderGenderPreference == "any" || in.ProviderGenderPreference == "no_preference" {
		in.ProviderGenderPreference = ""
	}
}
