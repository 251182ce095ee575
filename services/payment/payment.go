package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voctnow/models"
	"voctnow/services/assignment"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("booking not found")
	ErrAlreadyPaid      = errors.New("booking is already paid")
	ErrDemoDisabled     = errors.New("demo payments are disabled")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// BookingStore is the booking persistence payment needs.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ConfirmPayment(ctx context.Context, id, paymentRef string) (bool, error)
	AttachPayment(ctx context.Context, id, paymentRef string) error
}

// RecordStore keeps a trace of every payment attempt.
type RecordStore interface {
	Create(ctx context.Context, rec *models.PaymentRecord) error
	UpdateStatus(ctx context.Context, id, status string) error
}

// Assigner starts provider matching once a booking is paid.
type Assigner interface {
	Assign(ctx context.Context, bookingID string) (*assignment.Result, error)
}

// IntentCreator creates Stripe payment intents.
type IntentCreator interface {
	Create(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeIntents calls the Stripe API with the globally configured key.
type StripeIntents struct{}

func (StripeIntents) Create(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.New(params)
}

// EventSink records booking transitions.
type EventSink interface {
	Append(ctx context.Context, event *models.BookingEvent) error
}

// Config controls the payment collaborator.
type Config struct {
	WebhookSecret string
	DemoMode      bool
}

// Service confirms payments and hands paid bookings to the assignment engine.
type Service struct {
	bookings BookingStore
	records  RecordStore
	assigner Assigner
	intents  IntentCreator
	dedupe   Deduper
	events   EventSink
	cfg      Config
	logger   *zap.Logger
}

// Deps are the payment service collaborators. Records, Dedupe and Events are
// optional.
type Deps struct {
	Bookings BookingStore
	Records  RecordStore
	Assigner Assigner
	Intents  IntentCreator
	Dedupe   Deduper
	Events   EventSink
	Logger   *zap.Logger
}

func NewService(deps Deps, cfg Config) (*Service, error) {
	if deps.Bookings == nil || deps.Assigner == nil {
		return nil, fmt.Errorf("payment service initialization error: booking store or assigner is nil")
	}
	if deps.Intents == nil {
		deps.Intents = StripeIntents{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Service{
		bookings: deps.Bookings,
		records:  deps.Records,
		assigner: deps.Assigner,
		intents:  deps.Intents,
		dedupe:   deps.Dedupe,
		events:   deps.Events,
		cfg:      cfg,
		logger:   deps.Logger,
	}, nil
}

// CreateIntent opens a Stripe payment intent for an unpaid booking.
func (s *Service) CreateIntent(ctx context.Context, bookingID string) (*models.PaymentIntentResponse, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.StatusPendingPayment {
		return nil, ErrAlreadyPaid
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(b.Amount),
		Currency: stripe.String(b.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(fmt.Sprintf("%d x %s", b.SessionCount, b.ServiceType)),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", b.ID)
	if b.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(b.CustomerEmail)
	}

	pi, err := s.intents.Create(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent for booking %s: %w", b.ID, err)
	}

	if err := s.bookings.AttachPayment(ctx, b.ID, pi.ID); err != nil {
		return nil, err
	}
	s.storeRecord(ctx, pi.ID, b, "stripe", string(pi.Status))

	return &models.PaymentIntentResponse{
		BookingID:    b.ID,
		PaymentID:    pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       b.Amount,
		Currency:     b.Currency,
	}, nil
}

// HandleWebhook verifies and applies one Stripe event. Replayed events are
// acknowledged without side effects.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Warn("stripe webhook rejected", zap.Error(err))
		return ErrInvalidSignature
	}

	key := "stripe:event:" + event.ID
	if s.dedupe != nil {
		first, err := s.dedupe.FirstSeen(ctx, key)
		if err != nil {
			s.logger.Warn("webhook de-duplication unavailable", zap.String("eventId", event.ID), zap.Error(err))
		} else if !first {
			s.logger.Debug("duplicate stripe event ignored", zap.String("eventId", event.ID))
			return nil
		}
	}

	if err := s.applyEvent(ctx, event); err != nil {
		// Stripe redelivers on failure; the redelivery must not be treated as a replay.
		if s.dedupe != nil {
			if ferr := s.dedupe.Forget(context.WithoutCancel(ctx), key); ferr != nil {
				s.logger.Error("failed to release webhook event key", zap.String("eventId", event.ID), zap.Error(ferr))
			}
		}
		return err
	}
	return nil
}

func (s *Service) applyEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}
		bookingID := pi.Metadata["booking_id"]
		if bookingID == "" {
			s.logger.Warn("payment intent without booking", zap.String("paymentId", pi.ID))
			return nil
		}
		s.updateRecord(ctx, pi.ID, "succeeded")
		_, err := s.confirm(ctx, bookingID, pi.ID)
		return err

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}
		s.updateRecord(ctx, pi.ID, "failed")
		s.logger.Info("payment failed", zap.String("paymentId", pi.ID), zap.String("bookingId", pi.Metadata["booking_id"]))
		return nil

	default:
		s.logger.Debug("unhandled stripe event", zap.String("type", string(event.Type)))
		return nil
	}
}

// MockSuccess marks a booking paid without a payment provider. Only for demo
// deployments.
func (s *Service) MockSuccess(ctx context.Context, bookingID string) (*assignment.Result, error) {
	if !s.cfg.DemoMode {
		return nil, ErrDemoDisabled
	}
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	ref := "demo_" + uuid.New().String()
	s.storeRecord(ctx, ref, b, "demo", "succeeded")
	return s.confirm(ctx, bookingID, ref)
}

// confirm marks the booking paid and starts matching. Assign runs even when
// the booking was already confirmed so a lost earlier attempt is retried.
func (s *Service) confirm(ctx context.Context, bookingID, paymentRef string) (*assignment.Result, error) {
	changed, err := s.bookings.ConfirmPayment(ctx, bookingID, paymentRef)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if changed {
		s.logger.Info("payment confirmed", zap.String("bookingId", bookingID), zap.String("paymentId", paymentRef))
		s.record(ctx, bookingID)
	}

	res, err := s.assigner.Assign(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("assign booking %s: %w", bookingID, err)
	}
	return res, nil
}

func (s *Service) load(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) record(ctx context.Context, bookingID string) {
	if s.events == nil {
		return
	}
	event := &models.BookingEvent{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		Kind:      models.EventPaymentConfirmed,
		FromState: models.StatusPendingPayment + "/" + models.AssignmentUnassigned,
		ToState:   models.StatusConfirmed + "/" + models.AssignmentUnassigned,
		Actor:     models.ActorPayment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Error("failed to record booking event", zap.String("bookingId", bookingID), zap.Error(err))
	}
}

func (s *Service) storeRecord(ctx context.Context, id string, b *models.Booking, provider, status string) {
	if s.records == nil {
		return
	}
	now := time.Now().UTC()
	rec := &models.PaymentRecord{
		ID:        id,
		BookingID: b.ID,
		Provider:  provider,
		Amount:    b.Amount,
		Currency:  b.Currency,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		s.logger.Warn("failed to store payment record", zap.String("paymentId", id), zap.Error(err))
	}
}

func (s *Service) updateRecord(ctx context.Context, id, status string) {
	if s.records == nil {
		return
	}
	if err := s.records.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Warn("failed to update payment record", zap.String("paymentId", id), zap.Error(err))
	}
}
