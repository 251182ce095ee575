package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voctnow/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxConflictRetries bounds how often a transition is re-evaluated after
// losing a version race to another writer.
const maxConflictRetries = 3

const defaultCandidateLimit = 10

// rematchDelay is how long to wait before re-running matching after a
// rejection was saved but the follow-up match failed.
const rematchDelay = 30 * time.Second

// Outcome names what a single engine call did to the booking.
type Outcome string

const (
	OutcomeNoop       Outcome = "noop"
	OutcomeAssigned   Outcome = "assigned"
	OutcomeNoProvider Outcome = "no_provider_available"
	OutcomeAccepted   Outcome = "accepted"
	OutcomeRejected   Outcome = "rejected"
	OutcomeCompleted  Outcome = "completed"
	OutcomeCancelled  Outcome = "cancelled"
)

// Result is the booking state after an engine call.
type Result struct {
	Booking  *models.Booking
	Outcome  Outcome
	Provider *models.Provider
}

// Config tunes matching.
type Config struct {
	// AcceptanceWindow is how long a provider has to answer an offer. Zero
	// disables the deadline.
	AcceptanceWindow time.Duration
	// CandidateLimit caps each directory query.
	CandidateLimit int
}

// Deps are the engine's collaborators. Notifier, Scheduler and Events are
// optional.
type Deps struct {
	Bookings  BookingStore
	Providers ProviderDirectory
	Notifier  Notifier
	Scheduler ExpiryScheduler
	Events    EventSink
	Logger    *zap.Logger
	Now       func() time.Time
}

// Engine drives the booking assignment state machine. All transitions for one
// booking are serialized in-process by a keyed mutex and across processes by
// the store's version check.
type Engine struct {
	bookings  BookingStore
	providers ProviderDirectory
	notifier  Notifier
	scheduler ExpiryScheduler
	events    EventSink
	logger    *zap.Logger
	now       func() time.Time

	cfg   Config
	locks *KeyedMutex
}

func NewEngine(deps Deps, cfg Config) (*Engine, error) {
	if deps.Bookings == nil || deps.Providers == nil {
		return nil, fmt.Errorf("assignment engine initialization error: booking store or provider directory is nil")
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = defaultCandidateLimit
	}
	e := &Engine{
		bookings:  deps.Bookings,
		providers: deps.Providers,
		notifier:  deps.Notifier,
		scheduler: deps.Scheduler,
		events:    deps.Events,
		logger:    deps.Logger,
		now:       deps.Now,
		cfg:       cfg,
		locks:     NewKeyedMutex(),
	}
	if e.notifier == nil {
		e.notifier = noopNotifier{}
	}
	if e.events == nil {
		e.events = noopEvents{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e, nil
}

// SetNotifier swaps the notifier after construction, for collaborators that
// themselves need the engine.
func (e *Engine) SetNotifier(n Notifier) {
	if n == nil {
		n = noopNotifier{}
	}
	e.notifier = n
}

// Get returns the current booking state.
func (e *Engine) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking %s: %w", bookingID, err)
	}
	return b, nil
}

// Assign matches a provider to a paid booking. It only acts on
// confirmed/unassigned or confirmed/no_provider_available bookings and is a
// no-op otherwise, so duplicate payment confirmations are harmless.
func (e *Engine) Assign(ctx context.Context, bookingID string) (*Result, error) {
	return e.AssignAs(ctx, bookingID, models.ActorSystem)
}

// AssignAs is Assign with an explicit actor for the event journal.
func (e *Engine) AssignAs(ctx context.Context, bookingID, actor string) (*Result, error) {
	fx := &effects{}
	defer fx.run()
	unlock := e.locks.Lock(bookingID)
	defer unlock()
	return e.assignLocked(ctx, fx, bookingID, actor)
}

// Resolve applies a provider's answer to an outstanding offer. Answers from
// anyone but the currently assigned provider, or for bookings not in the
// assigned state, are ignored. A rejection excludes the responder for the
// rest of the attempt cycle and immediately re-runs matching.
func (e *Engine) Resolve(ctx context.Context, bookingID string, accepted bool, responderID string) (*Result, error) {
	fx := &effects{}
	defer fx.run()
	unlock := e.locks.Lock(bookingID)
	defer unlock()

	if accepted {
		return e.accept(ctx, fx, bookingID, responderID)
	}

	res, err := e.reject(ctx, fx, bookingID, func(b *models.Booking) bool {
		return b.AssignedProviderID == responderID
	}, models.ActorProvider, models.EventRejected, "declined by provider")
	if err != nil || res.Outcome == OutcomeNoop {
		return res, err
	}
	return e.reassign(ctx, fx, res)
}

// Expire is fired when an offer's acceptance window elapses. It acts like a
// rejection by the assigned provider when the booking is still waiting on the
// same attempt, and does nothing for stale timers. When an earlier rejection
// of that attempt was saved but matching failed afterwards, Expire re-runs
// matching instead.
func (e *Engine) Expire(ctx context.Context, bookingID string, attempt int) (*Result, error) {
	fx := &effects{}
	defer fx.run()
	unlock := e.locks.Lock(bookingID)
	defer unlock()

	res, err := e.reject(ctx, fx, bookingID, func(b *models.Booking) bool {
		return b.AssignmentAttempt == attempt
	}, models.ActorTimer, models.EventExpired, "acceptance window elapsed")
	if err != nil {
		return res, err
	}
	if res.Outcome == OutcomeNoop && !awaitingRematch(res.Booking, attempt) {
		return res, nil
	}
	return e.reassign(ctx, fx, res)
}

// awaitingRematch reports whether b was released from attempt by a rejection
// and never offered to anyone else.
func awaitingRematch(b *models.Booking, attempt int) bool {
	return b != nil &&
		b.Status == models.StatusConfirmed &&
		b.AssignmentStatus == models.AssignmentUnassigned &&
		b.AssignmentAttempt == attempt &&
		len(b.RejectedProviderIDs) > 0
}

// Complete records that the assigned provider delivered the session.
func (e *Engine) Complete(ctx context.Context, bookingID, providerID, notes string) (*Result, error) {
	fx := &effects{}
	defer fx.run()
	unlock := e.locks.Lock(bookingID)
	defer unlock()

	return e.apply(ctx, fx, bookingID, func(b *models.Booking) (*transition, error) {
		if b.AssignedProviderID == "" || b.AssignedProviderID != providerID {
			return nil, ErrNotFound
		}
		if b.Status != models.StatusConfirmed || b.AssignmentStatus != models.AssignmentAccepted {
			return nil, ErrPreconditionFailed
		}
		now := e.now()
		b.Status = models.StatusCompleted
		b.CompletedAt = &now
		if notes != "" {
			b.SessionNotes = notes
		}
		return &transition{
			outcome:    OutcomeCompleted,
			kind:       models.EventCompleted,
			actor:      models.ActorProvider,
			providerID: providerID,
		}, nil
	})
}

// Cancel terminates a booking that has not been completed. Cancelling an
// already cancelled booking is a no-op.
func (e *Engine) Cancel(ctx context.Context, bookingID, reason, actor string) (*Result, error) {
	fx := &effects{}
	defer fx.run()
	unlock := e.locks.Lock(bookingID)
	defer unlock()

	return e.apply(ctx, fx, bookingID, func(b *models.Booking) (*transition, error) {
		switch b.Status {
		case models.StatusCancelled:
			return nil, nil
		case models.StatusCompleted:
			return nil, ErrPreconditionFailed
		}
		wasOffered := b.AssignmentStatus == models.AssignmentAssigned
		attempt := b.AssignmentAttempt
		providerID := b.AssignedProviderID

		now := e.now()
		b.Status = models.StatusCancelled
		b.CancelledAt = &now
		b.CancelReason = reason
		return &transition{
			outcome:    OutcomeCancelled,
			kind:       models.EventCancelled,
			actor:      actor,
			providerID: providerID,
			reason:     reason,
			after: func(ctx context.Context, b *models.Booking) {
				if wasOffered {
					e.cancelDeadline(ctx, b.ID, attempt)
				}
				e.notifier.BookingCancelled(ctx, b, providerID)
			},
		}, nil
	})
}

func (e *Engine) assignLocked(ctx context.Context, fx *effects, bookingID, actor string) (*Result, error) {
	var picked *models.Provider
	res, err := e.apply(ctx, fx, bookingID, func(b *models.Booking) (*transition, error) {
		picked = nil
		if b.Status != models.StatusConfirmed {
			return nil, nil
		}
		switch b.AssignmentStatus {
		case models.AssignmentUnassigned:
		case models.AssignmentNoProviderAvailable:
			// Retrying after an exhausted pool starts a new cycle.
			b.RejectedProviderIDs = nil
		default:
			return nil, nil
		}

		filter := models.CandidateFilter{
			Gender:  b.ProviderGenderPreference,
			Exclude: b.RejectedProviderIDs,
			Limit:   e.cfg.CandidateLimit,
		}
		candidates, err := e.providers.FindCandidates(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("find candidates for booking %s: %w", b.ID, err)
		}

		provider, ok := SelectCandidate(candidates, b.RejectedProviderIDs)
		if !ok {
			b.AssignmentStatus = models.AssignmentNoProviderAvailable
			b.AssignedProviderID = ""
			b.AssignedAt = nil
			return &transition{
				outcome: OutcomeNoProvider,
				kind:    models.EventNoProvider,
				actor:   actor,
				after: func(ctx context.Context, b *models.Booking) {
					e.notifier.NoProviderAvailable(ctx, b)
				},
			}, nil
		}

		now := e.now()
		b.AssignedProviderID = provider.ID
		b.AssignmentStatus = models.AssignmentAssigned
		b.AssignmentAttempt++
		b.AssignedAt = &now
		picked = provider
		return &transition{
			outcome:    OutcomeAssigned,
			kind:       models.EventAssigned,
			actor:      actor,
			providerID: provider.ID,
			after: func(ctx context.Context, b *models.Booking) {
				expiresAt := e.armDeadline(ctx, b)
				e.notifier.AssignmentOffered(ctx, b, provider, expiresAt)
			},
		}, nil
	})
	if res != nil {
		res.Provider = picked
	}
	return res, err
}

func (e *Engine) accept(ctx context.Context, fx *effects, bookingID, responderID string) (*Result, error) {
	return e.apply(ctx, fx, bookingID, func(b *models.Booking) (*transition, error) {
		if b.Status != models.StatusConfirmed ||
			b.AssignmentStatus != models.AssignmentAssigned ||
			b.AssignedProviderID != responderID {
			return nil, nil
		}
		attempt := b.AssignmentAttempt
		now := e.now()
		b.AssignedProviderID = responderID
		b.AssignmentStatus = models.AssignmentAccepted
		b.AcceptedAt = &now
		b.RejectedProviderIDs = nil
		return &transition{
			outcome:    OutcomeAccepted,
			kind:       models.EventAccepted,
			actor:      models.ActorProvider,
			providerID: responderID,
			after: func(ctx context.Context, b *models.Booking) {
				e.cancelDeadline(ctx, b.ID, attempt)
				e.notifier.AssignmentConfirmed(ctx, b)
			},
		}, nil
	})
}

// reject releases the current offer when match holds, recording the
// provider in the exclusion set.
func (e *Engine) reject(ctx context.Context, fx *effects, bookingID string, match func(*models.Booking) bool, actor, kind, reason string) (*Result, error) {
	return e.apply(ctx, fx, bookingID, func(b *models.Booking) (*transition, error) {
		if b.Status != models.StatusConfirmed ||
			b.AssignmentStatus != models.AssignmentAssigned ||
			!match(b) {
			return nil, nil
		}
		attempt := b.AssignmentAttempt
		providerID := b.AssignedProviderID
		if !b.HasRejected(providerID) {
			b.RejectedProviderIDs = append(b.RejectedProviderIDs, providerID)
		}
		b.AssignedProviderID = ""
		b.AssignmentStatus = models.AssignmentUnassigned
		b.AssignedAt = nil
		return &transition{
			outcome:    OutcomeRejected,
			kind:       kind,
			actor:      actor,
			providerID: providerID,
			reason:     reason,
			after: func(ctx context.Context, b *models.Booking) {
				if actor != models.ActorTimer {
					e.cancelDeadline(ctx, b.ID, attempt)
				}
			},
		}, nil
	})
}

// reassign re-runs matching after a rejection. The caller holds the lock. If
// matching fails the booking is left unassigned, so a follow-up Expire for the
// same attempt is armed to try again.
func (e *Engine) reassign(ctx context.Context, fx *effects, rejected *Result) (*Result, error) {
	next, err := e.assignLocked(ctx, fx, rejected.Booking.ID, models.ActorSystem)
	if err != nil {
		b := rejected.Booking
		fx.add(func() { e.scheduleRematch(ctx, b.ID, b.AssignmentAttempt) })
		return rejected, err
	}
	if next.Outcome == OutcomeNoop {
		return rejected, nil
	}
	return next, nil
}

// transition describes a state change planned against a freshly read booking.
type transition struct {
	outcome    Outcome
	kind       string
	actor      string
	providerID string
	reason     string
	after      func(ctx context.Context, b *models.Booking)
}

// effects collects side effects of saved transitions so they run after the
// booking lock is released, in the order they were added.
type effects struct {
	fns []func()
}

func (fx *effects) add(fn func()) {
	fx.fns = append(fx.fns, fn)
}

func (fx *effects) run() {
	for _, fn := range fx.fns {
		fn()
	}
}

// apply reads the booking, lets plan mutate a copy, and writes it back with a
// version check. A nil transition means there is nothing to do. Side effects
// are queued on fx only after the write succeeded.
func (e *Engine) apply(ctx context.Context, fx *effects, bookingID string, plan func(b *models.Booking) (*transition, error)) (*Result, error) {
	for i := 0; i <= maxConflictRetries; i++ {
		current, err := e.Get(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		t, err := plan(next)
		if err != nil {
			return &Result{Booking: current, Outcome: OutcomeNoop}, err
		}
		if t == nil {
			return &Result{Booking: current, Outcome: OutcomeNoop}, nil
		}

		next.UpdatedAt = e.now()
		saved, err := e.bookings.SaveAssignment(ctx, next)
		if err != nil {
			return &Result{Booking: current, Outcome: OutcomeNoop}, fmt.Errorf("save booking %s: %w", bookingID, err)
		}
		if !saved {
			e.logger.Debug("booking version conflict, retrying",
				zap.String("bookingId", bookingID),
				zap.Int("retry", i+1),
			)
			continue
		}

		e.record(ctx, current, next, t)
		if t.after != nil {
			after, b := t.after, next
			fx.add(func() { after(ctx, b) })
		}
		return &Result{Booking: next, Outcome: t.outcome}, nil
	}
	return nil, ErrConflict
}

func (e *Engine) record(ctx context.Context, before, after *models.Booking, t *transition) {
	event := &models.BookingEvent{
		ID:         uuid.New().String(),
		BookingID:  after.ID,
		Kind:       t.kind,
		FromState:  models.StateOf(before),
		ToState:    models.StateOf(after),
		Actor:      t.actor,
		ProviderID: t.providerID,
		Attempt:    after.AssignmentAttempt,
		Reason:     t.reason,
		CreatedAt:  e.now(),
	}
	if err := e.events.Append(ctx, event); err != nil {
		e.logger.Error("failed to record booking event",
			zap.String("bookingId", after.ID),
			zap.String("kind", t.kind),
			zap.Error(err),
		)
	}
	e.logger.Info("booking transition",
		zap.String("bookingId", after.ID),
		zap.String("kind", t.kind),
		zap.String("from", event.FromState),
		zap.String("to", event.ToState),
		zap.String("providerId", t.providerID),
		zap.Int("attempt", after.AssignmentAttempt),
	)
}

func (e *Engine) armDeadline(ctx context.Context, b *models.Booking) *time.Time {
	if e.scheduler == nil || e.cfg.AcceptanceWindow <= 0 {
		return nil
	}
	at := b.AssignedAt.Add(e.cfg.AcceptanceWindow)
	if err := e.scheduler.Schedule(ctx, b.ID, b.AssignmentAttempt, at); err != nil {
		e.logger.Error("failed to schedule acceptance deadline",
			zap.String("bookingId", b.ID),
			zap.Int("attempt", b.AssignmentAttempt),
			zap.Error(err),
		)
		return nil
	}
	return &at
}

func (e *Engine) cancelDeadline(ctx context.Context, bookingID string, attempt int) {
	if e.scheduler == nil || e.cfg.AcceptanceWindow <= 0 {
		return
	}
	if err := e.scheduler.Cancel(ctx, bookingID, attempt); err != nil {
		e.logger.Warn("failed to cancel acceptance deadline",
			zap.String("bookingId", bookingID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

func (e *Engine) scheduleRematch(ctx context.Context, bookingID string, attempt int) {
	if e.scheduler == nil {
		e.logger.Error("booking left unassigned after a failed match; operator retry required",
			zap.String("bookingId", bookingID),
			zap.Int("attempt", attempt),
		)
		return
	}
	at := e.now().Add(rematchDelay)
	if err := e.scheduler.Schedule(ctx, bookingID, attempt, at); err != nil {
		e.logger.Error("failed to schedule rematch",
			zap.String("bookingId", bookingID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return
	}
	e.logger.Warn("matching failed after rejection, retry scheduled",
		zap.String("bookingId", bookingID),
		zap.Int("attempt", attempt),
		zap.Time("at", at),
	)
}
